package guard

import (
	"context"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
)

// ThirdPartySigner requires an extra signature on every mint, typically
// from an off-chain approval service.
type ThirdPartySigner struct {
	noAction

	// SignerKey is the account whose signature must accompany the mint.
	SignerKey ledger.Address
}

func (g *ThirdPartySigner) Kind() Kind { return KindThirdPartySigner }

func (g *ThirdPartySigner) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	r, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	if !r.Signer || !r.Address.Equal(g.SignerKey) {
		return fmt.Errorf("%w: third party signer %s", ErrMissingSignature, g.SignerKey.Short())
	}
	return nil
}

func (g *ThirdPartySigner) marshal(buf []byte) {
	copy(buf[0:32], g.SignerKey[:])
}

func unmarshalThirdPartySigner(buf []byte) Guard {
	g := &ThirdPartySigner{}
	copy(g.SignerKey[:], buf[0:32])
	return g
}
