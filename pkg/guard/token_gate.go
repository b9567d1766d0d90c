package guard

import (
	"context"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
)

// TokenGate restricts minting to holders of a specific token, optionally
// burning one token per mint.
type TokenGate struct {
	noAction

	// Mint identifies the gating token.
	Mint ledger.Address

	// Burn destroys one token from the holder on every mint.
	Burn bool
}

func (g *TokenGate) Kind() Kind { return KindTokenGate }

func (g *TokenGate) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	r, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	want := ledger.TokenAccountAddress(mc.Payer, g.Mint)
	if !r.Address.Equal(want) {
		return fmt.Errorf("%w: gate token account %s", ErrKeyMismatch, r.Address.Short())
	}
	ec.SetIndex("token_gate", ec.ResourceCursor-1)

	account, err := mc.Ledger.TokenAccount(r.Address)
	if err != nil || account.Amount == 0 {
		return fmt.Errorf("%w: gate token %s", ErrNotEnoughTokens, g.Mint.Short())
	}
	return nil
}

func (g *TokenGate) PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	if !g.Burn {
		return nil
	}
	i, ok := ec.Index("token_gate")
	if !ok {
		return fmt.Errorf("%w: token_gate account", ErrMissingResource)
	}
	r, err := mc.Resource(i)
	if err != nil {
		return err
	}
	if err := mc.Ledger.TokenBurn(r.Address, 1); err != nil {
		return fmt.Errorf("%w: %v", ErrNotEnoughTokens, err)
	}
	return nil
}

func (g *TokenGate) marshal(buf []byte) {
	copy(buf[0:32], g.Mint[:])
	if g.Burn {
		buf[32] = 1
	}
}

func unmarshalTokenGate(buf []byte) Guard {
	g := &TokenGate{Burn: buf[32] == 1}
	copy(g.Mint[:], buf[0:32])
	return g
}
