package guard

import (
	"context"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
)

// AddressGate restricts minting to a single address.
type AddressGate struct {
	noAction

	// Address is the only account allowed to mint.
	Address ledger.Address
}

func (g *AddressGate) Kind() Kind { return KindAddressGate }

func (g *AddressGate) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	if !mc.Minter.Equal(g.Address) {
		return fmt.Errorf("%w: %s", ErrAddressNotAuthorized, mc.Minter.Short())
	}
	return nil
}

func (g *AddressGate) marshal(buf []byte) {
	copy(buf[0:32], g.Address[:])
}

func unmarshalAddressGate(buf []byte) Guard {
	g := &AddressGate{}
	copy(g.Address[:], buf[0:32])
	return g
}
