package guard

import (
	"context"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
)

// AssetPayment charges one asset from a specific verified collection,
// transferred to a configured destination.
type AssetPayment struct {
	noAction

	// RequiredCollection is the collection the payment asset must belong
	// to.
	RequiredCollection ledger.Address

	// Destination receives the payment asset.
	Destination ledger.Address
}

func (g *AssetPayment) Kind() Kind { return KindAssetPayment }

func (g *AssetPayment) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	if _, err := claimCollectionAsset(mc, ec, g.RequiredCollection, "asset_payment"); err != nil {
		return err
	}

	r, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	if !r.Address.Equal(g.Destination) {
		return fmt.Errorf("%w: asset payment destination %s", ErrKeyMismatch, r.Address.Short())
	}
	return nil
}

func (g *AssetPayment) PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	i, ok := ec.Index("asset_payment")
	if !ok {
		return fmt.Errorf("%w: asset_payment asset", ErrMissingResource)
	}
	r, err := mc.Resource(i)
	if err != nil {
		return err
	}
	if err := mc.Ledger.TransferAsset(r.Address, g.Destination); err != nil {
		return fmt.Errorf("transfer asset %s: %w", r.Address.Short(), err)
	}
	return nil
}

func (g *AssetPayment) marshal(buf []byte) {
	copy(buf[0:32], g.RequiredCollection[:])
	copy(buf[32:64], g.Destination[:])
}

func unmarshalAssetPayment(buf []byte) Guard {
	g := &AssetPayment{}
	copy(g.RequiredCollection[:], buf[0:32])
	copy(g.Destination[:], buf[32:64])
	return g
}
