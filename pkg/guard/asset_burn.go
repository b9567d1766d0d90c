package guard

import (
	"context"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
)

// AssetBurn requires the payer to burn one asset from a specific verified
// collection per mint.
type AssetBurn struct {
	noAction

	// RequiredCollection is the collection the burned asset must belong to.
	RequiredCollection ledger.Address
}

func (g *AssetBurn) Kind() Kind { return KindAssetBurn }

func (g *AssetBurn) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	_, err := claimCollectionAsset(mc, ec, g.RequiredCollection, "asset_burn")
	return err
}

func (g *AssetBurn) PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	i, ok := ec.Index("asset_burn")
	if !ok {
		return fmt.Errorf("%w: asset_burn asset", ErrMissingResource)
	}
	r, err := mc.Resource(i)
	if err != nil {
		return err
	}
	if err := mc.Ledger.BurnAsset(r.Address); err != nil {
		return fmt.Errorf("burn asset %s: %w", r.Address.Short(), err)
	}
	return nil
}

func (g *AssetBurn) marshal(buf []byte) {
	copy(buf[0:32], g.RequiredCollection[:])
}

func unmarshalAssetBurn(buf []byte) Guard {
	g := &AssetBurn{}
	copy(g.RequiredCollection[:], buf[0:32])
	return g
}
