package guard

import (
	"context"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
)

// AssetGate restricts minting to holders of an asset from a specific
// verified collection.
type AssetGate struct {
	noAction

	// RequiredCollection is the collection the payer must hold an asset
	// from.
	RequiredCollection ledger.Address
}

func (g *AssetGate) Kind() Kind { return KindAssetGate }

func (g *AssetGate) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	_, err := claimCollectionAsset(mc, ec, g.RequiredCollection, "asset_gate")
	return err
}

func (g *AssetGate) marshal(buf []byte) {
	copy(buf[0:32], g.RequiredCollection[:])
}

func unmarshalAssetGate(buf []byte) Guard {
	g := &AssetGate{}
	copy(g.RequiredCollection[:], buf[0:32])
	return g
}

// claimCollectionAsset claims the next resource as an asset mint, checks
// that the payer owns it and that it belongs to the required verified
// collection, and records its position under name.
func claimCollectionAsset(mc *MintContext, ec *EvaluationContext, collection ledger.Address, name string) (*ledger.Asset, error) {
	r, err := ec.ClaimResource(mc)
	if err != nil {
		return nil, err
	}
	ec.SetIndex(name, ec.ResourceCursor-1)

	asset, err := mc.Ledger.Asset(r.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: asset %s", ErrInvalidCollection, r.Address.Short())
	}
	if !asset.Owner.Equal(mc.Payer) {
		return nil, fmt.Errorf("%w: asset %s is not held by the payer", ErrInvalidCollection, r.Address.Short())
	}
	if !asset.CollectionVerified || !asset.Collection.Equal(collection) {
		return nil, fmt.Errorf("%w: asset %s", ErrInvalidCollection, r.Address.Short())
	}
	return asset, nil
}
