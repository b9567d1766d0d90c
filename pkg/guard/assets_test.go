package guard

import (
	"context"
	"errors"
	"testing"

	"mintworks/mintgate/pkg/ledger"
)

func TestAssetGate(t *testing.T) {
	mc, _ := newTestContext(t)
	collection := ledger.NewAddress("collection")
	held := ledger.NewAddress("held-asset")
	mc.Ledger.MintAsset(held, mc.Payer, collection, true)

	g := &AssetGate{RequiredCollection: collection}
	mc.Resources = []Resource{{Address: held}}
	if err := g.Validate(context.Background(), mc, NewEvaluationContext()); err != nil {
		t.Fatalf("holder: %v", err)
	}

	// Unverified collection membership does not count.
	unverified := ledger.NewAddress("unverified-asset")
	mc.Ledger.MintAsset(unverified, mc.Payer, collection, false)
	mc.Resources = []Resource{{Address: unverified}}
	if err := g.Validate(context.Background(), mc, NewEvaluationContext()); !errors.Is(err, ErrInvalidCollection) {
		t.Errorf("unverified: expected ErrInvalidCollection, got %v", err)
	}

	// Someone else's asset does not count either.
	foreign := ledger.NewAddress("foreign-asset")
	mc.Ledger.MintAsset(foreign, ledger.NewAddress("someone"), collection, true)
	mc.Resources = []Resource{{Address: foreign}}
	if err := g.Validate(context.Background(), mc, NewEvaluationContext()); !errors.Is(err, ErrInvalidCollection) {
		t.Errorf("foreign: expected ErrInvalidCollection, got %v", err)
	}
}

func TestAssetBurn(t *testing.T) {
	mc, _ := newTestContext(t)
	collection := ledger.NewAddress("collection")
	asset := ledger.NewAddress("burnable")
	mc.Ledger.MintAsset(asset, mc.Payer, collection, true)

	g := &AssetBurn{RequiredCollection: collection}
	mc.Resources = []Resource{{Address: asset}}

	ec := NewEvaluationContext()
	if err := g.Validate(context.Background(), mc, ec); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := g.PreAction(context.Background(), mc, ec); err != nil {
		t.Fatalf("PreAction: %v", err)
	}
	if _, err := mc.Ledger.Asset(asset); !errors.Is(err, ledger.ErrUnknownAsset) {
		t.Errorf("asset must be burned, got %v", err)
	}
}

func TestAssetPayment(t *testing.T) {
	mc, _ := newTestContext(t)
	collection := ledger.NewAddress("collection")
	destination := ledger.NewAddress("treasury")
	asset := ledger.NewAddress("payment-asset")
	mc.Ledger.MintAsset(asset, mc.Payer, collection, true)

	g := &AssetPayment{RequiredCollection: collection, Destination: destination}
	mc.Resources = []Resource{{Address: asset}, {Address: destination}}

	ec := NewEvaluationContext()
	if err := g.Validate(context.Background(), mc, ec); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := g.PreAction(context.Background(), mc, ec); err != nil {
		t.Fatalf("PreAction: %v", err)
	}

	moved, err := mc.Ledger.Asset(asset)
	if err != nil {
		t.Fatalf("Asset: %v", err)
	}
	if !moved.Owner.Equal(destination) {
		t.Errorf("asset owner = %s, want destination", moved.Owner.Short())
	}
}

func TestAssetPayment_DestinationMismatch(t *testing.T) {
	mc, _ := newTestContext(t)
	collection := ledger.NewAddress("collection")
	asset := ledger.NewAddress("payment-asset")
	mc.Ledger.MintAsset(asset, mc.Payer, collection, true)

	g := &AssetPayment{RequiredCollection: collection, Destination: ledger.NewAddress("treasury")}
	mc.Resources = []Resource{{Address: asset}, {Address: ledger.NewAddress("attacker")}}

	if err := g.Validate(context.Background(), mc, NewEvaluationContext()); !errors.Is(err, ErrKeyMismatch) {
		t.Errorf("expected ErrKeyMismatch, got %v", err)
	}
}
