package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mintworks/mintgate/pkg/config"
	"mintworks/mintgate/pkg/guard"
	"mintworks/mintgate/pkg/ledger"
	"mintworks/mintgate/pkg/pipeline"
)

var (
	testProgram   = ledger.NewAddress("program")
	testGuardID   = ledger.NewAddress("guard-policy")
	testAuthority = ledger.NewAddress("authority")
	testPool      = ledger.NewAddress("pool")
	testTreasury  = ledger.NewAddress("treasury")
)

// newGatekeeper builds a gatekeeper over a temp guard data file and a pool
// with ten items.
func newGatekeeper(t *testing.T, data *guard.Data, mutate func(*config.Config)) *Gatekeeper {
	t.Helper()

	raw, err := data.Marshal()
	if err != nil {
		t.Fatalf("marshal guard data: %v", err)
	}
	path := filepath.Join(t.TempDir(), "guard_data.bin")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write guard data: %v", err)
	}

	cfg := config.Default()
	cfg.GuardData.Path = path
	if mutate != nil {
		mutate(cfg)
	}

	l := ledger.New()
	l.CreatePool(testPool, testAuthority, 10)

	g, err := New(Options{
		Config:    cfg,
		Ledger:    l,
		Clock:     ledger.NewManualClock(time.Unix(1_700_000_000, 0)),
		ProgramID: testProgram,
		GuardID:   testGuardID,
		Authority: testAuthority,
		PoolID:    testPool,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestGatekeeper_Mint(t *testing.T) {
	g := newGatekeeper(t, &guard.Data{
		Default: &guard.Set{
			NativePayment: &guard.NativePayment{Lamports: 500_000, Destination: testTreasury},
		},
	}, nil)

	payer := ledger.NewAddress("payer")
	asset := ledger.NewAddress("asset-1")
	g.Ledger().Credit(payer, 2_000_000)

	result, err := g.Mint(context.Background(), MintRequest{
		Payer:     payer,
		AssetMint: asset,
		Resources: []guard.Resource{{Address: testTreasury}},
	})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if result.Outcome != pipeline.OutcomeMinted || result.Redeemed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if got := g.Ledger().Balance(testTreasury); got != 500_000 {
		t.Errorf("treasury balance = %d, want 500000", got)
	}

	// The minter defaults to the payer.
	minted, err := g.Ledger().Asset(asset)
	if err != nil {
		t.Fatalf("Asset: %v", err)
	}
	if !minted.Owner.Equal(payer) {
		t.Errorf("asset owner = %s, want payer", minted.Owner.Short())
	}
}

func TestGatekeeper_Mint_Groups(t *testing.T) {
	publicStart := int64(1_700_000_000 + 3600)
	g := newGatekeeper(t, &guard.Data{
		Default: &guard.Set{
			StartDate: &guard.StartDate{Date: publicStart},
		},
		Groups: []guard.Group{
			{Label: "early", Guards: &guard.Set{
				StartDate:   &guard.StartDate{Date: 0},
				AddressGate: &guard.AddressGate{Address: ledger.NewAddress("vip")},
			}},
			{Label: "public", Guards: &guard.Set{}},
		},
	}, nil)
	ctx := context.Background()

	// Groups exist, so a label is required.
	_, err := g.Mint(ctx, MintRequest{Payer: ledger.NewAddress("payer"), AssetMint: ledger.NewAddress("a1")})
	if !errors.Is(err, guard.ErrRequiredGroupLabel) {
		t.Fatalf("no label: expected ErrRequiredGroupLabel, got %v", err)
	}

	_, err = g.Mint(ctx, MintRequest{Payer: ledger.NewAddress("payer"), AssetMint: ledger.NewAddress("a1"), Label: "vip"})
	if !errors.Is(err, guard.ErrGroupNotFound) {
		t.Fatalf("unknown label: expected ErrGroupNotFound, got %v", err)
	}

	// The early group overrides the start date but gates on an address.
	vip := ledger.NewAddress("vip")
	result, err := g.Mint(ctx, MintRequest{Payer: vip, AssetMint: ledger.NewAddress("a1"), Label: "early"})
	if err != nil {
		t.Fatalf("early mint: %v", err)
	}
	if result.Outcome != pipeline.OutcomeMinted {
		t.Fatalf("early outcome = %s", result.Outcome)
	}

	// The public group inherits the default start date, which is not live.
	_, err = g.Mint(ctx, MintRequest{Payer: ledger.NewAddress("payer"), AssetMint: ledger.NewAddress("a2"), Label: "public"})
	if !errors.Is(err, guard.ErrMintNotLive) {
		t.Fatalf("public mint: expected ErrMintNotLive, got %v", err)
	}
}

func TestGatekeeper_Mint_Taxed(t *testing.T) {
	g := newGatekeeper(t, &guard.Data{
		Default: &guard.Set{
			BotTax:      &guard.BotTax{Lamports: 1000},
			AddressGate: &guard.AddressGate{Address: ledger.NewAddress("chosen-one")},
		},
	}, nil)

	payer := ledger.NewAddress("bot")
	g.Ledger().Credit(payer, 600)

	result, err := g.Mint(context.Background(), MintRequest{Payer: payer, AssetMint: ledger.NewAddress("a1")})
	if err != nil {
		t.Fatalf("taxed mint must not error: %v", err)
	}
	if result.Outcome != pipeline.OutcomeTaxed || result.TaxCollected != 600 {
		t.Fatalf("result = %+v", result)
	}
	if got := g.Ledger().Balance(testPool); got != 600 {
		t.Errorf("pool balance = %d, want 600", got)
	}
	// Nothing was minted.
	if _, err := g.Ledger().Asset(ledger.NewAddress("a1")); !errors.Is(err, ledger.ErrUnknownAsset) {
		t.Errorf("expected no minted asset, got %v", err)
	}
}

func TestGatekeeper_Route_AllocationInit(t *testing.T) {
	alloc := &guard.Allocation{ID: 1, Limit: 5}
	g := newGatekeeper(t, &guard.Data{Default: &guard.Set{Allocation: alloc}}, nil)
	ctx := context.Background()

	tracker := alloc.TrackerKey(&g.env)
	err := g.Route(ctx, RouteRequest{
		Payer: testAuthority,
		Guard: guard.KindAllocation,
		Resources: []guard.Resource{
			{Address: tracker},
			{Address: testAuthority, Signer: true},
		},
	})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	// The tracker is live: a mint passes the allocation guard now.
	result, err := g.Mint(ctx, MintRequest{
		Payer:     ledger.NewAddress("payer"),
		AssetMint: ledger.NewAddress("a1"),
		Resources: []guard.Resource{{Address: tracker}},
	})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if result.Outcome != pipeline.OutcomeMinted {
		t.Fatalf("outcome = %s", result.Outcome)
	}
}

func TestGatekeeper_UpdateGuardData(t *testing.T) {
	g := newGatekeeper(t, &guard.Data{Default: &guard.Set{}}, nil)
	ctx := context.Background()

	update := &guard.Data{
		Default: &guard.Set{
			NativePayment: &guard.NativePayment{Lamports: 100, Destination: testTreasury},
		},
	}
	err := g.UpdateGuardData(ledger.NewAddress("impostor"), update)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("impostor: expected ErrNotAuthorized, got %v", err)
	}

	if err := g.UpdateGuardData(testAuthority, update); err != nil {
		t.Fatalf("UpdateGuardData: %v", err)
	}

	// The new configuration is active: an unfunded payer is now rejected.
	_, err = g.Mint(ctx, MintRequest{
		Payer:     ledger.NewAddress("broke"),
		AssetMint: ledger.NewAddress("a1"),
		Resources: []guard.Resource{{Address: testTreasury}},
	})
	if !errors.Is(err, guard.ErrNotEnoughFunds) {
		t.Fatalf("expected ErrNotEnoughFunds, got %v", err)
	}
}

func TestGatekeeper_LoadGuardData_KeepsLastGood(t *testing.T) {
	g := newGatekeeper(t, &guard.Data{
		Default: &guard.Set{
			AddressGate: &guard.AddressGate{Address: ledger.NewAddress("vip")},
		},
	}, nil)
	ctx := context.Background()

	if err := os.WriteFile(g.cfg.GuardData.Path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if err := g.LoadGuardData(); !errors.Is(err, guard.ErrDeserialization) {
		t.Fatalf("expected ErrDeserialization, got %v", err)
	}

	// The previous buffer is still evaluated.
	_, err := g.Mint(ctx, MintRequest{Payer: ledger.NewAddress("payer"), AssetMint: ledger.NewAddress("a1")})
	if !errors.Is(err, guard.ErrAddressNotAuthorized) {
		t.Fatalf("expected ErrAddressNotAuthorized from the retained config, got %v", err)
	}
}

func TestGatekeeper_AuditTrail(t *testing.T) {
	auditPath := filepath.Join(t.TempDir(), "audit.db")
	g := newGatekeeper(t, &guard.Data{Default: &guard.Set{}}, func(cfg *config.Config) {
		cfg.Audit.Enabled = true
		cfg.Audit.Path = auditPath
	})
	ctx := context.Background()

	payer := ledger.NewAddress("payer")
	if _, err := g.Mint(ctx, MintRequest{Payer: payer, AssetMint: ledger.NewAddress("a1")}); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	entries, err := g.auditLog.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Event != "mint" || e.Outcome != "minted" || e.Payer != payer.String() {
		t.Errorf("entry = %+v", e)
	}
	if e.RunID == "" {
		t.Error("entry must carry the pipeline run id")
	}
}

func TestGatekeeper_Watcher_Reload(t *testing.T) {
	g := newGatekeeper(t, &guard.Data{Default: &guard.Set{}}, func(cfg *config.Config) {
		cfg.GuardData.Watch = true
		cfg.GuardData.DebounceInterval = 20 * time.Millisecond
	})
	ctx := context.Background()

	update := &guard.Data{
		Default: &guard.Set{
			AddressGate: &guard.AddressGate{Address: ledger.NewAddress("vip")},
		},
	}
	raw, err := update.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(g.cfg.GuardData.Path, raw, 0o644); err != nil {
		t.Fatalf("rewrite guard data: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		features, err := guard.Features(g.snapshot())
		if err != nil {
			t.Fatalf("Features: %v", err)
		}
		if features&guard.KindAddressGate.Mask() != 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watcher did not pick up the new configuration")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The reloaded configuration is what mints evaluate now.
	_, err = g.Mint(ctx, MintRequest{Payer: ledger.NewAddress("payer"), AssetMint: ledger.NewAddress("a1")})
	if !errors.Is(err, guard.ErrAddressNotAuthorized) {
		t.Fatalf("expected ErrAddressNotAuthorized, got %v", err)
	}
}
