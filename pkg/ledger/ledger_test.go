package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestDerive_Deterministic(t *testing.T) {
	program := NewAddress("program")
	a := Derive(program, []byte("seed"), []byte{1, 2, 3})
	b := Derive(program, []byte("seed"), []byte{1, 2, 3})
	if !a.Equal(b) {
		t.Error("same inputs must derive the same address")
	}

	c := Derive(program, []byte("seed"), []byte{1, 2, 4})
	if a.Equal(c) {
		t.Error("different seeds must derive different addresses")
	}
	if d := Derive(NewAddress("other"), []byte("seed"), []byte{1, 2, 3}); a.Equal(d) {
		t.Error("different programs must derive different addresses")
	}
}

func TestAddress_FromString(t *testing.T) {
	a := NewAddress("account")
	parsed, err := AddressFromString(a.String())
	if err != nil {
		t.Fatalf("AddressFromString: %v", err)
	}
	if !parsed.Equal(a) {
		t.Error("round trip changed the address")
	}

	if _, err := AddressFromString("zz"); err == nil {
		t.Error("expected error for invalid hex")
	}
	if _, err := AddressFromString("abcd"); err == nil {
		t.Error("expected error for short address")
	}
}

func TestLedger_Transfer(t *testing.T) {
	l := New()
	alice := NewAddress("alice")
	bob := NewAddress("bob")
	l.Credit(alice, 100)

	if err := l.Transfer(alice, bob, 60); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got := l.Balance(alice); got != 40 {
		t.Errorf("alice balance = %d, want 40", got)
	}
	if got := l.Balance(bob); got != 60 {
		t.Errorf("bob balance = %d, want 60", got)
	}

	err := l.Transfer(alice, bob, 41)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := l.Balance(alice); got != 40 {
		t.Errorf("failed transfer must not move funds, alice = %d", got)
	}
}

func TestLedger_TransferUpTo_CapsAtBalance(t *testing.T) {
	l := New()
	alice := NewAddress("alice")
	pool := NewAddress("pool")
	l.Credit(alice, 25)

	if got := l.TransferUpTo(alice, pool, 100); got != 25 {
		t.Errorf("charged %d, want 25", got)
	}
	if got := l.Balance(alice); got != 0 {
		t.Errorf("alice balance = %d, want 0", got)
	}
	if got := l.TransferUpTo(alice, pool, 100); got != 0 {
		t.Errorf("charged %d from empty account, want 0", got)
	}
}

func TestLedger_TokenOperations(t *testing.T) {
	l := New()
	alice := NewAddress("alice")
	bob := NewAddress("bob")
	mint := NewAddress("mint")

	src := l.CreateTokenAccount(alice, mint, 10)
	if src != TokenAccountAddress(alice, mint) {
		t.Fatal("token account address mismatch")
	}

	dst := TokenAccountAddress(bob, mint)
	if err := l.TokenTransfer(src, dst, 4); err != nil {
		t.Fatalf("TokenTransfer: %v", err)
	}
	if err := l.TokenBurn(src, 2); err != nil {
		t.Fatalf("TokenBurn: %v", err)
	}

	account, err := l.TokenAccount(src)
	if err != nil {
		t.Fatalf("TokenAccount: %v", err)
	}
	if account.Amount != 4 {
		t.Errorf("source amount = %d, want 4", account.Amount)
	}

	if err := l.TokenBurn(src, 5); !errors.Is(err, ErrInsufficientTokens) {
		t.Errorf("expected ErrInsufficientTokens, got %v", err)
	}
	if _, err := l.TokenAccount(NewAddress("nope")); !errors.Is(err, ErrUnknownTokenAccount) {
		t.Errorf("expected ErrUnknownTokenAccount, got %v", err)
	}
}

func TestLedger_AssetCustody(t *testing.T) {
	l := New()
	alice := NewAddress("alice")
	collection := NewAddress("collection")
	mint := NewAddress("asset")
	delegate := NewAddress("delegate")

	l.MintAsset(mint, alice, collection, true)

	if err := l.FreezeAsset(mint, delegate); !errors.Is(err, ErrNotDelegate) {
		t.Errorf("freeze without delegate: expected ErrNotDelegate, got %v", err)
	}
	if err := l.ApproveDelegate(mint, delegate); err != nil {
		t.Fatalf("ApproveDelegate: %v", err)
	}
	if err := l.FreezeAsset(mint, delegate); err != nil {
		t.Fatalf("FreezeAsset: %v", err)
	}

	if err := l.BurnAsset(mint); !errors.Is(err, ErrAssetFrozen) {
		t.Errorf("burn frozen: expected ErrAssetFrozen, got %v", err)
	}
	if err := l.TransferAsset(mint, NewAddress("bob")); !errors.Is(err, ErrAssetFrozen) {
		t.Errorf("transfer frozen: expected ErrAssetFrozen, got %v", err)
	}
	if err := l.RevokeDelegate(mint); !errors.Is(err, ErrAssetFrozen) {
		t.Errorf("revoke frozen: expected ErrAssetFrozen, got %v", err)
	}

	if err := l.ThawAsset(mint, NewAddress("stranger")); !errors.Is(err, ErrNotDelegate) {
		t.Errorf("thaw by stranger: expected ErrNotDelegate, got %v", err)
	}
	if err := l.ThawAsset(mint, delegate); err != nil {
		t.Fatalf("ThawAsset: %v", err)
	}
	if err := l.ThawAsset(mint, delegate); !errors.Is(err, ErrAssetNotFrozen) {
		t.Errorf("double thaw: expected ErrAssetNotFrozen, got %v", err)
	}

	if err := l.RevokeDelegate(mint); err != nil {
		t.Fatalf("RevokeDelegate: %v", err)
	}
	asset, err := l.Asset(mint)
	if err != nil {
		t.Fatalf("Asset: %v", err)
	}
	if asset.Delegate != nil {
		t.Error("delegate must be cleared")
	}
}

func TestLedger_PoolRedeem(t *testing.T) {
	l := New()
	pool := NewAddress("pool")
	l.CreatePool(pool, NewAddress("authority"), 2)

	for want := uint64(1); want <= 2; want++ {
		got, err := l.Redeem(pool)
		if err != nil {
			t.Fatalf("Redeem %d: %v", want, err)
		}
		if got != want {
			t.Errorf("redeemed count = %d, want %d", got, want)
		}
	}

	if _, err := l.Redeem(pool); !errors.Is(err, ErrPoolEmpty) {
		t.Errorf("expected ErrPoolEmpty, got %v", err)
	}
	p, err := l.Pool(pool)
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if !p.FullyRedeemed() {
		t.Error("pool must be fully redeemed")
	}
	if _, err := l.Redeem(NewAddress("missing")); !errors.Is(err, ErrUnknownPool) {
		t.Errorf("expected ErrUnknownPool, got %v", err)
	}
}

func TestManualClock(t *testing.T) {
	clock := NewManualClock(time.Unix(1000, 0))
	if got := clock.Now().Unix(); got != 1000 {
		t.Fatalf("Now = %d, want 1000", got)
	}
	clock.Advance(time.Minute)
	if got := clock.Now().Unix(); got != 1060 {
		t.Fatalf("Now after Advance = %d, want 1060", got)
	}
	clock.Set(time.Unix(500, 0))
	if got := clock.Now().Unix(); got != 500 {
		t.Fatalf("Now after Set = %d, want 500", got)
	}
}
