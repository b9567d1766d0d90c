package guard

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"mintworks/mintgate/pkg/escrow"
	"mintworks/mintgate/pkg/ledger"
)

// Freeze instruction opcodes shared by the custody payment guards. The
// instruction data is the opcode byte, followed for Initialize by the
// freeze period in seconds as a little-endian i64.
const (
	freezeInitialize  = 0
	freezeThaw        = 1
	freezeUnlockFunds = 2
)

// FreezeNativePayment charges a fixed amount of native units into a freeze
// escrow and places the minted asset under custodial hold. The payment
// stays in escrow until the authority unlocks it, which requires every
// frozen asset to have been thawed first.
type FreezeNativePayment struct {
	noAction

	// Lamports is the price of one mint.
	Lamports uint64

	// Destination receives the escrowed payments on unlock.
	Destination ledger.Address
}

func (g *FreezeNativePayment) Kind() Kind { return KindFreezeNativePayment }

// EscrowKey returns the derived address of the guard's escrow. Escrowed
// funds accrue at this address until unlock.
func (g *FreezeNativePayment) EscrowKey(env *Env) ledger.Address {
	return ledger.Derive(env.ProgramID, []byte("freeze_native_payment"), g.Destination[:], env.GuardID[:], env.PoolID[:])
}

func (g *FreezeNativePayment) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	r, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	key := g.EscrowKey(&mc.Env)
	if !r.Address.Equal(key) {
		return fmt.Errorf("%w: freeze escrow %s", ErrKeyMismatch, r.Address.Short())
	}
	ec.SetIndex("freeze_native_payment", ec.ResourceCursor-1)

	if _, err := mc.Escrows.Get(ctx, key); err != nil {
		if errors.Is(err, escrow.ErrNotInitialized) {
			return ErrFreezeNotInitialized
		}
		return err
	}
	if mc.Ledger.Balance(mc.Payer) < g.Lamports {
		return fmt.Errorf("%w: need %d", ErrNotEnoughFunds, g.Lamports)
	}
	return nil
}

func (g *FreezeNativePayment) PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	key := g.EscrowKey(&mc.Env)
	if err := mc.Ledger.Transfer(mc.Payer, key, g.Lamports); err != nil {
		return fmt.Errorf("%w: %v", ErrNotEnoughFunds, err)
	}
	return nil
}

func (g *FreezeNativePayment) PostAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	return freezeMintedAsset(ctx, mc, g.EscrowKey(&mc.Env))
}

// Instruction executes the freeze side-channel: Initialize creates the
// escrow, Thaw releases one asset, UnlockFunds sweeps the escrowed
// payments to the destination and closes the escrow.
func (g *FreezeNativePayment) Instruction(ctx context.Context, rc *RouteContext, data []byte) error {
	op, rest, err := parseFreezeInstruction(data)
	if err != nil {
		return err
	}
	key := g.EscrowKey(&rc.Env)

	switch op {
	case freezeInitialize:
		return initializeEscrow(ctx, rc, key, rest)

	case freezeThaw:
		return thawFrozenAsset(ctx, rc, key)

	case freezeUnlockFunds:
		if !rc.AuthoritySigned() {
			return fmt.Errorf("%w: unlock requires the authority", ErrMissingSignature)
		}
		r, err := rc.Resource(0)
		if err != nil {
			return err
		}
		if !r.Address.Equal(g.Destination) {
			return fmt.Errorf("%w: unlock destination %s", ErrKeyMismatch, r.Address.Short())
		}
		if _, err := rc.Escrows.Unlock(ctx, key); err != nil {
			return mapEscrowErr(err)
		}
		if balance := rc.Ledger.Balance(key); balance > 0 {
			if err := rc.Ledger.Transfer(key, g.Destination, balance); err != nil {
				return fmt.Errorf("sweep escrow %s: %w", key.Short(), err)
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: opcode %d", ErrInvalidFreezeInstr, op)
	}
}

func (g *FreezeNativePayment) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], g.Lamports)
	copy(buf[8:40], g.Destination[:])
}

func unmarshalFreezeNativePayment(buf []byte) Guard {
	g := &FreezeNativePayment{Lamports: binary.LittleEndian.Uint64(buf[0:8])}
	copy(g.Destination[:], buf[8:40])
	return g
}

// freezeMintedAsset places the freshly minted asset under the escrow's
// custodial hold and records it in the escrow state.
func freezeMintedAsset(ctx context.Context, mc *MintContext, key ledger.Address) error {
	if err := mc.Ledger.ApproveDelegate(mc.AssetMint, key); err != nil {
		return fmt.Errorf("approve custody delegate: %w", err)
	}
	if err := mc.Ledger.FreezeAsset(mc.AssetMint, key); err != nil {
		return fmt.Errorf("freeze asset %s: %w", mc.AssetMint.Short(), err)
	}
	if err := mc.Escrows.Freeze(ctx, key); err != nil {
		return mapEscrowErr(err)
	}
	return nil
}

// initializeEscrow handles the Initialize opcode: authority-signed escrow
// creation with the freeze period taken from the instruction data.
func initializeEscrow(ctx context.Context, rc *RouteContext, key ledger.Address, rest []byte) error {
	if !rc.AuthoritySigned() {
		return fmt.Errorf("%w: escrow initialization requires the authority", ErrMissingSignature)
	}
	if len(rest) < 8 {
		return ErrMissingFreezePeriod
	}
	period := time.Duration(int64(binary.LittleEndian.Uint64(rest[0:8]))) * time.Second
	if period < 0 {
		return fmt.Errorf("%w: negative period", ErrExceededMaxFreezePeriod)
	}
	if _, err := rc.Escrows.Initialize(ctx, key, rc.PoolID, period); err != nil {
		return mapEscrowErr(err)
	}
	return nil
}

// thawFrozenAsset handles the Thaw opcode. Resource zero names the asset
// to thaw. Thaw is permissionless once the thaw predicate holds.
func thawFrozenAsset(ctx context.Context, rc *RouteContext, key ledger.Address) error {
	r, err := rc.Resource(0)
	if err != nil {
		return err
	}
	pool, err := rc.Pool()
	if err != nil {
		return fmt.Errorf("load pool: %w", err)
	}
	e, err := rc.Escrows.Get(ctx, key)
	if err != nil {
		return mapEscrowErr(err)
	}
	if !e.IsThawAllowed(pool, rc.Clock.Now()) {
		return ErrThawNotEnabled
	}

	asset, err := rc.Ledger.Asset(r.Address)
	if err != nil {
		return fmt.Errorf("load asset %s: %w", r.Address.Short(), err)
	}
	if asset.Frozen {
		if err := rc.Escrows.Thaw(ctx, key, pool); err != nil {
			return mapEscrowErr(err)
		}
		if err := rc.Ledger.ThawAsset(r.Address, key); err != nil {
			return fmt.Errorf("thaw asset %s: %w", r.Address.Short(), err)
		}
	}
	if asset.Delegate != nil && asset.Delegate.Equal(key) {
		if err := rc.Ledger.RevokeDelegate(r.Address); err != nil {
			return fmt.Errorf("revoke custody delegate: %w", err)
		}
	}
	return nil
}

func parseFreezeInstruction(data []byte) (byte, []byte, error) {
	if len(data) == 0 {
		return 0, nil, ErrMissingFreezeInstr
	}
	return data[0], data[1:], nil
}

// mapEscrowErr translates escrow state machine errors into guard failures.
func mapEscrowErr(err error) error {
	switch {
	case errors.Is(err, escrow.ErrNotInitialized):
		return ErrFreezeNotInitialized
	case errors.Is(err, escrow.ErrAlreadyExists):
		return ErrFreezeEscrowExists
	case errors.Is(err, escrow.ErrExceededMaxFreezePeriod):
		return ErrExceededMaxFreezePeriod
	case errors.Is(err, escrow.ErrThawNotEnabled):
		return ErrThawNotEnabled
	case errors.Is(err, escrow.ErrUnlockNotEnabled):
		return ErrUnlockNotEnabled
	default:
		return err
	}
}
