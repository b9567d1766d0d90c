package guard

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"mintworks/mintgate/pkg/escrow"
	"mintworks/mintgate/pkg/ledger"
)

// FreezeTokenPayment charges a fixed amount of a fungible token into a
// freeze escrow and places the minted asset under custodial hold. The
// tokens stay in the escrow's token account until the authority unlocks
// them into the configured destination account.
type FreezeTokenPayment struct {
	noAction

	// Amount is the price of one mint in token base units.
	Amount uint64

	// Mint identifies the payment token.
	Mint ledger.Address

	// DestinationAccount is the token account that receives the escrowed
	// tokens on unlock.
	DestinationAccount ledger.Address
}

func (g *FreezeTokenPayment) Kind() Kind { return KindFreezeTokenPayment }

// EscrowKey returns the derived address of the guard's escrow.
func (g *FreezeTokenPayment) EscrowKey(env *Env) ledger.Address {
	return ledger.Derive(env.ProgramID, []byte("freeze_token_payment"), g.DestinationAccount[:], env.GuardID[:], env.PoolID[:])
}

// escrowTokenAccount returns the escrow's token account for the payment
// mint.
func (g *FreezeTokenPayment) escrowTokenAccount(env *Env) ledger.Address {
	return ledger.TokenAccountAddress(g.EscrowKey(env), g.Mint)
}

func (g *FreezeTokenPayment) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	r, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	key := g.EscrowKey(&mc.Env)
	if !r.Address.Equal(key) {
		return fmt.Errorf("%w: freeze escrow %s", ErrKeyMismatch, r.Address.Short())
	}

	source, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	want := ledger.TokenAccountAddress(mc.Payer, g.Mint)
	if !source.Address.Equal(want) {
		return fmt.Errorf("%w: payer token account %s", ErrKeyMismatch, source.Address.Short())
	}
	ec.SetIndex("freeze_token_payment_source", ec.ResourceCursor-1)

	if _, err := mc.Escrows.Get(ctx, key); err != nil {
		if errors.Is(err, escrow.ErrNotInitialized) {
			return ErrFreezeNotInitialized
		}
		return err
	}

	account, err := mc.Ledger.TokenAccount(source.Address)
	if err != nil {
		return fmt.Errorf("%w: no token account for payment mint", ErrNotEnoughTokens)
	}
	if account.Amount < g.Amount {
		return fmt.Errorf("%w: need %d, have %d", ErrNotEnoughTokens, g.Amount, account.Amount)
	}
	return nil
}

func (g *FreezeTokenPayment) PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	i, ok := ec.Index("freeze_token_payment_source")
	if !ok {
		return fmt.Errorf("%w: freeze_token_payment source", ErrMissingResource)
	}
	source, err := mc.Resource(i)
	if err != nil {
		return err
	}
	if err := mc.Ledger.TokenTransfer(source.Address, g.escrowTokenAccount(&mc.Env), g.Amount); err != nil {
		return fmt.Errorf("%w: %v", ErrNotEnoughTokens, err)
	}
	return nil
}

func (g *FreezeTokenPayment) PostAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	return freezeMintedAsset(ctx, mc, g.EscrowKey(&mc.Env))
}

// Instruction executes the freeze side-channel for the token variant. The
// opcodes match FreezeNativePayment; UnlockFunds sweeps the escrow's token
// balance into the destination account.
func (g *FreezeTokenPayment) Instruction(ctx context.Context, rc *RouteContext, data []byte) error {
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
		if !r.Address.Equal(g.DestinationAccount) {
			return fmt.Errorf("%w: unlock destination %s", ErrKeyMismatch, r.Address.Short())
		}
		if _, err := rc.Escrows.Unlock(ctx, key); err != nil {
			return mapEscrowErr(err)
		}

		escrowAccount := g.escrowTokenAccount(&rc.Env)
		account, err := rc.Ledger.TokenAccount(escrowAccount)
		if err != nil {
			// No tokens were ever escrowed.
			return nil
		}
		if account.Amount > 0 {
			if err := rc.Ledger.TokenTransfer(escrowAccount, g.DestinationAccount, account.Amount); err != nil {
				return fmt.Errorf("sweep escrow tokens %s: %w", escrowAccount.Short(), err)
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: opcode %d", ErrInvalidFreezeInstr, op)
	}
}

func (g *FreezeTokenPayment) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], g.Amount)
	copy(buf[8:40], g.Mint[:])
	copy(buf[40:72], g.DestinationAccount[:])
}

func unmarshalFreezeTokenPayment(buf []byte) Guard {
	g := &FreezeTokenPayment{Amount: binary.LittleEndian.Uint64(buf[0:8])}
	copy(g.Mint[:], buf[8:40])
	copy(g.DestinationAccount[:], buf[40:72])
	return g
}
