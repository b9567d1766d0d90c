package guard

import (
	"context"
	"encoding/binary"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
)

// TokenBurn destroys a fixed amount of a fungible token from the payer on
// every mint.
type TokenBurn struct {
	noAction

	// Amount is the number of token base units burned per mint.
	Amount uint64

	// Mint identifies the token to burn.
	Mint ledger.Address
}

func (g *TokenBurn) Kind() Kind { return KindTokenBurn }

func (g *TokenBurn) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	r, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	want := ledger.TokenAccountAddress(mc.Payer, g.Mint)
	if !r.Address.Equal(want) {
		return fmt.Errorf("%w: burn token account %s", ErrKeyMismatch, r.Address.Short())
	}
	ec.SetIndex("token_burn", ec.ResourceCursor-1)

	account, err := mc.Ledger.TokenAccount(r.Address)
	if err != nil {
		return fmt.Errorf("%w: no token account for burn mint", ErrNotEnoughTokens)
	}
	if account.Amount < g.Amount {
		return fmt.Errorf("%w: need %d, have %d", ErrNotEnoughTokens, g.Amount, account.Amount)
	}
	return nil
}

func (g *TokenBurn) PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	i, ok := ec.Index("token_burn")
	if !ok {
		return fmt.Errorf("%w: token_burn account", ErrMissingResource)
	}
	r, err := mc.Resource(i)
	if err != nil {
		return err
	}
	if err := mc.Ledger.TokenBurn(r.Address, g.Amount); err != nil {
		return fmt.Errorf("%w: %v", ErrNotEnoughTokens, err)
	}
	return nil
}

func (g *TokenBurn) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], g.Amount)
	copy(buf[8:40], g.Mint[:])
}

func unmarshalTokenBurn(buf []byte) Guard {
	g := &TokenBurn{Amount: binary.LittleEndian.Uint64(buf[0:8])}
	copy(g.Mint[:], buf[8:40])
	return g
}
