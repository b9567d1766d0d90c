package guard

import (
	"context"
	"encoding/binary"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
)

// TokenPayment charges a fixed amount of a fungible token, transferred from
// the payer's token account to a configured destination token account.
type TokenPayment struct {
	noAction

	// Amount is the price of one mint in token base units.
	Amount uint64

	// Mint identifies the payment token.
	Mint ledger.Address

	// DestinationAccount is the token account that receives the payment.
	DestinationAccount ledger.Address
}

func (g *TokenPayment) Kind() Kind { return KindTokenPayment }

func (g *TokenPayment) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	source, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	want := ledger.TokenAccountAddress(mc.Payer, g.Mint)
	if !source.Address.Equal(want) {
		return fmt.Errorf("%w: payer token account %s", ErrKeyMismatch, source.Address.Short())
	}
	ec.SetIndex("token_payment_source", ec.ResourceCursor-1)

	destination, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	if !destination.Address.Equal(g.DestinationAccount) {
		return fmt.Errorf("%w: payment token destination %s", ErrKeyMismatch, destination.Address.Short())
	}
	ec.SetIndex("token_payment_destination", ec.ResourceCursor-1)

	account, err := mc.Ledger.TokenAccount(source.Address)
	if err != nil {
		return fmt.Errorf("%w: no token account for payment mint", ErrNotEnoughTokens)
	}
	if account.Amount < g.Amount {
		return fmt.Errorf("%w: need %d, have %d", ErrNotEnoughTokens, g.Amount, account.Amount)
	}
	return nil
}

func (g *TokenPayment) PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	si, ok := ec.Index("token_payment_source")
	if !ok {
		return fmt.Errorf("%w: token_payment source", ErrMissingResource)
	}
	di, ok := ec.Index("token_payment_destination")
	if !ok {
		return fmt.Errorf("%w: token_payment destination", ErrMissingResource)
	}
	source, err := mc.Resource(si)
	if err != nil {
		return err
	}
	destination, err := mc.Resource(di)
	if err != nil {
		return err
	}
	if err := mc.Ledger.TokenTransfer(source.Address, destination.Address, g.Amount); err != nil {
		return fmt.Errorf("%w: %v", ErrNotEnoughTokens, err)
	}
	return nil
}

func (g *TokenPayment) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], g.Amount)
	copy(buf[8:40], g.Mint[:])
	copy(buf[40:72], g.DestinationAccount[:])
}

func unmarshalTokenPayment(buf []byte) Guard {
	g := &TokenPayment{Amount: binary.LittleEndian.Uint64(buf[0:8])}
	copy(g.Mint[:], buf[8:40])
	copy(g.DestinationAccount[:], buf[40:72])
	return g
}
