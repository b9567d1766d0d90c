package guard

import (
	"context"
	"encoding/binary"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
)

// NativePayment charges a fixed amount of native units to a configured
// destination account.
type NativePayment struct {
	noAction

	// Lamports is the price of one mint.
	Lamports uint64

	// Destination receives the payment.
	Destination ledger.Address
}

func (g *NativePayment) Kind() Kind { return KindNativePayment }

func (g *NativePayment) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	r, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	if !r.Address.Equal(g.Destination) {
		return fmt.Errorf("%w: payment destination %s", ErrKeyMismatch, r.Address.Short())
	}
	ec.SetIndex("native_payment", ec.ResourceCursor-1)

	if mc.Ledger.Balance(mc.Payer) < g.Lamports {
		return fmt.Errorf("%w: need %d", ErrNotEnoughFunds, g.Lamports)
	}
	return nil
}

func (g *NativePayment) PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	i, ok := ec.Index("native_payment")
	if !ok {
		return fmt.Errorf("%w: native_payment destination", ErrMissingResource)
	}
	r, err := mc.Resource(i)
	if err != nil {
		return err
	}
	if err := mc.Ledger.Transfer(mc.Payer, r.Address, g.Lamports); err != nil {
		return fmt.Errorf("%w: %v", ErrNotEnoughFunds, err)
	}
	return nil
}

func (g *NativePayment) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], g.Lamports)
	copy(buf[8:40], g.Destination[:])
}

func unmarshalNativePayment(buf []byte) Guard {
	g := &NativePayment{Lamports: binary.LittleEndian.Uint64(buf[0:8])}
	copy(g.Destination[:], buf[8:40])
	return g
}
