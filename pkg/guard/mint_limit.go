package guard

import (
	"context"
	"encoding/binary"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
	"mintworks/mintgate/pkg/state"
)

// MintLimit caps the number of mints per wallet. The count lives in a
// per-(id, payer) tracker record, so the same wallet is limited
// independently under different limit ids.
type MintLimit struct {
	noAction

	// ID disambiguates multiple mint limits across groups. Trackers with
	// different ids count separately.
	ID uint8

	// Limit is the maximum number of mints per wallet.
	Limit uint16
}

func (g *MintLimit) Kind() Kind { return KindMintLimit }

// TrackerKey returns the derived address of the payer's counter record.
func (g *MintLimit) TrackerKey(mc *MintContext) ledger.Address {
	return ledger.Derive(mc.ProgramID, []byte{g.ID}, mc.Payer[:], mc.GuardID[:], mc.PoolID[:])
}

func (g *MintLimit) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	r, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	key := g.TrackerKey(mc)
	if !r.Address.Equal(key) {
		return fmt.Errorf("%w: mint counter %s", ErrKeyMismatch, r.Address.Short())
	}

	count, err := g.loadCount(ctx, mc, key)
	if err != nil {
		return err
	}
	if count >= g.Limit {
		return fmt.Errorf("%w: limit %d", ErrMintLimitReached, g.Limit)
	}
	return nil
}

func (g *MintLimit) PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	key := g.TrackerKey(mc)
	count, err := g.loadCount(ctx, mc, key)
	if err != nil {
		return err
	}
	if count == ^uint16(0) {
		return fmt.Errorf("%w: mint counter", ErrNumericalOverflow)
	}

	value := make([]byte, 2)
	binary.LittleEndian.PutUint16(value, count+1)
	err = mc.Records.Save(ctx, &state.Record{
		Kind:  state.KindMintCounter,
		Key:   key.String(),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("save mint counter: %w", err)
	}
	return nil
}

func (g *MintLimit) loadCount(ctx context.Context, mc *MintContext, key ledger.Address) (uint16, error) {
	record, err := mc.Records.Load(ctx, state.KindMintCounter, key.String())
	if err != nil {
		return 0, fmt.Errorf("load mint counter: %w", err)
	}
	if record == nil {
		return 0, nil
	}
	if len(record.Value) != 2 {
		return 0, fmt.Errorf("%w: mint counter record", ErrDeserialization)
	}
	return binary.LittleEndian.Uint16(record.Value), nil
}

func (g *MintLimit) marshal(buf []byte) {
	buf[0] = g.ID
	binary.LittleEndian.PutUint16(buf[1:3], g.Limit)
}

func unmarshalMintLimit(buf []byte) Guard {
	return &MintLimit{ID: buf[0], Limit: binary.LittleEndian.Uint16(buf[1:3])}
}
