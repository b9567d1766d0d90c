package guard

import (
	"context"
	"encoding/binary"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
	"mintworks/mintgate/pkg/state"
)

// Allocation caps the total number of mints for one guard set, typically
// used to reserve a slice of the supply for a group. The tracker must be
// initialized by the authority through the route instruction before any
// mint can pass the guard.
type Allocation struct {
	noAction

	// ID disambiguates multiple allocations across groups.
	ID uint8

	// Limit is the total number of mints allowed under this allocation.
	Limit uint32
}

func (g *Allocation) Kind() Kind { return KindAllocation }

// TrackerKey returns the derived address of the allocation record.
func (g *Allocation) TrackerKey(env *Env) ledger.Address {
	return ledger.Derive(env.ProgramID, []byte("allocation"), []byte{g.ID}, env.GuardID[:], env.PoolID[:])
}

func (g *Allocation) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	r, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	key := g.TrackerKey(&mc.Env)
	if !r.Address.Equal(key) {
		return fmt.Errorf("%w: allocation tracker %s", ErrKeyMismatch, r.Address.Short())
	}

	record, err := mc.Records.Load(ctx, state.KindAllocation, key.String())
	if err != nil {
		return fmt.Errorf("load allocation: %w", err)
	}
	if record == nil {
		return fmt.Errorf("%w: id %d", ErrAllocationNotInit, g.ID)
	}
	count, err := decodeAllocationCount(record.Value)
	if err != nil {
		return err
	}
	if count >= g.Limit {
		return fmt.Errorf("%w: limit %d", ErrAllocationLimitReached, g.Limit)
	}
	return nil
}

func (g *Allocation) PreAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	key := g.TrackerKey(&mc.Env)
	record, err := mc.Records.Load(ctx, state.KindAllocation, key.String())
	if err != nil {
		return fmt.Errorf("load allocation: %w", err)
	}
	if record == nil {
		return fmt.Errorf("%w: id %d", ErrAllocationNotInit, g.ID)
	}
	count, err := decodeAllocationCount(record.Value)
	if err != nil {
		return err
	}
	if count == ^uint32(0) {
		return fmt.Errorf("%w: allocation tracker", ErrNumericalOverflow)
	}
	return g.saveCount(ctx, mc.Records, key, count+1)
}

// Instruction initializes (or resets) the allocation tracker to zero.
// Requires the authority's signature among the supplied resources; resource
// zero must be the derived tracker address.
func (g *Allocation) Instruction(ctx context.Context, rc *RouteContext, data []byte) error {
	if !rc.AuthoritySigned() {
		return fmt.Errorf("%w: allocation initialization requires the authority", ErrMissingSignature)
	}
	r, err := rc.Resource(0)
	if err != nil {
		return err
	}
	key := g.TrackerKey(&rc.Env)
	if !r.Address.Equal(key) {
		return fmt.Errorf("%w: allocation tracker %s", ErrKeyMismatch, r.Address.Short())
	}
	return g.saveCount(ctx, rc.Records, key, 0)
}

func (g *Allocation) saveCount(ctx context.Context, records state.Backend, key ledger.Address, count uint32) error {
	value := make([]byte, 4)
	binary.LittleEndian.PutUint32(value, count)
	err := records.Save(ctx, &state.Record{
		Kind:  state.KindAllocation,
		Key:   key.String(),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("save allocation: %w", err)
	}
	return nil
}

func decodeAllocationCount(value []byte) (uint32, error) {
	if len(value) != 4 {
		return 0, fmt.Errorf("%w: allocation record", ErrDeserialization)
	}
	return binary.LittleEndian.Uint32(value), nil
}

func (g *Allocation) marshal(buf []byte) {
	buf[0] = g.ID
	binary.LittleEndian.PutUint32(buf[1:5], g.Limit)
}

func unmarshalAllocation(buf []byte) Guard {
	return &Allocation{ID: buf[0], Limit: binary.LittleEndian.Uint32(buf[1:5])}
}
