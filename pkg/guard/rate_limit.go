package guard

import (
	"context"
	"encoding/binary"
	"fmt"

	"mintworks/mintgate/pkg/ledger"
	"mintworks/mintgate/pkg/state"
)

// RateLimit allows at most one mint per interval across the whole pool.
// The tracker record stores the unix time of the last successful mint; the
// stamp is written in PostAction so a denied or taxed attempt does not
// consume the window.
type RateLimit struct {
	noAction

	// ID disambiguates multiple rate limits across groups.
	ID uint8

	// Interval is the minimum number of seconds between mints.
	Interval int64
}

func (g *RateLimit) Kind() Kind { return KindRateLimit }

// TrackerKey returns the derived address of the pool's rate limit record.
func (g *RateLimit) TrackerKey(mc *MintContext) ledger.Address {
	return ledger.Derive(mc.ProgramID, []byte("rate_limit"), []byte{g.ID}, mc.GuardID[:], mc.PoolID[:])
}

func (g *RateLimit) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	r, err := ec.ClaimResource(mc)
	if err != nil {
		return err
	}
	key := g.TrackerKey(mc)
	if !r.Address.Equal(key) {
		return fmt.Errorf("%w: rate limit tracker %s", ErrKeyMismatch, r.Address.Short())
	}

	record, err := mc.Records.Load(ctx, state.KindRateLimit, key.String())
	if err != nil {
		return fmt.Errorf("load rate limit: %w", err)
	}
	if record == nil {
		return nil
	}
	if len(record.Value) != 8 {
		return fmt.Errorf("%w: rate limit record", ErrDeserialization)
	}

	last := int64(binary.LittleEndian.Uint64(record.Value))
	if now := mc.Clock.Now().Unix(); now < last+g.Interval {
		return fmt.Errorf("%w: next mint at %d", ErrRateLimitExceeded, last+g.Interval)
	}
	return nil
}

func (g *RateLimit) PostAction(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	value := make([]byte, 8)
	binary.LittleEndian.PutUint64(value, uint64(mc.Clock.Now().Unix()))
	err := mc.Records.Save(ctx, &state.Record{
		Kind:  state.KindRateLimit,
		Key:   g.TrackerKey(mc).String(),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("save rate limit: %w", err)
	}
	return nil
}

func (g *RateLimit) marshal(buf []byte) {
	buf[0] = g.ID
	binary.LittleEndian.PutUint64(buf[1:9], uint64(g.Interval))
}

func unmarshalRateLimit(buf []byte) Guard {
	return &RateLimit{ID: buf[0], Interval: int64(binary.LittleEndian.Uint64(buf[1:9]))}
}
