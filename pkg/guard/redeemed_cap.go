package guard

import (
	"context"
	"encoding/binary"
	"fmt"
)

// RedeemedCap stops minting once the pool's redeemed count reaches a
// maximum, regardless of the remaining supply.
type RedeemedCap struct {
	noAction

	// Maximum is the redeemed count at which minting stops.
	Maximum uint64
}

func (g *RedeemedCap) Kind() Kind { return KindRedeemedCap }

func (g *RedeemedCap) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	pool, err := mc.Pool()
	if err != nil {
		return fmt.Errorf("load pool: %w", err)
	}
	if pool.ItemsRedeemed >= g.Maximum {
		return fmt.Errorf("%w: cap %d", ErrMaximumRedeemedAmount, g.Maximum)
	}
	return nil
}

func (g *RedeemedCap) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], g.Maximum)
}

func unmarshalRedeemedCap(buf []byte) Guard {
	return &RedeemedCap{Maximum: binary.LittleEndian.Uint64(buf[0:8])}
}
