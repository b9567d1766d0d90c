package guard

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"
)

// StartDate rejects mints before a configured moment.
type StartDate struct {
	noAction

	// Date is the unix time at which minting opens.
	Date int64
}

func (g *StartDate) Kind() Kind { return KindStartDate }

func (g *StartDate) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	if mc.Clock.Now().Unix() < g.Date {
		return fmt.Errorf("%w: opens at %s", ErrMintNotLive, time.Unix(g.Date, 0).UTC().Format(time.RFC3339))
	}
	return nil
}

func (g *StartDate) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(g.Date))
}

func unmarshalStartDate(buf []byte) Guard {
	return &StartDate{Date: int64(binary.LittleEndian.Uint64(buf[0:8]))}
}

// EndDate rejects mints at or after a configured moment.
type EndDate struct {
	noAction

	// Date is the unix time at which minting closes.
	Date int64
}

func (g *EndDate) Kind() Kind { return KindEndDate }

func (g *EndDate) Validate(ctx context.Context, mc *MintContext, ec *EvaluationContext) error {
	if mc.Clock.Now().Unix() >= g.Date {
		return fmt.Errorf("%w: closed at %s", ErrAfterEndDate, time.Unix(g.Date, 0).UTC().Format(time.RFC3339))
	}
	return nil
}

func (g *EndDate) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], uint64(g.Date))
}

func unmarshalEndDate(buf []byte) Guard {
	return &EndDate{Date: int64(binary.LittleEndian.Uint64(buf[0:8]))}
}
