package escrow

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"mintworks/mintgate/pkg/ledger"
)

// MaxFreezePeriod is the longest custodial hold an escrow may impose (30 days).
const MaxFreezePeriod = 30 * 24 * time.Hour

// encodedSize is the serialized size of an escrow record:
// pool (32) + allow_thaw (1) + frozen_count (8) + first_mint option (1+8) +
// freeze_period (8).
const encodedSize = 32 + 1 + 8 + 1 + 8 + 8

// Sentinel errors for escrow transitions.
var (
	// ErrAlreadyExists indicates Initialize was called for an escrow that
	// is already active.
	ErrAlreadyExists = errors.New("freeze escrow already exists")

	// ErrExceededMaxFreezePeriod indicates the requested freeze period is
	// longer than MaxFreezePeriod.
	ErrExceededMaxFreezePeriod = errors.New("maximum freeze period exceeded")

	// ErrNotInitialized indicates the escrow record does not exist.
	ErrNotInitialized = errors.New("freeze escrow not initialized")

	// ErrThawNotEnabled indicates the thaw predicate does not hold yet.
	ErrThawNotEnabled = errors.New("thaw is not enabled")

	// ErrUnlockNotEnabled indicates assets are still frozen, so the
	// escrowed funds cannot be released.
	ErrUnlockNotEnabled = errors.New("unlock is not enabled (not all assets are thawed)")
)

// Escrow is the persistent state of one freeze escrow.
type Escrow struct {
	// Pool is the mint pool this escrow belongs to.
	Pool ledger.Address

	// AllowThaw is the manual thaw override set by the authority.
	AllowThaw bool

	// FrozenCount is the number of assets currently under custodial hold.
	FrozenCount uint64

	// FirstMintTime is the unix time of the first custody mint, if any.
	// The freeze period is measured from this moment.
	FirstMintTime *int64

	// FreezePeriod is the custodial hold duration in seconds. Immutable
	// after Initialize.
	FreezePeriod int64
}

// IsThawAllowed reports whether a hold may be released now: the manual
// override is set, the pool is fully redeemed, or the freeze period has
// elapsed since the first custody mint.
func (e *Escrow) IsThawAllowed(pool *ledger.Pool, now time.Time) bool {
	if e.AllowThaw {
		return true
	}
	if pool != nil && pool.FullyRedeemed() {
		return true
	}
	if e.FirstMintTime != nil && now.Unix() >= *e.FirstMintTime+e.FreezePeriod {
		return true
	}
	return false
}

// Marshal serializes the escrow record.
func (e *Escrow) Marshal() []byte {
	buf := make([]byte, encodedSize)
	copy(buf[0:32], e.Pool[:])
	if e.AllowThaw {
		buf[32] = 1
	}
	binary.LittleEndian.PutUint64(buf[33:41], e.FrozenCount)
	if e.FirstMintTime != nil {
		buf[41] = 1
		binary.LittleEndian.PutUint64(buf[42:50], uint64(*e.FirstMintTime))
	}
	binary.LittleEndian.PutUint64(buf[50:58], uint64(e.FreezePeriod))
	return buf
}

// Unmarshal deserializes an escrow record.
func Unmarshal(data []byte) (*Escrow, error) {
	if len(data) != encodedSize {
		return nil, fmt.Errorf("invalid escrow record length: %d (want %d)", len(data), encodedSize)
	}
	e := &Escrow{}
	copy(e.Pool[:], data[0:32])
	e.AllowThaw = data[32] == 1
	e.FrozenCount = binary.LittleEndian.Uint64(data[33:41])
	if data[41] == 1 {
		first := int64(binary.LittleEndian.Uint64(data[42:50]))
		e.FirstMintTime = &first
	}
	e.FreezePeriod = int64(binary.LittleEndian.Uint64(data[50:58]))
	return e, nil
}
