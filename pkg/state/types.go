package state

import (
	"context"
	"time"
)

// Record kinds used by the guards and the escrow store.
const (
	// KindMintCounter tracks per-address mint counts (mint-limit guard).
	KindMintCounter = "mint_counter"

	// KindAllocation tracks per-pool allocation counts (allocation guard).
	KindAllocation = "allocation"

	// KindRateLimit tracks the last mint time per pool (rate-limit guard).
	KindRateLimit = "rate_limit"

	// KindFreezeEscrow holds serialized freeze escrow accounts.
	KindFreezeEscrow = "freeze_escrow"
)

// Record is a single persisted guard record.
type Record struct {
	// Kind classifies the record (KindMintCounter, KindAllocation, ...).
	Kind string

	// Key is the derived address of the record, hex encoded.
	Key string

	// Value is the serialized record payload.
	Value []byte

	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time
}

// Backend is the storage interface for guard records.
type Backend interface {
	// Save persists a record, replacing any existing record with the same
	// (kind, key).
	Save(ctx context.Context, record *Record) error

	// Load retrieves a record by (kind, key). Returns nil if no record
	// exists. Returns an error only on storage failure.
	Load(ctx context.Context, kind, key string) (*Record, error)

	// Delete removes a record by (kind, key). No-op if the record does
	// not exist.
	Delete(ctx context.Context, kind, key string) error

	// List returns all records of a kind.
	List(ctx context.Context, kind string) ([]*Record, error)

	// Close releases any resources held by the backend. The backend must
	// not be used after Close.
	Close() error
}
