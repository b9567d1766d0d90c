package escrow

import (
	"context"
	"fmt"
	"time"

	"mintworks/mintgate/pkg/ledger"
	"mintworks/mintgate/pkg/state"
)

// Store drives escrow state transitions against a state.Backend. Signature
// and authority checks belong to the callers (the custody guards and the
// route dispatcher); the store enforces the state machine itself.
type Store struct {
	backend state.Backend
	clock   ledger.Clock
}

// NewStore creates an escrow store.
func NewStore(backend state.Backend, clock ledger.Clock) *Store {
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	return &Store{backend: backend, clock: clock}
}

// Initialize creates the escrow record for key. It fails with
// ErrAlreadyExists if the escrow is already active and with
// ErrExceededMaxFreezePeriod if the freeze period is out of bounds.
func (s *Store) Initialize(ctx context.Context, key, pool ledger.Address, freezePeriod time.Duration) (*Escrow, error) {
	if freezePeriod > MaxFreezePeriod {
		return nil, ErrExceededMaxFreezePeriod
	}

	record, err := s.backend.Load(ctx, state.KindFreezeEscrow, key.String())
	if err != nil {
		return nil, fmt.Errorf("load escrow %s: %w", key.Short(), err)
	}
	if record != nil {
		return nil, ErrAlreadyExists
	}

	e := &Escrow{
		Pool:         pool,
		FreezePeriod: int64(freezePeriod / time.Second),
	}
	if err := s.save(ctx, key, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Get loads the escrow for key. Returns ErrNotInitialized if absent.
func (s *Store) Get(ctx context.Context, key ledger.Address) (*Escrow, error) {
	record, err := s.backend.Load(ctx, state.KindFreezeEscrow, key.String())
	if err != nil {
		return nil, fmt.Errorf("load escrow %s: %w", key.Short(), err)
	}
	if record == nil {
		return nil, ErrNotInitialized
	}
	return Unmarshal(record.Value)
}

// Freeze records one more asset under custodial hold. The first freeze
// stamps the escrow's first activity time.
func (s *Store) Freeze(ctx context.Context, key ledger.Address) error {
	e, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	e.FrozenCount++
	if e.FirstMintTime == nil {
		first := s.clock.Now().Unix()
		e.FirstMintTime = &first
	}
	return s.save(ctx, key, e)
}

// Thaw releases one custodial hold if the thaw predicate allows it. The
// frozen count saturates at zero.
func (s *Store) Thaw(ctx context.Context, key ledger.Address, pool *ledger.Pool) error {
	e, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if !e.IsThawAllowed(pool, s.clock.Now()) {
		return ErrThawNotEnabled
	}
	if e.FrozenCount > 0 {
		e.FrozenCount--
	}
	return s.save(ctx, key, e)
}

// SetAllowThaw sets the manual thaw override.
func (s *Store) SetAllowThaw(ctx context.Context, key ledger.Address, allow bool) error {
	e, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	e.AllowThaw = allow
	return s.save(ctx, key, e)
}

// Unlock closes the escrow and returns its final state so the caller can
// sweep the escrowed funds. It fails with ErrUnlockNotEnabled while any
// asset remains frozen. An escrow closes exactly once: the record is deleted
// here and a second Unlock reports ErrNotInitialized.
func (s *Store) Unlock(ctx context.Context, key ledger.Address) (*Escrow, error) {
	e, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if e.FrozenCount > 0 {
		return nil, ErrUnlockNotEnabled
	}
	if err := s.backend.Delete(ctx, state.KindFreezeEscrow, key.String()); err != nil {
		return nil, fmt.Errorf("close escrow %s: %w", key.Short(), err)
	}
	return e, nil
}

// List returns the keys and states of all active escrows. Used by the
// manager's sweep job to report thaw-eligible escrows.
func (s *Store) List(ctx context.Context) (map[string]*Escrow, error) {
	records, err := s.backend.List(ctx, state.KindFreezeEscrow)
	if err != nil {
		return nil, fmt.Errorf("list escrows: %w", err)
	}

	escrows := make(map[string]*Escrow, len(records))
	for _, record := range records {
		e, err := Unmarshal(record.Value)
		if err != nil {
			return nil, fmt.Errorf("escrow %s: %w", record.Key, err)
		}
		escrows[record.Key] = e
	}
	return escrows, nil
}

func (s *Store) save(ctx context.Context, key ledger.Address, e *Escrow) error {
	err := s.backend.Save(ctx, &state.Record{
		Kind:  state.KindFreezeEscrow,
		Key:   key.String(),
		Value: e.Marshal(),
	})
	if err != nil {
		return fmt.Errorf("save escrow %s: %w", key.Short(), err)
	}
	return nil
}
