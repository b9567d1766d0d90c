package state

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend implements Backend using an in-memory map. All data is lost
// when the process exits.
type MemoryBackend struct {
	records map[string]*Record
	mu      sync.RWMutex
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		records: make(map[string]*Record),
	}
}

func compositeKey(kind, key string) string {
	return kind + ":" + key
}

// Save persists a record.
func (m *MemoryBackend) Save(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *record
	cp.Value = append([]byte(nil), record.Value...)
	cp.UpdatedAt = time.Now()
	m.records[compositeKey(record.Kind, record.Key)] = &cp
	return nil
}

// Load retrieves a record by (kind, key), or nil if absent.
func (m *MemoryBackend) Load(_ context.Context, kind, key string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[compositeKey(kind, key)]
	if !ok {
		return nil, nil
	}
	cp := *record
	cp.Value = append([]byte(nil), record.Value...)
	return &cp, nil
}

// Delete removes a record by (kind, key).
func (m *MemoryBackend) Delete(_ context.Context, kind, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, compositeKey(kind, key))
	return nil
}

// List returns all records of a kind.
func (m *MemoryBackend) List(_ context.Context, kind string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*Record
	for _, record := range m.records {
		if record.Kind != kind {
			continue
		}
		cp := *record
		cp.Value = append([]byte(nil), record.Value...)
		records = append(records, &cp)
	}
	return records, nil
}

// Close is a no-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}
