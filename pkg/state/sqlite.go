package state

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence. It is
// suitable for single-instance deployments where guard records must survive
// restarts. The database runs in WAL mode for better concurrent read
// performance.
type SQLiteBackend struct {
	db *sql.DB
	mu sync.RWMutex

	closeOnce sync.Once

	saveStmt   *sql.Stmt
	loadStmt   *sql.Stmt
	deleteStmt *sql.Stmt
	listStmt   *sql.Stmt
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a SQLite backend with default settings.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{DBPath: dbPath})
}

// NewSQLiteBackendWithConfig creates a SQLite backend with custom configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles a single writer at a time.
	db.SetMaxOpenConns(1)

	backend := &SQLiteBackend{db: db}
	if err := backend.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return backend, nil
}

func (s *SQLiteBackend) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS guard_records (
		kind       TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (kind, key)
	);
	CREATE INDEX IF NOT EXISTS idx_guard_records_kind ON guard_records(kind);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var err error
	if s.saveStmt, err = s.db.Prepare(
		`INSERT INTO guard_records (kind, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(kind, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	); err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}
	if s.loadStmt, err = s.db.Prepare(
		`SELECT value, updated_at FROM guard_records WHERE kind = ? AND key = ?`,
	); err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}
	if s.deleteStmt, err = s.db.Prepare(
		`DELETE FROM guard_records WHERE kind = ? AND key = ?`,
	); err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	if s.listStmt, err = s.db.Prepare(
		`SELECT key, value, updated_at FROM guard_records WHERE kind = ?`,
	); err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}
	return nil
}

// Save persists a record.
func (s *SQLiteBackend) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.saveStmt.ExecContext(ctx, record.Kind, record.Key, record.Value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save record %s/%s: %w", record.Kind, record.Key, err)
	}
	return nil
}

// Load retrieves a record by (kind, key), or nil if absent.
func (s *SQLiteBackend) Load(ctx context.Context, kind, key string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	var updatedAt int64
	err := s.loadStmt.QueryRowContext(ctx, kind, key).Scan(&value, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s/%s: %w", kind, key, err)
	}
	return &Record{
		Kind:      kind,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Unix(updatedAt, 0),
	}, nil
}

// Delete removes a record by (kind, key).
func (s *SQLiteBackend) Delete(ctx context.Context, kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.deleteStmt.ExecContext(ctx, kind, key); err != nil {
		return fmt.Errorf("failed to delete record %s/%s: %w", kind, key, err)
	}
	return nil
}

// List returns all records of a kind.
func (s *SQLiteBackend) List(ctx context.Context, kind string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list records of kind %s: %w", kind, err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record := &Record{Kind: kind}
		var updatedAt int64
		if err := rows.Scan(&record.Key, &record.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record.UpdatedAt = time.Unix(updatedAt, 0)
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close closes the database and prepared statements.
func (s *SQLiteBackend) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.saveStmt, s.loadStmt, s.deleteStmt, s.listStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}
