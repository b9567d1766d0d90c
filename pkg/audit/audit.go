// Package audit persists one row per mint attempt and route instruction,
// giving operators a queryable trail of who minted, who was taxed, and
// which guard said no.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Entry is one audited event.
type Entry struct {
	// ID is assigned on record if empty.
	ID string

	// Time is assigned on record if zero.
	Time time.Time

	// RunID links the entry to the pipeline run.
	RunID string

	// Event is "mint" or "route".
	Event string

	// Payer is the requesting account.
	Payer string

	// Pool is the mint pool.
	Pool string

	// Label is the requested group label, if any.
	Label string

	// Outcome is minted, taxed, denied, or error.
	Outcome string

	// FailedGuard is the denying guard kind, if any.
	FailedGuard string

	// FailureCode is the stable guard failure code, if any.
	FailureCode string

	// TaxCollected is the penalty charged on a taxed attempt.
	TaxCollected uint64

	// Redeemed is the pool's redeemed count after a successful mint.
	Redeemed uint64
}

// Log is a SQLite-backed audit trail.
type Log struct {
	db *sql.DB
	mu sync.Mutex

	closeOnce sync.Once

	insertStmt *sql.Stmt
}

// Open creates or opens an audit database.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("audit path cannot be empty")
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	db.SetMaxOpenConns(1)

	l := &Log{db: db}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_entries (
		id            TEXT PRIMARY KEY,
		time          INTEGER NOT NULL,
		run_id        TEXT NOT NULL,
		event         TEXT NOT NULL,
		payer         TEXT NOT NULL,
		pool          TEXT NOT NULL,
		label         TEXT NOT NULL,
		outcome       TEXT NOT NULL,
		failed_guard  TEXT NOT NULL,
		failure_code  TEXT NOT NULL,
		tax_collected INTEGER NOT NULL,
		redeemed      INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_entries_time ON audit_entries(time);
	CREATE INDEX IF NOT EXISTS idx_audit_entries_payer ON audit_entries(payer);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}

	var err error
	l.insertStmt, err = l.db.Prepare(
		`INSERT INTO audit_entries
		 (id, time, run_id, event, payer, pool, label, outcome, failed_guard, failure_code, tax_collected, redeemed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare audit insert: %w", err)
	}
	return nil
}

// Record persists one entry, filling in the ID and timestamp when absent.
func (l *Log) Record(ctx context.Context, e *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	_, err := l.insertStmt.ExecContext(ctx,
		e.ID, e.Time.Unix(), e.RunID, e.Event, e.Payer, e.Pool, e.Label,
		e.Outcome, e.FailedGuard, e.FailureCode, e.TaxCollected, e.Redeemed)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, time, run_id, event, payer, pool, label, outcome, failed_guard, failure_code, tax_collected, redeemed
		 FROM audit_entries ORDER BY time DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var unix int64
		err := rows.Scan(&e.ID, &unix, &e.RunID, &e.Event, &e.Payer, &e.Pool, &e.Label,
			&e.Outcome, &e.FailedGuard, &e.FailureCode, &e.TaxCollected, &e.Redeemed)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Time = time.Unix(unix, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (l *Log) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.insertStmt != nil {
			l.insertStmt.Close()
		}
		err = l.db.Close()
	})
	return err
}
