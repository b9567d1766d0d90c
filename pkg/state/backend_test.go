package state

import (
	"context"
	"path/filepath"
	"testing"
)

// backends under test share one behavior suite.
func runBackendSuite(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	// Absent records load as nil without error.
	record, err := backend.Load(ctx, KindMintCounter, "missing")
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if record != nil {
		t.Fatal("missing record must load as nil")
	}

	if err := backend.Save(ctx, &Record{Kind: KindMintCounter, Key: "a", Value: []byte{1, 0}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	record, err = backend.Load(ctx, KindMintCounter, "a")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if record == nil || len(record.Value) != 2 || record.Value[0] != 1 {
		t.Fatalf("loaded record = %+v", record)
	}

	// Save is an upsert.
	if err := backend.Save(ctx, &Record{Kind: KindMintCounter, Key: "a", Value: []byte{2, 0}}); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	record, _ = backend.Load(ctx, KindMintCounter, "a")
	if record.Value[0] != 2 {
		t.Errorf("updated value = %d, want 2", record.Value[0])
	}

	// Kinds are separate namespaces.
	if err := backend.Save(ctx, &Record{Kind: KindAllocation, Key: "a", Value: []byte{9, 0, 0, 0}}); err != nil {
		t.Fatalf("Save other kind: %v", err)
	}
	record, _ = backend.Load(ctx, KindMintCounter, "a")
	if record.Value[0] != 2 {
		t.Error("saving under another kind must not clobber")
	}

	records, err := backend.List(ctx, KindMintCounter)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("List returned %d records, want 1", len(records))
	}

	if err := backend.Delete(ctx, KindMintCounter, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	record, _ = backend.Load(ctx, KindMintCounter, "a")
	if record != nil {
		t.Error("deleted record must load as nil")
	}

	// Deleting an absent record is not an error.
	if err := backend.Delete(ctx, KindMintCounter, "a"); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}

func TestMemoryBackend(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()
	runBackendSuite(t, backend)
}

func TestMemoryBackend_CopiesValues(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()
	ctx := context.Background()

	value := []byte{1, 2}
	if err := backend.Save(ctx, &Record{Kind: KindRateLimit, Key: "k", Value: value}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	value[0] = 99

	record, _ := backend.Load(ctx, KindRateLimit, "k")
	if record.Value[0] != 1 {
		t.Error("backend must not alias the caller's slice")
	}
}

func TestSQLiteBackend(t *testing.T) {
	backend, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBackend: %v", err)
	}
	defer backend.Close()
	runBackendSuite(t, backend)
}

func TestSQLiteBackend_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	backend, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("NewSQLiteBackend: %v", err)
	}
	if err := backend.Save(ctx, &Record{Kind: KindFreezeEscrow, Key: "e", Value: []byte{7}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	record, err := reopened.Load(ctx, KindFreezeEscrow, "e")
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if record == nil || record.Value[0] != 7 {
		t.Fatalf("record after reopen = %+v", record)
	}
}

func TestSQLiteBackend_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteBackend(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
