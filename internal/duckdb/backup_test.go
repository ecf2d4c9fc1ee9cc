package duckdb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotTo_CopiesStoredBlobs(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nlconsole.duckdb")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	history := []byte(`[{"id":1,"query":"q","timestamp":"t","favorite":false}]`)
	if err := store.Set("queryHistory", history); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set("theme", []byte("light")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.RecordExport("csv", "/tmp/query-results-1.csv", "q"); err != nil {
		t.Fatalf("RecordExport: %v", err)
	}

	snapshotPath := filepath.Join(t.TempDir(), "snapshots", "snapshot.duckdb")
	if err := store.SnapshotTo(snapshotPath); err != nil {
		t.Fatalf("SnapshotTo: %v", err)
	}
	if _, err := os.Stat(snapshotPath + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary snapshot left behind: %v", err)
	}

	snap, err := NewStore(snapshotPath)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	t.Cleanup(func() { _ = snap.Close() })

	got, ok, err := snap.Get("queryHistory")
	if err != nil || !ok {
		t.Fatalf("snapshot Get(queryHistory) = %v, %v", ok, err)
	}
	if string(got) != string(history) {
		t.Errorf("snapshot queryHistory = %s, want %s", got, history)
	}
	if theme, _, _ := snap.Get("theme"); string(theme) != "light" {
		t.Errorf("snapshot theme = %q, want light", theme)
	}
	exports, err := snap.RecentExports(10)
	if err != nil {
		t.Fatalf("snapshot RecentExports: %v", err)
	}
	if len(exports) != 1 || exports[0].Format != "csv" || exports[0].Query != "q" {
		t.Errorf("snapshot exports = %+v", exports)
	}
}

func TestSnapshotTo_ReplacesExistingFile(t *testing.T) {
	t.Parallel()

	store, err := NewStore(filepath.Join(t.TempDir(), "nlconsole.duckdb"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	snapshotPath := filepath.Join(t.TempDir(), "snapshot.duckdb")
	for _, theme := range []string{"dark", "light"} {
		if err := store.Set("theme", []byte(theme)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := store.SnapshotTo(snapshotPath); err != nil {
			t.Fatalf("SnapshotTo: %v", err)
		}
	}

	snap, err := NewStore(snapshotPath)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	t.Cleanup(func() { _ = snap.Close() })
	if theme, _, _ := snap.Get("theme"); string(theme) != "light" {
		t.Errorf("snapshot theme = %q, want light", theme)
	}
}

func TestSnapshotTo_InMemoryStore(t *testing.T) {
	t.Parallel()

	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	err = store.SnapshotTo(filepath.Join(t.TempDir(), "snapshot.duckdb"))
	if !errors.Is(err, ErrInMemoryStore) {
		t.Fatalf("err = %v, want %v", err, ErrInMemoryStore)
	}
}
