package duckdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInMemoryStore is returned when snapshotting a store that has no file.
var ErrInMemoryStore = errors.New("duckdb: in-memory store cannot be snapshotted")

const snapshotAlias = "nlconsole_snapshot"

// snapshotTables are compared row for row after the copy.
var snapshotTables = []string{"kv", "export_log", "schema_migrations"}

// DBPath returns the database file, or "" for an in-memory store.
func (s *Store) DBPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dbPath
}

// SnapshotTo copies history, settings and the export log into a new
// database at dstPath. The result opens with NewStore like any other store.
func (s *Store) SnapshotTo(dstPath string) error {
	if s.DBPath() == "" {
		return ErrInMemoryStore
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp := dstPath + ".tmp"
	removeSnapshotFiles(tmp)

	s.mu.Lock()
	err := s.copyDatabase(tmp)
	s.mu.Unlock()
	if err != nil {
		removeSnapshotFiles(tmp)
		return err
	}
	return os.Rename(tmp, dstPath)
}

// copyDatabase attaches path as a fresh database, copies every table into it
// and checks the row counts before detaching. Callers hold s.mu.
func (s *Store) copyDatabase(path string) (err error) {
	ctx := context.Background()

	var source string
	if err := s.db.QueryRowContext(ctx, "SELECT current_database()").Scan(&source); err != nil {
		return fmt.Errorf("snapshot: current database: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("ATTACH %s AS %s", quoteLiteral(path), snapshotAlias)); err != nil {
		return fmt.Errorf("snapshot: attach: %w", err)
	}
	defer func() {
		if _, derr := s.db.ExecContext(ctx, "DETACH "+snapshotAlias); derr != nil && err == nil {
			err = fmt.Errorf("snapshot: detach: %w", derr)
		}
	}()

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("COPY FROM DATABASE %s TO %s", quoteIdent(source), snapshotAlias)); err != nil {
		return fmt.Errorf("snapshot: copy: %w", err)
	}

	for _, table := range snapshotTables {
		var want, got int64
		q := fmt.Sprintf("SELECT (SELECT count(*) FROM %s.main.%s), (SELECT count(*) FROM %s.main.%s)",
			quoteIdent(source), table, snapshotAlias, table)
		if err := s.db.QueryRowContext(ctx, q).Scan(&want, &got); err != nil {
			return fmt.Errorf("snapshot: verify %s: %w", table, err)
		}
		if want != got {
			return fmt.Errorf("snapshot: %s has %d rows, copy has %d", table, want, got)
		}
	}
	return nil
}

func removeSnapshotFiles(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + ".wal")
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
