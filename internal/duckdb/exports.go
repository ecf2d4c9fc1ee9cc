package duckdb

import (
	"fmt"
	"time"
)

// ExportRecord is one artifact written by the export writer.
type ExportRecord struct {
	ExportedAt time.Time
	Format     string
	Path       string
	Query      string
}

// RecordExport appends an entry to the export log.
func (s *Store) RecordExport(format, path, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO export_log (exported_at, format, path, query) VALUES (?, ?, ?, ?)",
		time.Now().UTC(), format, path, query)
	if err != nil {
		return fmt.Errorf("duckdb: record export: %w", err)
	}
	return nil
}

// RecentExports returns the newest export log entries first.
func (s *Store) RecentExports(limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT exported_at, format, path, COALESCE(query, '') FROM export_log ORDER BY exported_at DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("duckdb: recent exports: %w", err)
	}
	defer rows.Close()

	var out []ExportRecord
	for rows.Next() {
		var r ExportRecord
		if err := rows.Scan(&r.ExportedAt, &r.Format, &r.Path, &r.Query); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
