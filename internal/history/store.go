// Package history keeps the newest-first list of past queries and persists
// it as a JSON blob under the queryHistory key.
package history

import (
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

// MaxEntries is the hard cap on stored entries.
const MaxEntries = model.DefaultHistoryLimit

// TimestampLayout matches the ISO-8601 form browsers produce (millisecond
// precision, UTC "Z").
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Store is the persistent query history. It is safe for concurrent use so
// the HTTP API can share it with the TUI.
type Store struct {
	mu      sync.Mutex
	blobs   model.BlobStore
	entries []model.HistoryEntry
	limit   int
	lastID  int64
	now     func() time.Time
}

var _ model.HistoryAPI = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLimit caps the list below MaxEntries. Values outside 1..MaxEntries
// are clamped.
func WithLimit(n int) Option {
	return func(s *Store) {
		s.limit = max(1, min(n, MaxEntries))
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New loads the history from blobs. Missing or malformed data yields an
// empty list; only a failing blob store is reported as an error.
func New(blobs model.BlobStore, opts ...Option) (*Store, error) {
	s := &Store{
		blobs: blobs,
		limit: MaxEntries,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, ok, err := blobs.Get(model.KeyQueryHistory)
	if err != nil {
		return nil, fmt.Errorf("history: load: %w", err)
	}
	if ok && len(raw) > 0 {
		var entries []model.HistoryEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			log.Printf("history: discarding malformed %s blob: %v", model.KeyQueryHistory, err)
		} else {
			s.entries = sanitize(entries)
		}
	}
	if len(s.entries) > s.limit {
		s.entries = s.entries[:s.limit]
	}
	for _, e := range s.entries {
		s.lastID = max(s.lastID, e.ID)
	}

	if _, ok, err := blobs.Get(model.KeyLegacyFavorites); err == nil && ok {
		if err := blobs.Delete(model.KeyLegacyFavorites); err != nil {
			log.Printf("history: removing legacy %s key: %v", model.KeyLegacyFavorites, err)
		}
	}

	return s, nil
}

// sanitize drops entries without a query and duplicate ids, keeping order.
func sanitize(entries []model.HistoryEntry) []model.HistoryEntry {
	seen := make(map[int64]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if e.Query == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

// Add records query as the newest entry and returns it.
func (s *Store) Add(query string) (model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	entry := model.HistoryEntry{
		ID:        id,
		Query:     query,
		Timestamp: now.Format(TimestampLayout),
	}

	s.entries = slices.Insert(s.entries, 0, entry)
	if len(s.entries) > s.limit {
		s.entries = s.entries[:s.limit]
	}
	return entry, s.persistLocked()
}

// Remove deletes the entry with id. Unknown ids are ignored.
func (s *Store) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}
	s.entries = slices.Delete(s.entries, idx, idx+1)
	return s.persistLocked()
}

// ToggleFavorite flips the favorite flag of id. Unknown ids are ignored.
func (s *Store) ToggleFavorite(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}
	s.entries[idx].Favorite = !s.entries[idx].Favorite
	return s.persistLocked()
}

// Clear drops every entry and removes the persisted blob.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	if err := s.blobs.Delete(model.KeyQueryHistory); err != nil {
		return fmt.Errorf("history: clear: %w", err)
	}
	return nil
}

// List returns a copy of the entries, newest first.
func (s *Store) List() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// Favorites returns the favorite entries, newest first.
func (s *Store) Favorites() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.HistoryEntry
	for _, e := range s.entries {
		if e.Favorite {
			out = append(out, e)
		}
	}
	return out
}

// Get looks up a single entry.
func (s *Store) Get(id int64) (model.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return model.HistoryEntry{}, false
	}
	return s.entries[idx], true
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) indexLocked(id int64) int {
	return slices.IndexFunc(s.entries, func(e model.HistoryEntry) bool { return e.ID == id })
}

func (s *Store) persistLocked() error {
	entries := s.entries
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	if err := s.blobs.Set(model.KeyQueryHistory, data); err != nil {
		return fmt.Errorf("history: persist: %w", err)
	}
	return nil
}
