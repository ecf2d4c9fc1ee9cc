package model

// BlobStore is a persistent key-value store of opaque blobs.
// Get returns ok=false for missing keys.
type BlobStore interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Blob store keys.
const (
	KeyTheme        = "theme"
	KeyQueryHistory = "queryHistory"
	// KeyLegacyFavorites held a drifted duplicate of the favorite flags.
	// It is deleted on load and never written.
	KeyLegacyFavorites = "favorites"
)

// HistoryReader is the read side of the history store used by read surfaces.
type HistoryReader interface {
	List() []HistoryEntry
	Favorites() []HistoryEntry
	Get(id int64) (HistoryEntry, bool)
}

// HistoryWriter mutates the history store.
type HistoryWriter interface {
	Add(query string) (HistoryEntry, error)
	Remove(id int64) error
	ToggleFavorite(id int64) error
	Clear() error
}

// HistoryAPI is the unified contract served by the HTTP API.
type HistoryAPI interface {
	HistoryReader
	HistoryWriter
}
