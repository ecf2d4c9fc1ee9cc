// Package session owns every piece of application state for one run of the
// console: storage, history, theme, charts, log and dispatcher.
package session

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tinytelemetry/nlconsole/internal/blobstore"
	"github.com/tinytelemetry/nlconsole/internal/chartsurface"
	"github.com/tinytelemetry/nlconsole/internal/console"
	"github.com/tinytelemetry/nlconsole/internal/dispatch"
	"github.com/tinytelemetry/nlconsole/internal/duckdb"
	"github.com/tinytelemetry/nlconsole/internal/export"
	"github.com/tinytelemetry/nlconsole/internal/history"
	"github.com/tinytelemetry/nlconsole/internal/model"
	"github.com/tinytelemetry/nlconsole/internal/queryapi"
	"github.com/tinytelemetry/nlconsole/internal/theme"
)

// Options configures Open.
type Options struct {
	APIURL         string
	RequestTimeout time.Duration
	DBPath         string
	QueryTimeout   time.Duration
	// Ephemeral keeps all state in memory and writes nothing to disk
	// except explicit exports.
	Ephemeral    bool
	ExportDir    string
	Skin         string
	ConfigDir    string
	ShareCommand string
	HistoryLimit int
}

// Session is the application state object.
type Session struct {
	Store      *duckdb.Store // nil when ephemeral
	Blobs      model.BlobStore
	History    *history.Store
	Theme      *theme.Manager
	Surface    *chartsurface.Terminal
	Log        *console.Log
	Client     *queryapi.Client
	Exporter   *export.Writer
	Dispatcher *dispatch.Dispatcher
}

// Open builds a session. A skin that fails to load is logged and replaced by
// the default; storage failures are returned.
func Open(opts Options) (*Session, error) {
	s := &Session{}

	if opts.Ephemeral {
		s.Blobs = blobstore.NewMemory(nil)
	} else {
		store, err := duckdb.NewStore(opts.DBPath, opts.QueryTimeout)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		s.Store = store
		s.Blobs = store
	}

	var histOpts []history.Option
	if opts.HistoryLimit > 0 {
		histOpts = append(histOpts, history.WithLimit(opts.HistoryLimit))
	}
	hist, err := history.New(s.Blobs, histOpts...)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load history: %w", err)
	}
	s.History = hist

	skin, err := theme.LoadSkin(opts.Skin, opts.ConfigDir)
	if err != nil {
		log.Printf("session: %v (using default skin)", err)
	}
	s.Theme, err = theme.Load(s.Blobs, skin)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Surface = chartsurface.NewTerminal()
	s.Log = console.NewLog(s.Surface, console.NewActions(opts.ShareCommand))
	s.Client = queryapi.New(queryapi.Config{BaseURL: opts.APIURL, Timeout: opts.RequestTimeout}, nil)

	if s.Store != nil {
		s.Exporter = export.NewWriter(opts.ExportDir, s.Store)
	} else {
		s.Exporter = export.NewWriter(opts.ExportDir, nil)
	}

	s.Dispatcher = dispatch.New(dispatch.Config{
		Asker:    s.Client,
		Log:      s.Log,
		History:  s.History,
		Surface:  s.Surface,
		Exporter: s.Exporter,
	})
	return s, nil
}

// RecentExports lists the newest exports; ephemeral sessions keep none.
func (s *Session) RecentExports(limit int) ([]duckdb.ExportRecord, error) {
	if s.Store == nil {
		return nil, nil
	}
	return s.Store.RecentExports(limit)
}

// Snapshot copies the database to dst.
func (s *Session) Snapshot(dst string) error {
	if s.Store == nil {
		return duckdb.ErrInMemoryStore
	}
	return s.Store.SnapshotTo(dst)
}

// Close releases charts and the database.
func (s *Session) Close() error {
	if s.Surface != nil {
		s.Surface.DestroyAll()
	}
	var errs []error
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		s.Store = nil
	}
	return errors.Join(errs...)
}
