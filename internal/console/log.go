// Package console holds the chat-style log shown in the main view.
package console

import (
	"slices"

	"github.com/tinytelemetry/nlconsole/internal/chartsurface"
	"github.com/tinytelemetry/nlconsole/internal/model"
)

// LoadingText is shown while a query is in flight.
const LoadingText = "Processing your query..."

// Entry is one line item of the log.
type Entry struct {
	ID      int
	Kind    model.EntryKind
	Text    string
	Chart   chartsurface.Handle // NoHandle when the entry has no chart
	Actions bool                // copy and share are offered
	Loading bool
}

// HasChart reports whether a chart is embedded in the entry.
func (e Entry) HasChart() bool { return e.Chart != chartsurface.NoHandle }

// Destroyer releases chart instances when the log is cleared.
type Destroyer interface {
	DestroyAll()
}

// Log is an append-only list of entries with at most one loading entry.
// It is not safe for concurrent use; callers serialize access.
type Log struct {
	entries  []Entry
	nextID   int
	revision uint64
	charts   Destroyer
	actions  *Actions
}

// NewLog returns an empty log. charts and actions may be nil.
func NewLog(charts Destroyer, actions *Actions) *Log {
	if actions == nil {
		actions = NewActions("")
	}
	return &Log{charts: charts, actions: actions}
}

func (l *Log) push(e Entry) Entry {
	l.nextID++
	e.ID = l.nextID
	l.entries = append(l.entries, e)
	l.revision++
	return e
}

// Append adds a plain entry.
func (l *Log) Append(kind model.EntryKind, text string) Entry {
	return l.push(Entry{Kind: kind, Text: text})
}

// AppendResponse adds a response with copy/share actions and an optional chart.
func (l *Log) AppendResponse(text string, chart chartsurface.Handle) Entry {
	return l.push(Entry{Kind: model.EntryResponse, Text: text, Chart: chart, Actions: true})
}

// ShowLoading appends the loading entry unless one is already shown.
func (l *Log) ShowLoading() Entry {
	if i := l.loadingIndex(); i >= 0 {
		return l.entries[i]
	}
	return l.push(Entry{Kind: model.EntryResponse, Text: LoadingText, Loading: true})
}

// HideLoading removes the loading entry if present.
func (l *Log) HideLoading() {
	if i := l.loadingIndex(); i >= 0 {
		l.entries = slices.Delete(l.entries, i, i+1)
		l.revision++
	}
}

// Loading reports whether the loading entry is shown.
func (l *Log) Loading() bool { return l.loadingIndex() >= 0 }

func (l *Log) loadingIndex() int {
	return slices.IndexFunc(l.entries, func(e Entry) bool { return e.Loading })
}

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []Entry { return slices.Clone(l.entries) }

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Get looks up an entry by id.
func (l *Log) Get(id int) (Entry, bool) {
	i := slices.IndexFunc(l.entries, func(e Entry) bool { return e.ID == id })
	if i < 0 {
		return Entry{}, false
	}
	return l.entries[i], true
}

// Last returns the newest entry.
func (l *Log) Last() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// LastResponse returns the newest entry that carries actions.
func (l *Log) LastResponse() (Entry, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Actions {
			return l.entries[i], true
		}
	}
	return Entry{}, false
}

// Revision increases on every change; views use it to detect new content.
func (l *Log) Revision() uint64 { return l.revision }

// Clear empties the log and destroys every live chart.
func (l *Log) Clear() {
	l.entries = nil
	l.revision++
	if l.charts != nil {
		l.charts.DestroyAll()
	}
}

// Copy puts the text of entry id on the clipboard.
func (l *Log) Copy(id int) error {
	e, ok := l.Get(id)
	if !ok || !e.Actions {
		return ErrNoSuchEntry
	}
	return l.actions.Copy(e.Text)
}

// Share hands the text of entry id to the share command.
func (l *Log) Share(id int) (ShareResult, error) {
	e, ok := l.Get(id)
	if !ok || !e.Actions {
		return ShareNone, ErrNoSuchEntry
	}
	return l.actions.Share(e.Text)
}
