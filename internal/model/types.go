package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// HistoryEntry is one past query in the persisted history list.
type HistoryEntry struct {
	ID        int64  `json:"id"`
	Query     string `json:"query"`
	Timestamp string `json:"timestamp"` // RFC3339 with milliseconds, UTC
	Favorite  bool   `json:"favorite"`
}

// Field is a single column/value pair of a result row.
// Value is one of string, float64, bool or nil.
type Field struct {
	Name  string
	Value any
}

// Row is an ordered set of fields as returned by the backend.
type Row []Field

// Columns returns the field names in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Name
	}
	return cols
}

// Get returns the value stored under name and whether it exists.
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether the row carries a column with the given name.
func (r Row) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// MarshalJSON encodes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	out := []byte{'{'}
	for i, f := range r {
		if i > 0 {
			out = append(out, ',')
		}
		buf.Reset()
		if err := enc.Encode(f.Name); err != nil {
			return nil, err
		}
		out = append(out, bytes.TrimRight(buf.Bytes(), "\n")...)
		out = append(out, ':')
		buf.Reset()
		if err := enc.Encode(f.Value); err != nil {
			return nil, err
		}
		out = append(out, bytes.TrimRight(buf.Bytes(), "\n")...)
	}
	out = append(out, '}')
	return out, nil
}

// QueryResult is the tabular data attached to a backend answer.
type QueryResult []Row

// Columns returns the column names of the first row, or nil when empty.
func (q QueryResult) Columns() []string {
	if len(q) == 0 {
		return nil
	}
	return q[0].Columns()
}

// Answer is a decoded successful response from the query backend.
type Answer struct {
	Answer   string
	Data     QueryResult
	Question string
}

// EntryKind tags a console log entry.
type EntryKind string

const (
	EntryPrompt   EntryKind = "prompt"
	EntryResponse EntryKind = "response"
	EntryError    EntryKind = "error"
)

// ChartKind is the discriminant of a ChartSpec.
type ChartKind string

const (
	ChartNone           ChartKind = "none"
	ChartCategoricalBar ChartKind = "categorical-bar"
	ChartTimeSeriesLine ChartKind = "time-series-line"
	ChartFallbackBar    ChartKind = "fallback-bar"
)

// ChartSpec is the visualization inferred from a result set.
type ChartSpec struct {
	Kind          ChartKind
	Title         string
	XColumn       string
	YColumn       string
	Labels        []string // full labels, used for tooltips and exports
	DisplayLabels []string // truncated labels for embedded display
	Values        []float64
}

// Empty reports whether there is nothing to draw.
func (c ChartSpec) Empty() bool {
	return c.Kind == ChartNone || len(c.Values) == 0
}

// FormatScalar renders a result value the way the console displays it.
func FormatScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// NumericValue converts a scalar to a float64. Strings are parsed;
// anything that is not a number yields ok=false.
func NumericValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
