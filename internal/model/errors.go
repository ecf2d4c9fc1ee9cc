package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInFlight is returned when a submission arrives while another is sending.
	ErrInFlight = errors.New("a query is already in flight")
	// ErrEmptyQuestion is returned for blank submissions.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrNoChart means an image export was requested with no chart rendered.
	ErrNoChart = errors.New("no chart available to export")
	// ErrNoData means a data export was requested with no result held.
	ErrNoData = errors.New("no data available to export")
	// ErrUnknownHandle is returned by a surface for destroyed or foreign handles.
	ErrUnknownHandle = errors.New("unknown chart handle")
)

// NetworkError is a transport-level failure talking to the backend.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-OK HTTP response from the backend.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// ExportError reports a failed or impossible export.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Format == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s export: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// RenderError wraps a failure while building a chart.
type RenderError struct {
	Kind ChartKind
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s chart: %v", e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
