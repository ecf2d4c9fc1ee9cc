// Package dispatch runs the submit cycle: prompt, history, backend call,
// chart, and the final log entry.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/nlconsole/internal/chartinfer"
	"github.com/tinytelemetry/nlconsole/internal/chartsurface"
	"github.com/tinytelemetry/nlconsole/internal/console"
	"github.com/tinytelemetry/nlconsole/internal/export"
	"github.com/tinytelemetry/nlconsole/internal/model"
)

// State is the dispatcher's position in the submit cycle.
type State int

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

// Built-in commands handled without a backend call.
const (
	CommandHelp  = "help"
	CommandClear = "clear"
)

// Asker sends a question to the backend.
type Asker interface {
	Ask(ctx context.Context, question string) (model.Answer, error)
}

// HistoryAdder records submitted questions.
type HistoryAdder interface {
	Add(query string) (model.HistoryEntry, error)
}

// Config wires a Dispatcher.
type Config struct {
	Asker    Asker
	Log      *console.Log
	History  HistoryAdder
	Surface  chartsurface.Surface
	Exporter *export.Writer
	Target   chartsurface.Target
}

// Dispatcher owns the submit state machine. Its methods are safe for
// concurrent use, but only Ticket.Send should run off the UI goroutine.
type Dispatcher struct {
	mu       sync.Mutex
	state    State
	asker    Asker
	log      *console.Log
	history  HistoryAdder
	surface  chartsurface.Surface
	exporter *export.Writer
	target   chartsurface.Target

	// per-entry datasets and charts for exports, plus the latest of each
	datasets  map[int]*export.Dataset
	charts    map[int]chartsurface.Handle
	last      *export.Dataset
	lastChart chartsurface.Handle

	now func() time.Time
}

// New returns an idle dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Log == nil {
		cfg.Log = console.NewLog(cfg.Surface, nil)
	}
	if cfg.Exporter == nil {
		cfg.Exporter = export.NewWriter(".", nil)
	}
	if cfg.Target.Width == 0 {
		cfg.Target.Width = 60
	}
	if cfg.Target.Height == 0 {
		cfg.Target.Height = 10
	}
	return &Dispatcher{
		asker:    cfg.Asker,
		log:      cfg.Log,
		history:  cfg.History,
		surface:  cfg.Surface,
		exporter: cfg.Exporter,
		target:   cfg.Target,
		datasets: make(map[int]*export.Dataset),
		charts:   make(map[int]chartsurface.Handle),
		now:      time.Now,
	}
}

// Ticket is an accepted submission waiting to be sent.
type Ticket struct {
	question string
	asker    Asker
	done     bool
}

// Question returns the trimmed question.
func (t *Ticket) Question() string { return t.question }

// Outcome is the result of Ticket.Send.
type Outcome struct {
	Answer model.Answer
	Err    error
}

// Send performs the backend call. It touches no dispatcher state.
func (t *Ticket) Send(ctx context.Context) Outcome {
	if t.asker == nil {
		return Outcome{Err: &model.NetworkError{Err: errors.New("no backend configured")}}
	}
	ans, err := t.asker.Ask(ctx, t.question)
	return Outcome{Answer: ans, Err: err}
}

// Begin accepts question. It returns a nil ticket for built-in commands,
// which are handled immediately.
func (d *Dispatcher) Begin(question string) (*Ticket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := strings.TrimSpace(question)
	if q == "" {
		return nil, model.ErrEmptyQuestion
	}
	if d.state == StateSending {
		return nil, model.ErrInFlight
	}

	d.log.Append(model.EntryPrompt, q)
	if d.history != nil {
		if _, err := d.history.Add(q); err != nil {
			log.Printf("dispatch: add history: %v", err)
		}
	}

	switch strings.ToLower(q) {
	case CommandHelp:
		d.log.Append(model.EntryResponse, HelpText)
		return nil, nil
	case CommandClear:
		d.clearLocked()
		return nil, nil
	}

	d.state = StateSending
	d.log.ShowLoading()
	return &Ticket{question: q, asker: d.asker}, nil
}

// Complete renders outcome into the log and returns to idle.
func (d *Dispatcher) Complete(t *Ticket, out Outcome) {
	if t == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if t.done {
		return
	}
	t.done = true

	defer func() {
		d.log.HideLoading()
		d.state = StateIdle
	}()

	if out.Err != nil {
		d.log.Append(model.EntryError, errorText(out.Err))
		return
	}

	ans := out.Answer
	ds := &export.Dataset{
		Question:  t.question,
		Timestamp: d.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Rows:      ans.Data,
	}
	d.last = ds
	d.lastChart = chartsurface.NoHandle

	h := chartsurface.NoHandle
	if len(ans.Data) > 0 && d.surface != nil {
		title := ans.Question
		if title == "" {
			title = t.question
		}
		spec := chartinfer.Infer(ans.Data, title)
		var err error
		h, err = d.surface.Render(spec, d.target)
		if err != nil {
			log.Printf("dispatch: chart fell back to text: %v", err)
			h = chartsurface.NoHandle
		}
	}

	e := d.log.AppendResponse(ans.Answer, h)
	d.datasets[e.ID] = ds
	if h != chartsurface.NoHandle {
		d.charts[e.ID] = h
		d.lastChart = h
	}
}

// Submit runs a whole cycle synchronously. Built-in commands return a zero
// Outcome.
func (d *Dispatcher) Submit(ctx context.Context, question string) (Outcome, error) {
	t, err := d.Begin(question)
	if err != nil || t == nil {
		return Outcome{}, err
	}
	out := t.Send(ctx)
	d.Complete(t, out)
	return out, nil
}

// State returns the current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// LastResult returns the most recent successful result, or nil.
func (d *Dispatcher) LastResult() *export.Dataset {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// LastChart returns the handle of the latest answer's chart.
func (d *Dispatcher) LastChart() chartsurface.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastChart
}

// SetTarget resizes charts drawn by later answers.
func (d *Dispatcher) SetTarget(t chartsurface.Target) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target = t
}

// Clear empties the log and forgets every held result.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearLocked()
}

func (d *Dispatcher) clearLocked() {
	d.log.Clear()
	clear(d.datasets)
	clear(d.charts)
	d.last = nil
	d.lastChart = chartsurface.NoHandle
}

// ExportData writes the dataset of entry id, or the latest when id is 0,
// and reports the outcome in the log.
func (d *Dispatcher) ExportData(format string, id int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ds := d.last
	if id != 0 {
		ds = d.datasets[id]
	}
	path, err := d.exporter.WriteData(format, ds)
	if err != nil {
		d.log.Append(model.EntryError, errorText(err))
		return "", err
	}
	d.log.Append(model.EntryResponse, fmt.Sprintf("Data exported as %s successfully\n%s", strings.ToUpper(format), path))
	return path, nil
}

// ExportChart writes the chart of entry id, or the latest when id is 0.
func (d *Dispatcher) ExportChart(id int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h, question := d.lastChart, ""
	if d.last != nil {
		question = d.last.Question
	}
	if id != 0 {
		h = d.charts[id]
		if ds := d.datasets[id]; ds != nil {
			question = ds.Question
		}
	}

	var src export.ImageSource
	if d.surface != nil {
		src = d.surface
	}
	path, err := d.exporter.WriteChart(src, h, question)
	if err != nil {
		d.log.Append(model.EntryError, errorText(err))
		return "", err
	}
	d.log.Append(model.EntryResponse, "Chart exported successfully\n"+path)
	return path, nil
}

// errorText renders err the way the log shows it.
func errorText(err error) string {
	var (
		se *model.ServerError
		ne *model.NetworkError
		ee *model.ExportError
	)
	switch {
	case errors.As(err, &se):
		return "Server Error: " + se.Message
	case errors.As(err, &ne):
		return "Connection Error: " + ne.Error() + "\n\nPlease check your connection and try again."
	case errors.Is(err, model.ErrNoChart):
		return "No chart available to export"
	case errors.Is(err, model.ErrNoData):
		return "No data available to export"
	case errors.As(err, &ee):
		return "Export failed: " + ee.Err.Error()
	default:
		return "Connection Error: " + err.Error()
	}
}
