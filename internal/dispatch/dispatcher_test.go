package dispatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/nlconsole/internal/blobstore"
	"github.com/tinytelemetry/nlconsole/internal/chartsurface"
	"github.com/tinytelemetry/nlconsole/internal/console"
	"github.com/tinytelemetry/nlconsole/internal/export"
	"github.com/tinytelemetry/nlconsole/internal/history"
	"github.com/tinytelemetry/nlconsole/internal/model"
)

type stubAsker struct {
	answer model.Answer
	err    error
	calls  []string
}

func (s *stubAsker) Ask(_ context.Context, q string) (model.Answer, error) {
	s.calls = append(s.calls, q)
	return s.answer, s.err
}

// brokenSurface fails every render.
type brokenSurface struct {
	chartsurface.Surface
}

func (brokenSurface) Render(spec model.ChartSpec, _ chartsurface.Target) (chartsurface.Handle, error) {
	return chartsurface.NoHandle, &model.RenderError{Kind: spec.Kind, Err: errors.New("canvas exploded")}
}

type fixture struct {
	d       *Dispatcher
	log     *console.Log
	hist    *history.Store
	asker   *stubAsker
	surface chartsurface.Surface
	dir     string
}

func newFixture(t *testing.T, surface chartsurface.Surface) *fixture {
	t.Helper()
	hist, err := history.New(blobstore.NewMemory(nil))
	require.NoError(t, err)

	if surface == nil {
		surface = chartsurface.NewTerminal(chartsurface.WithImageSize(320, 200))
	}
	l := console.NewLog(surface, nil)
	dir := filepath.Join(t.TempDir(), "exports")
	asker := &stubAsker{}

	d := New(Config{
		Asker:    asker,
		Log:      l,
		History:  hist,
		Surface:  surface,
		Exporter: export.NewWriter(dir, nil),
	})
	return &fixture{d: d, log: l, hist: hist, asker: asker, surface: surface, dir: dir}
}

func chartRows() model.QueryResult {
	return model.QueryResult{
		{{Name: "user", Value: "alice"}, {Name: "result", Value: 3600.0}},
		{{Name: "user", Value: "bob"}, {Name: "result", Value: 7200.0}},
	}
}

func kinds(entries []console.Entry) []model.EntryKind {
	out := make([]model.EntryKind, len(entries))
	for i, e := range entries {
		out[i] = e.Kind
	}
	return out
}

func TestBegin_EmptyQuestion(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.d.Begin("   ")

	assert.ErrorIs(t, err, model.ErrEmptyQuestion)
	assert.Zero(t, f.log.Len())
	assert.Zero(t, f.hist.Len())
}

func TestBegin_LogsPromptHistoryAndLoading(t *testing.T) {
	f := newFixture(t, nil)

	tk, err := f.d.Begin("  how many users?  ")
	require.NoError(t, err)
	require.NotNil(t, tk)

	assert.Equal(t, "how many users?", tk.Question())
	assert.Equal(t, StateSending, f.d.State())
	assert.True(t, f.log.Loading())

	entries := f.log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, model.EntryPrompt, entries[0].Kind)
	assert.Equal(t, "how many users?", entries[0].Text)

	list := f.hist.List()
	require.Len(t, list, 1)
	assert.Equal(t, "how many users?", list[0].Query)
}

func TestBegin_RejectsWhileInFlight(t *testing.T) {
	f := newFixture(t, nil)
	f.asker.answer = model.Answer{Answer: "ok"}

	tk, err := f.d.Begin("first")
	require.NoError(t, err)
	before := f.log.Len()

	_, err = f.d.Begin("second")
	assert.ErrorIs(t, err, model.ErrInFlight)
	assert.Equal(t, before, f.log.Len(), "rejected submission logs nothing")
	assert.Equal(t, 1, f.hist.Len())

	f.d.Complete(tk, tk.Send(context.Background()))
	assert.Equal(t, StateIdle, f.d.State())

	tk2, err := f.d.Begin("third")
	require.NoError(t, err)
	assert.NotNil(t, tk2)
}

func TestSubmit_SuccessWithChart(t *testing.T) {
	f := newFixture(t, nil)
	f.asker.answer = model.Answer{Answer: "bob wins", Data: chartRows(), Question: "hours per user"}

	out, err := f.d.Submit(context.Background(), "hours per user")
	require.NoError(t, err)
	require.NoError(t, out.Err)

	entries := f.log.Entries()
	assert.Equal(t, []model.EntryKind{model.EntryPrompt, model.EntryResponse}, kinds(entries))
	resp := entries[1]
	assert.Equal(t, "bob wins", resp.Text)
	assert.True(t, resp.HasChart())
	assert.True(t, resp.Actions)
	assert.False(t, f.log.Loading())

	assert.Equal(t, resp.Chart, f.d.LastChart())
	last := f.d.LastResult()
	require.NotNil(t, last)
	assert.Equal(t, "hours per user", last.Question)
	assert.Len(t, last.Rows, 2)
}

func TestSubmit_SuccessWithoutRowsIsTextOnly(t *testing.T) {
	f := newFixture(t, nil)
	f.asker.answer = model.Answer{Answer: "nothing to chart"}

	_, err := f.d.Submit(context.Background(), "q")
	require.NoError(t, err)

	resp, ok := f.log.Last()
	require.True(t, ok)
	assert.Equal(t, "nothing to chart", resp.Text)
	assert.False(t, resp.HasChart())
	assert.Equal(t, chartsurface.NoHandle, f.d.LastChart())
	assert.Zero(t, f.surface.Len())
}

func TestSubmit_RenderErrorFallsBackToText(t *testing.T) {
	f := newFixture(t, brokenSurface{})
	f.asker.answer = model.Answer{Answer: "bob wins", Data: chartRows()}

	out, err := f.d.Submit(context.Background(), "q")
	require.NoError(t, err)
	require.NoError(t, out.Err)

	resp, ok := f.log.Last()
	require.True(t, ok)
	assert.Equal(t, model.EntryResponse, resp.Kind)
	assert.Equal(t, "bob wins", resp.Text)
	assert.False(t, resp.HasChart())
	assert.Equal(t, StateIdle, f.d.State())
	assert.NotNil(t, f.d.LastResult(), "data export still works without a chart")
}

func TestSubmit_ServerError(t *testing.T) {
	f := newFixture(t, nil)
	f.asker.err = &model.ServerError{StatusCode: 500, Message: "bad question"}

	out, err := f.d.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.Error(t, out.Err)

	resp, _ := f.log.Last()
	assert.Equal(t, model.EntryError, resp.Kind)
	assert.Equal(t, "Server Error: bad question", resp.Text)
	assert.False(t, f.log.Loading())
	assert.Equal(t, StateIdle, f.d.State())
	assert.Nil(t, f.d.LastResult())
}

func TestSubmit_NetworkError(t *testing.T) {
	f := newFixture(t, nil)
	f.asker.err = &model.NetworkError{Err: errors.New("connection refused")}

	_, err := f.d.Submit(context.Background(), "q")
	require.NoError(t, err)

	resp, _ := f.log.Last()
	assert.Equal(t, model.EntryError, resp.Kind)
	assert.True(t, strings.HasPrefix(resp.Text, "Connection Error: connection refused"))
	assert.Equal(t, StateIdle, f.d.State())
}

func TestSubmit_Help(t *testing.T) {
	f := newFixture(t, nil)

	out, err := f.d.Submit(context.Background(), "HELP")
	require.NoError(t, err)
	assert.Equal(t, Outcome{}, out)

	assert.Empty(t, f.asker.calls)
	resp, _ := f.log.Last()
	assert.Equal(t, HelpText, resp.Text)
	assert.Equal(t, 1, f.hist.Len(), "built-ins are recorded in history")
	assert.Equal(t, StateIdle, f.d.State())
}

func TestSubmit_Clear(t *testing.T) {
	f := newFixture(t, nil)
	f.asker.answer = model.Answer{Answer: "a", Data: chartRows()}
	_, err := f.d.Submit(context.Background(), "q")
	require.NoError(t, err)
	require.Equal(t, 1, f.surface.Len())

	_, err = f.d.Submit(context.Background(), "clear")
	require.NoError(t, err)

	assert.Zero(t, f.log.Len())
	assert.Zero(t, f.surface.Len(), "charts are destroyed with the log")
	assert.Nil(t, f.d.LastResult())
	assert.Equal(t, chartsurface.NoHandle, f.d.LastChart())
}

func TestComplete_Twice(t *testing.T) {
	f := newFixture(t, nil)
	f.asker.answer = model.Answer{Answer: "a"}

	tk, err := f.d.Begin("q")
	require.NoError(t, err)
	out := tk.Send(context.Background())
	f.d.Complete(tk, out)
	n := f.log.Len()
	f.d.Complete(tk, out)

	assert.Equal(t, n, f.log.Len())
	f.d.Complete(nil, out)
}

func TestExportData_NoPriorQuery(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.d.ExportData(export.FormatCSV, 0)

	var ee *model.ExportError
	require.True(t, errors.As(err, &ee))
	resp, _ := f.log.Last()
	assert.Equal(t, model.EntryError, resp.Kind)
	assert.Equal(t, "No data available to export", resp.Text)
}

func TestExportData_EmptyResult(t *testing.T) {
	f := newFixture(t, nil)
	f.asker.answer = model.Answer{Answer: "no matches", Data: model.QueryResult{}}
	_, err := f.d.Submit(context.Background(), "who logged in on sunday")
	require.NoError(t, err)

	for _, format := range []string{export.FormatCSV, export.FormatJSON} {
		path, err := f.d.ExportData(format, 0)

		assert.ErrorIs(t, err, model.ErrNoData, format)
		assert.Empty(t, path)
		resp, _ := f.log.Last()
		assert.Equal(t, model.EntryError, resp.Kind)
		assert.Equal(t, "No data available to export", resp.Text)
	}
	assert.NoDirExists(t, f.dir, "no export file written")
}

func TestExportChart_SingleRowTimeSeries(t *testing.T) {
	f := newFixture(t, nil)
	f.asker.answer = model.Answer{
		Answer: "one day",
		Data: model.QueryResult{
			{{Name: "log_date", Value: "2024-01-01"}, {Name: "duration_seconds", Value: 60.0}},
		},
	}
	_, err := f.d.Submit(context.Background(), "time spent per day")
	require.NoError(t, err)
	require.NotEqual(t, chartsurface.NoHandle, f.d.LastChart())

	path, err := f.d.ExportChart(0)
	require.NoError(t, err)
	assert.FileExists(t, path)
	resp, _ := f.log.Last()
	assert.True(t, strings.HasPrefix(resp.Text, "Chart exported successfully"))
}

func TestExportChart_NoChart(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.d.ExportChart(0)

	assert.ErrorIs(t, err, model.ErrNoChart)
	resp, _ := f.log.Last()
	assert.Equal(t, "No chart available to export", resp.Text)
}

func TestExport_AfterQuery(t *testing.T) {
	f := newFixture(t, nil)
	f.asker.answer = model.Answer{Answer: "a", Data: chartRows()}
	_, err := f.d.Submit(context.Background(), "hours per user")
	require.NoError(t, err)

	csvPath, err := f.d.ExportData(export.FormatCSV, 0)
	require.NoError(t, err)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "user,result\nalice,3600\nbob,7200", string(data))

	resp, _ := f.log.Last()
	assert.True(t, strings.HasPrefix(resp.Text, "Data exported as CSV successfully"))

	pngPath, err := f.d.ExportChart(0)
	require.NoError(t, err)
	assert.FileExists(t, pngPath)
}

func TestExport_ByEntryID(t *testing.T) {
	f := newFixture(t, nil)

	f.asker.answer = model.Answer{Answer: "first", Data: chartRows()}
	_, err := f.d.Submit(context.Background(), "first")
	require.NoError(t, err)
	first, _ := f.log.LastResponse()

	f.asker.answer = model.Answer{Answer: "second"}
	_, err = f.d.Submit(context.Background(), "second")
	require.NoError(t, err)

	_, err = f.d.ExportChart(0)
	assert.ErrorIs(t, err, model.ErrNoChart, "latest answer had no chart")

	path, err := f.d.ExportChart(first.ID)
	require.NoError(t, err)
	assert.FileExists(t, path)

	jsonPath, err := f.d.ExportData(export.FormatJSON, first.ID)
	require.NoError(t, err)
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"query": "first"`)
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&model.ServerError{Message: "boom"}, "Server Error: boom"},
		{&model.ExportError{Format: "csv", Err: model.ErrNoData}, "No data available to export"},
		{&model.ExportError{Format: "png", Err: model.ErrNoChart}, "No chart available to export"},
		{&model.ExportError{Format: "csv", Err: errors.New("disk full")}, "Export failed: disk full"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorText(tt.err))
	}
}
