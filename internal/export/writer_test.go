package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/nlconsole/internal/chartsurface"
	"github.com/tinytelemetry/nlconsole/internal/model"
)

type stubImages struct {
	png []byte
	err error
}

func (s stubImages) ToImage(chartsurface.Handle) ([]byte, error) { return s.png, s.err }

type recorded struct{ format, path, query string }

type stubRecorder struct {
	calls []recorded
	err   error
}

func (r *stubRecorder) RecordExport(format, path, query string) error {
	r.calls = append(r.calls, recorded{format, path, query})
	return r.err
}

func newTestWriter(t *testing.T, rec Recorder) *Writer {
	t.Helper()
	w := NewWriter(filepath.Join(t.TempDir(), "out"), rec)
	w.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return w
}

func TestWriteData_CSV(t *testing.T) {
	rec := &stubRecorder{}
	w := newTestWriter(t, rec)

	path, err := w.WriteData(FormatCSV, &Dataset{
		Question: "q",
		Rows:     model.QueryResult{row("a", "x,y", "b", 1.0)},
	})
	require.NoError(t, err)
	assert.Equal(t, "query-results-1700000000123.csv", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n\"x,y\",1", string(data))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, recorded{FormatCSV, path, "q"}, rec.calls[0])
}

func TestWriteData_JSON(t *testing.T) {
	w := newTestWriter(t, nil)

	path, err := w.WriteData(FormatJSON, &Dataset{
		Question:  "q",
		Timestamp: "ts",
		Rows:      model.QueryResult{row("a", 1.0)},
	})
	require.NoError(t, err)
	assert.Equal(t, "query-results-1700000000123.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"query": "q"`)
}

func TestWriteData_NoData(t *testing.T) {
	tests := []struct {
		name string
		ds   *Dataset
	}{
		{"nil dataset", nil},
		{"nil rows", &Dataset{Question: "q"}},
		{"empty rows", &Dataset{Question: "q", Rows: model.QueryResult{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWriter(t, nil)

			path, err := w.WriteData(FormatCSV, tt.ds)

			var ee *model.ExportError
			require.True(t, errors.As(err, &ee))
			assert.ErrorIs(t, err, model.ErrNoData)
			assert.Empty(t, path)
			entries, _ := os.ReadDir(w.Dir())
			assert.Empty(t, entries, "nothing written")
		})
	}
}

func TestWriteData_UnknownFormat(t *testing.T) {
	w := newTestWriter(t, nil)
	_, err := w.WriteData("xml", &Dataset{Rows: model.QueryResult{{{Name: "n", Value: 1.0}}}})
	var ee *model.ExportError
	assert.True(t, errors.As(err, &ee))
}

func TestWriteData_RecorderFailureIsNotFatal(t *testing.T) {
	w := newTestWriter(t, &stubRecorder{err: errors.New("db closed")})
	_, err := w.WriteData(FormatCSV, &Dataset{Rows: model.QueryResult{row("a", 1.0)}})
	assert.NoError(t, err)
}

func TestWriteChart(t *testing.T) {
	w := newTestWriter(t, nil)

	path, err := w.WriteChart(stubImages{png: []byte("png-bytes")}, chartsurface.Handle(1), "q")
	require.NoError(t, err)
	assert.Equal(t, "chart-1700000000123.png", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestExportImage_NoChart(t *testing.T) {
	_, err := ExportImage(stubImages{}, chartsurface.NoHandle)

	var ee *model.ExportError
	require.True(t, errors.As(err, &ee))
	assert.ErrorIs(t, err, model.ErrNoChart)
}

func TestExportImage_SurfaceFailure(t *testing.T) {
	_, err := ExportImage(stubImages{err: model.ErrUnknownHandle}, chartsurface.Handle(3))
	var ee *model.ExportError
	require.True(t, errors.As(err, &ee))
	assert.ErrorIs(t, err, model.ErrUnknownHandle)
}

func TestExportImage_RealSurface(t *testing.T) {
	s := chartsurface.NewTerminal(chartsurface.WithImageSize(320, 200))
	h, err := s.Render(model.ChartSpec{
		Kind:          model.ChartFallbackBar,
		Labels:        []string{"Item 1"},
		DisplayLabels: []string{"Item 1"},
		Values:        []float64{4},
	}, chartsurface.Target{Width: 30, Height: 6})
	require.NoError(t, err)

	png, err := ExportImage(s, h)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}
