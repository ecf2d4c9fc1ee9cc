package export

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tinytelemetry/nlconsole/internal/chartsurface"
	"github.com/tinytelemetry/nlconsole/internal/model"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPNG  = "png"
)

// Dataset is a successful result held for later export.
type Dataset struct {
	Question  string
	Timestamp string
	Rows      model.QueryResult
}

// ImageSource produces PNG bytes for a rendered chart.
type ImageSource interface {
	ToImage(h chartsurface.Handle) ([]byte, error)
}

// Recorder keeps a log of written artifacts.
type Recorder interface {
	RecordExport(format, path, query string) error
}

// ExportImage returns the PNG for h, or an ExportError when no chart is live.
func ExportImage(src ImageSource, h chartsurface.Handle) ([]byte, error) {
	if src == nil || h == chartsurface.NoHandle {
		return nil, &model.ExportError{Format: FormatPNG, Err: model.ErrNoChart}
	}
	png, err := src.ToImage(h)
	if err != nil {
		return nil, &model.ExportError{Format: FormatPNG, Err: err}
	}
	return png, nil
}

// Writer saves artifacts into a directory.
type Writer struct {
	dir      string
	recorder Recorder
	now      func() time.Time
}

// NewWriter writes into dir. recorder may be nil.
func NewWriter(dir string, recorder Recorder) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir, recorder: recorder, now: time.Now}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// WriteData saves ds as CSV or JSON and returns the file path. A dataset
// without rows is an ExportError wrapping model.ErrNoData.
func (w *Writer) WriteData(format string, ds *Dataset) (string, error) {
	if ds == nil || len(ds.Rows) == 0 {
		return "", &model.ExportError{Format: format, Err: model.ErrNoData}
	}

	var content string
	switch format {
	case FormatCSV:
		content = ToCSV(ds.Rows)
	case FormatJSON:
		var err error
		content, err = ToJSONEnvelope(ds.Question, ds.Rows, ds.Timestamp)
		if err != nil {
			return "", err
		}
	default:
		return "", &model.ExportError{Format: format, Err: fmt.Errorf("unsupported format %q", format)}
	}

	name := fmt.Sprintf("query-results-%d.%s", w.now().UnixMilli(), format)
	return w.write(format, name, []byte(content), ds.Question)
}

// WriteChart saves the PNG for h and returns the file path.
func (w *Writer) WriteChart(src ImageSource, h chartsurface.Handle, question string) (string, error) {
	png, err := ExportImage(src, h)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("chart-%d.png", w.now().UnixMilli())
	return w.write(FormatPNG, name, png, question)
}

func (w *Writer) write(format, name string, data []byte, question string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", &model.ExportError{Format: format, Err: fmt.Errorf("create export dir: %w", err)}
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &model.ExportError{Format: format, Err: err}
	}

	if w.recorder != nil {
		if err := w.recorder.RecordExport(format, path, question); err != nil {
			log.Printf("export: record %s: %v", path, err)
		}
	}
	return path, nil
}
