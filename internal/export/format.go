// Package export turns query results and charts into downloadable artifacts.
package export

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

// ToCSV renders result with a header taken from the first row's columns.
// Only strings containing a comma or a double quote are quoted. Newlines are
// emitted as-is, so such values round-trip through spreadsheet tools but not
// through strict RFC 4180 readers.
func ToCSV(result model.QueryResult) string {
	if len(result) == 0 {
		return ""
	}

	headers := result.Columns()
	lines := make([]string, 0, len(result)+1)
	lines = append(lines, strings.Join(headers, ","))

	cells := make([]string, len(headers))
	for _, row := range result {
		for i, h := range headers {
			v, _ := row.Get(h)
			cells[i] = csvCell(v)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

func csvCell(v any) string {
	s, ok := v.(string)
	if !ok {
		return model.FormatScalar(v)
	}
	if strings.ContainsAny(s, `,"`) {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

type envelope struct {
	Query     string            `json:"query"`
	Timestamp string            `json:"timestamp"`
	Results   model.QueryResult `json:"results"`
}

// ToJSONEnvelope wraps result with the question that produced it, indented
// by two spaces. Row keys keep their column order.
func ToJSONEnvelope(question string, result model.QueryResult, timestamp string) (string, error) {
	if result == nil {
		result = model.QueryResult{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(envelope{Query: question, Timestamp: timestamp, Results: result}); err != nil {
		return "", &model.ExportError{Format: FormatJSON, Err: err}
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
