// Package chartinfer picks a chart for a result set from its shape.
//
// The decision only looks at the first row's columns:
//
//	no rows                               -> none
//	exactly two columns, one is "result"  -> categorical bar
//	a column named like date/timestamp/time -> time-series line
//	anything else                          -> fallback bar ("Item 1..N")
package chartinfer

import (
	"fmt"
	"strings"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

// ResultColumn is the aggregate column name the backend uses for scalar results.
const ResultColumn = "result"

var timeMarkers = []string{"date", "timestamp", "time"}

// Infer derives a ChartSpec from rows. It is total and deterministic.
func Infer(rows model.QueryResult, question string) model.ChartSpec {
	title := question
	if strings.TrimSpace(title) == "" {
		title = "Query Result"
	}

	if len(rows) == 0 {
		return model.ChartSpec{Kind: model.ChartNone, Title: title}
	}

	cols := rows.Columns()
	switch {
	case len(cols) == 2 && rows[0].Has(ResultColumn):
		return categoricalBar(rows, cols[0], title)
	case timeColumn(cols) != "":
		x := timeColumn(cols)
		return timeSeriesLine(rows, x, otherColumn(cols, x), title)
	default:
		return fallbackBar(rows, cols, title)
	}
}

func categoricalBar(rows model.QueryResult, labelCol, title string) model.ChartSpec {
	spec := model.ChartSpec{
		Kind:    model.ChartCategoricalBar,
		Title:   title,
		XColumn: labelCol,
		YColumn: ResultColumn,
	}
	for _, row := range rows {
		label, _ := row.Get(labelCol)
		value, _ := row.Get(ResultColumn)
		spec.Labels = append(spec.Labels, model.FormatScalar(label))
		spec.Values = append(spec.Values, number(value))
	}
	spec.DisplayLabels = displayLabels(spec.Labels)
	return spec
}

func timeSeriesLine(rows model.QueryResult, x, y, title string) model.ChartSpec {
	spec := model.ChartSpec{
		Kind:    model.ChartTimeSeriesLine,
		Title:   title,
		XColumn: x,
		YColumn: y,
	}
	for _, row := range rows {
		xv, _ := row.Get(x)
		var yv any
		if y != "" {
			yv, _ = row.Get(y)
		}
		spec.Labels = append(spec.Labels, model.FormatScalar(xv))
		spec.Values = append(spec.Values, number(yv))
	}
	spec.DisplayLabels = displayLabels(spec.Labels)
	return spec
}

func fallbackBar(rows model.QueryResult, cols []string, title string) model.ChartSpec {
	spec := model.ChartSpec{
		Kind:    model.ChartFallbackBar,
		Title:   title,
		YColumn: cols[0],
	}
	for i, row := range rows {
		spec.Labels = append(spec.Labels, fmt.Sprintf("Item %d", i+1))
		var v any
		if len(row) > 0 {
			v = row[0].Value
		}
		spec.Values = append(spec.Values, number(v))
	}
	spec.DisplayLabels = displayLabels(spec.Labels)
	return spec
}

// timeColumn returns the first column whose name mentions a time marker.
func timeColumn(cols []string) string {
	for _, c := range cols {
		lower := strings.ToLower(c)
		for _, marker := range timeMarkers {
			if strings.Contains(lower, marker) {
				return c
			}
		}
	}
	return ""
}

// otherColumn returns the first column that is not skip, or "".
func otherColumn(cols []string, skip string) string {
	for _, c := range cols {
		if c != skip {
			return c
		}
	}
	return ""
}

// number coerces a scalar to float64; non-numeric values plot as 0.
func number(v any) float64 {
	f, _ := model.NumericValue(v)
	return f
}

// TruncateLabel shortens a label to at most model.DisplayLabelMaxRunes
// runes, the last of which is an ellipsis when the label was cut.
func TruncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= model.DisplayLabelMaxRunes {
		return s
	}
	return string(r[:model.DisplayLabelMaxRunes-1]) + "…"
}

func displayLabels(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = TruncateLabel(l)
	}
	return out
}
