package chartsurface

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

var (
	barFill  = drawing.ColorFromHex("4bc0c0")
	lineFill = drawing.ColorFromHex("36a2eb")
)

// renderPNG draws spec at the given pixel size using full labels.
func renderPNG(spec model.ChartSpec, width, height int) ([]byte, error) {
	if spec.Empty() {
		return nil, &model.RenderError{Kind: spec.Kind, Err: errNothingToDraw}
	}

	var buf bytes.Buffer
	var err error
	switch spec.Kind {
	case model.ChartTimeSeriesLine:
		err = lineChart(spec, width, height).Render(chart.PNG, &buf)
	default:
		err = barChart(spec, width, height).Render(chart.PNG, &buf)
	}
	if err != nil {
		return nil, &model.RenderError{Kind: spec.Kind, Err: fmt.Errorf("png: %w", err)}
	}
	return buf.Bytes(), nil
}

func barChart(spec model.ChartSpec, width, height int) chart.BarChart {
	bars := make([]chart.Value, len(spec.Values))
	for i, v := range spec.Values {
		bars[i] = chart.Value{
			Label: spec.Labels[i],
			Value: v,
			Style: chart.Style{FillColor: barFill, StrokeColor: barFill},
		}
	}

	barWidth := max(8, min(60, (width-100)/max(1, len(bars))-10))
	return chart.BarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		// a flat series has no range; pin the axis at zero
		YAxis: chart.YAxis{Range: yRange(spec.Values)},
		Bars:  bars,
	}
}

func lineChart(spec model.ChartSpec, width, height int) chart.Chart {
	xs := make([]float64, len(spec.Values))
	ticks := make([]chart.Tick, len(spec.Values))
	for i := range spec.Values {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: spec.Labels[i]}
	}
	ys := spec.Values

	// a single point cannot form a line
	if len(xs) == 1 {
		xs = []float64{0, 1}
		ys = []float64{ys[0], ys[0]}
		ticks = append(ticks, chart.Tick{Value: 1})
	}

	st := chart.Style{StrokeColor: lineFill, StrokeWidth: 2, DotColor: lineFill, DotWidth: 3}
	return chart.Chart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: spec.XColumn, Ticks: ticks},
		YAxis:      chart.YAxis{Name: spec.YColumn, Range: yRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: spec.YColumn, XValues: xs, YValues: ys, Style: st},
		},
	}
}

func yRange(values []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
