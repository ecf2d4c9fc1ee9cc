package chartsurface

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

const (
	minChartWidth  = 20
	minChartHeight = 4
	maxBarWidth    = 8
)

var _ Surface = (*Terminal)(nil)

// Terminal draws charts with ntcharts and exports them with go-chart.
type Terminal struct {
	reg       *registry
	imgWidth  int
	imgHeight int
}

// Option configures a Terminal surface.
type Option func(*Terminal)

// WithImageSize sets the pixel size of exported PNGs.
func WithImageSize(width, height int) Option {
	return func(t *Terminal) {
		if width > 0 {
			t.imgWidth = width
		}
		if height > 0 {
			t.imgHeight = height
		}
	}
}

// NewTerminal returns an empty surface.
func NewTerminal(opts ...Option) *Terminal {
	t := &Terminal{
		reg:       newRegistry(),
		imgWidth:  1024,
		imgHeight: 512,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Render draws spec into a string sized for target and registers it.
// Any failure is returned as a *model.RenderError.
func (t *Terminal) Render(spec model.ChartSpec, target Target) (h Handle, err error) {
	if spec.Empty() {
		return NoHandle, &model.RenderError{Kind: spec.Kind, Err: errNothingToDraw}
	}

	// ntcharts panics on some degenerate canvas sizes
	defer func() {
		if r := recover(); r != nil {
			h = NoHandle
			err = &model.RenderError{Kind: spec.Kind, Err: fmt.Errorf("%v", r)}
		}
	}()

	width := max(target.Width, minChartWidth)
	height := max(target.Height, minChartHeight)

	var body string
	switch spec.Kind {
	case model.ChartCategoricalBar, model.ChartFallbackBar:
		body = drawBars(spec, width, height, target.Style)
	case model.ChartTimeSeriesLine:
		body = drawLine(spec, width, height, target.Style)
	default:
		return NoHandle, &model.RenderError{Kind: spec.Kind, Err: fmt.Errorf("unsupported chart kind %q", spec.Kind)}
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(spec.Title),
		body,
	)
	return t.reg.add(&instance{spec: spec, view: view}), nil
}

// View returns the drawn chart for h.
func (t *Terminal) View(h Handle) (string, error) {
	inst, err := t.reg.get(h)
	if err != nil {
		return "", err
	}
	return inst.view, nil
}

// Spec returns the chart spec a handle was rendered from.
func (t *Terminal) Spec(h Handle) (model.ChartSpec, error) {
	inst, err := t.reg.get(h)
	if err != nil {
		return model.ChartSpec{}, err
	}
	return inst.spec, nil
}

// ToImage renders the chart behind h as a PNG.
func (t *Terminal) ToImage(h Handle) ([]byte, error) {
	inst, err := t.reg.get(h)
	if err != nil {
		return nil, err
	}
	return renderPNG(inst.spec, t.imgWidth, t.imgHeight)
}

// Destroy releases the chart behind h.
func (t *Terminal) Destroy(h Handle) error {
	return t.reg.remove(h)
}

// DestroyAll releases every registered chart.
func (t *Terminal) DestroyAll() {
	t.reg.clear()
}

// Len returns the number of live charts.
func (t *Terminal) Len() int {
	return t.reg.len()
}

func drawBars(spec model.ChartSpec, width, height int, style lipgloss.Style) string {
	n := len(spec.Values)
	barWidth := max(1, min(maxBarWidth, (width-n)/n))

	bc := barchart.New(width, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(barWidth),
	)
	barStyle := style.Background(style.GetForeground())
	for i, v := range spec.Values {
		label := ""
		if i < len(spec.DisplayLabels) {
			label = spec.DisplayLabels[i]
		}
		bc.Push(barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: label, Value: max(v, 0), Style: barStyle},
			},
		})
	}
	bc.Draw()
	return bc.View()
}

func drawLine(spec model.ChartSpec, width, height int, style lipgloss.Style) string {
	slc := streamlinechart.New(width, height)
	for _, v := range spec.Values {
		slc.Push(v)
	}
	slc.Draw()

	view := style.Render(slc.View())
	axis := lineAxis(spec.DisplayLabels, width)
	if axis == "" {
		return view
	}
	return view + "\n" + axis
}

// lineAxis prints the first and last x labels under a line chart.
func lineAxis(labels []string, width int) string {
	if len(labels) == 0 {
		return ""
	}
	first, last := labels[0], labels[len(labels)-1]
	if len(labels) == 1 || first == last {
		return first
	}
	gap := width - lipgloss.Width(first) - lipgloss.Width(last)
	if gap < 1 {
		return first
	}
	return first + strings.Repeat(" ", gap) + last
}
