package chart

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"

	"github.com/okutan/trackfolio"
)

// Plot area padding inside the chart box, in pixels. The left edge leaves
// room for y-axis labels, the bottom for date labels.
const (
	padLeft   = 46.0
	padRight  = 16.0
	padTop    = 14.0
	padBottom = 28.0
)

// gridRows is the number of horizontal grid intervals (gridRows+1 lines).
const gridRows = 4

// Rect is a pixel rectangle.
type Rect struct {
	X, Y, W, H float64
}

// XY is a pixel coordinate.
type XY struct {
	X, Y float64
}

// AxisLabel is a positioned axis caption.
type AxisLabel struct {
	Text string
	X, Y float64
}

// Trend classifies the visible window's direction; the renderer picks its
// accent color from it.
type Trend int

const (
	TrendFlat Trend = iota
	TrendUp
	TrendDown
)

// HoverInfo is the tooltip payload for the hovered sample.
type HoverInfo struct {
	Marker  XY
	Day     string // long date form
	Value   string // formatted metric value
	DayMove string // formatted daily return
}

// Model is everything a drawing surface needs to paint one frame. It is a
// pure value: no canvas, no DOM, fully comparable in tests.
type Model struct {
	Width  int
	Height int
	Plot   Rect

	GridYs  []float64
	YLabels []AxisLabel
	XLabels []AxisLabel

	// ZeroY is the pixel row of the dashed zero-return reference line;
	// HasZero is false when zero is outside the y range or the metric is
	// absolute value.
	ZeroY   float64
	HasZero bool

	Line     []XY
	Baseline float64 // bottom of the filled area under the line

	Trend Trend
	KPI   string

	Hover *HoverInfo

	// Empty is set when there is nothing to draw; Message says why.
	Empty   bool
	Message string
}

// BuildModel lays out one chart frame from the visible window of the series.
// hovered is an index into points, or -1. currency formats value-metric
// labels; pass "" for the account default.
//
// The model must be rebuilt on any of: new data, window change, metric
// change, hover change, or resize. Building is cheap enough to do on every
// frame.
func BuildModel(points []trackfolio.Point, view View, metric Metric, width, height int, hovered int, currency string) Model {
	if currency == "" {
		currency = trackfolio.DefaultCurrency
	}
	m := Model{
		Width:  width,
		Height: height,
		Plot: Rect{
			X: padLeft,
			Y: padTop,
			W: float64(width) - padLeft - padRight,
			H: float64(height) - padTop - padBottom,
		},
	}
	m.Baseline = m.Plot.Y + m.Plot.H

	lo := lowerBoundPoints(points, view.T0)
	hi := lowerBoundPoints(points, view.T1+1)
	visible := points[lo:hi]
	if len(visible) == 0 {
		m.Empty = true
		m.Message = "no data in range"
		return m
	}

	yMin, yMax := yRange(visible, metric)
	span := float64(view.Span())
	if span <= 0 {
		span = 1
	}

	x := func(t int64) float64 {
		return m.Plot.X + float64(t-view.T0)/span*m.Plot.W
	}
	y := func(v float64) float64 {
		return m.Plot.Y + m.Plot.H - (v-yMin)/(yMax-yMin)*m.Plot.H
	}

	valueLabel := func(v float64) string {
		if metric == MetricValue {
			return money.NewFromFloat(v, currency).Display()
		}
		return trackfolio.Percent(v).SignedString()
	}

	// Horizontal grid plus y labels, top to bottom.
	for i := 0; i <= gridRows; i++ {
		v := yMax - (yMax-yMin)*float64(i)/gridRows
		gy := y(v)
		m.GridYs = append(m.GridYs, gy)
		m.YLabels = append(m.YLabels, AxisLabel{Text: valueLabel(v), X: m.Plot.X - 6, Y: gy})
	}

	if metric == MetricPct && yMin < 0 && yMax > 0 {
		m.ZeroY = y(0)
		m.HasZero = true
	}

	for _, p := range visible {
		m.Line = append(m.Line, XY{X: x(p.Day.Unix()), Y: y(metricOf(p, metric))})
	}

	// First, middle and last visible dates on the x axis.
	xlab := func(p trackfolio.Point) AxisLabel {
		return AxisLabel{Text: p.Day.Format("02 Jan"), X: x(p.Day.Unix()), Y: m.Baseline + 18}
	}
	m.XLabels = append(m.XLabels, xlab(visible[0]))
	if len(visible) > 2 {
		m.XLabels = append(m.XLabels, xlab(visible[len(visible)/2]))
	}
	if len(visible) > 1 {
		m.XLabels = append(m.XLabels, xlab(visible[len(visible)-1]))
	}

	m.Trend = trendOf(visible, metric)
	m.KPI = kpiLine(visible, metric, valueLabel)

	if hovered >= lo && hovered < hi {
		p := points[hovered]
		m.Hover = &HoverInfo{
			Marker:  XY{X: x(p.Day.Unix()), Y: y(metricOf(p, metric))},
			Day:     p.Day.Format("Mon, 02 Jan 2006"),
			Value:   valueLabel(metricOf(p, metric)),
			DayMove: trackfolio.Percent(p.DayReturnPct).SignedString(),
		}
	}
	return m
}

func metricOf(p trackfolio.Point, metric Metric) float64 {
	if metric == MetricValue {
		return p.Value
	}
	return p.Pct
}

// yRange pads the visible value range by 12% so the line never touches the
// plot edge. The percent metric always includes zero, keeping the reference
// line meaningful.
func yRange(visible []trackfolio.Point, metric Metric) (yMin, yMax float64) {
	yMin, yMax = math.Inf(1), math.Inf(-1)
	for _, p := range visible {
		v := metricOf(p, metric)
		yMin = math.Min(yMin, v)
		yMax = math.Max(yMax, v)
	}
	if metric == MetricPct {
		yMin = math.Min(yMin, 0)
		yMax = math.Max(yMax, 0)
	}
	pad := (yMax - yMin) * 0.12
	if pad == 0 {
		pad = 1
	}
	return yMin - pad, yMax + pad
}

func trendOf(visible []trackfolio.Point, metric Metric) Trend {
	first := metricOf(visible[0], metric)
	last := metricOf(visible[len(visible)-1], metric)
	switch {
	case last > first:
		return TrendUp
	case last < first:
		return TrendDown
	default:
		return TrendFlat
	}
}

// kpiLine summarizes the window: its return and the max drawdown inside it.
func kpiLine(visible []trackfolio.Point, metric Metric, valueLabel func(float64) string) string {
	dd := trackfolio.MaxDrawdown(visible)
	ret, ok := trackfolio.RangeReturn(visible, visible[0].Day)
	if !ok {
		return fmt.Sprintf("%s | max drawdown %s", valueLabel(metricOf(visible[len(visible)-1], metric)), dd)
	}
	return fmt.Sprintf("%s | max drawdown %s", ret.SignedString(), dd)
}

func lowerBoundPoints(points []trackfolio.Point, t int64) int {
	lo, hi := 0, len(points)
	for lo < hi {
		mid := (lo + hi) / 2
		if points[mid].Day.Unix() < t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
