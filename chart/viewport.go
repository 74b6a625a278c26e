// Package chart turns a performance series into a drawable chart: a
// pannable/zoomable time viewport over the points, a pure visual model
// (axes, scaled polyline, tooltip) and thin SVG/CSV output adapters.
package chart

import (
	"github.com/okutan/trackfolio"
)

// Range is the viewport range mode. Presets derive the window from the
// series end; any pan or zoom switches the mode to RangeCustom.
type Range string

const (
	Range1W     Range = "1W"
	Range1M     Range = "1M"
	Range3M     Range = "3M"
	Range6M     Range = "6M"
	RangeYTD    Range = "YTD"
	Range1Y     Range = "1Y"
	RangeAll    Range = "ALL"
	RangeCustom Range = "CUSTOM"
)

// ParseRange maps a range name to its mode, defaulting to RangeAll.
func ParseRange(s string) Range {
	switch Range(s) {
	case Range1W, Range1M, Range3M, Range6M, RangeYTD, Range1Y, RangeCustom:
		return Range(s)
	default:
		return RangeAll
	}
}

// Metric selects what the y axis shows.
type Metric int

const (
	// MetricPct plots the cumulative chain-linked return in percent.
	MetricPct Metric = iota
	// MetricValue plots the absolute portfolio value.
	MetricValue
)

// ParseMetric maps a metric name to its value, defaulting to MetricPct.
func ParseMetric(s string) Metric {
	if s == "value" {
		return MetricValue
	}
	return MetricPct
}

// View is the visible time window, in epoch milliseconds. It is always a
// subinterval of the full series span.
type View struct {
	T0 int64
	T1 int64
}

// Span returns the window width in milliseconds.
func (v View) Span() int64 { return v.T1 - v.T0 }

const dayMs = 24 * 60 * 60 * 1000

// minSpanMs is the floor on the window width, preventing degenerate zoom.
const minSpanMs = 3 * dayMs

var presetDays = map[Range]int64{
	Range1W: 7,
	Range1M: 31,
	Range3M: 93,
	Range6M: 186,
	Range1Y: 366,
}

// Controller owns the viewport over one series and translates pointer input
// (pan, zoom, hover, drag) into window changes. It is not safe for
// concurrent use; one controller serves one interactive session.
type Controller struct {
	points []trackfolio.Point
	times  []int64 // epoch ms per point, ascending

	view      View
	mode      Range
	plotWidth float64

	hovered  int // index into points, -1 when none
	dragging bool
	dragX    float64
}

// NewController returns a controller with an empty series, showing the full
// range. plotWidth is the width of the plotting area in pixels and scales
// pixel deltas to time deltas.
func NewController(plotWidth float64) *Controller {
	if plotWidth <= 0 {
		plotWidth = 1
	}
	return &Controller{plotWidth: plotWidth, mode: RangeAll, hovered: -1}
}

// SetPlotWidth updates the plot width on container resize.
func (c *Controller) SetPlotWidth(w float64) {
	if w > 0 {
		c.plotWidth = w
	}
}

// SetData replaces the series and re-applies the current range mode, so a
// data refresh keeps the selected window rule. A custom window is clamped
// into the new span instead.
func (c *Controller) SetData(points []trackfolio.Point) {
	c.points = points
	c.times = make([]int64, len(points))
	for i, p := range points {
		c.times[i] = p.Day.Unix()
	}
	c.hovered = -1
	if c.mode == RangeCustom {
		c.view = c.clamp(c.view)
		return
	}
	c.SetRange(c.mode)
}

// Points returns the full series the controller was given.
func (c *Controller) Points() []trackfolio.Point { return c.points }

// View returns the current window.
func (c *Controller) View() View { return c.view }

// Mode returns the current range mode.
func (c *Controller) Mode() Range { return c.mode }

func (c *Controller) fullSpan() (t0, t1 int64, ok bool) {
	if len(c.times) == 0 {
		return 0, 0, false
	}
	return c.times[0], c.times[len(c.times)-1], true
}

// clamp forces the window inside the full span, preserving its width where
// possible, and applies the minimum span floor.
func (c *Controller) clamp(v View) View {
	first, last, ok := c.fullSpan()
	if !ok {
		return View{}
	}
	full := last - first
	span := v.Span()
	if span < minSpanMs {
		span = minSpanMs
	}
	if span > full && full > 0 {
		span = full
	}
	if full <= 0 || full < minSpanMs {
		// Too few samples to zoom: show everything.
		return View{T0: first, T1: last}
	}
	if v.T0 < first {
		v.T0 = first
	}
	if v.T0+span > last {
		v.T0 = last - span
	}
	v.T1 = v.T0 + span
	return v
}

// SetRange recomputes the window from the preset's rule against the series
// end and switches to that mode. With no data the window stays empty.
func (c *Controller) SetRange(mode Range) {
	c.mode = mode
	first, last, ok := c.fullSpan()
	if !ok {
		c.view = View{}
		return
	}
	t0 := first
	switch {
	case mode == RangeYTD:
		endDay := c.points[len(c.points)-1].Day
		t0 = endDay.StartOfYear().Unix()
	case presetDays[mode] > 0:
		t0 = last - presetDays[mode]*dayMs
	}
	c.view = c.clamp(View{T0: t0, T1: last})
}

// Pan shifts the window by a pixel delta (positive delta drags the plot
// rightward, moving the window into the past) and switches to custom mode.
func (c *Controller) Pan(deltaPx float64) {
	if _, _, ok := c.fullSpan(); !ok {
		return
	}
	span := c.view.Span()
	dt := int64(-deltaPx / c.plotWidth * float64(span))
	c.view = c.clamp(View{T0: c.view.T0 + dt, T1: c.view.T1 + dt})
	c.mode = RangeCustom
}

// ZoomAt scales the window span by factor (<1 zooms in) keeping the time
// under the given pixel fixed, and switches to custom mode.
func (c *Controller) ZoomAt(px, factor float64) {
	if _, _, ok := c.fullSpan(); !ok || factor <= 0 {
		return
	}
	span := float64(c.view.Span())
	anchor := c.timeAt(px)
	newSpan := span * factor
	t0 := float64(anchor) - (float64(anchor)-float64(c.view.T0))*newSpan/span
	c.view = c.clamp(View{T0: int64(t0), T1: int64(t0 + newSpan)})
	c.mode = RangeCustom
}

// timeAt maps a plot-area pixel to a time inside the current window.
func (c *Controller) timeAt(px float64) int64 {
	frac := px / c.plotWidth
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return c.view.T0 + int64(frac*float64(c.view.Span()))
}

// Hover hit-tests a plot-area pixel against the visible samples and returns
// the index (into the full series) of the nearest one. It reports false when
// the pointer is outside the plot area, a drag is active, or nothing is
// visible.
func (c *Controller) Hover(px float64) (int, bool) {
	if c.dragging || px < 0 || px > c.plotWidth {
		c.hovered = -1
		return 0, false
	}
	lo, hi := c.visibleBounds()
	if lo >= hi {
		c.hovered = -1
		return 0, false
	}
	t := c.timeAt(px)
	i := nearestIndex(c.times[lo:hi], t) + lo
	c.hovered = i
	return i, true
}

// Leave clears the hover state when the pointer exits the plot.
func (c *Controller) Leave() { c.hovered = -1 }

// Hovered returns the currently hovered sample index, or -1.
func (c *Controller) Hovered() int { return c.hovered }

// BeginDrag starts a drag-pan at the given pixel. While a drag is active,
// hover hit-testing is suppressed.
func (c *Controller) BeginDrag(px float64) {
	c.dragging = true
	c.dragX = px
	c.hovered = -1
}

// DragTo pans by the distance from the last drag position. It is a no-op
// when no drag is active, so stray move events are harmless.
func (c *Controller) DragTo(px float64) {
	if !c.dragging {
		return
	}
	c.Pan(px - c.dragX)
	c.dragX = px
}

// EndDrag releases the drag.
func (c *Controller) EndDrag() { c.dragging = false }

// Dragging reports whether a drag-pan is active.
func (c *Controller) Dragging() bool { return c.dragging }

// Visible returns the points inside the current window.
func (c *Controller) Visible() []trackfolio.Point {
	lo, hi := c.visibleBounds()
	return c.points[lo:hi]
}

// visibleBounds returns the half-open index range of points with time inside
// [T0, T1].
func (c *Controller) visibleBounds() (lo, hi int) {
	lo = lowerBound(c.times, c.view.T0)
	hi = lowerBound(c.times, c.view.T1+1)
	return lo, hi
}

// lowerBound returns the first index with times[i] >= t.
func lowerBound(times []int64, t int64) int {
	lo, hi := 0, len(times)
	for lo < hi {
		mid := (lo + hi) / 2
		if times[mid] < t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// nearestIndex returns the index of the sample closest in time to t.
func nearestIndex(times []int64, t int64) int {
	i := lowerBound(times, t)
	if i == len(times) {
		return len(times) - 1
	}
	if i == 0 {
		return 0
	}
	if t-times[i-1] <= times[i]-t {
		return i - 1
	}
	return i
}
