package chart

import (
	"testing"

	"github.com/okutan/trackfolio"
)

// dailySeries builds n consecutive daily points starting at startDay, with
// pct rising 1 per day.
func dailySeries(t *testing.T, startDay string, n int) []trackfolio.Point {
	t.Helper()
	start := trackfolio.MustParseDay(startDay)
	points := make([]trackfolio.Point, n)
	for i := range points {
		points[i] = trackfolio.Point{
			Day:   start.Add(i),
			Pct:   float64(i),
			Value: 1000 + float64(i)*10,
		}
	}
	return points
}

func TestController_SetRangePresets(t *testing.T) {
	points := dailySeries(t, "2025-01-01", 60) // through 2025-03-01
	last := points[len(points)-1].Day.Unix()
	first := points[0].Day.Unix()

	testCases := []struct {
		mode   Range
		wantT0 int64
	}{
		{mode: Range1W, wantT0: last - 7*dayMs},
		{mode: Range1M, wantT0: last - 31*dayMs},
		{mode: RangeAll, wantT0: first},
		// 3M window is wider than the 60-day series: clamped to the start.
		{mode: Range3M, wantT0: first},
		{mode: RangeYTD, wantT0: trackfolio.MustParseDay("2025-01-01").Unix()},
	}
	for _, tc := range testCases {
		t.Run(string(tc.mode), func(t *testing.T) {
			c := NewController(800)
			c.SetData(points)
			c.SetRange(tc.mode)
			if c.Mode() != tc.mode {
				t.Errorf("Mode() = %s, want %s", c.Mode(), tc.mode)
			}
			v := c.View()
			if v.T0 != tc.wantT0 || v.T1 != last {
				t.Errorf("View() = %+v, want T0 %d, T1 %d", v, tc.wantT0, last)
			}
		})
	}
}

func TestController_PanClampsAndGoesCustom(t *testing.T) {
	c := NewController(800)
	c.SetData(dailySeries(t, "2025-01-01", 60))
	c.SetRange(Range1W)
	before := c.View()

	// Dragging the plot to the right moves the window into the past.
	c.Pan(400)
	v := c.View()
	if c.Mode() != RangeCustom {
		t.Errorf("Mode() = %s, want CUSTOM after pan", c.Mode())
	}
	if v.T0 >= before.T0 {
		t.Errorf("pan right should move the window back: T0 %d -> %d", before.T0, v.T0)
	}
	if v.Span() != before.Span() {
		t.Errorf("pan changed the span: %d -> %d", before.Span(), v.Span())
	}

	// A huge pan must stop at the series start.
	c.Pan(1e9)
	if got := c.View().T0; got != trackfolio.MustParseDay("2025-01-01").Unix() {
		t.Errorf("pan past the start: T0 = %d, want series start", got)
	}
}

func TestController_ZoomFloorAndCeiling(t *testing.T) {
	points := dailySeries(t, "2025-01-01", 60)
	c := NewController(800)
	c.SetData(points)

	// Zooming in hard bottoms out at the 3 day floor.
	for i := 0; i < 20; i++ {
		c.ZoomAt(400, 0.5)
	}
	if got := c.View().Span(); got != minSpanMs {
		t.Errorf("span after max zoom-in = %d, want %d", got, minSpanMs)
	}
	if c.Mode() != RangeCustom {
		t.Errorf("Mode() = %s, want CUSTOM after zoom", c.Mode())
	}

	// Zooming out tops out at the full span.
	for i := 0; i < 20; i++ {
		c.ZoomAt(400, 2)
	}
	full := points[len(points)-1].Day.Unix() - points[0].Day.Unix()
	if got := c.View().Span(); got != full {
		t.Errorf("span after max zoom-out = %d, want full span %d", got, full)
	}
}

func TestController_ZoomKeepsAnchorFixed(t *testing.T) {
	c := NewController(800)
	c.SetData(dailySeries(t, "2025-01-01", 60))

	px := 200.0
	anchor := c.timeAt(px)
	c.ZoomAt(px, 0.5)
	after := c.timeAt(px)

	// Within a day of slack for integer rounding of the window bounds.
	if diff := anchor - after; diff < -dayMs || diff > dayMs {
		t.Errorf("anchor moved by %d ms under zoom", diff)
	}
}

func TestController_HoverAndDrag(t *testing.T) {
	points := dailySeries(t, "2025-01-01", 10)
	c := NewController(900)
	c.SetData(points)

	i, ok := c.Hover(0)
	if !ok || i != 0 {
		t.Errorf("Hover(0) = %d, %v, want 0, true", i, ok)
	}
	i, ok = c.Hover(900)
	if !ok || i != len(points)-1 {
		t.Errorf("Hover(right edge) = %d, %v, want last index", i, ok)
	}
	if _, ok := c.Hover(-5); ok {
		t.Error("Hover outside the plot must not resolve")
	}

	// A drag suppresses hover and pans by the move delta.
	c.SetRange(Range1W)
	before := c.View()
	c.BeginDrag(300)
	if _, ok := c.Hover(300); ok {
		t.Error("hover during drag must not resolve")
	}
	c.DragTo(350)
	if c.View().T0 >= before.T0 {
		t.Error("drag right should pan into the past")
	}
	c.EndDrag()
	if c.Dragging() {
		t.Error("EndDrag must release the drag")
	}

	c.Leave()
	if c.Hovered() != -1 {
		t.Errorf("Hovered() = %d after Leave, want -1", c.Hovered())
	}
}

func TestController_Visible(t *testing.T) {
	points := dailySeries(t, "2025-01-01", 30)
	c := NewController(800)
	c.SetData(points)
	c.SetRange(Range1W)

	vis := c.Visible()
	if len(vis) != 8 { // 7 day window is inclusive of both edges
		t.Fatalf("len(Visible()) = %d, want 8", len(vis))
	}
	if vis[0].Day != trackfolio.MustParseDay("2025-01-23") {
		t.Errorf("Visible()[0].Day = %s, want 2025-01-23", vis[0].Day)
	}
	if vis[len(vis)-1].Day != trackfolio.MustParseDay("2025-01-30") {
		t.Errorf("last visible day = %s, want 2025-01-30", vis[len(vis)-1].Day)
	}
}

func TestController_TinySeries(t *testing.T) {
	// Fewer than 3 days of span: the window is the whole series and zooming
	// is a no-op.
	points := dailySeries(t, "2025-01-01", 2)
	c := NewController(800)
	c.SetData(points)
	full := c.View()
	c.ZoomAt(400, 0.1)
	if c.View() != full {
		t.Errorf("zoom on a tiny series changed the view: %+v -> %+v", full, c.View())
	}
}

func TestController_NoData(t *testing.T) {
	c := NewController(800)
	c.SetRange(Range1M)
	c.Pan(100)
	c.ZoomAt(10, 0.5)
	if _, ok := c.Hover(10); ok {
		t.Error("hover with no data must not resolve")
	}
	if len(c.Visible()) != 0 {
		t.Error("Visible() with no data must be empty")
	}
}

func TestParseRange(t *testing.T) {
	if got := ParseRange("1W"); got != Range1W {
		t.Errorf("ParseRange(1W) = %s", got)
	}
	if got := ParseRange("bogus"); got != RangeAll {
		t.Errorf("ParseRange(bogus) = %s, want ALL", got)
	}
}
