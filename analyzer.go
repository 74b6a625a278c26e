package trackfolio

// RangeResult is a return over a preset window. OK is false when the return
// cannot be derived (no point in the window, or a non-positive start index).
type RangeResult struct {
	Return Percent
	OK     bool
}

// RangeReturn computes the return between the first point on or after
// startDay and the end of the series, as a ratio of chain-linked indices.
// A startDay before the first point resolves to the first point; a startDay
// after the last point yields ok=false.
func RangeReturn(points []Point, startDay Date) (Percent, bool) {
	if len(points) == 0 {
		return 0, false
	}
	start, ok := FirstOnOrAfter(points, startDay)
	if !ok {
		return 0, false
	}
	startIdx := start.Index()
	endIdx := points[len(points)-1].Index()
	if startIdx <= 0 {
		return 0, false
	}
	return Percent((endIdx/startIdx - 1) * 100), true
}

// MaxDrawdown returns the most negative decline of the chain-linked index
// from its running peak, in percent. It is always <= 0, and exactly 0 when
// the index never falls below a previous peak.
func MaxDrawdown(points []Point) Percent {
	peak := 0.0
	maxDD := 0.0
	for _, p := range points {
		idx := p.Index()
		if idx <= 0 {
			continue
		}
		if idx > peak {
			peak = idx
		}
		if dd := (idx/peak - 1) * 100; dd < maxDD {
			maxDD = dd
		}
	}
	return Percent(maxDD)
}

// PresetReturns are the standard trailing windows derived from the series
// end: the week window is day-based, the month windows are calendar months
// clamped to month end, and YTD starts on January 1st of the end year.
type PresetReturns struct {
	Week    RangeResult
	Month   RangeResult
	Quarter RangeResult
	Half    RangeResult
	YTD     RangeResult
	Year    RangeResult
}

// ComputePresets evaluates every preset window against the series.
func ComputePresets(points []Point) PresetReturns {
	var out PresetReturns
	if len(points) == 0 {
		return out
	}
	end := points[len(points)-1].Day

	calc := func(start Date) RangeResult {
		r, ok := RangeReturn(points, start)
		return RangeResult{Return: r, OK: ok}
	}

	out.Week = calc(end.Add(-7))
	out.Month = calc(end.AddMonths(-1))
	out.Quarter = calc(end.AddMonths(-3))
	out.Half = calc(end.AddMonths(-6))
	out.YTD = calc(end.StartOfYear())
	out.Year = calc(end.AddMonths(-12))
	return out
}
