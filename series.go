package trackfolio

import (
	"slices"
	"sort"
)

// Point is one day of the chain-linked performance series.
//
// Pct is the cumulative chain-linked index expressed as a percentage,
// (index-1)*100. External is the net cash injected that day (new money
// inferred from buys exceeding available cash). The series is append-only
// within one computation and strictly increasing by Day.
type Point struct {
	Day           Date    `json:"day"`
	Pct           float64 `json:"pct"`
	DayReturnPct  float64 `json:"dayReturnPct"`
	Value         float64 `json:"value"`
	HoldingsValue float64 `json:"holdingsValue"`
	Cash          float64 `json:"cash"`
	External      float64 `json:"external"`
}

// Index returns the chain-linked index value of the point (1.0 = flat).
func (p Point) Index() float64 { return 1 + p.Pct/100 }

// ComputeSeries turns the position list, the per-ticker daily close history
// and an optional set of live quotes into the daily time-weighted return
// series. Quotes override the historical close on today only; pass nil to
// compute from history alone.
//
// The computation is pure: it holds no state between calls and is always
// recomputed from scratch on new inputs.
//
// Each day, in ascending order:
//  1. every ticker's last known close is forward-filled (and overridden by a
//     live quote on today);
//  2. sells are applied, then buys; a buy exceeding available cash injects
//     the shortfall as external cash;
//  3. the book is valued as cash plus holdings, where a held ticker with no
//     price ever observed is excluded from valuation (a documented
//     limitation, it understates value rather than inventing a price);
//  4. the daily return r = (value - (prev + external)) / (prev + external)
//     is chain-linked into the cumulative index, so injected cash alone
//     never registers as a gain.
//
// Days before the first external flow or positive value are skipped. An
// oversell (a sell event exceeding the held quantity) is deliberately not
// clamped: masking it would hide upstream data errors.
func ComputeSeries(positions []Position, book PriceBook, quotes QuoteBook, today Date) []Point {
	book = book.Normalize()
	cal := BuildCalendar(positions, book, today)

	// First-seen unit cost per ticker, the last resort for sell proceeds.
	unitFallback := make(map[string]float64)
	for _, p := range positions {
		t := p.Ticker()
		if t == "" || !p.UnitCost.Set {
			continue
		}
		if _, seen := unitFallback[t]; !seen {
			unitFallback[t] = p.UnitCost.Value
		}
	}

	cursors := make(map[string]*fillCursor, len(book))
	for t, series := range book {
		cursors[t] = newFillCursor(series)
	}

	held := make(map[string]float64)
	lastClose := make(map[string]float64)
	cash := 0.0
	index := 1.0
	prevValue := 0.0
	started := false
	var points []Point

	for _, day := range cal.Days {
		events := cal.On(day)

		for t, cur := range cursors {
			if close, ok := cur.advance(day); ok {
				lastClose[t] = close
			}
		}
		if quotes != nil && day == today {
			for t, q := range quotes {
				if isFinite(q.Price) {
					lastClose[t] = q.Price
				}
			}
		}

		external := 0.0

		for _, s := range events.Sells {
			if s.Qty <= 0 {
				continue
			}
			price, ok := s.Exit, s.ExitOK
			if !ok {
				price, ok = lastClose[s.Ticker]
			}
			if !ok {
				price, ok = unitFallback[s.Ticker]
			}
			if ok {
				cash += s.Qty * price
			}
			held[s.Ticker] -= s.Qty
		}

		for _, b := range events.Buys {
			if b.Qty <= 0 || b.Cost <= 0 {
				continue
			}
			if cash < b.Cost {
				needed := b.Cost - cash
				cash += needed
				external += needed
			}
			cash -= b.Cost
			held[b.Ticker] += b.Qty
		}

		holdingsValue := 0.0
		for _, t := range sortedTickers(held) {
			qty := held[t]
			if qty <= 0 {
				continue
			}
			price, ok := lastClose[t]
			if !ok {
				continue
			}
			holdingsValue += qty * price
		}

		value := cash + holdingsValue
		if !started {
			if external <= 0 && value <= 0 {
				continue
			}
			started = true
		}

		base := prevValue + external
		r := 0.0
		if base > 0 {
			r = (value - base) / base
		}
		index *= 1 + r
		points = append(points, Point{
			Day:           day,
			Pct:           (index - 1) * 100,
			DayReturnPct:  r * 100,
			Value:         value,
			HoldingsValue: holdingsValue,
			Cash:          cash,
			External:      external,
		})
		prevValue = value
	}

	return points
}

// sortedTickers keeps valuation order deterministic across runs.
func sortedTickers(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// FirstOnOrAfter returns the first point whose day is on or after the given
// day, using the series ordering invariant.
func FirstOnOrAfter(points []Point, day Date) (Point, bool) {
	i, _ := slices.BinarySearchFunc(points, day, func(p Point, d Date) int {
		return p.Day.Compare(d)
	})
	if i >= len(points) {
		return Point{}, false
	}
	return points[i], true
}
