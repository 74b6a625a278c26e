package trackfolio

import "strings"

// PriceSeries is the daily closing-price history of one ticker: parallel
// slices of epoch-second timestamps and closes, sorted ascending by time
// (provider contract). Gaps are expected; the engine forward-fills them.
type PriceSeries struct {
	Timestamps []int64   `json:"timestamps"`
	Close      []float64 `json:"close"`
}

// PriceBook maps tickers to their price history.
type PriceBook map[string]PriceSeries

// Normalize returns a copy of the book with trimmed, uppercased tickers.
func (b PriceBook) Normalize() PriceBook {
	out := make(PriceBook, len(b))
	for t, s := range b {
		key := strings.ToUpper(strings.TrimSpace(t))
		if key == "" {
			continue
		}
		out[key] = s
	}
	return out
}

// Quote is a live intraday quote, valid only for the current calendar day.
type Quote struct {
	Price     float64 `json:"price"`
	ChangePct float64 `json:"changePct"`
	ChangeAbs float64 `json:"changeAbs"`
}

// QuoteBook maps tickers to their live quote.
type QuoteBook map[string]Quote

// fillCursor walks one ticker's price series in lockstep with the engine's
// day loop, carrying the last known close forward. The cursor only ever
// advances: the forward-filled price never regresses in time.
type fillCursor struct {
	days   []Date
	closes []float64
	i      int
	last   float64
	seen   bool
}

// newFillCursor converts a series into a cursor, dropping samples whose
// timestamp or close is unusable. Slices of unequal length are paired up to
// the shorter one.
func newFillCursor(s PriceSeries) *fillCursor {
	n := min(len(s.Timestamps), len(s.Close))
	c := &fillCursor{
		days:   make([]Date, 0, n),
		closes: make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		if !isFinite(s.Close[i]) {
			continue
		}
		c.days = append(c.days, FromUnixSeconds(s.Timestamps[i]))
		c.closes = append(c.closes, s.Close[i])
	}
	return c
}

// advance moves the cursor to the given day and returns the last close on or
// before it. ok is false while no sample has been observed yet.
func (c *fillCursor) advance(day Date) (close float64, ok bool) {
	for c.i < len(c.days) && !c.days[c.i].After(day) {
		c.last = c.closes[c.i]
		c.seen = true
		c.i++
	}
	return c.last, c.seen
}
