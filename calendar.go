package trackfolio

import "slices"

// BuyEvent is a cash outflow opening (or adding to) a holding on a given day.
type BuyEvent struct {
	Ticker string
	Qty    float64
	Cost   float64
}

// SellEvent closes (part of) a holding on a given day. Exit may be
// unresolved; the engine then falls back to the forward-filled close, and
// finally to the ticker's first-seen unit cost.
type SellEvent struct {
	Ticker string
	Qty    float64
	Exit   float64
	ExitOK bool
}

// DayEvents groups the events of one calendar day. Sells are applied before
// buys on the same day.
type DayEvents struct {
	Buys  []BuyEvent
	Sells []SellEvent
}

// Calendar is the sparse event map plus the full ordered day set the
// valuation engine walks: every transaction day, every day present in any
// ticker's price history, and today.
type Calendar struct {
	Events map[Date]*DayEvents
	Days   []Date
}

// On returns the events of a day, or an empty set.
func (c Calendar) On(day Date) DayEvents {
	if e := c.Events[day]; e != nil {
		return *e
	}
	return DayEvents{}
}

// BuildCalendar derives the event calendar from the position list and the
// price history. A position contributes a buy event when its buy date,
// quantity and invested amount are all valid, and a sell event when a valid
// sell date is present. Invalid fields exclude the event, they never become
// zeros.
func BuildCalendar(positions []Position, book PriceBook, today Date) Calendar {
	cal := Calendar{Events: make(map[Date]*DayEvents)}

	ensure := func(day Date) *DayEvents {
		e := cal.Events[day]
		if e == nil {
			e = &DayEvents{}
			cal.Events[day] = e
		}
		return e
	}

	for _, p := range positions {
		ticker := p.Ticker()
		if ticker == "" {
			continue
		}
		buyDay, err := ParseDay(p.BuyDate)
		if err != nil {
			continue
		}
		qty, ok := p.Qty()
		if !ok {
			continue
		}
		ensure(buyDay).Buys = append(ensure(buyDay).Buys, BuyEvent{Ticker: ticker, Qty: qty, Cost: p.Total.Value})

		if p.Open() {
			continue
		}
		sellDay, err := ParseDay(p.SellDate)
		if err != nil {
			continue
		}
		exit, exitOK := p.ExitPrice()
		ensure(sellDay).Sells = append(ensure(sellDay).Sells, SellEvent{Ticker: ticker, Qty: qty, Exit: exit, ExitOK: exitOK})
	}

	set := make(map[Date]struct{}, len(cal.Events))
	for day := range cal.Events {
		set[day] = struct{}{}
	}
	for _, series := range book {
		for _, ts := range series.Timestamps {
			set[FromUnixSeconds(ts)] = struct{}{}
		}
	}
	set[today] = struct{}{}

	cal.Days = make([]Date, 0, len(set))
	for day := range set {
		cal.Days = append(cal.Days, day)
	}
	slices.SortFunc(cal.Days, Date.Compare)
	return cal
}
