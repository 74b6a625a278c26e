package trackfolio

import "testing"

func daySec(s string) int64 { return MustParseDay(s).Unix() / 1000 }

func TestBuildCalendar(t *testing.T) {
	positions := []Position{
		{Symbol: "AAA", BuyDate: "2025-01-10", UnitCost: A(10), Total: A(1000)},
		{Symbol: "BBB", BuyDate: "2025-01-12", SellDate: "2025-01-20", UnitCost: A(5), Total: A(500), Outcome: "1", TakeProfit: A(6)},
		{Symbol: "CCC", BuyDate: "not-a-date", UnitCost: A(2), Total: A(200)},
		{Symbol: "DDD", BuyDate: "2025-01-11", UnitCost: A(0), Total: A(100)},
	}
	book := PriceBook{
		"AAA": {Timestamps: []int64{daySec("2025-01-10"), daySec("2025-01-13")}, Close: []float64{10, 11}},
	}
	today := MustParseDay("2025-01-25")

	cal := BuildCalendar(positions, book, today)

	buys := cal.On(MustParseDay("2025-01-10")).Buys
	if len(buys) != 1 || buys[0].Ticker != "AAA" || buys[0].Qty != 100 || buys[0].Cost != 1000 {
		t.Errorf("buys on 2025-01-10 = %+v, want one AAA buy of 100 for 1000", buys)
	}

	sells := cal.On(MustParseDay("2025-01-20")).Sells
	if len(sells) != 1 || sells[0].Ticker != "BBB" || sells[0].Qty != 100 {
		t.Fatalf("sells on 2025-01-20 = %+v, want one BBB sell of 100", sells)
	}
	if !sells[0].ExitOK || sells[0].Exit != 6 {
		t.Errorf("BBB exit = %v, %v, want 6, true", sells[0].Exit, sells[0].ExitOK)
	}

	// Invalid buy date and zero unit cost must contribute nothing at all.
	for day, events := range cal.Events {
		for _, b := range events.Buys {
			if b.Ticker == "CCC" || b.Ticker == "DDD" {
				t.Errorf("unexpected %s buy on %s", b.Ticker, day)
			}
		}
	}

	// The day axis covers transactions, every history sample, and today.
	wantDays := []Date{
		MustParseDay("2025-01-10"),
		MustParseDay("2025-01-12"),
		MustParseDay("2025-01-13"),
		MustParseDay("2025-01-20"),
		MustParseDay("2025-01-25"),
	}
	if len(cal.Days) != len(wantDays) {
		t.Fatalf("Days = %v, want %v", cal.Days, wantDays)
	}
	for i, d := range wantDays {
		if cal.Days[i] != d {
			t.Errorf("Days[%d] = %s, want %s", i, cal.Days[i], d)
		}
	}
}

func TestBuildCalendar_SellWithoutMarkerIsUnresolved(t *testing.T) {
	positions := []Position{
		{Symbol: "AAA", BuyDate: "2025-01-10", SellDate: "2025-01-15", UnitCost: A(10), Total: A(1000)},
	}
	cal := BuildCalendar(positions, nil, MustParseDay("2025-01-20"))
	sells := cal.On(MustParseDay("2025-01-15")).Sells
	if len(sells) != 1 {
		t.Fatalf("sells = %+v, want one", sells)
	}
	if sells[0].ExitOK {
		t.Error("sell without an outcome marker must carry no resolved exit")
	}
}
