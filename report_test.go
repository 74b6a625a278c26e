package trackfolio

import (
	"strings"
	"testing"
)

func reportFixture() ([]Position, []Point) {
	positions := []Position{
		{Symbol: "AAA", BuyDate: "2025-01-01", UnitCost: A(10), Total: A(1000)},
		{Symbol: "BBB", BuyDate: "2025-01-02", SellDate: "2025-01-10", UnitCost: A(5), Total: A(500),
			Outcome: "1", TakeProfit: A(6), StopLoss: A(4)},
		{Symbol: "CCC", BuyDate: "2025-01-03", SellDate: "2025-01-12", UnitCost: A(20), Total: A(400),
			Outcome: "0", TakeProfit: A(25), StopLoss: A(18)},
	}
	points := []Point{
		{Day: MustParseDay("2025-01-01"), Pct: 0, Value: 1000},
		{Day: MustParseDay("2025-01-12"), Pct: 5, Value: 1995},
	}
	return positions, points
}

func TestNewReport(t *testing.T) {
	positions, points := reportFixture()
	r := NewReport(positions, points, "")

	if r.Currency != DefaultCurrency {
		t.Errorf("Currency = %q, want default", r.Currency)
	}
	if r.Open != 1 || r.Closed != 2 || r.Wins != 1 || r.Losses != 1 {
		t.Errorf("counts = open %d closed %d wins %d losses %d", r.Open, r.Closed, r.Wins, r.Losses)
	}
	if r.Invested != 1900 {
		t.Errorf("Invested = %v, want 1900", r.Invested)
	}
	// BBB won 100*(6-5)=100, CCC lost 20*(18-20)=-40.
	if r.Realized != 60 {
		t.Errorf("Realized = %v, want 60", r.Realized)
	}
	if rate, ok := r.WinRate(); !ok || !rate.Equal(50) {
		t.Errorf("WinRate() = %v, %v, want 50%%", rate, ok)
	}
	if r.End == nil || r.End.Value != 1995 {
		t.Errorf("End = %+v, want the last point", r.End)
	}
}

func TestReport_Markdown(t *testing.T) {
	positions, points := reportFixture()
	md := NewReport(positions, points, "TRY").Markdown()

	for _, want := range []string{
		"# Portfolio performance",
		"| Open positions | 1 |",
		"| Wins / losses | 1 / 1 |",
		"50.00%",
		"## Range returns",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestReport_WinRate_NoClassified(t *testing.T) {
	r := NewReport([]Position{{Symbol: "AAA", BuyDate: "2025-01-01", UnitCost: A(10), Total: A(1000)}}, nil, "")
	if _, ok := r.WinRate(); ok {
		t.Error("win rate must be unresolved with no classified trades")
	}
}
