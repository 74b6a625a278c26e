package trackfolio

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Report is an at-a-glance overview of the tracked positions and the
// performance series: trade outcome counts, invested and realized amounts,
// the preset range returns and the maximum drawdown.
type Report struct {
	Date     Date
	Currency string

	Open   int
	Closed int
	Wins   int
	Losses int

	Invested float64 // total cash put into closed and open positions
	Realized float64 // sum of resolved exit P&L over closed positions

	End         *Point // last point of the series, nil when the series is empty
	Presets     PresetReturns
	MaxDrawdown Percent
}

// NewReport derives a report from the position list and a computed series.
func NewReport(positions []Position, points []Point, currency string) *Report {
	if currency == "" {
		currency = DefaultCurrency
	}
	r := &Report{Date: Today(), Currency: currency}

	// Sums run on decimals so a long position list does not accumulate
	// float noise in the displayed totals.
	invested := decimal.Zero
	realized := decimal.Zero

	for _, p := range positions {
		res := Resolve(p)
		if !res.QtyOK {
			continue
		}
		if p.Total.Set {
			invested = invested.Add(decimal.NewFromFloat(p.Total.Value))
		}
		if p.Open() {
			r.Open++
			continue
		}
		r.Closed++
		switch res.Outcome {
		case OutcomeGood:
			r.Wins++
		case OutcomeBad:
			r.Losses++
		}
		if res.PnLOK {
			realized = realized.Add(decimal.NewFromFloat(res.PnLAbs))
		}
	}
	r.Invested = invested.InexactFloat64()
	r.Realized = realized.InexactFloat64()

	if len(points) > 0 {
		end := points[len(points)-1]
		r.End = &end
	}
	r.Presets = ComputePresets(points)
	r.MaxDrawdown = MaxDrawdown(points)
	return r
}

// WinRate returns the share of classified closed trades that were wins.
func (r *Report) WinRate() (Percent, bool) {
	classified := r.Wins + r.Losses
	if classified == 0 {
		return 0, false
	}
	return Percent(float64(r.Wins) / float64(classified) * 100), true
}

// FormatMoney renders an amount in the report's account currency.
func (r *Report) FormatMoney(v float64) string {
	return money.NewFromFloat(v, r.Currency).Display()
}

const reportTemplate = `# Portfolio performance — {{.Date}}

| | |
|---|---|
| Open positions | {{.Open}} |
| Closed positions | {{.Closed}} |
| Wins / losses | {{.Wins}} / {{.Losses}} |
| Win rate | {{.WinRateString}} |
| Invested | {{.InvestedString}} |
| Realized P&L | {{.RealizedString}} |
{{if .End}}| Portfolio value | {{.ValueString}} |
| Cumulative TWR | {{.PctString}} |
{{end}}
## Range returns

| Window | Return |
|---|---|
| Week | {{.Week}} |
| Month | {{.MonthRet}} |
| 3 months | {{.Quarter}} |
| 6 months | {{.Half}} |
| Year to date | {{.YTD}} |
| 12 months | {{.YearRet}} |
| Max drawdown | {{.DrawdownString}} |
`

// Markdown renders the report as a markdown document.
func (r *Report) Markdown() string {
	na := "n/a"
	preset := func(res RangeResult) string {
		if !res.OK {
			return na
		}
		return res.Return.SignedString()
	}

	data := struct {
		*Report
		WinRateString  string
		InvestedString string
		RealizedString string
		ValueString    string
		PctString      string
		Week           string
		MonthRet       string
		Quarter        string
		Half           string
		YTD            string
		YearRet        string
		DrawdownString string
	}{
		Report:         r,
		WinRateString:  na,
		InvestedString: r.FormatMoney(r.Invested),
		RealizedString: r.FormatMoney(r.Realized),
		Week:           preset(r.Presets.Week),
		MonthRet:       preset(r.Presets.Month),
		Quarter:        preset(r.Presets.Quarter),
		Half:           preset(r.Presets.Half),
		YTD:            preset(r.Presets.YTD),
		YearRet:        preset(r.Presets.Year),
		DrawdownString: r.MaxDrawdown.String(),
	}
	if rate, ok := r.WinRate(); ok {
		data.WinRateString = rate.String()
	}
	if r.End != nil {
		data.ValueString = r.FormatMoney(r.End.Value)
		data.PctString = Percent(r.End.Pct).SignedString()
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Sprintf("error parsing report template: %v", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return fmt.Sprintf("error executing report template: %v", err)
	}
	return b.String()
}
