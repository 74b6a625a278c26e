package trackfolio

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Position is a single buy (and optional sell) of a security, as supplied by
// the imported data file. It is immutable for a session. A position is open
// iff it has no sell date.
//
// Date and numeric fields are kept close to the wire shape on purpose: the
// import data is messy, and invalid fields must exclude a position from
// aggregates rather than fail the whole load.
type Position struct {
	Symbol     string `json:"symbol"`
	BuyDate    string `json:"buyDate"`
	SellDate   string `json:"sellDate,omitempty"`
	UnitCost   Amount `json:"unitCost"`
	Total      Amount `json:"total"`
	StopLoss   Amount `json:"stopLoss,omitempty"`
	TakeProfit Amount `json:"takeProfit,omitempty"`
	Outcome    Marker `json:"outcome,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Open reports whether the position is still held.
func (p Position) Open() bool { return strings.TrimSpace(p.SellDate) == "" }

// Ticker returns the normalized (trimmed, uppercased) symbol, or "" when the
// symbol is blank.
func (p Position) Ticker() string {
	return strings.ToUpper(strings.TrimSpace(p.Symbol))
}

// Qty derives the implied share quantity of the position. ok is false when
// either operand is missing or the unit cost is zero.
func (p Position) Qty() (qty float64, ok bool) {
	if !p.Total.Set || !p.UnitCost.Set {
		return 0, false
	}
	return ApproxQuantity(p.Total.Value, p.UnitCost.Value)
}

// Amount is an optional numeric field. Set is false when the field was
// absent, empty, null, or not numeric.
type Amount struct {
	Value float64
	Set   bool
}

// A returns a set Amount; a convenience for tests and literals.
func A(v float64) Amount { return Amount{Value: v, Set: true} }

// UnmarshalJSON accepts a JSON number, a numeric string, null, or "".
func (a *Amount) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*a = Amount{Value: f, Set: isFinite(f)}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*a = Amount{}
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*a = Amount{}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(f) {
		*a = Amount{}
		return nil
	}
	*a = Amount{Value: f, Set: true}
	return nil
}

// MarshalJSON encodes the amount as a number, or null when unset.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// Marker is the raw outcome flag as stored in the data file: 1/0 as numbers
// or strings, or a free-text label.
type Marker string

// UnmarshalJSON accepts a JSON number or string.
func (m *Marker) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = Marker(strings.TrimSpace(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*m = Marker(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// MarshalJSON encodes the marker as its raw string form.
func (m Marker) MarshalJSON() ([]byte, error) { return json.Marshal(string(m)) }

// Outcome classifies how a position ended.
type Outcome int

const (
	// OutcomeUnknown is a closed position with no recognizable marker.
	OutcomeUnknown Outcome = iota
	// OutcomeGood is a position marked as a win (marker 1 or "good").
	OutcomeGood
	// OutcomeBad is a position marked as a loss (marker 0 or "bad").
	OutcomeBad
	// OutcomeNeutral is a position that has not been sold yet.
	OutcomeNeutral
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGood:
		return "good"
	case OutcomeBad:
		return "bad"
	case OutcomeNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// OutcomeClass derives the outcome of a position from its stored marker,
// falling back to neutral for open positions.
func (p Position) OutcomeClass() Outcome {
	switch strings.ToLower(string(p.Outcome)) {
	case "1", "good":
		return OutcomeGood
	case "0", "bad":
		return OutcomeBad
	}
	if p.Open() {
		return OutcomeNeutral
	}
	return OutcomeUnknown
}

// ApproxQuantity derives the implied share quantity from the invested amount
// and the unit cost. The result is the nearest integer when within 1e-6 of
// one, otherwise rounded to 2 decimals. ok is false when unitCost is zero or
// either operand is not a finite number; callers must treat that as "exclude
// from aggregates", never as zero exposure.
func ApproxQuantity(total, unitCost float64) (qty float64, ok bool) {
	if !isFinite(total) || !isFinite(unitCost) || unitCost == 0 {
		return 0, false
	}
	q := total / unitCost
	nearest := math.Round(q)
	if math.Abs(q-nearest) < 1e-6 {
		return nearest, true
	}
	return math.Round(q*100) / 100, true
}

// ExitPrice resolves the realized exit price for a closed position. By
// policy, closed trades are assumed to have exited exactly at the stop or
// target: the take profit when the outcome is good, the stop loss when bad.
// ok is false for anything else; this is a policy choice, not a measured
// transaction price.
func (p Position) ExitPrice() (price float64, ok bool) {
	switch p.OutcomeClass() {
	case OutcomeGood:
		return p.TakeProfit.Value, p.TakeProfit.Set
	case OutcomeBad:
		return p.StopLoss.Value, p.StopLoss.Set
	default:
		return 0, false
	}
}

// Resolution is the derived view of a position used by every downstream
// component.
type Resolution struct {
	Qty     float64
	QtyOK   bool
	Outcome Outcome
	Exit    float64
	ExitOK  bool
	PnLAbs  float64
	PnLOK   bool
	PnLPct  Percent
	PctOK   bool
}

// Resolve derives quantity, outcome, exit price and exit P&L for a position.
func Resolve(p Position) Resolution {
	r := Resolution{Outcome: p.OutcomeClass()}
	r.Qty, r.QtyOK = p.Qty()
	r.Exit, r.ExitOK = p.ExitPrice()
	if r.ExitOK {
		r.PnLAbs, r.PnLOK, r.PnLPct, r.PctOK = PnLAt(p, r.Exit)
	}
	return r
}

// PnLAt computes the profit and loss of a position against an arbitrary exit
// price (a resolved exit for closed positions, a live quote for open ones).
func PnLAt(p Position, exit float64) (abs float64, absOK bool, pct Percent, pctOK bool) {
	qty, ok := p.Qty()
	if !ok || !isFinite(exit) {
		return 0, false, 0, false
	}
	abs = qty * (exit - p.UnitCost.Value)
	if p.UnitCost.Value != 0 {
		return abs, true, Percent((exit/p.UnitCost.Value - 1) * 100), true
	}
	return abs, true, 0, false
}

// RiskReward is the cash at risk and the cash reward of an open position,
// derived from its stop loss and take profit.
type RiskReward struct {
	Risk     float64
	Reward   float64
	Resolved bool
}

// RiskRewardOf computes the risk/reward amounts for an open position. Both
// sides are clamped at zero: a stop above entry or a target below entry
// contributes nothing, so risk is never shown as negative.
func RiskRewardOf(p Position) RiskReward {
	qty, ok := p.Qty()
	if !ok || p.UnitCost.Value == 0 || !p.StopLoss.Set || !p.TakeProfit.Set {
		return RiskReward{}
	}
	return RiskReward{
		Risk:     qty * math.Max(p.UnitCost.Value-p.StopLoss.Value, 0),
		Reward:   qty * math.Max(p.TakeProfit.Value-p.UnitCost.Value, 0),
		Resolved: true,
	}
}

// Tickers returns the deduplicated, normalized set of symbols across the
// positions, in first-appearance order.
func Tickers(positions []Position) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(positions))
	for _, p := range positions {
		t := p.Ticker()
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// NormalizeTickers splits a comma- or space-separated ticker list, trims,
// uppercases and deduplicates it, capping the result at max entries (0 for
// no cap).
func NormalizeTickers(raw string, max int) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.ToUpper(strings.TrimSpace(f))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
