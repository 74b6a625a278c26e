package chart

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"github.com/okutan/trackfolio"
)

// WriteCSV exports points as delimited text with the header
// day,pct,value,dayReturnPct. Numbers are rounded to 2 decimals; a value
// that is not a finite number is written blank rather than as a zero.
func WriteCSV(w io.Writer, points []trackfolio.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"day", "pct", "value", "dayReturnPct"}); err != nil {
		return fmt.Errorf("cannot write csv header: %w", err)
	}
	for _, p := range points {
		rec := []string{p.Day.String(), num(p.Pct), num(p.Value), num(p.DayReturnPct)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("cannot write csv row for %s: %w", p.Day, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}
