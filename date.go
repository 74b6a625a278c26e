package trackfolio

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat is the format used to represent dates as strings in ISO-8601 format.
const DateFormat = "2006-01-02"

// Date represents a date with day-level granularity, on the UTC calendar.
// Its string form sorts lexicographically in chronological order.
type Date struct {
	y int        // year
	m time.Month // month
	d int        // day
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Today returns the current date.
func Today() Date { return NewDate(time.Now().UTC().Date()) }

// Year returns the year of the date.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.time().Format(DateFormat) }

// IsZero returns true if the date is the zero value.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

// time returns a time.Time that is a canonical representation of that day (at midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Format returns a textual representation of the date value formatted
// according to the layout defined by the argument. See [time.Format].
func (d Date) Format(layout string) string { return d.time().Format(layout) }

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Compare returns -1, 0 or +1 depending on whether d sorts before, equal to,
// or after x. It is suitable for slices.SortFunc and slices.BinarySearchFunc.
func (d Date) Compare(x Date) int {
	switch {
	case d.Before(x):
		return -1
	case d.After(x):
		return 1
	default:
		return 0
	}
}

// Add returns a new Date with the given number of days added.
func (d Date) Add(days int) Date { return NewDate(d.y, d.m, d.d+days) }

// AddMonths returns the date shifted by the given number of calendar months.
// When the target month is shorter than the source day, the result is clamped
// to the last day of the target month (Mar 31 minus one month is Feb 28/29).
func (d Date) AddMonths(months int) Date {
	first := NewDate(d.y, d.m+time.Month(months), 1)
	lastDay := NewDate(first.y, first.m+1, 0).d
	day := d.d
	if day > lastDay {
		day = lastDay
	}
	return NewDate(first.y, first.m, day)
}

// StartOfYear returns January 1st of the date's year.
func (d Date) StartOfYear() Date { return NewDate(d.y, time.January, 1) }

// Unix returns the date as milliseconds since the Unix epoch, at midnight UTC.
// This is the time value used on the chart's horizontal axis.
func (d Date) Unix() int64 { return d.time().UnixMilli() }

// FromUnixSeconds converts an epoch timestamp in seconds to the UTC calendar
// day it falls on.
func FromUnixSeconds(sec int64) Date {
	return NewDate(time.Unix(sec, 0).UTC().Date())
}

// ParseDay parses a strict YYYY-MM-DD day key. Anything else is an error:
// the engine filters its calendar to this exact shape.
func ParseDay(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid day %q, want format %q: %w", s, DateFormat, err)
	}
	return NewDate(t.Date()), nil
}

// IsDayKey reports whether s has the strict YYYY-MM-DD shape.
func IsDayKey(s string) bool {
	_, err := ParseDay(s)
	return err == nil
}

// MustParseDay is like ParseDay but panics on error. For tests and literals.
func MustParseDay(s string) Date {
	d, err := ParseDay(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// UnmarshalJSON decodes a date from a JSON string in YYYY-MM-DD form.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON encodes the date as a JSON string in YYYY-MM-DD form.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)
