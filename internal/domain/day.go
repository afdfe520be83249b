package domain

import (
	"fmt"
	"time"
)

// DayFormat is the canonical layout of a Day.
const DayFormat = "2006-01-02"

// permissive read layout, accepts 2026-1-2
const dayReadFormat = "2006-1-2"

// Day is a calendar date in canonical YYYY-MM-DD form.
// Days are fixed-width and zero-padded so string comparison matches calendar order.
type Day string

// NewDay returns the Day for the given calendar date, normalizing overflow.
func NewDay(year int, month time.Month, day int) Day {
	return Day(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(DayFormat))
}

// DayOf returns the calendar day of t in t's location.
func DayOf(t time.Time) Day {
	return NewDay(t.Date())
}

// Today returns the current calendar day in local time.
func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses a Day. It accepts the canonical layout, single-digit
// months and days, and RFC3339 timestamps (truncated to their date part).
func ParseDay(s string) (Day, error) {
	if t, err := time.Parse(dayReadFormat, s); err == nil {
		return DayOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DayOf(t), nil
	}
	return "", fmt.Errorf("%w: %q, want %s", ErrInvalidDay, s, DayFormat)
}

// MustParseDay is like ParseDay but panics on error.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// Valid reports whether d is in canonical form and names a real date.
func (d Day) Valid() bool {
	t, err := time.Parse(DayFormat, string(d))
	return err == nil && t.Format(DayFormat) == string(d)
}

// AddDays returns d shifted by n calendar days.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(DayFormat, string(d))
	if err != nil {
		return d
	}
	return DayOf(t.AddDate(0, 0, n))
}

// StartOfMonth returns the first day of d's month.
func (d Day) StartOfMonth() Day {
	t, err := time.Parse(DayFormat, string(d))
	if err != nil {
		return d
	}
	return NewDay(t.Year(), t.Month(), 1)
}

// Before reports whether d is strictly earlier than x.
func (d Day) Before(x Day) bool { return d < x }

// After reports whether d is strictly later than x.
func (d Day) After(x Day) bool { return d > x }

// Between reports whether from <= d <= to.
func (d Day) Between(from, to Day) bool { return d >= from && d <= to }

func (d Day) String() string { return string(d) }
