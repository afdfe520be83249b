package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Day
		wantErr  bool
	}{
		{"2026-01-05", "2026-01-05", false},
		{"2026-1-5", "2026-01-05", false},
		{"2026-12-31T23:00:00Z", "2026-12-31", false},
		{"2026-02-29", "", true},
		{"2026-13-01", "", true},
		{"", "", true},
		{"tomorrow", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDay(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidDay) {
				t.Errorf("ParseDay(%q): expected ErrInvalidDay, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDay(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDay(%q) = %s, expected %s", tt.input, got, tt.expected)
		}
	}
}

func TestDayValid(t *testing.T) {
	t.Parallel()

	valid := []Day{"2024-02-29", "2026-01-01"}
	invalid := []Day{"2026-1-1", "2025-02-29", "", "2026-01-01T00:00:00Z"}

	for _, d := range valid {
		if !d.Valid() {
			t.Errorf("expected %q to be valid", d)
		}
	}
	for _, d := range invalid {
		if d.Valid() {
			t.Errorf("expected %q to be invalid", d)
		}
	}
}

func TestDayArithmetic(t *testing.T) {
	t.Parallel()

	if got := Day("2026-01-31").AddDays(1); got != "2026-02-01" {
		t.Errorf("expected month rollover, got %s", got)
	}
	if got := Day("2026-01-01").AddDays(-1); got != "2025-12-31" {
		t.Errorf("expected year rollover, got %s", got)
	}
	if got := Day("2026-03-17").StartOfMonth(); got != "2026-03-01" {
		t.Errorf("expected start of month, got %s", got)
	}
	if got := NewDay(2026, time.February, 30); got != "2026-03-02" {
		t.Errorf("expected NewDay to normalize overflow, got %s", got)
	}
}

func TestDayOrdering(t *testing.T) {
	t.Parallel()

	a, b := Day("2025-12-31"), Day("2026-01-01")
	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Error("Before does not match calendar order")
	}
	if !b.After(a) || a.After(b) {
		t.Error("After does not match calendar order")
	}
	if !a.Between(a, b) || !b.Between(a, b) || Day("2026-01-02").Between(a, b) {
		t.Error("Between must be inclusive on both ends")
	}
}

func TestDayOf(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+5", 5*3600)
	ts := time.Date(2026, 1, 1, 2, 0, 0, 0, loc)
	if got := DayOf(ts); got != "2026-01-01" {
		t.Fatalf("expected the calendar day in the timestamp's zone, got %s", got)
	}
}
