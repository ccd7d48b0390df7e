// Package datetime provides calendar-date utility functions.
package datetime

import (
	"time"
)

// DateLayout is the format expected in request files and is also the output
// date format.
const DateLayout = "2006-01-02"

// MustParseDate parses a date string using DateLayout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseDate(dateStr string) time.Time {
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate parses a date string using DateLayout.
func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse(DateLayout, dateStr)
}

// OffsetMonths returns the date offset by the given number of months relative
// to the given date. Day-of-month is preserved the way time.AddDate does it,
// which matches how due dates roll month over month on these contracts.
func OffsetMonths(date time.Time, months int) time.Time {
	return date.AddDate(0, months, 0)
}

// NextDay returns the calendar day immediately after the given date.
func NextDay(date time.Time) time.Time {
	return date.AddDate(0, 0, 1)
}

// SameMonth reports whether two dates fall in the same calendar month of the
// same year.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// WithinInclusive reports whether date falls in [start, end] where both
// endpoints are inclusive calendar days.
func WithinInclusive(date, start, end time.Time) bool {
	return !date.Before(start) && !date.After(end)
}

// Format renders the date in DateLayout.
func Format(date time.Time) string {
	return date.Format(DateLayout)
}
