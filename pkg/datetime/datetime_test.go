package datetime

import (
	"testing"
	"time"
)

func TestOffsetMonths(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		months   int
		expected string
	}{
		{
			name:     "One month forward",
			date:     "2018-06-21",
			months:   1,
			expected: "2018-07-21",
		},
		{
			name:     "Year boundary",
			date:     "2018-12-21",
			months:   1,
			expected: "2019-01-21",
		},
		{
			name:     "Full 360-month term",
			date:     "2018-06-21",
			months:   360,
			expected: "2048-06-21",
		},
		{
			name:     "Backward offset",
			date:     "2018-06-21",
			months:   -1,
			expected: "2018-05-21",
		},
		{
			name:     "Zero offset",
			date:     "2018-06-21",
			months:   0,
			expected: "2018-06-21",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := OffsetMonths(MustParseDate(tt.date), tt.months)
			if Format(result) != tt.expected {
				t.Errorf("OffsetMonths(%s, %d) = %s, expected %s",
					tt.date, tt.months, Format(result), tt.expected)
			}
		})
	}
}

func TestSameMonth(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{"Same month different day", "2018-06-01", "2018-06-21", true},
		{"Different month", "2018-06-21", "2018-07-21", false},
		{"Same month different year", "2018-06-21", "2019-06-21", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SameMonth(MustParseDate(tt.a), MustParseDate(tt.b))
			if result != tt.expected {
				t.Errorf("SameMonth(%s, %s) = %v, expected %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestWithinInclusive(t *testing.T) {
	start := MustParseDate("2018-06-21")
	end := MustParseDate("2020-06-20")

	tests := []struct {
		name     string
		date     string
		expected bool
	}{
		{"Start boundary", "2018-06-21", true},
		{"End boundary", "2020-06-20", true},
		{"Inside", "2019-01-01", true},
		{"Day before start", "2018-06-20", false},
		{"Day after end", "2020-06-21", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WithinInclusive(MustParseDate(tt.date), start, end)
			if result != tt.expected {
				t.Errorf("WithinInclusive(%s) = %v, expected %v", tt.date, result, tt.expected)
			}
		})
	}
}

func TestParseDateRejectsInvalid(t *testing.T) {
	if _, err := ParseDate("21/06/2018"); err == nil {
		t.Error("ParseDate accepted a non-ISO date string")
	}
	if _, err := ParseDate("2018-13-01"); err == nil {
		t.Error("ParseDate accepted month 13")
	}
}

func TestNextDay(t *testing.T) {
	got := NextDay(MustParseDate("2018-06-30"))
	if !got.Equal(time.Date(2018, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("NextDay(2018-06-30) = %s", Format(got))
	}
}
