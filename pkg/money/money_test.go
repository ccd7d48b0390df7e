package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected string
	}{
		{"Plain value", "1234.56", "R$ 1.234,56"},
		{"Negative value", "-1234.56", "-R$ 1.234,56"},
		{"No grouping needed", "840", "R$ 840,00"},
		{"Millions", "302400.00", "R$ 302.400,00"},
		{"Rounded cents", "2714.959", "R$ 2.714,96"},
		{"Zero", "0", "R$ 0,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatBRL(mustDecimal(t, tt.amount))
			if result != tt.expected {
				t.Errorf("FormatBRL(%s) = %q, expected %q", tt.amount, result, tt.expected)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		name     string
		rate     string
		expected string
	}{
		{"Contract rate", "0.005654145387", "0,5654%"},
		{"Market rate", "0.0062", "0,6200%"},
		{"Spread", "0.000545854613", "0,0546%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatPercent(mustDecimal(t, tt.rate))
			if result != tt.expected {
				t.Errorf("FormatPercent(%s) = %q, expected %q", tt.rate, result, tt.expected)
			}
		})
	}
}

func TestRoundCents(t *testing.T) {
	got := RoundCents(mustDecimal(t, "1709.8135650288"))
	if !got.Equal(mustDecimal(t, "1709.81")) {
		t.Errorf("RoundCents(1709.8135650288) = %s, expected 1709.81", got)
	}
}

func TestWithinCent(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{"Exactly equal", "840.00", "840.00", true},
		{"One cent apart", "840.00", "840.01", true},
		{"Two cents apart", "840.00", "840.02", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WithinCent(mustDecimal(t, tt.a), mustDecimal(t, tt.b))
			if result != tt.expected {
				t.Errorf("WithinCent(%s, %s) = %v, expected %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}
