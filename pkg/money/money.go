// Package money provides decimal helpers and locale formatting for monetary
// and rate values.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyTolerance is the tolerance for monetary comparisons (1 cent).
var CurrencyTolerance = decimal.New(1, -2)

// RoundCents rounds a value to two decimals, i.e. to represent real currency.
func RoundCents(val decimal.Decimal) decimal.Decimal {
	return val.Round(2)
}

// WithinCent reports whether two values differ by at most one cent.
func WithinCent(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(CurrencyTolerance)
}

// FormatBRL returns a currency string with the R$ symbol and Brazilian
// separators (e.g., "-R$ 1.234,56").
func FormatBRL(amount decimal.Decimal) string {
	formatted := formatGrouped(amount.Abs())
	if amount.IsNegative() {
		return "-R$ " + formatted
	}
	return "R$ " + formatted
}

// FormatPercent renders a monthly rate fraction as a Brazilian percentage
// string with four decimal places (e.g., 0.0056541454 -> "0,5654%").
func FormatPercent(rate decimal.Decimal) string {
	pct := rate.Mul(decimal.NewFromInt(100)).StringFixed(4)
	return strings.ReplaceAll(pct, ".", ",") + "%"
}

func formatGrouped(value decimal.Decimal) string {
	formatted := value.StringFixed(2)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte('.')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "," + decPart
}
