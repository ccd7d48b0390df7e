// Package validation provides the structural checks applied to loan
// parameters, rate bands, correction series, and charge lists before any
// scheduling begins. No partial schedules are ever produced for invalid
// input.
package validation

import (
	"fmt"
	"time"

	"github.com/revisional/loan-engine/pkg/datetime"
	"github.com/revisional/loan-engine/pkg/schedule"
	"github.com/shopspring/decimal"
)

// Machine-readable validation error codes.
const (
	CodeInvalidPrincipal    = "INVALID_PRINCIPAL"
	CodeInvalidTerm         = "INVALID_TERM"
	CodeInvalidHorizon      = "INVALID_HORIZON"
	CodeInvalidFirstDueDate = "INVALID_FIRST_DUE_DATE"
	CodeMalformedValue      = "MALFORMED_VALUE"
	CodeInvalidMarketRate   = "INVALID_MARKET_RATE"
	CodeBandsMissing        = "RATE_BANDS_MISSING"
	CodeBandRange           = "RATE_BAND_RANGE"
	CodeBandsUnsorted       = "RATE_BANDS_UNSORTED"
	CodeBandOverlap         = "RATE_BAND_OVERLAP"
	CodeBandGap             = "RATE_BAND_GAP"
	CodeSeriesUnsorted      = "CORRECTION_SERIES_UNSORTED"
	CodeNegativeFactor      = "CORRECTION_NEGATIVE_FACTOR"
	CodeNegativeCharge      = "NEGATIVE_CHARGE"
	CodeChargeTooEarly      = "CHARGE_BEFORE_FIRST_DUE"
)

// Error is a validation failure with a machine-readable code and, where
// applicable, the offending range or value in Details.
type Error struct {
	Code    string
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidateParameters checks the scalar loan parameters: positive principal,
// a term of at least one installment, a set first-due date, a non-negative
// market rate, and a horizon (when given) within [1, term].
func ValidateParameters(p schedule.LoanParameters) error {
	if !p.Principal.IsPositive() {
		return newError(CodeInvalidPrincipal, "principal must be positive, got %s", p.Principal)
	}
	if p.TotalInstallments < 1 {
		return newError(CodeInvalidTerm, "total installments must be at least 1, got %d", p.TotalInstallments)
	}
	if p.FirstDueDate.IsZero() {
		return newError(CodeInvalidFirstDueDate, "first due date is required")
	}
	if p.MarketMonthlyRate.IsNegative() {
		return newError(CodeInvalidMarketRate, "market monthly rate must not be negative, got %s", p.MarketMonthlyRate)
	}
	if p.HorizonMonths != nil {
		h := *p.HorizonMonths
		if h < 1 || h > p.TotalInstallments {
			return newError(CodeInvalidHorizon, "horizon must be in [1, %d], got %d", p.TotalInstallments, h)
		}
	}
	return nil
}

// ValidateRateBands checks that the bands are chronologically sorted,
// pairwise non-overlapping under the inclusive-end convention (each band must
// start exactly one day after its predecessor ends), and that their union
// covers every day from the first due date through the end of the term. The
// offending gap or overlap range is identified in the returned error.
func ValidateRateBands(bands []schedule.RateBand, firstDueDate time.Time, totalInstallments int) error {
	if len(bands) == 0 {
		return newError(CodeBandsMissing, "at least one rate band is required")
	}

	for i, band := range bands {
		if band.End.Before(band.Start) {
			err := newError(CodeBandRange, "rate band %d ends (%s) before it starts (%s)",
				i+1, datetime.Format(band.End), datetime.Format(band.Start))
			err.Details = map[string]string{
				"start": datetime.Format(band.Start),
				"end":   datetime.Format(band.End),
			}
			return err
		}
		if band.MonthlyRate.IsNegative() {
			return newError(CodeBandRange, "rate band %d carries a negative monthly rate %s", i+1, band.MonthlyRate)
		}
	}

	for i := 1; i < len(bands); i++ {
		prev, next := bands[i-1], bands[i]
		if next.Start.Before(prev.Start) {
			return newError(CodeBandsUnsorted, "rate band %d starts (%s) before rate band %d (%s)",
				i+1, datetime.Format(next.Start), i, datetime.Format(prev.Start))
		}
		expectedStart := datetime.NextDay(prev.End)
		switch {
		case next.Start.After(expectedStart):
			err := newError(CodeBandGap, "gap between rate bands %d and %d: %s through %s uncovered",
				i, i+1, datetime.Format(expectedStart), datetime.Format(next.Start.AddDate(0, 0, -1)))
			err.Details = map[string]string{
				"gapStart": datetime.Format(expectedStart),
				"gapEnd":   datetime.Format(next.Start.AddDate(0, 0, -1)),
			}
			return err
		case next.Start.Before(expectedStart):
			err := newError(CodeBandOverlap, "rate bands %d and %d overlap from %s through %s",
				i, i+1, datetime.Format(next.Start), datetime.Format(minDate(prev.End, next.End)))
			err.Details = map[string]string{
				"overlapStart": datetime.Format(next.Start),
				"overlapEnd":   datetime.Format(minDate(prev.End, next.End)),
			}
			return err
		}
	}

	termEnd := firstDueDate.AddDate(0, totalInstallments, 0).AddDate(0, 0, -1)
	if bands[0].Start.After(firstDueDate) {
		err := newError(CodeBandGap, "rate bands start at %s, after the first due date %s",
			datetime.Format(bands[0].Start), datetime.Format(firstDueDate))
		err.Details = map[string]string{
			"gapStart": datetime.Format(firstDueDate),
			"gapEnd":   datetime.Format(bands[0].Start.AddDate(0, 0, -1)),
		}
		return err
	}
	last := bands[len(bands)-1]
	if last.End.Before(termEnd) {
		err := newError(CodeBandGap, "rate bands end at %s, before the end of the term %s",
			datetime.Format(last.End), datetime.Format(termEnd))
		err.Details = map[string]string{
			"gapStart": datetime.Format(datetime.NextDay(last.End)),
			"gapEnd":   datetime.Format(termEnd),
		}
		return err
	}

	return nil
}

// ValidateCorrectionSeries checks that the points are chronologically sorted
// and the factors non-negative. Coverage is not required: months absent from
// the series default to a neutral factor.
func ValidateCorrectionSeries(points []schedule.CorrectionPoint) error {
	for i, point := range points {
		if point.Factor.IsNegative() {
			err := newError(CodeNegativeFactor, "correction factor for %s is negative: %s",
				datetime.Format(point.Date), point.Factor)
			err.Details = map[string]string{"date": datetime.Format(point.Date)}
			return err
		}
		if i > 0 && point.Date.Before(points[i-1].Date) {
			return newError(CodeSeriesUnsorted, "correction point %s is out of order (follows %s)",
				datetime.Format(point.Date), datetime.Format(points[i-1].Date))
		}
	}
	return nil
}

// ValidateCharges checks that every charge component is non-negative and no
// charge predates the first due date.
func ValidateCharges(charges []schedule.AncillaryCharge, firstDueDate time.Time) error {
	for i, charge := range charges {
		for name, amount := range map[string]decimal.Decimal{
			schedule.ComponentInsuranceA: charge.InsuranceA,
			schedule.ComponentInsuranceB: charge.InsuranceB,
			schedule.ComponentAdminFee:   charge.AdminFee,
		} {
			if amount.IsNegative() {
				err := newError(CodeNegativeCharge, "charge %d component %s is negative: %s", i+1, name, amount)
				err.Details = map[string]string{"component": name}
				return err
			}
		}
		if charge.Date.Before(firstDueDate) {
			err := newError(CodeChargeTooEarly, "charge %d dated %s precedes the first due date %s",
				i+1, datetime.Format(charge.Date), datetime.Format(firstDueDate))
			err.Details = map[string]string{"date": datetime.Format(charge.Date)}
			return err
		}
	}
	return nil
}

// ValidateRequest runs every validator over the full parameter set, failing
// fast on the first violation.
func ValidateRequest(p schedule.LoanParameters) error {
	if err := ValidateParameters(p); err != nil {
		return err
	}
	if err := ValidateRateBands(p.RateBands, p.FirstDueDate, p.TotalInstallments); err != nil {
		return err
	}
	if err := ValidateCorrectionSeries(p.CorrectionSeries); err != nil {
		return err
	}
	return ValidateCharges(p.Charges, p.FirstDueDate)
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
