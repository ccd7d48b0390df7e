package schedule

import (
	"fmt"
	"time"

	"github.com/revisional/loan-engine/pkg/datetime"
	"github.com/shopspring/decimal"
)

// RateResolver selects the monthly interest rate applicable on a given date.
type RateResolver interface {
	Resolve(date time.Time) (decimal.Decimal, error)
}

// BandResolver resolves rates from an ordered, non-overlapping set of rate
// bands. Bands are assumed validated (sorted, non-overlapping); a date that
// falls into a gap is a configuration error, not a silent default.
type BandResolver struct {
	bands []RateBand
}

// NewBandResolver builds a resolver over the supplied bands. The bands slice
// is not copied; callers treat it as immutable for the life of the request.
func NewBandResolver(bands []RateBand) *BandResolver {
	return &BandResolver{bands: bands}
}

// Resolve returns the rate of the first band containing the date.
func (r *BandResolver) Resolve(date time.Time) (decimal.Decimal, error) {
	for _, band := range r.bands {
		if datetime.WithinInclusive(date, band.Start, band.End) {
			return band.MonthlyRate, nil
		}
	}
	return decimal.Zero, &ConfigError{
		Code:    CodeRateBandGap,
		Message: fmt.Sprintf("no rate band covers %s", datetime.Format(date)),
		Details: map[string]string{"date": datetime.Format(date)},
	}
}

// FlatRate resolves every date to the same monthly rate. Used for the due
// scenario, where the market reference rate is a single already-resolved
// scalar.
type FlatRate struct {
	Rate decimal.Decimal
}

// Resolve always returns the flat rate.
func (f FlatRate) Resolve(time.Time) (decimal.Decimal, error) {
	return f.Rate, nil
}
