package schedule

import (
	"time"

	"github.com/revisional/loan-engine/pkg/datetime"
	"github.com/shopspring/decimal"
)

var neutralFactor = decimal.NewFromInt(1)

// CorrectionSeries answers the compounding monetary-correction factor for a
// given date. The series is sparse (at most one point per calendar month);
// months with no point apply a neutral factor of 1, since absence of
// correction data is a valid, common case.
type CorrectionSeries struct {
	points []CorrectionPoint
}

// NewCorrectionSeries builds a series over the supplied points. The points
// slice is assumed validated (sorted, non-negative factors) and is not copied.
func NewCorrectionSeries(points []CorrectionPoint) *CorrectionSeries {
	return &CorrectionSeries{points: points}
}

// FactorFor returns the correction factor of the point in the same calendar
// month as date, or 1 when no point matches. A nil series is entirely neutral.
func (s *CorrectionSeries) FactorFor(date time.Time) decimal.Decimal {
	if s == nil {
		return neutralFactor
	}
	for _, point := range s.points {
		if datetime.SameMonth(point.Date, date) {
			return point.Factor
		}
	}
	return neutralFactor
}
