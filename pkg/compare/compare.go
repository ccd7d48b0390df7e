// Package compare zips a charged and a due schedule period by period and
// computes the per-period and cumulative restitution owed to the borrower.
package compare

import (
	"fmt"
	"time"

	"github.com/revisional/loan-engine/pkg/schedule"
	"github.com/shopspring/decimal"
)

// Line is one period of the charged vs. due comparison. Cumulative is the
// running nominal sum of Difference up to and including this period; it is
// not discounted or corrected further, since monetary correction is embedded
// identically in both schedules.
type Line struct {
	Number     int             `json:"number"`
	DueDate    time.Time       `json:"dueDate"`
	Charged    decimal.Decimal `json:"charged"`
	Due        decimal.Decimal `json:"due"`
	Difference decimal.Decimal `json:"difference"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// Comparison holds the full period-by-period series plus headline figures.
type Comparison struct {
	Lines []Line `json:"lines"`

	// ChargedRateMonthly and DueRateMonthly are the rates active in period 1
	// of each scenario; RateSpreadPoints is their difference in percentage
	// points, used as the headline indicator.
	ChargedRateMonthly decimal.Decimal `json:"chargedRateMonthly"`
	DueRateMonthly     decimal.Decimal `json:"dueRateMonthly"`
	RateSpreadPoints   decimal.Decimal `json:"rateSpreadPercentagePoints"`

	// TotalRestitution is the cumulative difference over the whole window.
	TotalRestitution decimal.Decimal `json:"totalRestitution"`
}

// Build compares the charged schedule against the due schedule. Both must
// have identical length and due dates; mismatched schedules are a programming
// error on the caller's side and are rejected.
func Build(charged, due *schedule.Scenario, chargedRate, dueRate decimal.Decimal) (*Comparison, error) {
	if len(charged.Lines) != len(due.Lines) {
		return nil, fmt.Errorf("schedule length mismatch: charged has %d installments, due has %d",
			len(charged.Lines), len(due.Lines))
	}

	comparison := &Comparison{
		Lines:              make([]Line, 0, len(charged.Lines)),
		ChargedRateMonthly: chargedRate,
		DueRateMonthly:     dueRate,
		RateSpreadPoints:   chargedRate.Sub(dueRate).Mul(decimal.NewFromInt(100)),
	}

	cumulative := decimal.Zero
	for i := range charged.Lines {
		c, d := charged.Lines[i], due.Lines[i]
		if !c.DueDate.Equal(d.DueDate) {
			return nil, fmt.Errorf("due date mismatch at installment %d: charged %s, due %s",
				c.Number, c.DueDate.Format("2006-01-02"), d.DueDate.Format("2006-01-02"))
		}
		difference := c.TotalDue.Sub(d.TotalDue)
		cumulative = cumulative.Add(difference)
		comparison.Lines = append(comparison.Lines, Line{
			Number:     c.Number,
			DueDate:    c.DueDate,
			Charged:    c.TotalDue,
			Due:        d.TotalDue,
			Difference: difference,
			Cumulative: cumulative,
		})
	}
	comparison.TotalRestitution = cumulative

	return comparison, nil
}
