// Package schedule implements the SAC amortization engine: rate-band
// resolution over time, compounding monetary correction, ancillary charges,
// and the installment-by-installment schedule generator used for both the
// charged and the due scenarios of a revision claim.
package schedule

import (
	"time"

	"github.com/revisional/loan-engine/pkg/datetime"
	"github.com/shopspring/decimal"
)

// ChargeMode controls how ancillary charges attach to installments.
type ChargeMode int

const (
	// ChargeSingle attaches all supplied charge components to installment 1
	// only. This is the domain default: insurance premiums are quoted as a
	// flat monthly average rolled into the comparison window.
	ChargeSingle ChargeMode = iota

	// ChargeRecurring reapplies the same components to every installment.
	ChargeRecurring
)

func (m ChargeMode) String() string {
	switch m {
	case ChargeRecurring:
		return "recurring"
	default:
		return "single"
	}
}

// RateBand is a contiguous date range over which a single contractual monthly
// interest rate applies. Start and End are both inclusive calendar days.
type RateBand struct {
	Start       time.Time
	End         time.Time
	MonthlyRate decimal.Decimal
}

// CorrectionPoint is one month's monetary-correction index value (TR or
// equivalent). Factor is multiplicative, e.g. 1.001195 meaning +0.1195%.
type CorrectionPoint struct {
	Date   time.Time
	Factor decimal.Decimal
}

// AncillaryCharge holds the named charge components attached to a schedule.
type AncillaryCharge struct {
	Date       time.Time
	InsuranceA decimal.Decimal
	InsuranceB decimal.Decimal
	AdminFee   decimal.Decimal
}

// Charge component names as they appear in InstallmentLine.Charges and on the
// wire.
const (
	ComponentInsuranceA = "insurance_a"
	ComponentInsuranceB = "insurance_b"
	ComponentAdminFee   = "admin_fee"
)

// LoanParameters is the full input for one schedule generation.
type LoanParameters struct {
	Principal         decimal.Decimal
	TotalInstallments int
	FirstDueDate      time.Time
	RateBands         []RateBand
	CorrectionSeries  []CorrectionPoint
	Charges           []AncillaryCharge
	ChargeMode        ChargeMode
	HorizonMonths     *int // nil means the full term
	MarketMonthlyRate decimal.Decimal
}

// Horizon returns the number of installments to generate, capped at the total
// term.
func (p LoanParameters) Horizon() int {
	if p.HorizonMonths != nil && *p.HorizonMonths > 0 && *p.HorizonMonths < p.TotalInstallments {
		return *p.HorizonMonths
	}
	return p.TotalInstallments
}

// DueDate returns the due date of installment k (1-based).
func (p LoanParameters) DueDate(k int) time.Time {
	return datetime.OffsetMonths(p.FirstDueDate, k-1)
}

// InstallmentLine is one row of a generated schedule. Balances and interest
// are carried at full precision; TotalDue is rounded to cents since it is the
// per-line presentation figure.
type InstallmentLine struct {
	Number           int                        `json:"number"`
	DueDate          time.Time                  `json:"dueDate"`
	OpeningBalance   decimal.Decimal            `json:"openingBalance"`
	Interest         decimal.Decimal            `json:"interest"`
	Amortization     decimal.Decimal            `json:"amortization"`
	Charges          map[string]decimal.Decimal `json:"charges,omitempty"`
	ChargesTotal     decimal.Decimal            `json:"chargesTotal"`
	TotalDue         decimal.Decimal            `json:"totalDue"`
	CorrectionFactor decimal.Decimal            `json:"correctionFactor"`
	ClosingBalance   decimal.Decimal            `json:"closingBalance"`
}

// Totals aggregates a scenario.
type Totals struct {
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	TotalInterest decimal.Decimal `json:"totalInterest"`
	TotalCharges  decimal.Decimal `json:"totalCharges"`
}

// Scenario is an ordered sequence of installment lines plus aggregates. Two
// scenarios exist per request: charged (contract rate bands) and due (flat
// market rate).
type Scenario struct {
	Name   string            `json:"name"`
	Lines  []InstallmentLine `json:"lines"`
	Totals Totals            `json:"totals"`
}
