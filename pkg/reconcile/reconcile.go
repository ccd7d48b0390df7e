// Package reconcile re-derives the forward part of a previously generated
// schedule once real payment history is known. Installments before the cut
// are historical fact and are carried over unchanged; from the cut onward the
// same pure scheduler is re-run with an opening balance adjusted by the
// recorded payment events.
package reconcile

import (
	"fmt"
	"time"

	"github.com/revisional/loan-engine/pkg/schedule"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentStatus classifies a recorded payment event.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusOpen    PaymentStatus = "open"
	StatusPartial PaymentStatus = "partial"
	StatusLate    PaymentStatus = "late"
)

// PaymentEvent records what actually happened on one installment.
type PaymentEvent struct {
	Installment       int             `json:"installment"`
	PaymentDate       time.Time       `json:"paymentDate"`
	AmountPaid        decimal.Decimal `json:"amountPaid"`
	ExtraAmortization decimal.Decimal `json:"extraAmortization"`
	Status            PaymentStatus   `json:"status"`
}

// Machine-readable reconciliation conflict codes.
const (
	CodeEventOutOfRange = "EVENT_INSTALLMENT_OUT_OF_RANGE"
	CodeCutOutOfRange   = "CUT_OUT_OF_RANGE"
	CodeCutBeforePaid   = "CUT_BEFORE_SETTLED_INSTALLMENT"
	CodeMissingHistory  = "ORIGINAL_SCHEDULE_INCOMPLETE"
)

// ConflictError indicates that the payment events and the requested cut are
// inconsistent with the original schedule. The original schedule is never
// modified when a conflict is reported.
type ConflictError struct {
	Code    string
	Message string
	Details map[string]string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Recalculator re-runs the scheduler forward from a cut installment.
type Recalculator struct {
	logger    *zap.Logger
	generator *schedule.Generator
}

// NewRecalculator creates a Recalculator. A nil logger is replaced with a
// no-op.
func NewRecalculator(logger *zap.Logger) *Recalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recalculator{logger: logger, generator: schedule.NewGenerator(logger)}
}

// Recalculate returns a revised schedule: installments strictly before
// fromInstallment are copied from the original, and the remainder is
// regenerated with an opening balance adjusted by the events. When
// fromInstallment is 0 the cut defaults to the installment after the highest
// paid event (1 when there are none).
//
// The adjustment is derived only from the immutable history and the events:
// recorded extra amortizations reduce the cut balance, shortfalls (scheduled
// total minus amount paid on open, partial, or late installments) increase
// it. Because no revised line feeds back into the adjustment, recalculating
// a revised schedule with the same inputs yields the same result.
//
// The closing/opening chaining invariant holds within the historical and the
// regenerated segments; across the cut itself the difference is exactly the
// applied adjustment.
func (r *Recalculator) Recalculate(original *schedule.Scenario, params schedule.LoanParameters, events []PaymentEvent, fromInstallment int) (*schedule.Scenario, error) {
	horizon := params.Horizon()

	for _, event := range events {
		if event.Installment < 1 || event.Installment > params.TotalInstallments {
			return nil, &ConflictError{
				Code: CodeEventOutOfRange,
				Message: fmt.Sprintf("payment event references installment %d outside [1, %d]",
					event.Installment, params.TotalInstallments),
				Details: map[string]string{"installment": fmt.Sprintf("%d", event.Installment)},
			}
		}
	}

	if fromInstallment == 0 {
		fromInstallment = 1
		for _, event := range events {
			if event.Status == StatusPaid && event.Installment >= fromInstallment {
				fromInstallment = event.Installment + 1
			}
		}
	}
	if fromInstallment < 1 || fromInstallment > horizon {
		return nil, &ConflictError{
			Code:    CodeCutOutOfRange,
			Message: fmt.Sprintf("cut installment %d outside [1, %d]", fromInstallment, horizon),
			Details: map[string]string{"fromInstallment": fmt.Sprintf("%d", fromInstallment)},
		}
	}
	for _, event := range events {
		if event.Status == StatusPaid && event.Installment >= fromInstallment {
			return nil, &ConflictError{
				Code: CodeCutBeforePaid,
				Message: fmt.Sprintf("cut installment %d precedes settled installment %d",
					fromInstallment, event.Installment),
				Details: map[string]string{
					"fromInstallment": fmt.Sprintf("%d", fromInstallment),
					"installment":     fmt.Sprintf("%d", event.Installment),
				},
			}
		}
	}

	history, err := historyLines(original, fromInstallment)
	if err != nil {
		return nil, err
	}

	opening := params.Principal
	if fromInstallment > 1 {
		opening = history[len(history)-1].ClosingBalance
	}
	opening = adjustForEvents(opening, history, events, fromInstallment)

	r.logger.Debug(fmt.Sprintf("recalculating from installment %d with adjusted opening balance %s",
		fromInstallment, opening.StringFixed(2)),
		zap.String("op", "reconcile.Recalculate"),
		zap.Int("events", len(events)),
	)

	forward, err := r.generator.GenerateFrom(original.Name, params,
		schedule.NewBandResolver(params.RateBands),
		schedule.NewCorrectionSeries(params.CorrectionSeries),
		schedule.NewChargeResolver(params.Charges, params.ChargeMode),
		fromInstallment, opening)
	if err != nil {
		return nil, err
	}

	revised := &schedule.Scenario{
		Name:  original.Name,
		Lines: append(history, forward.Lines...),
	}
	for _, line := range revised.Lines {
		revised.Totals.TotalPaid = revised.Totals.TotalPaid.Add(line.TotalDue)
		revised.Totals.TotalInterest = revised.Totals.TotalInterest.Add(line.Interest)
		revised.Totals.TotalCharges = revised.Totals.TotalCharges.Add(line.ChargesTotal)
	}
	return revised, nil
}

// historyLines copies installments 1..cut-1 from the original schedule,
// verifying they are present and contiguous.
func historyLines(original *schedule.Scenario, cut int) ([]schedule.InstallmentLine, error) {
	history := make([]schedule.InstallmentLine, 0, cut-1)
	next := 1
	for _, line := range original.Lines {
		if line.Number >= cut {
			break
		}
		if line.Number != next {
			break
		}
		history = append(history, line)
		next++
	}
	if len(history) != cut-1 {
		return nil, &ConflictError{
			Code:    CodeMissingHistory,
			Message: fmt.Sprintf("original schedule does not contain installments 1 through %d", cut-1),
		}
	}
	return history, nil
}

// adjustForEvents applies extra amortizations and shortfalls from events
// before the cut to the opening balance.
func adjustForEvents(opening decimal.Decimal, history []schedule.InstallmentLine, events []PaymentEvent, cut int) decimal.Decimal {
	for _, event := range events {
		if event.Installment >= cut {
			continue
		}
		opening = opening.Sub(event.ExtraAmortization)

		scheduled := history[event.Installment-1]
		switch event.Status {
		case StatusOpen:
			opening = opening.Add(scheduled.TotalDue)
		case StatusPartial, StatusLate:
			shortfall := scheduled.TotalDue.Sub(event.AmountPaid)
			if shortfall.IsPositive() {
				opening = opening.Add(shortfall)
			}
		}
	}
	return opening
}
