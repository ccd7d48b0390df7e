package schedule

import (
	"fmt"

	"github.com/revisional/loan-engine/pkg/datetime"
	"github.com/revisional/loan-engine/pkg/money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Generator produces SAC amortization schedules. It is purely computational:
// each call builds fresh state over the supplied inputs, so one Generator may
// serve concurrent requests.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a Generator. A nil logger is replaced with a no-op.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// Generate builds the full schedule for one rate/correction/charge
// configuration, starting at installment 1 with the principal as opening
// balance.
func (g *Generator) Generate(name string, params LoanParameters, rates RateResolver, correction *CorrectionSeries, charges *ChargeResolver) (*Scenario, error) {
	return g.GenerateFrom(name, params, rates, correction, charges, 1, params.Principal)
}

// GenerateFrom builds the schedule from installment startInstallment onward
// with an overridden opening balance. This is the re-entry point used by
// reconciliation; the per-period state machine is identical to a fresh run.
//
// Per period k: interest accrues on the opening balance at the band rate for
// the due date; amortization is the constant principal/n share carried at full
// precision (the final installment absorbs the division remainder so
// amortizations sum to the principal exactly and never differ from the base by
// more than a cent); monetary correction multiplies the post-amortization balance,
// except on installment 1 where no time has elapsed yet. Rounding to cents
// happens only on the per-line total due.
func (g *Generator) GenerateFrom(name string, params LoanParameters, rates RateResolver, correction *CorrectionSeries, charges *ChargeResolver, startInstallment int, openingBalance decimal.Decimal) (*Scenario, error) {
	n := params.TotalInstallments
	horizon := params.Horizon()
	if startInstallment < 1 || startInstallment > horizon {
		return nil, fmt.Errorf("start installment %d outside schedule range [1, %d]", startInstallment, horizon)
	}

	// The base share is carried at full precision like the balances; rounding
	// it to cents here would let the final installment drift from the base by
	// up to n/2 cents on principals that do not divide evenly.
	nDec := decimal.NewFromInt(int64(n))
	baseAmortization := params.Principal.Div(nDec)
	finalAmortization := params.Principal.Sub(baseAmortization.Mul(nDec.Sub(decimal.NewFromInt(1))))

	scenario := &Scenario{
		Name:  name,
		Lines: make([]InstallmentLine, 0, horizon-startInstallment+1),
	}
	balance := openingBalance

	for k := startInstallment; k <= horizon; k++ {
		dueDate := params.DueDate(k)

		rate, err := rates.Resolve(dueDate)
		if err != nil {
			return nil, err
		}

		interest := balance.Mul(rate)
		amortization := baseAmortization
		if k == n {
			amortization = finalAmortization
		}

		components, chargesTotal := charges.ChargesFor(k, dueDate)
		totalDue := money.RoundCents(amortization.Add(interest).Add(chargesTotal))

		afterAmortization := balance.Sub(amortization)
		factor := neutralFactor
		if k > 1 {
			factor = correction.FactorFor(dueDate)
		}
		closing := afterAmortization.Mul(factor)

		if closing.IsNegative() {
			// Legitimate for materially overpaid loans; reported, not rejected.
			g.logger.Debug(fmt.Sprintf("balance went negative at installment %d (%s)", k, datetime.Format(dueDate)),
				zap.String("op", "schedule.GenerateFrom"),
				zap.String("scenario", name),
				zap.String("balance", closing.StringFixed(2)),
			)
		}

		scenario.Lines = append(scenario.Lines, InstallmentLine{
			Number:           k,
			DueDate:          dueDate,
			OpeningBalance:   balance,
			Interest:         interest,
			Amortization:     amortization,
			Charges:          components,
			ChargesTotal:     chargesTotal,
			TotalDue:         totalDue,
			CorrectionFactor: factor,
			ClosingBalance:   closing,
		})

		scenario.Totals.TotalPaid = scenario.Totals.TotalPaid.Add(totalDue)
		scenario.Totals.TotalInterest = scenario.Totals.TotalInterest.Add(interest)
		scenario.Totals.TotalCharges = scenario.Totals.TotalCharges.Add(chargesTotal)

		balance = closing
	}

	return scenario, nil
}
