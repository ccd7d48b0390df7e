// Package report orchestrates one calculation request: validation, the
// charged and due schedule runs, the comparison, and the response shapes
// consumed by the CLI and the HTTP API.
package report

import (
	"fmt"

	"github.com/revisional/loan-engine/pkg/compare"
	"github.com/revisional/loan-engine/pkg/money"
	"github.com/revisional/loan-engine/pkg/reconcile"
	"github.com/revisional/loan-engine/pkg/schedule"
	"github.com/revisional/loan-engine/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Table discriminates which table a full-report consumer wants.
type Table string

const (
	TablePreview     Table = "preview"
	TableCharged     Table = "charged"
	TableDue         Table = "due"
	TableComparative Table = "comparative"
)

// ParseTable validates a whichTable discriminator.
func ParseTable(s string) (Table, error) {
	switch Table(s) {
	case TableCharged, TableDue, TableComparative, TablePreview:
		return Table(s), nil
	case "":
		return TablePreview, nil
	default:
		return "", fmt.Errorf("unknown table %q (expected preview, charged, due, or comparative)", s)
	}
}

// Result bundles everything one request produces.
type Result struct {
	Charged    *schedule.Scenario  `json:"charged"`
	Due        *schedule.Scenario  `json:"due"`
	Comparison *compare.Comparison `json:"comparison"`
}

// Preview is the quick-scenario response: headline rates and totals, both as
// exact decimals and as locale-formatted strings for direct UI consumption.
type Preview struct {
	ContractRateMonthly decimal.Decimal `json:"contractRateMonthly"`
	MarketRateMonthly   decimal.Decimal `json:"marketRateMonthly"`
	RateSpreadPoints    decimal.Decimal `json:"rateSpreadPercentagePoints"`
	TotalPaidCharged    decimal.Decimal `json:"totalPaidCharged"`
	TotalDueAtMarket    decimal.Decimal `json:"totalDueAtMarketRate"`
	TotalRestitution    decimal.Decimal `json:"totalRestitution"`

	Formatted PreviewFormatted `json:"formatted"`
}

// PreviewFormatted carries the display strings of the preview figures.
type PreviewFormatted struct {
	ContractRateMonthly string `json:"contractRateMonthly"`
	MarketRateMonthly   string `json:"marketRateMonthly"`
	RateSpreadPoints    string `json:"rateSpreadPercentagePoints"`
	TotalPaidCharged    string `json:"totalPaidCharged"`
	TotalDueAtMarket    string `json:"totalDueAtMarketRate"`
	TotalRestitution    string `json:"totalRestitution"`
}

// Engine runs calculation requests. It holds no per-request state; one Engine
// serves concurrent requests.
type Engine struct {
	logger       *zap.Logger
	generator    *schedule.Generator
	recalculator *reconcile.Recalculator
}

// NewEngine creates an Engine. A nil logger is replaced with a no-op.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:       logger,
		generator:    schedule.NewGenerator(logger),
		recalculator: reconcile.NewRecalculator(logger),
	}
}

// Run validates the parameters and produces both scenarios plus their
// comparison. No partial result is returned on any failure.
func (e *Engine) Run(params schedule.LoanParameters) (*Result, error) {
	if err := validation.ValidateRequest(params); err != nil {
		return nil, err
	}

	bands := schedule.NewBandResolver(params.RateBands)
	correction := schedule.NewCorrectionSeries(params.CorrectionSeries)
	charges := schedule.NewChargeResolver(params.Charges, params.ChargeMode)

	charged, err := e.generator.Generate("charged", params, bands, correction, charges)
	if err != nil {
		return nil, err
	}

	// The due scenario carries no ancillary charges: those are contractual
	// add-ons being contested, not market-rate obligations.
	due, err := e.generator.Generate("due", params, schedule.FlatRate{Rate: params.MarketMonthlyRate}, correction, nil)
	if err != nil {
		return nil, err
	}

	contractRate, err := bands.Resolve(params.FirstDueDate)
	if err != nil {
		return nil, err
	}

	comparison, err := compare.Build(charged, due, contractRate, params.MarketMonthlyRate)
	if err != nil {
		return nil, err
	}

	e.logger.Debug(fmt.Sprintf("computed %d installments, restitution %s",
		len(comparison.Lines), comparison.TotalRestitution.StringFixed(2)),
		zap.String("op", "report.Run"),
	)

	return &Result{Charged: charged, Due: due, Comparison: comparison}, nil
}

// Reconcile re-derives the forward schedule of a previously computed charged
// scenario from recorded payment events.
func (e *Engine) Reconcile(original *schedule.Scenario, params schedule.LoanParameters, events []reconcile.PaymentEvent, fromInstallment int) (*schedule.Scenario, error) {
	if err := validation.ValidateRequest(params); err != nil {
		return nil, err
	}
	return e.recalculator.Recalculate(original, params, events, fromInstallment)
}

// Preview condenses a result into the quick-scenario response.
func (r *Result) Preview() Preview {
	totalPaid := money.RoundCents(r.Charged.Totals.TotalPaid)
	totalDue := money.RoundCents(r.Due.Totals.TotalPaid)
	restitution := money.RoundCents(r.Comparison.TotalRestitution)

	return Preview{
		ContractRateMonthly: r.Comparison.ChargedRateMonthly,
		MarketRateMonthly:   r.Comparison.DueRateMonthly,
		RateSpreadPoints:    r.Comparison.RateSpreadPoints,
		TotalPaidCharged:    totalPaid,
		TotalDueAtMarket:    totalDue,
		TotalRestitution:    restitution,
		Formatted: PreviewFormatted{
			ContractRateMonthly: money.FormatPercent(r.Comparison.ChargedRateMonthly),
			MarketRateMonthly:   money.FormatPercent(r.Comparison.DueRateMonthly),
			RateSpreadPoints:    money.FormatPercent(r.Comparison.RateSpreadPoints.Div(decimal.NewFromInt(100))),
			TotalPaidCharged:    money.FormatBRL(totalPaid),
			TotalDueAtMarket:    money.FormatBRL(totalDue),
			TotalRestitution:    money.FormatBRL(restitution),
		},
	}
}
