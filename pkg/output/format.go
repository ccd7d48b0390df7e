// Package output provides utilities for formatting and displaying generated
// schedules and comparisons.
package output

import (
	"fmt"
	"io"

	"github.com/revisional/loan-engine/pkg/compare"
	"github.com/revisional/loan-engine/pkg/datetime"
	"github.com/revisional/loan-engine/pkg/money"
	"github.com/revisional/loan-engine/pkg/schedule"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettySchedule writes a human-readable installment table.
func PrettySchedule(w io.Writer, scenario *schedule.Scenario) {
	p := message.NewPrinter(language.BrazilianPortuguese)
	fmt.Fprintf(w, "--- Schedule: %s ---\n", scenario.Name)
	fmt.Fprintf(w, "  # | Due date   | Opening        | Interest     | Amortization | Charges    | Total due    | Closing\n")
	fmt.Fprintf(w, "___ | __________ | ______________ | ____________ | ____________ | __________ | ____________ | ______________\n")
	for _, line := range scenario.Lines {
		_, _ = p.Fprintf(w, "%3d | %s | %14.2f | %12.2f | %12.2f | %10.2f | %12.2f | %14.2f\n",
			line.Number,
			datetime.Format(line.DueDate),
			line.OpeningBalance.InexactFloat64(),
			line.Interest.InexactFloat64(),
			line.Amortization.InexactFloat64(),
			line.ChargesTotal.InexactFloat64(),
			line.TotalDue.InexactFloat64(),
			line.ClosingBalance.InexactFloat64(),
		)
	}
	fmt.Fprintf(w, "Total paid: %s | Total interest: %s | Total charges: %s\n",
		money.FormatBRL(scenario.Totals.TotalPaid),
		money.FormatBRL(money.RoundCents(scenario.Totals.TotalInterest)),
		money.FormatBRL(scenario.Totals.TotalCharges),
	)
}

// PrettyComparison writes a human-readable charged-vs-due table.
func PrettyComparison(w io.Writer, comparison *compare.Comparison) {
	p := message.NewPrinter(language.BrazilianPortuguese)
	fmt.Fprintf(w, "--- Charged vs. due (rate spread %s p.p.) ---\n", comparison.RateSpreadPoints.StringFixed(4))
	fmt.Fprintf(w, "  # | Due date   | Charged      | Due          | Difference   | Cumulative\n")
	fmt.Fprintf(w, "___ | __________ | ____________ | ____________ | ____________ | ____________\n")
	for _, line := range comparison.Lines {
		_, _ = p.Fprintf(w, "%3d | %s | %12.2f | %12.2f | %12.2f | %12.2f\n",
			line.Number,
			datetime.Format(line.DueDate),
			line.Charged.InexactFloat64(),
			line.Due.InexactFloat64(),
			line.Difference.InexactFloat64(),
			line.Cumulative.InexactFloat64(),
		)
	}
	fmt.Fprintf(w, "Total restitution: %s\n", money.FormatBRL(money.RoundCents(comparison.TotalRestitution)))
}

// CsvSchedule writes an installment table in comma-separated value format.
// Decimal values are emitted as fixed-point strings so nothing is lost in
// transit.
func CsvSchedule(w io.Writer, scenario *schedule.Scenario) {
	fmt.Fprintf(w, `"number","due_date","opening_balance","interest","amortization","charges","total_due","correction_factor","closing_balance"`)
	fmt.Fprintf(w, "\n")
	for _, line := range scenario.Lines {
		fmt.Fprintf(w, `"%d","%s","%s","%s","%s","%s","%s","%s","%s"`,
			line.Number,
			datetime.Format(line.DueDate),
			line.OpeningBalance.StringFixed(2),
			line.Interest.StringFixed(2),
			line.Amortization.StringFixed(2),
			line.ChargesTotal.StringFixed(2),
			line.TotalDue.StringFixed(2),
			line.CorrectionFactor.String(),
			line.ClosingBalance.StringFixed(2),
		)
		fmt.Fprintf(w, "\n")
	}
}

// CsvComparison writes the comparison series in comma-separated value format.
func CsvComparison(w io.Writer, comparison *compare.Comparison) {
	fmt.Fprintf(w, `"number","due_date","charged","due","difference","cumulative"`)
	fmt.Fprintf(w, "\n")
	for _, line := range comparison.Lines {
		fmt.Fprintf(w, `"%d","%s","%s","%s","%s","%s"`,
			line.Number,
			datetime.Format(line.DueDate),
			line.Charged.StringFixed(2),
			line.Due.StringFixed(2),
			line.Difference.StringFixed(2),
			line.Cumulative.StringFixed(2),
		)
		fmt.Fprintf(w, "\n")
	}
}
