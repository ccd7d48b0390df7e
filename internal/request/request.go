// Package request defines the plain-data calculation request as it crosses
// the boundary (YAML file or JSON body) and its conversion into engine types.
// Monetary and rate values travel as strings so no precision is lost in
// transit.
package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/revisional/loan-engine/pkg/datetime"
	"github.com/revisional/loan-engine/pkg/reconcile"
	"github.com/revisional/loan-engine/pkg/schedule"
	"github.com/revisional/loan-engine/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Request is the wire form of one calculation request.
type Request struct {
	Principal         string            `json:"principal" mapstructure:"principal"`
	TotalInstallments int               `json:"totalInstallments" mapstructure:"totalInstallments"`
	FirstDueDate      string            `json:"firstDueDate" mapstructure:"firstDueDate"`
	RateBands         []RateBand        `json:"rateBands" mapstructure:"rateBands"`
	CorrectionSeries  []CorrectionPoint `json:"correctionSeries,omitempty" mapstructure:"correctionSeries"`
	AncillaryCharges  []AncillaryCharge `json:"ancillaryCharges,omitempty" mapstructure:"ancillaryCharges"`
	ChargeMode        string            `json:"chargeMode,omitempty" mapstructure:"chargeMode"`
	HorizonMonths     *int              `json:"horizonMonths,omitempty" mapstructure:"horizonMonths"`
	MarketMonthlyRate string            `json:"marketMonthlyRate" mapstructure:"marketMonthlyRate"`

	Logging LoggingConfig `json:"logging,omitempty" mapstructure:"logging"`
	Output  OutputConfig  `json:"output,omitempty" mapstructure:"output"`
}

// RateBand is the wire form of one contractual rate band.
type RateBand struct {
	Start       string `json:"start" mapstructure:"start"`
	End         string `json:"end" mapstructure:"end"`
	MonthlyRate string `json:"monthlyRate" mapstructure:"monthlyRate"`
}

// CorrectionPoint is the wire form of one monetary-correction index value.
type CorrectionPoint struct {
	Date   string `json:"date" mapstructure:"date"`
	Factor string `json:"factor" mapstructure:"factor"`
}

// AncillaryCharge is the wire form of the named charge components.
type AncillaryCharge struct {
	Date       string `json:"date" mapstructure:"date"`
	InsuranceA string `json:"insuranceA,omitempty" mapstructure:"insuranceA"`
	InsuranceB string `json:"insuranceB,omitempty" mapstructure:"insuranceB"`
	AdminFee   string `json:"adminFee,omitempty" mapstructure:"adminFee"`
}

// PaymentEvent is the wire form of one recorded payment.
type PaymentEvent struct {
	Installment       int    `json:"installment" mapstructure:"installment"`
	PaymentDate       string `json:"paymentDate,omitempty" mapstructure:"paymentDate"`
	AmountPaid        string `json:"amountPaid,omitempty" mapstructure:"amountPaid"`
	ExtraAmortization string `json:"extraAmortization,omitempty" mapstructure:"extraAmortization"`
	Status            string `json:"status" mapstructure:"status"`
}

// LoggingConfig holds logging configuration options.
type LoggingConfig struct {
	Level      string `json:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `json:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `json:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options.
type OutputConfig struct {
	Format string `json:"format,omitempty" mapstructure:"format"` // pretty, csv
	Table  string `json:"table,omitempty" mapstructure:"table"`   // preview, charged, due, comparative
}

// Load reads the YAML-formatted request at the given path.
func Load(path string) (*Request, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading request file, %s", err)
	}

	var req Request
	if err := viper.Unmarshal(&req); err != nil {
		return nil, fmt.Errorf("unable to decode request into struct, %s", err)
	}

	return &req, nil
}

// Parameters converts the wire request into engine parameters, parsing every
// decimal and date. Malformed values are rejected with the offending field
// identified; structural checks beyond parsing belong to pkg/validation.
func (r *Request) Parameters() (schedule.LoanParameters, error) {
	var params schedule.LoanParameters
	var err error

	if params.Principal, err = parseDecimal("principal", r.Principal); err != nil {
		return params, err
	}
	params.TotalInstallments = r.TotalInstallments
	if params.FirstDueDate, err = parseDate("firstDueDate", r.FirstDueDate); err != nil {
		return params, err
	}
	if params.MarketMonthlyRate, err = parseDecimal("marketMonthlyRate", r.MarketMonthlyRate); err != nil {
		return params, err
	}
	params.HorizonMonths = r.HorizonMonths

	switch strings.ToLower(r.ChargeMode) {
	case "", schedule.ChargeSingle.String():
		params.ChargeMode = schedule.ChargeSingle
	case schedule.ChargeRecurring.String():
		params.ChargeMode = schedule.ChargeRecurring
	default:
		return params, malformed("chargeMode", r.ChargeMode, "must be single or recurring")
	}

	for i, band := range r.RateBands {
		var converted schedule.RateBand
		field := fmt.Sprintf("rateBands[%d]", i)
		if converted.Start, err = parseDate(field+".start", band.Start); err != nil {
			return params, err
		}
		if converted.End, err = parseDate(field+".end", band.End); err != nil {
			return params, err
		}
		if converted.MonthlyRate, err = parseDecimal(field+".monthlyRate", band.MonthlyRate); err != nil {
			return params, err
		}
		params.RateBands = append(params.RateBands, converted)
	}

	for i, point := range r.CorrectionSeries {
		var converted schedule.CorrectionPoint
		field := fmt.Sprintf("correctionSeries[%d]", i)
		if converted.Date, err = parseDate(field+".date", point.Date); err != nil {
			return params, err
		}
		if converted.Factor, err = parseDecimal(field+".factor", point.Factor); err != nil {
			return params, err
		}
		params.CorrectionSeries = append(params.CorrectionSeries, converted)
	}

	for i, charge := range r.AncillaryCharges {
		var converted schedule.AncillaryCharge
		field := fmt.Sprintf("ancillaryCharges[%d]", i)
		if converted.Date, err = parseDate(field+".date", charge.Date); err != nil {
			return params, err
		}
		if converted.InsuranceA, err = parseOptionalDecimal(field+".insuranceA", charge.InsuranceA); err != nil {
			return params, err
		}
		if converted.InsuranceB, err = parseOptionalDecimal(field+".insuranceB", charge.InsuranceB); err != nil {
			return params, err
		}
		if converted.AdminFee, err = parseOptionalDecimal(field+".adminFee", charge.AdminFee); err != nil {
			return params, err
		}
		params.Charges = append(params.Charges, converted)
	}

	return params, nil
}

// Events converts wire payment events into engine events.
func Events(events []PaymentEvent) ([]reconcile.PaymentEvent, error) {
	var converted []reconcile.PaymentEvent
	for i, event := range events {
		field := fmt.Sprintf("paymentEvents[%d]", i)

		var domain reconcile.PaymentEvent
		var err error
		domain.Installment = event.Installment
		if event.PaymentDate != "" {
			if domain.PaymentDate, err = parseDate(field+".paymentDate", event.PaymentDate); err != nil {
				return nil, err
			}
		}
		if domain.AmountPaid, err = parseOptionalDecimal(field+".amountPaid", event.AmountPaid); err != nil {
			return nil, err
		}
		if domain.ExtraAmortization, err = parseOptionalDecimal(field+".extraAmortization", event.ExtraAmortization); err != nil {
			return nil, err
		}

		switch reconcile.PaymentStatus(strings.ToLower(event.Status)) {
		case reconcile.StatusPaid, reconcile.StatusOpen, reconcile.StatusPartial, reconcile.StatusLate:
			domain.Status = reconcile.PaymentStatus(strings.ToLower(event.Status))
		default:
			return nil, malformed(field+".status", event.Status, "must be paid, open, partial, or late")
		}

		converted = append(converted, domain)
	}
	return converted, nil
}

func malformed(field, value, hint string) *validation.Error {
	return &validation.Error{
		Code:    validation.CodeMalformedValue,
		Message: fmt.Sprintf("%s: %q %s", field, value, hint),
		Details: map[string]string{"field": field},
	}
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, malformed(field, value, "is required")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, malformed(field, value, "is not a decimal")
	}
	return d, nil
}

func parseOptionalDecimal(field, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, malformed(field, value, "is not a decimal")
	}
	return d, nil
}

func parseDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, malformed(field, value, "is required")
	}
	t, err := datetime.ParseDate(value)
	if err != nil {
		return time.Time{}, malformed(field, value, "is not a calendar date (expected YYYY-MM-DD)")
	}
	return t, nil
}
