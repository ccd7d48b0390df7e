package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargeResolver answers the ancillary charge components due on a given
// installment. In ChargeSingle mode all supplied components attach to
// installment 1 only; in ChargeRecurring mode the same components are
// reapplied to every installment.
type ChargeResolver struct {
	charges []AncillaryCharge
	mode    ChargeMode
}

// NewChargeResolver builds a resolver over the supplied charges.
func NewChargeResolver(charges []AncillaryCharge, mode ChargeMode) *ChargeResolver {
	return &ChargeResolver{charges: charges, mode: mode}
}

// ChargesFor returns the named non-zero components due on installment k and
// their sum. A nil resolver charges nothing.
func (r *ChargeResolver) ChargesFor(k int, _ time.Time) (map[string]decimal.Decimal, decimal.Decimal) {
	if r == nil || len(r.charges) == 0 {
		return nil, decimal.Zero
	}
	if r.mode == ChargeSingle && k != 1 {
		return nil, decimal.Zero
	}

	components := make(map[string]decimal.Decimal)
	total := decimal.Zero
	add := func(name string, amount decimal.Decimal) {
		if amount.IsZero() {
			return
		}
		components[name] = components[name].Add(amount)
		total = total.Add(amount)
	}
	for _, charge := range r.charges {
		add(ComponentInsuranceA, charge.InsuranceA)
		add(ComponentInsuranceB, charge.InsuranceB)
		add(ComponentAdminFee, charge.AdminFee)
	}
	if len(components) == 0 {
		return nil, decimal.Zero
	}
	return components, total
}
