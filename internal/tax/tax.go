// Package tax estimates the tax due on profit withdrawals. Only withdrawals
// flagged as profit count toward the taxable base; capital withdrawals are
// tax-free by definition.
package tax

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/journal-desktop/journal-backend/pkg/types"
)

// Estimate is the result of a tax calculation over one set of withdrawals.
type Estimate struct {
	Year          string          `json:"year,omitempty"`
	TaxableProfit decimal.Decimal `json:"taxableProfit"`
	Rate          decimal.Decimal `json:"rate"`
	TaxDue        decimal.Decimal `json:"taxDue"`
}

// Estimator applies a flat rate to the profit-withdrawal total.
type Estimator struct {
	rate decimal.Decimal
}

// NewEstimator creates an estimator with the given flat rate, e.g. 0.25 for
// 25%. Negative rates are clamped to zero.
func NewEstimator(rate decimal.Decimal) *Estimator {
	if rate.IsNegative() {
		rate = decimal.Zero
	}
	return &Estimator{rate: rate}
}

// Estimate sums profit withdrawals and applies the flat rate. A non-empty
// year restricts the base to withdrawals whose date falls in that year;
// dateless withdrawals are excluded from year-scoped estimates.
func (e *Estimator) Estimate(withdrawals []types.Withdrawal, year string) Estimate {
	taxable := decimal.Zero
	for _, w := range withdrawals {
		if !w.IsProfit {
			continue
		}
		if year != "" && !strings.HasPrefix(w.Date, year+"-") && w.Date != year {
			continue
		}
		taxable = taxable.Add(w.Amount)
	}
	return Estimate{
		Year:          year,
		TaxableProfit: taxable,
		Rate:          e.rate,
		TaxDue:        taxable.Mul(e.rate).Round(2),
	}
}
