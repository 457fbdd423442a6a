package calculation

import (
	"fmt"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

// EMPLOYER HEALTH TAX ASSUMPTIONS:
//
// 1. Bands are evaluated top to bottom and every comparison is strict (>), so
//    remuneration of exactly $500,000 or $1,500,000 stays in the lower band.
// 2. Not-for-profit organizations pay nothing until remuneration exceeds the
//    upper threshold.
// 3. Home-based providers fall through to the zero band.
// 4. Thresholds default to $500,000 and $1,500,000 when the schedule omits them.

var (
	defaultEHTLowerThreshold = decimal.NewFromInt(500000)
	defaultEHTUpperThreshold = decimal.NewFromInt(1500000)
)

// EHTCalculator selects and applies the Employer Health Tax rate
type EHTCalculator struct {
	LowerThreshold       decimal.Decimal
	UpperThreshold       decimal.Decimal
	ForProfitOver500K    decimal.Decimal
	ForProfitOver1_5M    decimal.Decimal
	NotForProfitOver1_5M decimal.Decimal
}

// NewEHTCalculator creates an EHT calculator from a schedule's rates
func NewEHTCalculator(rates domain.EHTRates) *EHTCalculator {
	lower := rates.LowerThreshold
	if lower.IsZero() {
		lower = defaultEHTLowerThreshold
	}
	upper := rates.UpperThreshold
	if upper.IsZero() {
		upper = defaultEHTUpperThreshold
	}
	return &EHTCalculator{
		LowerThreshold:       lower,
		UpperThreshold:       upper,
		ForProfitOver500K:    rates.ForProfitOver500K,
		ForProfitOver1_5M:    rates.ForProfitOver1_5M,
		NotForProfitOver1_5M: rates.NotForProfitOver1_5M,
	}
}

// Rate returns the EHT rate for an ownership type and total remuneration.
// An unset ownership type is an error, never a zero rate.
func (c *EHTCalculator) Rate(ownership domain.OwnershipType, remuneration decimal.Decimal) (decimal.Decimal, error) {
	if ownership == "" {
		return decimal.Zero, domain.ErrOwnershipTypeRequired
	}
	if !ownership.Valid() {
		return decimal.Zero, fmt.Errorf("%w: unknown ownership type %q", domain.ErrOwnershipTypeRequired, ownership)
	}

	switch {
	case ownership == domain.OwnershipPrivate &&
		remuneration.GreaterThan(c.LowerThreshold) && remuneration.LessThanOrEqual(c.UpperThreshold):
		return c.ForProfitOver500K, nil
	case ownership == domain.OwnershipPrivate && remuneration.GreaterThan(c.UpperThreshold):
		return c.ForProfitOver1_5M, nil
	case ownership == domain.OwnershipNotForProfit && remuneration.GreaterThan(c.UpperThreshold):
		return c.NotForProfitOver1_5M, nil
	default:
		return decimal.Zero, nil
	}
}

// Calculate returns remuneration x selected rate
func (c *EHTCalculator) Calculate(ownership domain.OwnershipType, remuneration decimal.Decimal) (decimal.Decimal, error) {
	rate, err := c.Rate(ownership, remuneration)
	if err != nil {
		return decimal.Zero, err
	}
	return remuneration.Mul(rate), nil
}
