package calculation

import (
	"fmt"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

// NonHRRateEvaluator prices the Programming, Administrative, Operational and
// Facility envelopes from the schedule's stepped rate tables
type NonHRRateEvaluator struct{}

// NewNonHRRateEvaluator creates a new non-HR rate evaluator
func NewNonHRRateEvaluator() *NonHRRateEvaluator {
	return &NonHRRateEvaluator{}
}

// ScheduleAmount accumulates the marginal rate of every step the space count reaches.
// A step is charged in full when totalSpaces >= spaces_max, otherwise only the
// spaces that fall inside it.
func (e *NonHRRateEvaluator) ScheduleAmount(schedule *domain.RateSchedule, ownership domain.OwnershipType, envelope domain.Envelope, totalSpaces int) decimal.Decimal {
	amount := decimal.Zero
	for _, step := range schedule.Steps(ownership, envelope) {
		if step.SpacesMin > totalSpaces {
			continue
		}
		var spaces int
		if totalSpaces >= step.SpacesMax {
			spaces = step.SpacesMax - step.SpacesMin + 1
		} else {
			spaces = totalSpaces - step.SpacesMin + 1
		}
		amount = amount.Add(step.Rate.Mul(decimal.NewFromInt(int64(spaces))))
	}
	return amount
}

// AdjustmentFactor is max annual operational hours / facility max standard hours.
// Facilities open longer than the ceiling get a factor below 1, which raises their amount.
func (e *NonHRRateEvaluator) AdjustmentFactor(schedule *domain.RateSchedule, maxStandardHours decimal.Decimal) (decimal.Decimal, error) {
	if !maxStandardHours.IsPositive() {
		return decimal.Zero, domain.ErrNoOperatingHours
	}
	ceiling := schedule.OperationalHoursCeiling()
	return ceiling.Div(maxStandardHours), nil
}

// Evaluate returns the projected amount of one non-HR envelope for a facility
func (e *NonHRRateEvaluator) Evaluate(schedule *domain.RateSchedule, facility *domain.Facility, envelope domain.Envelope, totalSpaces int, maxStandardHours decimal.Decimal) (decimal.Decimal, error) {
	if facility.OwnershipType == "" {
		return decimal.Zero, domain.ErrOwnershipTypeRequired
	}
	amount := e.ScheduleAmount(schedule, facility.OwnershipType, envelope, totalSpaces)

	switch envelope {
	case domain.EnvelopeProgramming:
		return amount, nil

	case domain.EnvelopeAdministrative:
		factor, err := e.AdjustmentFactor(schedule, maxStandardHours)
		if err != nil {
			return decimal.Zero, err
		}
		return amount.Div(factor), nil

	case domain.EnvelopeOperational:
		factor, err := e.AdjustmentFactor(schedule, maxStandardHours)
		if err != nil {
			return decimal.Zero, err
		}
		adjusted := amount.Div(factor)
		if facility.OwnershipType == domain.OwnershipHomeBased {
			adjusted = decimal.Min(adjusted, facility.Costs.YearlyOperatingCost)
		}
		return adjusted, nil

	case domain.EnvelopeFacility:
		if facility.Costs.YearlyFacilityCost.IsZero() || excludedFromFacilityFunding(facility) {
			return decimal.Zero, nil
		}
		return decimal.Min(amount, facility.Costs.YearlyFacilityCost), nil

	default:
		return decimal.Zero, fmt.Errorf("envelope %q is not priced from rate steps", envelope)
	}
}

// excludedFromFacilityFunding: private operators that own their premises receive no facility envelope
func excludedFromFacilityFunding(f *domain.Facility) bool {
	if f.OwnershipType != domain.OwnershipPrivate {
		return false
	}
	switch f.FacilityType {
	case domain.FacilityOwnedWithMortgage, domain.FacilityOwnedWithoutMortgage:
		return true
	default:
		return false
	}
}
