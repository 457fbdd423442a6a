package calculation

import (
	"fmt"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

// WageCost is the facility-wide staffing cost breakdown
type WageCost struct {
	StaffingCost            decimal.Decimal
	Benefits                decimal.Decimal
	QualityEnhancement      decimal.Decimal
	ProfessionalDevelopment decimal.Decimal
	ProfessionalDues        decimal.Decimal
	RequiredSupervisors     decimal.Decimal
	AdjustedFTE             decimal.Decimal
}

// Remuneration is the payroll base used for Employer Health Tax
func (w WageCost) Remuneration() decimal.Decimal {
	return w.StaffingCost.Add(w.Benefits).Add(w.QualityEnhancement)
}

// WageCostCalculator prices adjusted FTE with the schedule's wage grid
type WageCostCalculator struct{}

// NewWageCostCalculator creates a new wage cost calculator
func NewWageCostCalculator() *WageCostCalculator {
	return &WageCostCalculator{}
}

// Calculate prices every staffing requirement and sums the facility totals.
//
// Per service: hourly cost = sum(wage[role] x adjustedFTE[role]) +
// differential x (supervisor ratio x group count), and staffing cost =
// hourly cost x annual FTE hours x (1 + wage grid markup).
func (wc *WageCostCalculator) Calculate(reqs []StaffingRequirement, schedule *domain.RateSchedule) (WageCost, error) {
	if schedule == nil {
		return WageCost{}, domain.ErrRateScheduleNotFound
	}
	differential, ok := schedule.Supervisor.Differential()
	if !ok {
		return WageCost{}, fmt.Errorf("schedule %s: %w %q", schedule.ID, domain.ErrUnknownSupervisorType, schedule.Supervisor.Type)
	}
	markup := decimal.NewFromInt(1).Add(schedule.WageGridMarkup)
	annualHours := schedule.Staffing.TotalFTEHoursPerYear

	var cost WageCost
	for _, req := range reqs {
		hourly := decimal.Zero
		for _, role := range domain.Roles {
			hourly = hourly.Add(schedule.Wages.Rate(role).Mul(req.AdjustedFTE[role]))
		}
		supervisors := schedule.Supervisor.Ratio.Mul(decimal.NewFromInt(int64(req.GroupCount())))
		hourly = hourly.Add(differential.Mul(supervisors))

		cost.StaffingCost = cost.StaffingCost.Add(hourly.Mul(annualHours).Mul(markup))
		cost.RequiredSupervisors = cost.RequiredSupervisors.Add(supervisors)
		cost.AdjustedFTE = cost.AdjustedFTE.Add(req.AdjustedFTE.Total())
	}

	cost.Benefits = cost.StaffingCost.Mul(schedule.BenefitsPercent)
	cost.QualityEnhancement = cost.StaffingCost.Add(cost.Benefits).Mul(schedule.QualityEnhancementPercent)
	cost.ProfessionalDevelopment = schedule.ProfessionalDevelopment.CapsPerFTE().Mul(cost.AdjustedFTE)
	cost.ProfessionalDues = schedule.ProfessionalDevelopment.StandardDuesPerFTE.Mul(cost.AdjustedFTE)
	return cost, nil
}
