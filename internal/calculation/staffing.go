package calculation

import (
	"fmt"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

// RoleFTE is an FTE amount per staffing role
type RoleFTE map[domain.Role]decimal.Decimal

// Total sums the FTE across all roles
func (r RoleFTE) Total() decimal.Decimal {
	total := decimal.Zero
	for _, role := range domain.Roles {
		total = total.Add(r[role])
	}
	return total
}

// Scale multiplies every role by factor
func (r RoleFTE) Scale(factor decimal.Decimal) RoleFTE {
	out := make(RoleFTE, len(domain.Roles))
	for _, role := range domain.Roles {
		out[role] = r[role].Mul(factor)
	}
	return out
}

// GroupAssignment is one group formed by the tier walk: the tier whose minimum
// staffing it claims and the spaces it actually holds
type GroupAssignment struct {
	Tier   domain.RatioTier
	Spaces int
}

// StaffingRequirement is the resolved staffing of one core service
type StaffingRequirement struct {
	Service     domain.CoreService
	Groups      []GroupAssignment
	RawFTE      RoleFTE
	HoursRatio  decimal.Decimal
	AdjustedFTE RoleFTE
}

// GroupCount is the number of distinct groups formed for the service
func (sr StaffingRequirement) GroupCount() int {
	return len(sr.Groups)
}

// StaffingResolver derives minimum required staffing from the schedule's ratio tiers
type StaffingResolver struct {
	Logger Logger
}

// NewStaffingResolver creates a new staffing resolver
func NewStaffingResolver() *StaffingResolver {
	return &StaffingResolver{Logger: NopLogger{}}
}

// WalkTiers forms groups for spaces from tiers ordered by spaces_min.
//
// Tiers are held as a stack with the largest tier on top. Each pass yields the
// top tier and subtracts its capacity from the remaining spaces; the tier is
// popped once the remainder drops below its minimum, otherwise it stays on top
// and is yielded again. Tiers whose minimum exceeds the remainder are dropped
// without being yielded. The final, partially filled group still claims the
// full minimum staffing of its tier. Tiers with an empty space range are skipped.
func WalkTiers(tiers []domain.RatioTier, spaces int) []GroupAssignment {
	stack := append([]domain.RatioTier(nil), tiers...)
	remaining := spaces
	var groups []GroupAssignment
	for remaining > 0 && len(stack) > 0 {
		top := stack[len(stack)-1]
		if remaining < top.SpacesMin || !validTierRange(top) {
			stack = stack[:len(stack)-1]
			continue
		}
		groups = append(groups, GroupAssignment{Tier: top, Spaces: min(remaining, top.SpacesMax)})
		remaining -= top.SpacesMax
		if remaining < top.SpacesMin {
			stack = stack[:len(stack)-1]
		}
	}
	return groups
}

func validTierRange(t domain.RatioTier) bool {
	return t.SpacesMax >= 1 && t.SpacesMax >= t.SpacesMin
}

// Resolve computes the raw and hours-adjusted FTE for a core service.
// adjusted = raw x (annual standard hours / available hours per FTE); the ratio
// is applied as computed, with no floor.
func (r *StaffingResolver) Resolve(cs domain.CoreService, schedule *domain.RateSchedule) (StaffingRequirement, error) {
	if schedule == nil {
		return StaffingRequirement{}, domain.ErrRateScheduleNotFound
	}
	available := schedule.Staffing.AvailableHoursPerFTE()
	if !available.IsPositive() {
		return StaffingRequirement{}, fmt.Errorf("schedule %s: %w", schedule.ID, domain.ErrNoAvailableHours)
	}

	tiers := schedule.TiersFor(cs.LicenceType)
	if len(tiers) == 0 && cs.OperationalSpaces > 0 {
		return StaffingRequirement{}, fmt.Errorf("service %s: %w %s", cs.ID, domain.ErrNoRatioTiers, cs.LicenceType)
	}
	for _, t := range tiers {
		if !validTierRange(t) {
			return StaffingRequirement{}, fmt.Errorf("schedule %s tier %s (%d-%d): %w",
				schedule.ID, t.ID, t.SpacesMin, t.SpacesMax, domain.ErrInvalidRatioTier)
		}
	}
	groups := WalkTiers(tiers, cs.OperationalSpaces)

	raw := make(RoleFTE, len(domain.Roles))
	for _, role := range domain.Roles {
		raw[role] = decimal.Zero
	}
	for _, g := range groups {
		for _, role := range domain.Roles {
			raw[role] = raw[role].Add(g.Tier.Minimum(role))
		}
	}

	ratio := cs.AnnualStandardHours().Div(available)
	req := StaffingRequirement{
		Service:     cs,
		Groups:      groups,
		RawFTE:      raw,
		HoursRatio:  ratio,
		AdjustedFTE: raw.Scale(ratio),
	}
	r.logger().Debugf("service %s (%s): spaces=%d groups=%d rawFTE=%s ratio=%s",
		cs.ID, cs.LicenceType, cs.OperationalSpaces, len(groups), raw.Total().StringFixed(4), ratio.StringFixed(4))
	return req, nil
}

func (r *StaffingResolver) logger() Logger {
	if r.Logger == nil {
		return NopLogger{}
	}
	return r.Logger
}
