package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMaxAnnualOperationalHours is the yearly operating-hours ceiling used to
// scale the Administrative and Operational envelopes
const DefaultMaxAnnualOperationalHours = 2510

// RateSchedule holds the immutable funding constants for one funding period
type RateSchedule struct {
	ID                        string          `yaml:"id" json:"id"`
	Name                      string          `yaml:"name" json:"name"`
	StartDate                 time.Time       `yaml:"start_date" json:"start_date"`
	EndDate                   time.Time       `yaml:"end_date" json:"end_date"`
	Active                    bool            `yaml:"active" json:"active"`
	Staffing                  StaffingHours   `yaml:"staffing_hours" json:"staffing_hours"`
	Wages                     WageRates       `yaml:"wage_rates" json:"wage_rates"`
	Supervisor                SupervisorRule  `yaml:"supervisor" json:"supervisor"`
	WageGridMarkup            decimal.Decimal `yaml:"wage_grid_markup" json:"wage_grid_markup"`
	BenefitsPercent           decimal.Decimal `yaml:"benefits_percent" json:"benefits_percent"`
	QualityEnhancementPercent decimal.Decimal `yaml:"quality_enhancement_percent" json:"quality_enhancement_percent"`
	EHT                       EHTRates        `yaml:"employer_health_tax" json:"employer_health_tax"`
	ProfessionalDevelopment   PDAllowances    `yaml:"professional_development" json:"professional_development"`

	// MaxAnnualOperationalHours defaults to DefaultMaxAnnualOperationalHours when unset
	MaxAnnualOperationalHours decimal.Decimal `yaml:"max_annual_operational_hours" json:"max_annual_operational_hours"`

	FundingRates []FundingRateStep `yaml:"funding_rates" json:"funding_rates"`
	RatioTiers   []RatioTier       `yaml:"ratio_tiers" json:"ratio_tiers"`
}

// StaffingHours are the per-FTE hour constants of the schedule
type StaffingHours struct {
	TotalFTEHoursPerYear         decimal.Decimal `yaml:"total_fte_hours_per_year" json:"total_fte_hours_per_year"`
	VacationHoursPerFTE          decimal.Decimal `yaml:"vacation_hours_per_fte" json:"vacation_hours_per_fte"`
	SickHoursPerFTE              decimal.Decimal `yaml:"sick_hours_per_fte" json:"sick_hours_per_fte"`
	StatutoryBreakHoursPerFTE    decimal.Decimal `yaml:"statutory_break_hours_per_fte" json:"statutory_break_hours_per_fte"`
	ProfessionalDevelopmentHours decimal.Decimal `yaml:"professional_development_hours" json:"professional_development_hours"`
}

// AvailableHoursPerFTE returns the hours an FTE is actually on the floor per year
func (s StaffingHours) AvailableHoursPerFTE() decimal.Decimal {
	absent := s.ProfessionalDevelopmentHours.
		Add(s.VacationHoursPerFTE).
		Add(s.SickHoursPerFTE).
		Add(s.StatutoryBreakHoursPerFTE)
	return s.TotalFTEHoursPerYear.Sub(absent)
}

// WageRates are hourly wage rates per staffing role
type WageRates struct {
	ITE  decimal.Decimal `yaml:"ite" json:"ite"`
	ECE  decimal.Decimal `yaml:"ece" json:"ece"`
	ECEA decimal.Decimal `yaml:"ecea" json:"ecea"`
	RA   decimal.Decimal `yaml:"ra" json:"ra"`
}

// Rate returns the hourly wage for a role
func (w WageRates) Rate(role Role) decimal.Decimal {
	switch role {
	case RoleITE:
		return w.ITE
	case RoleECE:
		return w.ECE
	case RoleECEA:
		return w.ECEA
	case RoleRA:
		return w.RA
	default:
		panic("domain: unknown role " + string(role))
	}
}

// SupervisorRule configures the supervisor differential
type SupervisorRule struct {
	Ratio           decimal.Decimal `yaml:"ratio" json:"ratio"`
	Type            SupervisorType  `yaml:"type" json:"type"`
	DifferentialITE decimal.Decimal `yaml:"differential_ite_sne" json:"differential_ite_sne"`
	DifferentialECE decimal.Decimal `yaml:"differential_ece" json:"differential_ece"`
	DifferentialRA  decimal.Decimal `yaml:"differential_ra" json:"differential_ra"`
}

// Differential returns the hourly differential for the configured supervisor type
func (s SupervisorRule) Differential() (decimal.Decimal, bool) {
	switch s.Type {
	case SupervisorITE:
		return s.DifferentialITE, true
	case SupervisorECE:
		return s.DifferentialECE, true
	case SupervisorRA:
		return s.DifferentialRA, true
	default:
		return decimal.Zero, false
	}
}

// EHTRates holds the Employer Health Tax thresholds and rates
type EHTRates struct {
	LowerThreshold       decimal.Decimal `yaml:"lower_threshold" json:"lower_threshold"`
	UpperThreshold       decimal.Decimal `yaml:"upper_threshold" json:"upper_threshold"`
	ForProfitOver500K    decimal.Decimal `yaml:"for_profit_over_500k" json:"for_profit_over_500k"`
	ForProfitOver1_5M    decimal.Decimal `yaml:"for_profit_over_1_5m" json:"for_profit_over_1_5m"`
	NotForProfitOver1_5M decimal.Decimal `yaml:"not_for_profit_over_1_5m" json:"not_for_profit_over_1_5m"`
}

// PDAllowances are per-FTE professional development caps and dues
type PDAllowances struct {
	ExpensesPerFTE     decimal.Decimal `yaml:"expenses_per_fte" json:"expenses_per_fte"`
	FeesPerFTE         decimal.Decimal `yaml:"fees_per_fte" json:"fees_per_fte"`
	TravelPerFTE       decimal.Decimal `yaml:"travel_per_fte" json:"travel_per_fte"`
	MaterialsPerFTE    decimal.Decimal `yaml:"materials_per_fte" json:"materials_per_fte"`
	StandardDuesPerFTE decimal.Decimal `yaml:"standard_dues_per_fte" json:"standard_dues_per_fte"`
}

// CapsPerFTE returns the sum of the four per-FTE professional development caps
func (p PDAllowances) CapsPerFTE() decimal.Decimal {
	return p.ExpensesPerFTE.Add(p.FeesPerFTE).Add(p.TravelPerFTE).Add(p.MaterialsPerFTE)
}

// FundingRateStep is one row of a stepped non-HR rate table
type FundingRateStep struct {
	OwnershipType OwnershipType   `yaml:"ownership_type" json:"ownership_type"`
	Envelope      Envelope        `yaml:"envelope" json:"envelope"`
	Step          int             `yaml:"step" json:"step"`
	SpacesMin     int             `yaml:"spaces_min" json:"spaces_min"`
	SpacesMax     int             `yaml:"spaces_max" json:"spaces_max"`
	Rate          decimal.Decimal `yaml:"rate" json:"rate"`
}

// RatioTier maps licence types and a group space range to minimum staffing per role
type RatioTier struct {
	ID              string          `yaml:"id" json:"id"`
	LicenceMappings []string        `yaml:"licence_mappings" json:"licence_mappings"`
	GroupSize       int             `yaml:"group_size" json:"group_size"`
	SpacesMin       int             `yaml:"spaces_min" json:"spaces_min"`
	SpacesMax       int             `yaml:"spaces_max" json:"spaces_max"`
	MinITE          decimal.Decimal `yaml:"min_ite" json:"min_ite"`
	MinECE          decimal.Decimal `yaml:"min_ece" json:"min_ece"`
	MinECEA         decimal.Decimal `yaml:"min_ecea" json:"min_ecea"`
	MinRA           decimal.Decimal `yaml:"min_ra" json:"min_ra"`
}

// Maps reports whether the tier applies to the given licence type code
func (t RatioTier) Maps(licenceType string) bool {
	for _, code := range t.LicenceMappings {
		if code == licenceType {
			return true
		}
	}
	return false
}

// Minimum returns the tier's minimum FTE for a role
func (t RatioTier) Minimum(role Role) decimal.Decimal {
	switch role {
	case RoleITE:
		return t.MinITE
	case RoleECE:
		return t.MinECE
	case RoleECEA:
		return t.MinECEA
	case RoleRA:
		return t.MinRA
	default:
		panic("domain: unknown role " + string(role))
	}
}

// Steps returns the rate steps for an ownership type and envelope ordered by step
func (rs *RateSchedule) Steps(ownership OwnershipType, envelope Envelope) []FundingRateStep {
	var steps []FundingRateStep
	for _, s := range rs.FundingRates {
		if s.OwnershipType == ownership && s.Envelope == envelope {
			steps = append(steps, s)
		}
	}
	sortSteps(steps)
	return steps
}

// TiersFor returns the ratio tiers mapped to a licence type ordered by spaces_min
func (rs *RateSchedule) TiersFor(licenceType string) []RatioTier {
	var tiers []RatioTier
	for _, t := range rs.RatioTiers {
		if t.Maps(licenceType) {
			tiers = append(tiers, t)
		}
	}
	sortTiers(tiers)
	return tiers
}

// OperationalHoursCeiling returns MaxAnnualOperationalHours or the default when unset
func (rs *RateSchedule) OperationalHoursCeiling() decimal.Decimal {
	if rs.MaxAnnualOperationalHours.IsPositive() {
		return rs.MaxAnnualOperationalHours
	}
	return decimal.NewFromInt(DefaultMaxAnnualOperationalHours)
}

func sortSteps(steps []FundingRateStep) {
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].Step != steps[j].Step {
			return steps[i].Step < steps[j].Step
		}
		return steps[i].SpacesMin < steps[j].SpacesMin
	})
}

func sortTiers(tiers []RatioTier) {
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].SpacesMin < tiers[j].SpacesMin })
}
