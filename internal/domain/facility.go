package domain

import (
	"github.com/shopspring/decimal"
)

// Funding is a facility's funding record for one funding period
type Funding struct {
	ID                string       `yaml:"id" json:"id"`
	FundingNumberBase string       `yaml:"funding_number_base" json:"funding_number_base"`
	RateScheduleID    string       `yaml:"rate_schedule_id" json:"rate_schedule_id"`
	Application       *Application `yaml:"application" json:"application"`
	Facility          *Facility    `yaml:"facility" json:"facility"`
}

// Application is the funding application a funding record belongs to
type Application struct {
	ID     string            `yaml:"id" json:"id"`
	Status ApplicationStatus `yaml:"status" json:"status"`
}

// Facility is a licensed childcare facility
type Facility struct {
	ID            string        `yaml:"id" json:"id"`
	Name          string        `yaml:"name" json:"name"`
	OwnershipType OwnershipType `yaml:"ownership_type" json:"ownership_type"`
	FacilityType  FacilityType  `yaml:"facility_type" json:"facility_type"`
	Costs         FacilityCosts `yaml:"costs" json:"costs"`

	// TotalParentFees is the facility's total approved annual parent fees
	TotalParentFees decimal.Decimal `yaml:"total_parent_fees" json:"total_parent_fees"`

	// ApplyDuplicateCareTypes merges licence details of the same licence type
	// before staffing ratios are applied
	ApplyDuplicateCareTypes bool `yaml:"apply_duplicate_care_types" json:"apply_duplicate_care_types"`
	ApplyRoomSplit          bool `yaml:"apply_room_split" json:"apply_room_split"`

	Licences             []Licence         `yaml:"licences" json:"licences"`
	NewSpacesAllocations []SpaceAllocation `yaml:"new_spaces_allocations" json:"new_spaces_allocations"`
}

// FacilityCosts are the facility's reported actual annual costs
type FacilityCosts struct {
	YearlyOperatingCost decimal.Decimal `yaml:"yearly_operating_cost" json:"yearly_operating_cost"`
	YearlyFacilityCost  decimal.Decimal `yaml:"yearly_facility_cost" json:"yearly_facility_cost"`
}

// Licence is one childcare licence held by a facility
type Licence struct {
	ID      string        `yaml:"id" json:"id"`
	Number  string        `yaml:"number" json:"number"`
	Active  bool          `yaml:"active" json:"active"`
	Details []CoreService `yaml:"details" json:"details"`
}

// CoreService is a licence detail row: one licence-type/care-type combination
type CoreService struct {
	ID                string          `yaml:"id" json:"id"`
	LicenceType       string          `yaml:"licence_type" json:"licence_type"`
	CareType          string          `yaml:"care_type" json:"care_type"`
	OperationalSpaces int             `yaml:"operational_spaces" json:"operational_spaces"`
	HoursFrom         decimal.Decimal `yaml:"hours_from" json:"hours_from"`
	HoursTo           decimal.Decimal `yaml:"hours_to" json:"hours_to"`
	WeekDays          []int           `yaml:"week_days" json:"week_days"`
	WeeksInOperation  int             `yaml:"weeks_in_operation" json:"weeks_in_operation"`

	// Annotations set by the licence aggregator; never loaded from input
	RateSchedule         *RateSchedule     `yaml:"-" json:"-"`
	ApplyRoomSplit       bool              `yaml:"-" json:"-"`
	NewSpacesAllocations []SpaceAllocation `yaml:"-" json:"-"`
}

// HoursPerDay returns the daily operating hours, zero when the window is empty
func (cs CoreService) HoursPerDay() decimal.Decimal {
	h := cs.HoursTo.Sub(cs.HoursFrom)
	if h.IsNegative() {
		return decimal.Zero
	}
	return h
}

// DaysPerWeek returns the number of distinct operating week days (1=Monday..7=Sunday)
func (cs CoreService) DaysPerWeek() int {
	seen := make(map[int]struct{}, 7)
	for _, d := range cs.WeekDays {
		if d >= 1 && d <= 7 {
			seen[d] = struct{}{}
		}
	}
	return len(seen)
}

// AnnualStandardHours is hours/day x days/week x weeks/year
func (cs CoreService) AnnualStandardHours() decimal.Decimal {
	return cs.HoursPerDay().
		Mul(decimal.NewFromInt(int64(cs.DaysPerWeek()))).
		Mul(decimal.NewFromInt(int64(cs.WeeksInOperation)))
}

// SpaceAllocation records default or adjusted spaces assigned to one ratio tier
// of a licence detail
type SpaceAllocation struct {
	ID              string `yaml:"id" json:"id"`
	FundingID       string `yaml:"funding_id" json:"funding_id"`
	LicenceDetailID string `yaml:"licence_detail_id" json:"licence_detail_id"`
	LicenceType     string `yaml:"licence_type" json:"licence_type"`
	RatioTierID     string `yaml:"ratio_tier_id" json:"ratio_tier_id"`
	GroupSize       int    `yaml:"group_size" json:"group_size"`
	Groups          int    `yaml:"groups" json:"groups"`
	DefaultSpaces   int    `yaml:"default_spaces" json:"default_spaces"`
	AdjustedSpaces  int    `yaml:"adjusted_spaces" json:"adjusted_spaces"`
}

// ActiveCoreServices returns the licence details of all active licences
func (f *Facility) ActiveCoreServices() []CoreService {
	var services []CoreService
	for _, lic := range f.Licences {
		if !lic.Active {
			continue
		}
		services = append(services, lic.Details...)
	}
	return services
}
