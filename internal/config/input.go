package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// RateScheduleFile is the on-disk layout of a rate schedule file
type RateScheduleFile struct {
	RateSchedules []domain.RateSchedule `yaml:"rate_schedules" json:"rate_schedules"`
}

// FundingFile is the on-disk layout of a funding records file
type FundingFile struct {
	Fundings []domain.Funding `yaml:"fundings" json:"fundings"`
}

// InputParser handles parsing of rate schedule and funding files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadRateSchedules loads, defaults and validates rate schedules from a YAML file
func (ip *InputParser) LoadRateSchedules(filename string) ([]domain.RateSchedule, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.ParseRateSchedules(data)
}

// ParseRateSchedules parses rate schedules from YAML bytes
func (ip *InputParser) ParseRateSchedules(data []byte) ([]domain.RateSchedule, error) {
	var file RateScheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.RateSchedules) == 0 {
		return nil, fmt.Errorf("no rate schedules provided")
	}

	seen := make(map[string]bool, len(file.RateSchedules))
	for i := range file.RateSchedules {
		rs := &file.RateSchedules[i]
		ApplyDefaults(rs)
		if err := ip.ValidateRateSchedule(rs); err != nil {
			return nil, fmt.Errorf("rate schedule %d (%s) validation failed: %w", i, rs.ID, err)
		}
		if seen[rs.ID] {
			return nil, fmt.Errorf("duplicate rate schedule id %s", rs.ID)
		}
		seen[rs.ID] = true
	}
	return file.RateSchedules, nil
}

// LoadFundings loads and validates funding records from a YAML file
func (ip *InputParser) LoadFundings(filename string) ([]domain.Funding, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.ParseFundings(data)
}

// ParseFundings parses funding records from YAML bytes.
// Business preconditions (funding number, application status) are left to the
// validation chain so they surface as Invalid results.
func (ip *InputParser) ParseFundings(data []byte) ([]domain.Funding, error) {
	var file FundingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Fundings) == 0 {
		return nil, fmt.Errorf("no fundings provided")
	}

	seen := make(map[string]bool, len(file.Fundings))
	for i := range file.Fundings {
		f := &file.Fundings[i]
		if err := ip.ValidateFunding(f); err != nil {
			return nil, fmt.Errorf("funding %d (%s) validation failed: %w", i, f.ID, err)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("duplicate funding id %s", f.ID)
		}
		seen[f.ID] = true
	}
	return file.Fundings, nil
}

// ApplyDefaults fills configuration constants a schedule may omit
func ApplyDefaults(rs *domain.RateSchedule) {
	if rs.MaxAnnualOperationalHours.IsZero() {
		rs.MaxAnnualOperationalHours = decimal.NewFromInt(domain.DefaultMaxAnnualOperationalHours)
	}
	if rs.EHT.LowerThreshold.IsZero() {
		rs.EHT.LowerThreshold = decimal.NewFromInt(500000)
	}
	if rs.EHT.UpperThreshold.IsZero() {
		rs.EHT.UpperThreshold = decimal.NewFromInt(1500000)
	}
}

// ValidateRateSchedule checks a schedule's constants and table invariants
func (ip *InputParser) ValidateRateSchedule(rs *domain.RateSchedule) error {
	if rs.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !rs.Staffing.TotalFTEHoursPerYear.IsPositive() {
		return fmt.Errorf("total FTE hours per year must be positive")
	}
	if !rs.Staffing.AvailableHoursPerFTE().IsPositive() {
		return fmt.Errorf("vacation, sick, statutory and professional development hours exceed total FTE hours")
	}
	if _, ok := rs.Supervisor.Differential(); !ok {
		return fmt.Errorf("supervisor type %q must be one of ite_sne, ece, ra", rs.Supervisor.Type)
	}
	if rs.EHT.LowerThreshold.GreaterThan(rs.EHT.UpperThreshold) {
		return fmt.Errorf("EHT lower threshold cannot exceed upper threshold")
	}
	for name, v := range map[string]decimal.Decimal{
		"wage_grid_markup":            rs.WageGridMarkup,
		"benefits_percent":            rs.BenefitsPercent,
		"quality_enhancement_percent": rs.QualityEnhancementPercent,
		"supervisor.ratio":            rs.Supervisor.Ratio,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	if err := ip.validateFundingRates(rs.FundingRates); err != nil {
		return fmt.Errorf("funding rates: %w", err)
	}
	if err := ip.validateRatioTiers(rs.RatioTiers); err != nil {
		return fmt.Errorf("ratio tiers: %w", err)
	}
	return nil
}

type stepRange struct {
	step     int
	min, max int
}

// validateFundingRates: within each (ownership, envelope) partition the steps
// must be ordered, contiguous and non-overlapping, starting at one space
func (ip *InputParser) validateFundingRates(steps []domain.FundingRateStep) error {
	partitions := make(map[string][]stepRange)
	var keys []string
	for _, s := range steps {
		if !s.OwnershipType.Valid() {
			return fmt.Errorf("step %d: unknown ownership type %q", s.Step, s.OwnershipType)
		}
		if !s.Envelope.IsNonHR() {
			return fmt.Errorf("step %d: envelope %q is not priced from rate steps", s.Step, s.Envelope)
		}
		if s.Rate.IsNegative() {
			return fmt.Errorf("step %d: rate cannot be negative", s.Step)
		}
		key := string(s.OwnershipType) + "/" + string(s.Envelope)
		if _, ok := partitions[key]; !ok {
			keys = append(keys, key)
		}
		partitions[key] = append(partitions[key], stepRange{step: s.Step, min: s.SpacesMin, max: s.SpacesMax})
	}
	for _, key := range keys {
		ranges := partitions[key]
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].step < ranges[j].step })
		if err := checkContiguous(ranges); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// validateRatioTiers: tiers sharing a licence mapping must be contiguous by spaces_min
func (ip *InputParser) validateRatioTiers(tiers []domain.RatioTier) error {
	partitions := make(map[string][]stepRange)
	var keys []string
	ids := make(map[string]bool, len(tiers))
	for i, t := range tiers {
		if t.ID == "" {
			return fmt.Errorf("tier %d: id is required", i)
		}
		if ids[t.ID] {
			return fmt.Errorf("duplicate tier id %s", t.ID)
		}
		ids[t.ID] = true
		if len(t.LicenceMappings) == 0 {
			return fmt.Errorf("tier %s: at least one licence mapping is required", t.ID)
		}
		for _, role := range domain.Roles {
			if t.Minimum(role).IsNegative() {
				return fmt.Errorf("tier %s: minimum %s cannot be negative", t.ID, role)
			}
		}
		for _, code := range t.LicenceMappings {
			if _, ok := partitions[code]; !ok {
				keys = append(keys, code)
			}
			partitions[code] = append(partitions[code], stepRange{min: t.SpacesMin, max: t.SpacesMax})
		}
	}
	for _, key := range keys {
		ranges := partitions[key]
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].min < ranges[j].min })
		for i := range ranges {
			ranges[i].step = i + 1
		}
		if err := checkContiguous(ranges); err != nil {
			return fmt.Errorf("licence type %s: %w", key, err)
		}
	}
	return nil
}

func checkContiguous(ranges []stepRange) error {
	for i, r := range ranges {
		if r.min < 1 || r.min > r.max {
			return fmt.Errorf("step %d: invalid space range %d-%d", r.step, r.min, r.max)
		}
		if i == 0 {
			if r.min != 1 {
				return fmt.Errorf("step %d: first range must start at 1, starts at %d", r.step, r.min)
			}
			continue
		}
		prev := ranges[i-1]
		if r.min != prev.max+1 {
			return fmt.Errorf("step %d: range %d-%d does not follow %d-%d", r.step, r.min, r.max, prev.min, prev.max)
		}
	}
	return nil
}

// ValidateFunding checks the structure a funding record needs to be calculated
func (ip *InputParser) ValidateFunding(f *domain.Funding) error {
	if f.ID == "" {
		return fmt.Errorf("id is required")
	}
	if f.Facility == nil {
		return fmt.Errorf("facility is required")
	}
	if f.Facility.OwnershipType != "" && !f.Facility.OwnershipType.Valid() {
		return fmt.Errorf("facility %s: unknown ownership type %q", f.Facility.ID, f.Facility.OwnershipType)
	}
	if f.Facility.TotalParentFees.IsNegative() {
		return fmt.Errorf("facility %s: total parent fees cannot be negative", f.Facility.ID)
	}
	for _, lic := range f.Facility.Licences {
		for _, cs := range lic.Details {
			if err := validateCoreService(cs); err != nil {
				return fmt.Errorf("licence %s detail %s: %w", lic.ID, cs.ID, err)
			}
		}
	}
	return nil
}

func validateCoreService(cs domain.CoreService) error {
	if cs.LicenceType == "" {
		return fmt.Errorf("licence type is required")
	}
	if cs.OperationalSpaces < 0 {
		return fmt.Errorf("operational spaces cannot be negative")
	}
	if cs.HoursTo.LessThan(cs.HoursFrom) {
		return fmt.Errorf("hours_to %s is before hours_from %s", cs.HoursTo, cs.HoursFrom)
	}
	for _, day := range cs.WeekDays {
		if day < 1 || day > 7 {
			return fmt.Errorf("week day %d must be between 1 (Monday) and 7 (Sunday)", day)
		}
	}
	if cs.WeeksInOperation < 0 {
		return fmt.Errorf("weeks in operation cannot be negative")
	}
	return nil
}
