package calculation

import (
	"context"
	"errors"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func step(o domain.OwnershipType, e domain.Envelope, n, lo, hi int, rate string) domain.FundingRateStep {
	return domain.FundingRateStep{OwnershipType: o, Envelope: e, Step: n, SpacesMin: lo, SpacesMax: hi, Rate: d(rate)}
}

// testSchedule: available hours per FTE = 2000 - (10+120+40+80) = 1750
func testSchedule() *domain.RateSchedule {
	return &domain.RateSchedule{
		ID:     "rs-2025",
		Name:   "2025/26",
		Active: true,
		Staffing: domain.StaffingHours{
			TotalFTEHoursPerYear:         d("2000"),
			VacationHoursPerFTE:          d("120"),
			SickHoursPerFTE:              d("40"),
			StatutoryBreakHoursPerFTE:    d("80"),
			ProfessionalDevelopmentHours: d("10"),
		},
		Wages: domain.WageRates{ITE: d("30"), ECE: d("25"), ECEA: d("20"), RA: d("18")},
		Supervisor: domain.SupervisorRule{
			Ratio:           d("0.5"),
			Type:            domain.SupervisorECE,
			DifferentialITE: d("3"),
			DifferentialECE: d("2"),
			DifferentialRA:  d("1"),
		},
		WageGridMarkup:            d("0.1"),
		BenefitsPercent:           d("0.2"),
		QualityEnhancementPercent: d("0.05"),
		EHT: domain.EHTRates{
			LowerThreshold:       d("500000"),
			UpperThreshold:       d("1500000"),
			ForProfitOver500K:    d("0.0098"),
			ForProfitOver1_5M:    d("0.0195"),
			NotForProfitOver1_5M: d("0.0195"),
		},
		ProfessionalDevelopment: domain.PDAllowances{
			ExpensesPerFTE:     d("100"),
			FeesPerFTE:         d("50"),
			TravelPerFTE:       d("25"),
			MaterialsPerFTE:    d("25"),
			StandardDuesPerFTE: d("10"),
		},
		MaxAnnualOperationalHours: d("2510"),
		FundingRates: []domain.FundingRateStep{
			step(domain.OwnershipPrivate, domain.EnvelopeProgramming, 3, 31, 50, "713"),
			step(domain.OwnershipPrivate, domain.EnvelopeProgramming, 1, 1, 20, "932"),
			step(domain.OwnershipPrivate, domain.EnvelopeProgramming, 2, 21, 30, "788"),
			step(domain.OwnershipPrivate, domain.EnvelopeAdministrative, 1, 1, 100, "100"),
			step(domain.OwnershipPrivate, domain.EnvelopeOperational, 1, 1, 100, "200"),
			step(domain.OwnershipPrivate, domain.EnvelopeFacility, 1, 1, 50, "300"),
			step(domain.OwnershipNotForProfit, domain.EnvelopeFacility, 1, 1, 50, "350"),
			step(domain.OwnershipHomeBased, domain.EnvelopeOperational, 1, 1, 10, "1000"),
		},
		RatioTiers: []domain.RatioTier{
			{ID: "it-c", LicenceMappings: []string{"IT"}, GroupSize: 12, SpacesMin: 9, SpacesMax: 12, MinITE: d("2"), MinECE: d("1")},
			{ID: "it-a", LicenceMappings: []string{"IT"}, GroupSize: 4, SpacesMin: 1, SpacesMax: 4, MinITE: d("1")},
			{ID: "it-b", LicenceMappings: []string{"IT"}, GroupSize: 8, SpacesMin: 5, SpacesMax: 8, MinITE: d("1"), MinECE: d("1")},
			{ID: "gc-a", LicenceMappings: []string{"GC", "PS"}, GroupSize: 8, SpacesMin: 1, SpacesMax: 8, MinECE: d("1")},
			{ID: "gc-b", LicenceMappings: []string{"GC", "PS"}, GroupSize: 16, SpacesMin: 9, SpacesMax: 16, MinECE: d("1"), MinECEA: d("1")},
			{ID: "gc-c", LicenceMappings: []string{"GC", "PS"}, GroupSize: 25, SpacesMin: 17, SpacesMax: 25, MinECE: d("1"), MinECEA: d("2")},
		},
	}
}

// weekdayService runs 07:00-17:00 Monday to Friday; 35 weeks gives 1750 hours, a ratio of 1
func weekdayService(id, licenceType string, spaces, weeks int) domain.CoreService {
	return domain.CoreService{
		ID:                id,
		LicenceType:       licenceType,
		OperationalSpaces: spaces,
		HoursFrom:         d("7"),
		HoursTo:           d("17"),
		WeekDays:          []int{1, 2, 3, 4, 5},
		WeeksInOperation:  weeks,
	}
}

func testFunding() *domain.Funding {
	return &domain.Funding{
		ID:                "fund-1",
		FundingNumberBase: "OFM-000123",
		RateScheduleID:    "rs-2025",
		Application:       &domain.Application{ID: "app-1", Status: domain.ApplicationSubmitted},
		Facility: &domain.Facility{
			ID:              "fac-1",
			Name:            "Sunrise Early Learning",
			OwnershipType:   domain.OwnershipPrivate,
			FacilityType:    domain.FacilityRentLease,
			Costs:           domain.FacilityCosts{YearlyOperatingCost: d("100000"), YearlyFacilityCost: d("12000")},
			TotalParentFees: d("50000"),
			Licences: []domain.Licence{
				{ID: "lic-1", Number: "L-1", Active: true, Details: []domain.CoreService{weekdayService("cs-1", "IT", 12, 35)}},
			},
		},
	}
}

type fakeRepo struct {
	schedules   []domain.RateSchedule
	fundings    map[string]*domain.Funding
	saved       []*domain.FundingResult
	allocations map[string][]domain.SpaceAllocation
	saveErr     error
	loadErr     error
}

func newFakeRepo(funding *domain.Funding, schedules ...*domain.RateSchedule) *fakeRepo {
	r := &fakeRepo{fundings: map[string]*domain.Funding{}, allocations: map[string][]domain.SpaceAllocation{}}
	if funding != nil {
		r.fundings[funding.ID] = funding
	}
	for _, s := range schedules {
		r.schedules = append(r.schedules, *s)
	}
	return r
}

func (r *fakeRepo) LoadRateSchedules(context.Context) ([]domain.RateSchedule, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.schedules, nil
}

func (r *fakeRepo) GetFundingByID(_ context.Context, id string) (*domain.Funding, error) {
	f, ok := r.fundings[id]
	if !ok {
		return nil, domain.ErrFundingNotFound
	}
	return f, nil
}

func (r *fakeRepo) SaveFundingAmounts(_ context.Context, result *domain.FundingResult) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, result)
	return nil
}

func (r *fakeRepo) SaveDefaultSpacesAllocation(_ context.Context, fundingID string, allocations []domain.SpaceAllocation) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.allocations[fundingID] = allocations
	return nil
}

var errBoom = errors.New("boom")

// TestLogger records formatted messages by level
type TestLogger struct {
	messages []string
}

func (tl *TestLogger) Debugf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "DEBUG: "+format)
}

func (tl *TestLogger) Infof(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "INFO: "+format)
}

func (tl *TestLogger) Warnf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "WARN: "+format)
}

func (tl *TestLogger) Errorf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "ERROR: "+format)
}
