package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStaffingHours_AvailableHoursPerFTE(t *testing.T) {
	s := StaffingHours{
		TotalFTEHoursPerYear:         d("1950"),
		VacationHoursPerFTE:          d("75"),
		SickHoursPerFTE:              d("37.5"),
		StatutoryBreakHoursPerFTE:    d("97.5"),
		ProfessionalDevelopmentHours: d("15"),
	}
	assert.True(t, s.AvailableHoursPerFTE().Equal(d("1725")), "got %s", s.AvailableHoursPerFTE())
}

func TestWageRates_Rate(t *testing.T) {
	w := WageRates{ITE: d("27"), ECE: d("25"), ECEA: d("20"), RA: d("17")}
	assert.True(t, w.Rate(RoleITE).Equal(d("27")))
	assert.True(t, w.Rate(RoleECE).Equal(d("25")))
	assert.True(t, w.Rate(RoleECEA).Equal(d("20")))
	assert.True(t, w.Rate(RoleRA).Equal(d("17")))
	assert.Panics(t, func() { w.Rate(Role("cook")) })
}

func TestSupervisorRule_Differential(t *testing.T) {
	rule := SupervisorRule{DifferentialITE: d("2"), DifferentialECE: d("1.5"), DifferentialRA: d("1")}

	tests := []struct {
		supervisor SupervisorType
		want       string
		ok         bool
	}{
		{SupervisorITE, "2", true},
		{SupervisorECE, "1.5", true},
		{SupervisorRA, "1", true},
		{SupervisorType("manager"), "0", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.supervisor), func(t *testing.T) {
			rule.Type = tt.supervisor
			got, ok := rule.Differential()
			assert.Equal(t, tt.ok, ok)
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}
}

func TestPDAllowances_CapsPerFTE(t *testing.T) {
	p := PDAllowances{ExpensesPerFTE: d("100"), FeesPerFTE: d("50"), TravelPerFTE: d("25.5"), MaterialsPerFTE: d("10"), StandardDuesPerFTE: d("99")}
	assert.True(t, p.CapsPerFTE().Equal(d("185.5")), "dues are not a cap")
}

func TestRateSchedule_Steps(t *testing.T) {
	rs := &RateSchedule{FundingRates: []FundingRateStep{
		{OwnershipType: OwnershipPrivate, Envelope: EnvelopeProgramming, Step: 2, SpacesMin: 11, SpacesMax: 20},
		{OwnershipType: OwnershipNotForProfit, Envelope: EnvelopeProgramming, Step: 1, SpacesMin: 1, SpacesMax: 10},
		{OwnershipType: OwnershipPrivate, Envelope: EnvelopeProgramming, Step: 1, SpacesMin: 1, SpacesMax: 10},
		{OwnershipType: OwnershipPrivate, Envelope: EnvelopeFacility, Step: 1, SpacesMin: 1, SpacesMax: 10},
	}}

	steps := rs.Steps(OwnershipPrivate, EnvelopeProgramming)
	require.Len(t, steps, 2)
	assert.Equal(t, 1, steps[0].Step)
	assert.Equal(t, 2, steps[1].Step)
	assert.Empty(t, rs.Steps(OwnershipHomeBased, EnvelopeProgramming))
}

func TestRateSchedule_TiersFor(t *testing.T) {
	rs := &RateSchedule{RatioTiers: []RatioTier{
		{ID: "gc-b", LicenceMappings: []string{"GC", "MA"}, SpacesMin: 9},
		{ID: "it-a", LicenceMappings: []string{"IT"}, SpacesMin: 1},
		{ID: "gc-a", LicenceMappings: []string{"GC"}, SpacesMin: 1},
	}}

	tiers := rs.TiersFor("GC")
	require.Len(t, tiers, 2)
	assert.Equal(t, "gc-a", tiers[0].ID)
	assert.Equal(t, "gc-b", tiers[1].ID)
	assert.Len(t, rs.TiersFor("MA"), 1)
	assert.Empty(t, rs.TiersFor("PS"))
}

func TestRatioTier_Minimum(t *testing.T) {
	tier := RatioTier{MinITE: d("1"), MinECE: d("2"), MinECEA: d("0.5"), MinRA: d("0")}
	assert.True(t, tier.Minimum(RoleECE).Equal(d("2")))
	assert.True(t, tier.Minimum(RoleECEA).Equal(d("0.5")))
	assert.Panics(t, func() { tier.Minimum(Role("")) })
}

func TestRateSchedule_OperationalHoursCeiling(t *testing.T) {
	assert.True(t, (&RateSchedule{}).OperationalHoursCeiling().Equal(decimal.NewFromInt(DefaultMaxAnnualOperationalHours)))
	rs := &RateSchedule{MaxAnnualOperationalHours: d("2000")}
	assert.True(t, rs.OperationalHoursCeiling().Equal(d("2000")))
}
