package calculation

import (
	"context"
	"errors"
	"testing"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFundingCalculator(t *testing.T) {
	fc := NewFundingCalculator(newFakeRepo(nil))

	assert.NotNil(t, fc.Validation, "Should initialize validation chain")
	assert.NotNil(t, fc.Licences, "Should initialize licence aggregator")
	assert.NotNil(t, fc.Staffing, "Should initialize staffing resolver")
	assert.NotNil(t, fc.Wages, "Should initialize wage calculator")
	assert.NotNil(t, fc.NonHR, "Should initialize non-HR evaluator")
	assert.IsType(t, NopLogger{}, fc.Logger)
}

func TestFundingCalculator_SetLogger(t *testing.T) {
	fc := NewFundingCalculator(newFakeRepo(nil))

	custom := &TestLogger{}
	fc.SetLogger(custom)
	assert.Equal(t, custom, fc.Logger)
	assert.Equal(t, custom, fc.Staffing.Logger)

	fc.SetLogger(nil)
	assert.IsType(t, NopLogger{}, fc.Logger, "Should be no-op logger")
}

func TestFundingCalculator_Calculate(t *testing.T) {
	repo := newFakeRepo(testFunding(), testSchedule())
	fc := NewFundingCalculator(repo)

	result, err := fc.Calculate(context.Background(), "fund-1")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, domain.DecisionAuto, result.Decision())
	assert.Equal(t, "fund-1", result.FundingID())
	assert.NotEmpty(t, result.RunID())
	assert.Empty(t, result.Errors())
	assert.True(t, domain.IsValidFundingResult(result))

	a := result.Amounts()
	require.NotNil(t, a)

	// 12 infant-toddler spaces: one 12-space group, ITE 2 + ECE 1, hours ratio 1
	// staffing = (60 + 25 + 2 x 0.5) x 2000 x 1.1 = 189,200; enhancement = 227,040 x 0.05
	expected := map[domain.Envelope]string{
		domain.EnvelopeHRWages:                   "200552",
		domain.EnvelopeHRBenefits:                "37840",
		domain.EnvelopeHREmployerHealthTax:       "0",
		domain.EnvelopeHRProfessionalDevelopment: "630",
		domain.EnvelopeHRTotal:                   "239022",
		domain.EnvelopeProgramming:               "11184",
		domain.EnvelopeAdministrative:            "836.65",
		domain.EnvelopeOperational:               "1673.31",
		domain.EnvelopeFacility:                  "3600",
	}
	for env, want := range expected {
		assert.True(t, a.Projected(env).Equal(d(want)), "%s: got %s want %s", env, a.Projected(env), want)
	}
	assert.True(t, a.GrandTotal().Equal(d("256315.96")), "grand total %s", a.GrandTotal())

	assert.True(t, a.TotalParentFees().Equal(d("50000")), "parent fees %s", a.TotalParentFees())
	hrParentFees := a.ParentFeeHRWages.Add(a.ParentFeeHRBenefits).Add(a.ParentFeeHREmployerHealthTax).Add(a.ParentFeeHRProfessionalDevelopment)
	assert.True(t, a.ParentFeeHRTotal.Equal(hrParentFees))
	for _, env := range domain.AllocatedEnvelopes {
		assert.False(t, a.ParentFee(env).IsNegative(), "%s parent fee negative", env)
		assert.True(t, a.Base(env).Equal(a.Projected(env).Sub(a.ParentFee(env))))
	}
}

func TestFundingCalculator_Calculate_ManualForRoomSplit(t *testing.T) {
	funding := testFunding()
	funding.Facility.ApplyRoomSplit = true
	fc := NewFundingCalculator(newFakeRepo(funding, testSchedule()))

	result, err := fc.Calculate(context.Background(), "fund-1")

	require.NoError(t, err)
	assert.Equal(t, domain.DecisionManual, result.Decision())
	assert.True(t, domain.IsValidFundingResult(result))
}

func TestFundingCalculator_Calculate_InvalidFunding(t *testing.T) {
	funding := testFunding()
	funding.FundingNumberBase = ""
	funding.Application.Status = domain.ApplicationDraft
	repo := newFakeRepo(funding, testSchedule())
	fc := NewFundingCalculator(repo)

	result, err := fc.Calculate(context.Background(), "fund-1")

	require.NoError(t, err, "validation failures are results, not errors")
	assert.Equal(t, domain.DecisionInvalid, result.Decision())
	assert.Nil(t, result.Amounts())
	require.Len(t, result.Errors(), 2)
	assert.Contains(t, result.Errors()[0], "funding_number_base")
	assert.Contains(t, result.Errors()[1], "rule=MustHaveFundingNumberBaseRule")
	for _, msg := range result.Errors() {
		assert.NotContains(t, msg, "application status")
	}
	assert.False(t, domain.IsValidFundingResult(result))
}

func TestFundingCalculator_Calculate_UnknownSchedule(t *testing.T) {
	funding := testFunding()
	funding.RateScheduleID = "rs-1999"
	fc := NewFundingCalculator(newFakeRepo(funding, testSchedule()))

	result, err := fc.Calculate(context.Background(), "fund-1")

	require.NoError(t, err)
	assert.Equal(t, domain.DecisionInvalid, result.Decision())
	assert.Contains(t, result.Errors()[0], "rate_schedule")
	assert.Contains(t, result.Errors()[0], "rs-1999")
}

func TestFundingCalculator_Calculate_OwnershipUnset(t *testing.T) {
	funding := testFunding()
	funding.Facility.OwnershipType = ""
	fc := NewFundingCalculator(newFakeRepo(funding, testSchedule()))

	result, err := fc.Calculate(context.Background(), "fund-1")

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrOwnershipTypeRequired))
}

func TestFundingCalculator_Calculate_RepositoryErrors(t *testing.T) {
	fc := NewFundingCalculator(newFakeRepo(nil, testSchedule()))
	_, err := fc.Calculate(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrFundingNotFound))

	repo := newFakeRepo(testFunding(), testSchedule())
	repo.loadErr = errBoom
	_, err = NewFundingCalculator(repo).Calculate(context.Background(), "fund-1")
	assert.True(t, errors.Is(err, errBoom))
}

func TestFundingCalculator_Calculate_PrivateOverEHTThreshold(t *testing.T) {
	funding := testFunding()
	funding.Facility.Licences[0].Details = []domain.CoreService{weekdayService("cs-1", "IT", 60, 35)}
	fc := NewFundingCalculator(newFakeRepo(funding, testSchedule()))

	b, err := fc.Compute(funding, testSchedule())
	require.NoError(t, err)

	// five 12-space groups: hourly = 5 x (60 + 25) + 2 x 2.5 = 430, staffing = 946,000
	assert.True(t, b.Wages.StaffingCost.Equal(d("946000")), "got %s", b.Wages.StaffingCost)
	assert.True(t, b.EHTRate.Equal(d("0.0098")), "remuneration %s", b.Wages.Remuneration())
	assert.True(t, b.EHT.Equal(b.Wages.Remuneration().Mul(d("0.0098"))))

	want, err := NewEHTCalculator(testSchedule().EHT).Calculate(domain.OwnershipPrivate, b.Wages.Remuneration())
	require.NoError(t, err)
	assert.True(t, b.EHT.Equal(want), "breakdown EHT matches the calculator")
}

func TestFundingCalculator_Compute_DuplicateCareTypes(t *testing.T) {
	funding := testFunding()
	funding.Facility.Licences = append(funding.Facility.Licences, domain.Licence{
		ID: "lic-summer", Active: true, Details: []domain.CoreService{weekdayService("cs-2", "IT", 8, 10)},
	})
	fc := NewFundingCalculator(newFakeRepo(nil))

	separate, err := fc.Compute(funding, testSchedule())
	require.NoError(t, err)
	assert.Len(t, separate.Services, 2)
	assert.Equal(t, 20, separate.TotalSpaces)

	funding.Facility.ApplyDuplicateCareTypes = true
	merged, err := fc.Compute(funding, testSchedule())
	require.NoError(t, err)
	require.Len(t, merged.Services, 1)
	assert.Equal(t, 12, merged.TotalSpaces)
	assert.Equal(t, 45, merged.Services[0].Service.WeeksInOperation)
}

func TestAllocateParentFees(t *testing.T) {
	var a domain.FundingAmounts
	a.ProjectedHRWages = d("100000")
	a.ProjectedHRBenefits = d("20000")
	a.ProjectedHREmployerHealthTax = d("1000")
	a.ProjectedHRProfessionalDevelopment = d("333.33")
	a.ProjectedHRTotal = d("121333.33")
	a.ProjectedProgramming = d("12000")
	a.ProjectedAdministrative = d("777.77")
	a.ProjectedOperational = d("5000")
	a.ProjectedFacility = d("0")

	AllocateParentFees(&a, d("33333.33"))

	assert.True(t, a.TotalParentFees().Equal(d("33333.33")), "got %s", a.TotalParentFees())
	assert.True(t, a.ParentFeeFacility.IsZero())
	for _, env := range domain.AllocatedEnvelopes {
		share := d("33333.33").Mul(a.Projected(env)).Div(a.GrandTotal())
		assert.True(t, a.ParentFee(env).Sub(share).Abs().LessThan(d("0.10")), "%s: %s vs %s", env, a.ParentFee(env), share)
	}
}

func TestAllocateParentFees_ZeroTotal(t *testing.T) {
	var a domain.FundingAmounts
	a.ParentFeeProgramming = d("5")

	AllocateParentFees(&a, d("1000"))

	assert.True(t, a.TotalParentFees().IsZero())
	assert.True(t, a.ParentFeeHRTotal.IsZero())
}

func TestProcessFundingResult(t *testing.T) {
	repo := newFakeRepo(testFunding(), testSchedule())
	logger := &TestLogger{}
	fc := NewFundingCalculator(repo)
	fc.SetLogger(logger)

	result, err := fc.Calculate(context.Background(), "fund-1")
	require.NoError(t, err)

	assert.True(t, fc.ProcessFundingResult(context.Background(), result))
	require.Len(t, repo.saved, 1)
	assert.Equal(t, result, repo.saved[0])
}

func TestProcessFundingResult_RejectsInvalid(t *testing.T) {
	repo := newFakeRepo(testFunding(), testSchedule())
	logger := &TestLogger{}
	fc := NewFundingCalculator(repo)
	fc.SetLogger(logger)

	invalid := domain.NewInvalidResult("run", "fund-1", fc.now(), "funding_number_base: funding number base is required")

	assert.False(t, fc.ProcessFundingResult(context.Background(), invalid))
	assert.False(t, fc.ProcessFundingResult(context.Background(), nil))
	assert.Empty(t, repo.saved)
	assert.Contains(t, logger.messages, "ERROR: refusing to save funding %s: decision=%s errors=%v")
}

func TestProcessFundingResult_SaveFailure(t *testing.T) {
	repo := newFakeRepo(testFunding(), testSchedule())
	fc := NewFundingCalculator(repo)
	result, err := fc.Calculate(context.Background(), "fund-1")
	require.NoError(t, err)

	repo.saveErr = errBoom

	assert.False(t, fc.ProcessFundingResult(context.Background(), result))
}

func TestCalculateDefaultSpacesAllocation(t *testing.T) {
	funding := testFunding()
	funding.Facility.ApplyRoomSplit = true
	funding.Facility.Licences[0].Details = []domain.CoreService{
		weekdayService("cs-it", "IT", 30, 35),
		weekdayService("cs-gc", "GC", 20, 35),
	}
	funding.Facility.NewSpacesAllocations = []domain.SpaceAllocation{
		{LicenceDetailID: "cs-gc", RatioTierID: "gc-c", AdjustedSpaces: 18},
	}
	repo := newFakeRepo(funding, testSchedule())
	fc := NewFundingCalculator(repo)

	ok := fc.CalculateDefaultSpacesAllocation(context.Background(), "fund-1")
	require.True(t, ok)

	allocs := repo.allocations["fund-1"]
	require.Len(t, allocs, 3)

	assert.Equal(t, "it-c", allocs[0].RatioTierID)
	assert.Equal(t, 2, allocs[0].Groups)
	assert.Equal(t, 24, allocs[0].DefaultSpaces)
	assert.Equal(t, 24, allocs[0].AdjustedSpaces)

	assert.Equal(t, "it-b", allocs[1].RatioTierID)
	assert.Equal(t, 1, allocs[1].Groups)
	assert.Equal(t, 6, allocs[1].DefaultSpaces)

	assert.Equal(t, "gc-c", allocs[2].RatioTierID)
	assert.Equal(t, "cs-gc", allocs[2].LicenceDetailID)
	assert.Equal(t, 20, allocs[2].DefaultSpaces)
	assert.Equal(t, 18, allocs[2].AdjustedSpaces, "adjusted spaces carry over")
	for _, a := range allocs {
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, "fund-1", a.FundingID)
	}
}

func TestCalculateDefaultSpacesAllocation_NotRoomSplit(t *testing.T) {
	repo := newFakeRepo(testFunding(), testSchedule())
	fc := NewFundingCalculator(repo)

	assert.False(t, fc.CalculateDefaultSpacesAllocation(context.Background(), "fund-1"))
	assert.Empty(t, repo.allocations)
}

func TestCalculateDefaultSpacesAllocation_SaveFailure(t *testing.T) {
	funding := testFunding()
	funding.Facility.ApplyRoomSplit = true
	repo := newFakeRepo(funding, testSchedule())
	repo.saveErr = errBoom

	assert.False(t, NewFundingCalculator(repo).CalculateDefaultSpacesAllocation(context.Background(), "fund-1"))
}

func TestFundingCalculator_RepeatedRuns(t *testing.T) {
	// each run loads its own snapshot, so repeated runs give identical amounts
	repo := newFakeRepo(testFunding(), testSchedule())
	fc := NewFundingCalculator(repo)

	first, err := fc.Calculate(context.Background(), "fund-1")
	require.NoError(t, err)
	second, err := fc.Calculate(context.Background(), "fund-1")
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID(), second.RunID())
	assert.True(t, first.Amounts().GrandTotal().Equal(second.Amounts().GrandTotal()))
	assert.True(t, first.Amounts().TotalParentFees().Equal(decimal.NewFromInt(50000)))
}
