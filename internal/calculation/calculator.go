package calculation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

// Repository is the data-access collaborator the funding calculator reads from and writes to
type Repository interface {
	LoadRateSchedules(ctx context.Context) ([]domain.RateSchedule, error)
	GetFundingByID(ctx context.Context, id string) (*domain.Funding, error)
	SaveFundingAmounts(ctx context.Context, result *domain.FundingResult) error
	SaveDefaultSpacesAllocation(ctx context.Context, fundingID string, allocations []domain.SpaceAllocation) error
}

// Breakdown is the full intermediate state of one envelope calculation
type Breakdown struct {
	Services         []StaffingRequirement
	Wages            WageCost
	EHTRate          decimal.Decimal
	EHT              decimal.Decimal
	NonHR            map[domain.Envelope]decimal.Decimal
	TotalSpaces      int
	MaxStandardHours decimal.Decimal
	Amounts          domain.FundingAmounts
}

// FundingCalculator orchestrates validation, staffing, wage, tax and non-HR
// envelope calculations for funding records
type FundingCalculator struct {
	Repo       Repository
	Validation *ValidationChain
	Licences   *LicenceAggregator
	Staffing   *StaffingResolver
	Wages      *WageCostCalculator
	NonHR      *NonHRRateEvaluator
	Logger     Logger

	now   func() time.Time
	runID func() string
}

// NewFundingCalculator creates a funding calculator backed by repo
func NewFundingCalculator(repo Repository) *FundingCalculator {
	return &FundingCalculator{
		Repo:       repo,
		Validation: DefaultValidationChain(),
		Licences:   NewLicenceAggregator(),
		Staffing:   NewStaffingResolver(),
		Wages:      NewWageCostCalculator(),
		NonHR:      NewNonHRRateEvaluator(),
		Logger:     NopLogger{},
		now:        time.Now,
		runID:      uuid.NewString,
	}
}

// SetLogger sets the logger; nil restores the no-op logger
func (fc *FundingCalculator) SetLogger(logger Logger) {
	if logger == nil {
		logger = NopLogger{}
	}
	fc.Logger = logger
	fc.Staffing.Logger = logger
}

// Calculate loads a funding record and its rate schedule and computes its envelopes.
// Precondition failures produce an Invalid result, not an error. Errors are
// returned for repository failures and for missing configuration that would
// otherwise misstate an amount.
func (fc *FundingCalculator) Calculate(ctx context.Context, fundingID string) (*domain.FundingResult, error) {
	runID := fc.runID()
	funding, err := fc.Repo.GetFundingByID(ctx, fundingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load funding %s: %w", fundingID, err)
	}

	if err := fc.Validation.Validate(funding); err != nil {
		fc.Logger.Warnf("funding %s failed validation: %v", fundingID, err)
		return domain.NewInvalidResult(runID, fundingID, fc.now(), invalidMessages(fundingID, err)...), nil
	}

	schedule, err := fc.resolveSchedule(ctx, funding.RateScheduleID)
	if errors.Is(err, domain.ErrRateScheduleNotFound) {
		verr := &domain.ValidationError{
			Rule:   MustHaveValidRateScheduleRule.Name,
			Field:  "rate_schedule",
			Reason: fmt.Sprintf("rate schedule %s is not among the loaded schedules", funding.RateScheduleID),
		}
		fc.Logger.Warnf("funding %s: %v", fundingID, verr)
		return domain.NewInvalidResult(runID, fundingID, fc.now(), invalidMessages(fundingID, verr)...), nil
	}
	if err != nil {
		return nil, err
	}

	breakdown, err := fc.Compute(funding, schedule)
	if err != nil {
		return nil, fmt.Errorf("funding %s: %w", fundingID, err)
	}

	fc.Logger.Infof("funding %s calculated with schedule %s: total=%s parent_fees=%s",
		fundingID, schedule.ID, breakdown.Amounts.GrandTotal().StringFixed(2), breakdown.Amounts.TotalParentFees().StringFixed(2))

	if funding.Facility.ApplyRoomSplit {
		return domain.NewManualResult(runID, fundingID, breakdown.Amounts, fc.now()), nil
	}
	return domain.NewAutoResult(runID, fundingID, breakdown.Amounts, fc.now()), nil
}

// Compute runs the envelope pipeline on already-loaded data
func (fc *FundingCalculator) Compute(funding *domain.Funding, schedule *domain.RateSchedule) (*Breakdown, error) {
	facility := funding.Facility
	if facility == nil {
		return nil, errors.New("funding has no facility")
	}
	if facility.OwnershipType == "" {
		return nil, domain.ErrOwnershipTypeRequired
	}

	services := fc.Licences.CoreServices(facility, schedule)
	b := &Breakdown{NonHR: make(map[domain.Envelope]decimal.Decimal, len(domain.NonHREnvelopes))}
	for _, cs := range services {
		req, err := fc.Staffing.Resolve(cs, schedule)
		if err != nil {
			return nil, err
		}
		b.Services = append(b.Services, req)
		b.TotalSpaces += cs.OperationalSpaces
		b.MaxStandardHours = decimal.Max(b.MaxStandardHours, cs.AnnualStandardHours())
	}

	wages, err := fc.Wages.Calculate(b.Services, schedule)
	if err != nil {
		return nil, err
	}
	b.Wages = wages

	eht := NewEHTCalculator(schedule.EHT)
	b.EHTRate, err = eht.Rate(facility.OwnershipType, wages.Remuneration())
	if err != nil {
		return nil, err
	}
	b.EHT, err = eht.Calculate(facility.OwnershipType, wages.Remuneration())
	if err != nil {
		return nil, err
	}

	for _, env := range domain.NonHREnvelopes {
		amount, err := fc.NonHR.Evaluate(schedule, facility, env, b.TotalSpaces, b.MaxStandardHours)
		if err != nil {
			return nil, fmt.Errorf("%s envelope: %w", env, err)
		}
		b.NonHR[env] = amount
	}

	b.Amounts = assembleAmounts(b, facility.TotalParentFees)
	return b, nil
}

func assembleAmounts(b *Breakdown, totalParentFees decimal.Decimal) domain.FundingAmounts {
	var a domain.FundingAmounts
	a.ProjectedHRWages = b.Wages.StaffingCost.Add(b.Wages.QualityEnhancement).Round(2)
	a.ProjectedHRBenefits = b.Wages.Benefits.Round(2)
	a.ProjectedHREmployerHealthTax = b.EHT.Round(2)
	a.ProjectedHRProfessionalDevelopment = b.Wages.ProfessionalDevelopment.Add(b.Wages.ProfessionalDues).Round(2)
	a.ProjectedHRTotal = a.ProjectedHRWages.
		Add(a.ProjectedHRBenefits).
		Add(a.ProjectedHREmployerHealthTax).
		Add(a.ProjectedHRProfessionalDevelopment)
	for _, env := range domain.NonHREnvelopes {
		a.SetProjected(env, b.NonHR[env].Round(2))
	}
	AllocateParentFees(&a, totalParentFees)
	return a
}

// AllocateParentFees splits totalParentFees across the allocated envelopes in
// proportion to each envelope's share of the grand total. Shares are rounded
// down to cents and the largest envelope takes the remainder, so the parent-fee
// sum equals totalParentFees whenever the grand total is positive.
func AllocateParentFees(a *domain.FundingAmounts, totalParentFees decimal.Decimal) {
	for _, env := range domain.AllocatedEnvelopes {
		a.SetParentFee(env, decimal.Zero)
	}
	a.ParentFeeHRTotal = decimal.Zero

	total := a.GrandTotal()
	if !total.IsPositive() || !totalParentFees.IsPositive() {
		return
	}

	allocated := decimal.Zero
	largest := domain.AllocatedEnvelopes[0]
	for _, env := range domain.AllocatedEnvelopes {
		share := totalParentFees.Mul(a.Projected(env)).Div(total).RoundFloor(2)
		a.SetParentFee(env, share)
		allocated = allocated.Add(share)
		if a.Projected(env).GreaterThan(a.Projected(largest)) {
			largest = env
		}
	}
	a.SetParentFee(largest, a.ParentFee(largest).Add(totalParentFees.Sub(allocated)))

	a.ParentFeeHRTotal = a.ParentFeeHRWages.
		Add(a.ParentFeeHRBenefits).
		Add(a.ParentFeeHREmployerHealthTax).
		Add(a.ParentFeeHRProfessionalDevelopment)
}

// ProcessFundingResult persists a valid result. Invalid results and save
// failures are logged and reported as false; nothing is retried.
func (fc *FundingCalculator) ProcessFundingResult(ctx context.Context, result *domain.FundingResult) bool {
	if !domain.IsValidFundingResult(result) {
		if result == nil {
			fc.Logger.Errorf("refusing to save nil funding result")
			return false
		}
		fc.Logger.Errorf("refusing to save funding %s: decision=%s errors=%v", result.FundingID(), result.Decision(), result.Errors())
		return false
	}
	if err := fc.Repo.SaveFundingAmounts(ctx, result); err != nil {
		fc.Logger.Errorf("failed to save funding amounts for %s: %v", result.FundingID(), err)
		return false
	}
	fc.Logger.Infof("saved funding amounts for %s (run %s)", result.FundingID(), result.RunID())
	return true
}

// CalculateDefaultSpacesAllocation computes and persists the default per-tier
// space allocation of a room-split facility. It returns false when the facility
// is not flagged for room split or when any step fails.
func (fc *FundingCalculator) CalculateDefaultSpacesAllocation(ctx context.Context, fundingID string) bool {
	funding, err := fc.Repo.GetFundingByID(ctx, fundingID)
	if err != nil {
		fc.Logger.Errorf("failed to load funding %s: %v", fundingID, err)
		return false
	}
	if funding.Facility == nil || !funding.Facility.ApplyRoomSplit {
		fc.Logger.Infof("funding %s: facility is not flagged for room split, skipping default allocation", fundingID)
		return false
	}
	schedule, err := fc.resolveSchedule(ctx, funding.RateScheduleID)
	if err != nil {
		fc.Logger.Errorf("funding %s: %v", fundingID, err)
		return false
	}

	allocations := fc.DefaultSpacesAllocation(funding, schedule)
	if err := fc.Repo.SaveDefaultSpacesAllocation(ctx, fundingID, allocations); err != nil {
		fc.Logger.Errorf("failed to save default spaces allocation for %s: %v", fundingID, err)
		return false
	}
	fc.Logger.Infof("saved %d default space allocations for %s", len(allocations), fundingID)
	return true
}

// DefaultSpacesAllocation assigns each core service's spaces to ratio tiers using
// the same tier walk as the staffing resolver, one record per (service, tier).
// Adjusted spaces carry over from the facility's new-space allocations when present.
func (fc *FundingCalculator) DefaultSpacesAllocation(funding *domain.Funding, schedule *domain.RateSchedule) []domain.SpaceAllocation {
	var allocations []domain.SpaceAllocation
	for _, cs := range fc.Licences.CoreServices(funding.Facility, schedule) {
		var order []string
		byTier := make(map[string]*domain.SpaceAllocation)
		for _, g := range WalkTiers(schedule.TiersFor(cs.LicenceType), cs.OperationalSpaces) {
			alloc, ok := byTier[g.Tier.ID]
			if !ok {
				alloc = &domain.SpaceAllocation{
					ID:              fc.runID(),
					FundingID:       funding.ID,
					LicenceDetailID: cs.ID,
					LicenceType:     cs.LicenceType,
					RatioTierID:     g.Tier.ID,
					GroupSize:       g.Tier.GroupSize,
				}
				byTier[g.Tier.ID] = alloc
				order = append(order, g.Tier.ID)
			}
			alloc.Groups++
			alloc.DefaultSpaces += g.Spaces
		}
		for _, id := range order {
			alloc := byTier[id]
			alloc.AdjustedSpaces = adjustedSpaces(cs.NewSpacesAllocations, alloc)
			allocations = append(allocations, *alloc)
		}
	}
	return allocations
}

func adjustedSpaces(existing []domain.SpaceAllocation, alloc *domain.SpaceAllocation) int {
	for _, e := range existing {
		if e.LicenceDetailID == alloc.LicenceDetailID && e.RatioTierID == alloc.RatioTierID {
			return e.AdjustedSpaces
		}
	}
	return alloc.DefaultSpaces
}

func (fc *FundingCalculator) resolveSchedule(ctx context.Context, id string) (*domain.RateSchedule, error) {
	schedules, err := fc.Repo.LoadRateSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate schedules: %w", err)
	}
	for i := range schedules {
		if schedules[i].ID == id {
			return &schedules[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrRateScheduleNotFound, id)
}

func invalidMessages(fundingID string, err error) []string {
	msgs := []string{err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		msgs = append(msgs, fmt.Sprintf("rule=%s field=%s funding=%s", verr.Rule, verr.Field, fundingID))
	}
	return msgs
}
