package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/ofmcalc/internal/calculation"
	"github.com/rgehrsitz/ofmcalc/internal/domain"
)

// CompareEngine calculates one funding under several rate schedules
type CompareEngine struct {
	Calculator        *calculation.FundingCalculator
	MetricsCalculator *MetricsCalculator
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(calc *calculation.FundingCalculator) *CompareEngine {
	return &CompareEngine{
		Calculator:        calc,
		MetricsCalculator: NewMetricsCalculator(),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	FundingID      string   // Funding record to calculate
	BaseScheduleID string   // Defaults to the funding's own rate schedule
	Alternatives   []string // Rate schedule IDs to compare against the base
}

// Compare runs the funding through the base schedule and each alternative.
// Nothing is persisted.
func (ce *CompareEngine) Compare(ctx context.Context, options CompareOptions) (*ComparisonSet, error) {
	funding, err := ce.Calculator.Repo.GetFundingByID(ctx, options.FundingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load funding %s: %w", options.FundingID, err)
	}
	if err := ce.Calculator.Validation.Validate(funding); err != nil {
		return nil, fmt.Errorf("funding %s cannot be calculated: %w", options.FundingID, err)
	}

	schedules, err := ce.Calculator.Repo.LoadRateSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate schedules: %w", err)
	}
	byID := make(map[string]*domain.RateSchedule, len(schedules))
	for i := range schedules {
		byID[schedules[i].ID] = &schedules[i]
	}

	baseID := options.BaseScheduleID
	if baseID == "" {
		baseID = funding.RateScheduleID
	}
	baseResult, err := ce.calculate(funding, byID, baseID)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base schedule: %w", err)
	}

	alternatives := []ComparisonResult{}
	for _, id := range options.Alternatives {
		altResult, err := ce.calculate(funding, byID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate schedule %s: %w", id, err)
		}
		alternatives = append(alternatives, ce.MetricsCalculator.CalculateComparison(altResult, baseResult))
	}

	compSet := &ComparisonSet{
		FundingID:          funding.ID,
		BaseScheduleID:     baseID,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Notes = GenerateNotes(compSet)

	return compSet, nil
}

func (ce *CompareEngine) calculate(funding *domain.Funding, schedules map[string]*domain.RateSchedule, id string) (ComparisonResult, error) {
	schedule, ok := schedules[id]
	if !ok {
		return ComparisonResult{}, fmt.Errorf("%w: %s", domain.ErrRateScheduleNotFound, id)
	}
	b, err := ce.Calculator.Compute(funding, schedule)
	if err != nil {
		return ComparisonResult{}, err
	}
	return ce.MetricsCalculator.CalculateMetrics(schedule, b), nil
}
