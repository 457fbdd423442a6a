package compare

import (
	"fmt"

	"github.com/rgehrsitz/ofmcalc/internal/calculation"
	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

// EnvelopeDelta is the change of one envelope's projected amount against the base schedule
type EnvelopeDelta struct {
	Envelope  domain.Envelope `json:"envelope"`
	Projected decimal.Decimal `json:"projected"`
	Diff      decimal.Decimal `json:"diff"`
	Pct       decimal.Decimal `json:"pct"`
}

// ComparisonResult is one funding calculated under one rate schedule
type ComparisonResult struct {
	ScheduleID   string `json:"scheduleId"`
	ScheduleName string `json:"scheduleName"`

	// Key Metrics
	Amounts         domain.FundingAmounts `json:"-"`
	GrandTotal      decimal.Decimal       `json:"grandTotal"`
	BaseFunding     decimal.Decimal       `json:"baseFunding"`
	TotalFTE        decimal.Decimal       `json:"totalFte"`
	EHTRate         decimal.Decimal       `json:"ehtRate"`
	TotalSpaces     int                   `json:"totalSpaces"`
	OperatingHours  decimal.Decimal       `json:"operatingHours"`
	PerSpaceFunding decimal.Decimal       `json:"perSpaceFunding"`

	// Comparison to Base
	TotalDiffFromBase decimal.Decimal `json:"totalDiffFromBase"`
	TotalPctFromBase  decimal.Decimal `json:"totalPctFromBase"`
	Envelopes         []EnvelopeDelta `json:"envelopes,omitempty"`
}

// ComparisonSet is a funding compared across a base schedule and its alternatives
type ComparisonSet struct {
	FundingID          string             `json:"fundingId"`
	BaseScheduleID     string             `json:"baseScheduleId"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Notes              []string           `json:"notes"`
}

// comparedEnvelopes are reported in display order, HR total first
var comparedEnvelopes = append([]domain.Envelope{domain.EnvelopeHRTotal}, domain.AllocatedEnvelopes...)

// MetricsCalculator extracts key metrics from calculation breakdowns
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics summarises a breakdown computed under schedule
func (mc *MetricsCalculator) CalculateMetrics(schedule *domain.RateSchedule, b *calculation.Breakdown) ComparisonResult {
	result := ComparisonResult{
		ScheduleID:     schedule.ID,
		ScheduleName:   schedule.Name,
		Amounts:        b.Amounts,
		GrandTotal:     b.Amounts.GrandTotal(),
		BaseFunding:    b.Amounts.GrandTotal().Sub(b.Amounts.TotalParentFees()),
		TotalFTE:       b.Wages.AdjustedFTE,
		EHTRate:        b.EHTRate,
		TotalSpaces:    b.TotalSpaces,
		OperatingHours: b.MaxStandardHours,
	}
	if b.TotalSpaces > 0 {
		result.PerSpaceFunding = result.GrandTotal.Div(decimal.NewFromInt(int64(b.TotalSpaces))).Round(2)
	}
	return result
}

// CalculateComparison fills the deltas of scenario against base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.TotalDiffFromBase = scenario.GrandTotal.Sub(base.GrandTotal)
	scenario.TotalPctFromBase = percentChange(scenario.TotalDiffFromBase, base.GrandTotal)

	scenario.Envelopes = make([]EnvelopeDelta, 0, len(comparedEnvelopes))
	for _, e := range comparedEnvelopes {
		projected := scenario.Amounts.Projected(e)
		diff := projected.Sub(base.Amounts.Projected(e))
		scenario.Envelopes = append(scenario.Envelopes, EnvelopeDelta{
			Envelope:  e,
			Projected: projected,
			Diff:      diff,
			Pct:       percentChange(diff, base.Amounts.Projected(e)),
		})
	}
	return scenario
}

func percentChange(diff, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return diff.Div(base).Mul(decimal.NewFromInt(100)).Round(2)
}

// GenerateNotes summarises the largest changes across the alternatives
func GenerateNotes(compSet *ComparisonSet) []string {
	notes := []string{}

	if len(compSet.AlternativeResults) == 0 || compSet.BaseResult == nil {
		return notes
	}

	highest := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.GrandTotal.GreaterThan(highest.GrandTotal) {
			highest = alt
		}
	}
	if highest != compSet.BaseResult {
		notes = append(notes, fmt.Sprintf("Highest funding: %s adds $%s to the grand total",
			highest.ScheduleID, highest.TotalDiffFromBase.StringFixed(2)))
	}

	lowest := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.GrandTotal.LessThan(lowest.GrandTotal) {
			lowest = alt
		}
	}
	if lowest != compSet.BaseResult {
		notes = append(notes, fmt.Sprintf("Lowest funding: %s removes $%s from the grand total",
			lowest.ScheduleID, lowest.TotalDiffFromBase.Abs().StringFixed(2)))
	}

	for _, alt := range compSet.AlternativeResults {
		var biggest *EnvelopeDelta
		for i := range alt.Envelopes {
			d := &alt.Envelopes[i]
			// hr_total moves with its components
			if d.Envelope == domain.EnvelopeHRTotal || d.Diff.IsZero() {
				continue
			}
			if biggest == nil || d.Diff.Abs().GreaterThan(biggest.Diff.Abs()) {
				biggest = d
			}
		}
		if biggest != nil {
			notes = append(notes, fmt.Sprintf("%s: largest change is %s (%s%s%%)",
				alt.ScheduleID, biggest.Envelope, sign(biggest.Diff), biggest.Pct.StringFixed(2)))
		}
	}

	return notes
}

func sign(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+"
	}
	return ""
}
