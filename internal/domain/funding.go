package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundingAmounts carries the projected and parent-fee value of every envelope.
// Base values are Projected - ParentFee and are never stored.
type FundingAmounts struct {
	ProjectedHRTotal                   decimal.Decimal `yaml:"projected_hr_total" json:"projected_hr_total"`
	ProjectedHRWages                   decimal.Decimal `yaml:"projected_hr_wages" json:"projected_hr_wages"`
	ProjectedHRBenefits                decimal.Decimal `yaml:"projected_hr_benefits" json:"projected_hr_benefits"`
	ProjectedHREmployerHealthTax       decimal.Decimal `yaml:"projected_hr_employer_health_tax" json:"projected_hr_employer_health_tax"`
	ProjectedHRProfessionalDevelopment decimal.Decimal `yaml:"projected_hr_professional_development" json:"projected_hr_professional_development"`
	ProjectedProgramming               decimal.Decimal `yaml:"projected_programming" json:"projected_programming"`
	ProjectedAdministrative            decimal.Decimal `yaml:"projected_administrative" json:"projected_administrative"`
	ProjectedOperational               decimal.Decimal `yaml:"projected_operational" json:"projected_operational"`
	ProjectedFacility                  decimal.Decimal `yaml:"projected_facility" json:"projected_facility"`

	ParentFeeHRTotal                   decimal.Decimal `yaml:"parent_fee_hr_total" json:"parent_fee_hr_total"`
	ParentFeeHRWages                   decimal.Decimal `yaml:"parent_fee_hr_wages" json:"parent_fee_hr_wages"`
	ParentFeeHRBenefits                decimal.Decimal `yaml:"parent_fee_hr_benefits" json:"parent_fee_hr_benefits"`
	ParentFeeHREmployerHealthTax       decimal.Decimal `yaml:"parent_fee_hr_employer_health_tax" json:"parent_fee_hr_employer_health_tax"`
	ParentFeeHRProfessionalDevelopment decimal.Decimal `yaml:"parent_fee_hr_professional_development" json:"parent_fee_hr_professional_development"`
	ParentFeeProgramming               decimal.Decimal `yaml:"parent_fee_programming" json:"parent_fee_programming"`
	ParentFeeAdministrative            decimal.Decimal `yaml:"parent_fee_administrative" json:"parent_fee_administrative"`
	ParentFeeOperational               decimal.Decimal `yaml:"parent_fee_operational" json:"parent_fee_operational"`
	ParentFeeFacility                  decimal.Decimal `yaml:"parent_fee_facility" json:"parent_fee_facility"`
}

// Projected returns the projected value of an envelope
func (fa FundingAmounts) Projected(e Envelope) decimal.Decimal {
	return *fa.projectedField(e)
}

// ParentFee returns the parent-fee value of an envelope
func (fa FundingAmounts) ParentFee(e Envelope) decimal.Decimal {
	return *fa.parentFeeField(e)
}

// Base returns Projected - ParentFee for an envelope
func (fa FundingAmounts) Base(e Envelope) decimal.Decimal {
	return fa.Projected(e).Sub(fa.ParentFee(e))
}

// SetProjected sets the projected value of an envelope
func (fa *FundingAmounts) SetProjected(e Envelope, v decimal.Decimal) {
	*fa.projectedField(e) = v
}

// SetParentFee sets the parent-fee value of an envelope
func (fa *FundingAmounts) SetParentFee(e Envelope, v decimal.Decimal) {
	*fa.parentFeeField(e) = v
}

// GrandTotal is the total projected funding cost: the HR envelope plus the four non-HR envelopes
func (fa FundingAmounts) GrandTotal() decimal.Decimal {
	total := fa.ProjectedHRTotal
	for _, e := range NonHREnvelopes {
		total = total.Add(fa.Projected(e))
	}
	return total
}

// TotalParentFees sums the parent-fee values of the allocated envelopes
func (fa FundingAmounts) TotalParentFees() decimal.Decimal {
	total := decimal.Zero
	for _, e := range AllocatedEnvelopes {
		total = total.Add(fa.ParentFee(e))
	}
	return total
}

func (fa *FundingAmounts) projectedField(e Envelope) *decimal.Decimal {
	switch e {
	case EnvelopeHRTotal:
		return &fa.ProjectedHRTotal
	case EnvelopeHRWages:
		return &fa.ProjectedHRWages
	case EnvelopeHRBenefits:
		return &fa.ProjectedHRBenefits
	case EnvelopeHREmployerHealthTax:
		return &fa.ProjectedHREmployerHealthTax
	case EnvelopeHRProfessionalDevelopment:
		return &fa.ProjectedHRProfessionalDevelopment
	case EnvelopeProgramming:
		return &fa.ProjectedProgramming
	case EnvelopeAdministrative:
		return &fa.ProjectedAdministrative
	case EnvelopeOperational:
		return &fa.ProjectedOperational
	case EnvelopeFacility:
		return &fa.ProjectedFacility
	default:
		panic("domain: unknown envelope " + string(e))
	}
}

func (fa *FundingAmounts) parentFeeField(e Envelope) *decimal.Decimal {
	switch e {
	case EnvelopeHRTotal:
		return &fa.ParentFeeHRTotal
	case EnvelopeHRWages:
		return &fa.ParentFeeHRWages
	case EnvelopeHRBenefits:
		return &fa.ParentFeeHRBenefits
	case EnvelopeHREmployerHealthTax:
		return &fa.ParentFeeHREmployerHealthTax
	case EnvelopeHRProfessionalDevelopment:
		return &fa.ParentFeeHRProfessionalDevelopment
	case EnvelopeProgramming:
		return &fa.ParentFeeProgramming
	case EnvelopeAdministrative:
		return &fa.ParentFeeAdministrative
	case EnvelopeOperational:
		return &fa.ParentFeeOperational
	case EnvelopeFacility:
		return &fa.ParentFeeFacility
	default:
		panic("domain: unknown envelope " + string(e))
	}
}

// Decision tags the outcome of a calculation attempt
type Decision string

const (
	DecisionAuto    Decision = "auto"
	DecisionManual  Decision = "manual"
	DecisionInvalid Decision = "invalid"
)

// FundingResult is the immutable outcome of one calculation run
type FundingResult struct {
	runID        string
	fundingID    string
	decision     Decision
	amounts      *FundingAmounts
	errors       []string
	calculatedAt time.Time
}

// NewAutoResult creates a result that may be applied without review
func NewAutoResult(runID, fundingID string, amounts FundingAmounts, at time.Time) *FundingResult {
	return &FundingResult{runID: runID, fundingID: fundingID, decision: DecisionAuto, amounts: &amounts, calculatedAt: at}
}

// NewManualResult creates a result that requires manual review before it is applied
func NewManualResult(runID, fundingID string, amounts FundingAmounts, at time.Time) *FundingResult {
	return &FundingResult{runID: runID, fundingID: fundingID, decision: DecisionManual, amounts: &amounts, calculatedAt: at}
}

// NewInvalidResult creates a result for a run that failed its preconditions
func NewInvalidResult(runID, fundingID string, at time.Time, messages ...string) *FundingResult {
	return &FundingResult{
		runID:        runID,
		fundingID:    fundingID,
		decision:     DecisionInvalid,
		errors:       append([]string(nil), messages...),
		calculatedAt: at,
	}
}

func (r *FundingResult) RunID() string           { return r.runID }
func (r *FundingResult) FundingID() string       { return r.fundingID }
func (r *FundingResult) Decision() Decision      { return r.decision }
func (r *FundingResult) CalculatedAt() time.Time { return r.calculatedAt }

// Amounts returns a copy of the computed amounts, nil for invalid outcomes
func (r *FundingResult) Amounts() *FundingAmounts {
	if r.amounts == nil {
		return nil
	}
	a := *r.amounts
	return &a
}

// Errors returns a copy of the accumulated error messages
func (r *FundingResult) Errors() []string {
	return append([]string(nil), r.errors...)
}

// IsValidFundingResult reports whether the result may be persisted:
// decision is Auto or Manual and no errors were accumulated
func IsValidFundingResult(r *FundingResult) bool {
	if r == nil {
		return false
	}
	if r.decision != DecisionAuto && r.decision != DecisionManual {
		return false
	}
	return len(r.errors) == 0 && r.amounts != nil
}
