package calculation

import (
	"fmt"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
)

// ValidationRule checks one precondition of a funding record and returns a
// *domain.ValidationError when it does not hold
type ValidationRule struct {
	Name  string
	Check func(f *domain.Funding) error
}

// ValidationChain evaluates rules in order and stops at the first failure
type ValidationChain struct {
	rules []ValidationRule
}

// NewValidationChain builds a chain from the given rules, evaluated in order
func NewValidationChain(rules ...ValidationRule) *ValidationChain {
	return &ValidationChain{rules: append([]ValidationRule(nil), rules...)}
}

// DefaultValidationChain returns the rules the funding calculator runs before a calculation
func DefaultValidationChain() *ValidationChain {
	return NewValidationChain(
		MustHaveFundingNumberBaseRule,
		MustHaveValidApplicationStatusRule,
		MustHaveValidRateScheduleRule,
	)
}

// Validate runs each rule until one fails; rules after a failure never execute
func (vc *ValidationChain) Validate(f *domain.Funding) error {
	for _, rule := range vc.rules {
		if err := rule.Check(f); err != nil {
			return err
		}
	}
	return nil
}

// Rules returns the names of the rules in evaluation order
func (vc *ValidationChain) Rules() []string {
	names := make([]string, 0, len(vc.rules))
	for _, r := range vc.rules {
		names = append(names, r.Name)
	}
	return names
}

// MustHaveFundingNumberBaseRule rejects fundings without a funding number base
var MustHaveFundingNumberBaseRule = ValidationRule{
	Name: "MustHaveFundingNumberBaseRule",
	Check: func(f *domain.Funding) error {
		if f == nil || f.FundingNumberBase == "" {
			return &domain.ValidationError{
				Rule:   "MustHaveFundingNumberBaseRule",
				Field:  "funding_number_base",
				Reason: "funding number base is required",
			}
		}
		return nil
	},
}

// MustHaveValidApplicationStatusRule requires an application in a calculable status
var MustHaveValidApplicationStatusRule = ValidationRule{
	Name: "MustHaveValidApplicationStatusRule",
	Check: func(f *domain.Funding) error {
		if f.Application == nil {
			return &domain.ValidationError{
				Rule:   "MustHaveValidApplicationStatusRule",
				Field:  "application",
				Reason: "funding has no associated application",
			}
		}
		if !f.Application.Status.Calculable() {
			return &domain.ValidationError{
				Rule:   "MustHaveValidApplicationStatusRule",
				Field:  "application.status",
				Reason: fmt.Sprintf("application status %q is not one of submitted, in_review, verified, approved", f.Application.Status),
			}
		}
		return nil
	},
}

// MustHaveValidRateScheduleRule requires the funding to name a rate schedule
var MustHaveValidRateScheduleRule = ValidationRule{
	Name: "MustHaveValidRateScheduleRule",
	Check: func(f *domain.Funding) error {
		if f.RateScheduleID == "" {
			return &domain.ValidationError{
				Rule:   "MustHaveValidRateScheduleRule",
				Field:  "rate_schedule",
				Reason: "funding has no associated rate schedule",
			}
		}
		return nil
	},
}
