package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOwnershipTypeRequired = errors.New("ownership type is required")
	ErrRateScheduleNotFound  = errors.New("rate schedule not found")
	ErrFundingNotFound       = errors.New("funding not found")
	ErrNoOperatingHours      = errors.New("facility has no standard operating hours")
	ErrNoAvailableHours      = errors.New("rate schedule leaves no available hours per FTE")
	ErrUnknownSupervisorType = errors.New("unknown supervisor type")
	ErrNoRatioTiers          = errors.New("no ratio tiers mapped to licence type")
	ErrInvalidRatioTier      = errors.New("invalid ratio tier space range")
)

// ValidationError is a field-tagged precondition failure raised by a validation rule
type ValidationError struct {
	Rule   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
