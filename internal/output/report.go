package output

import (
	"time"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

// Report is the serializable view of a funding result shared by the
// structured formatters. Money fields are fixed two-decimal strings.
type Report struct {
	RunID           string         `json:"runId" yaml:"run_id"`
	FundingID       string         `json:"fundingId" yaml:"funding_id"`
	Decision        string         `json:"decision" yaml:"decision"`
	CalculatedAt    time.Time      `json:"calculatedAt" yaml:"calculated_at"`
	Errors          []string       `json:"errors,omitempty" yaml:"errors,omitempty"`
	Envelopes       []EnvelopeLine `json:"envelopes,omitempty" yaml:"envelopes,omitempty"`
	GrandTotal      string         `json:"grandTotal,omitempty" yaml:"grand_total,omitempty"`
	TotalParentFees string         `json:"totalParentFees,omitempty" yaml:"total_parent_fees,omitempty"`
}

// EnvelopeLine is one envelope's projected, parent-fee and base values
type EnvelopeLine struct {
	Envelope  string `json:"envelope" yaml:"envelope"`
	Projected string `json:"projected" yaml:"projected"`
	ParentFee string `json:"parentFee" yaml:"parent_fee"`
	Base      string `json:"base" yaml:"base"`
}

// ReportEnvelopes is the display order: the HR total, its four leaves, then the non-HR envelopes
var ReportEnvelopes = append([]domain.Envelope{domain.EnvelopeHRTotal}, domain.AllocatedEnvelopes...)

// NewReport builds the report view of a result; invalid results carry only their errors
func NewReport(result *domain.FundingResult) Report {
	r := Report{
		RunID:        result.RunID(),
		FundingID:    result.FundingID(),
		Decision:     string(result.Decision()),
		CalculatedAt: result.CalculatedAt(),
		Errors:       result.Errors(),
	}
	amounts := result.Amounts()
	if amounts == nil {
		return r
	}
	for _, e := range ReportEnvelopes {
		r.Envelopes = append(r.Envelopes, EnvelopeLine{
			Envelope:  string(e),
			Projected: amounts.Projected(e).StringFixed(2),
			ParentFee: amounts.ParentFee(e).StringFixed(2),
			Base:      amounts.Base(e).StringFixed(2),
		})
	}
	r.GrandTotal = amounts.GrandTotal().StringFixed(2)
	r.TotalParentFees = amounts.TotalParentFees().StringFixed(2)
	return r
}

// EnvelopeLabel is the human-readable name of an envelope
func EnvelopeLabel(e domain.Envelope) string {
	switch e {
	case domain.EnvelopeHRTotal:
		return "HR Total"
	case domain.EnvelopeHRWages:
		return "  Wages & Quality Enhancement"
	case domain.EnvelopeHRBenefits:
		return "  Benefits"
	case domain.EnvelopeHREmployerHealthTax:
		return "  Employer Health Tax"
	case domain.EnvelopeHRProfessionalDevelopment:
		return "  Professional Development"
	case domain.EnvelopeProgramming:
		return "Programming"
	case domain.EnvelopeAdministrative:
		return "Administrative"
	case domain.EnvelopeOperational:
		return "Operational"
	case domain.EnvelopeFacility:
		return "Facility"
	default:
		return string(e)
	}
}

// FormatCurrency formats a decimal as currency
func FormatCurrency(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatPercentage formats a fraction as a percentage
func FormatPercentage(fraction decimal.Decimal) string {
	return fraction.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}
