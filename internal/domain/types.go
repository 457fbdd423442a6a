package domain

// OwnershipType identifies the legal ownership model of a facility's organization
type OwnershipType string

const (
	OwnershipPrivate      OwnershipType = "private"
	OwnershipNotForProfit OwnershipType = "not_for_profit"
	OwnershipHomeBased    OwnershipType = "home_based"
)

// Valid reports whether the ownership type is one of the known values
func (o OwnershipType) Valid() bool {
	switch o {
	case OwnershipPrivate, OwnershipNotForProfit, OwnershipHomeBased:
		return true
	default:
		return false
	}
}

// Envelope is one category of funding spend
type Envelope string

const (
	EnvelopeHRTotal                   Envelope = "hr_total"
	EnvelopeHRWages                   Envelope = "hr_wages"
	EnvelopeHRBenefits                Envelope = "hr_benefits"
	EnvelopeHREmployerHealthTax       Envelope = "hr_employer_health_tax"
	EnvelopeHRProfessionalDevelopment Envelope = "hr_professional_development"
	EnvelopeProgramming               Envelope = "programming"
	EnvelopeAdministrative            Envelope = "administrative"
	EnvelopeOperational               Envelope = "operational"
	EnvelopeFacility                  Envelope = "facility"
)

// NonHREnvelopes are the envelopes priced from stepped rate tables, in evaluation order
var NonHREnvelopes = []Envelope{
	EnvelopeProgramming,
	EnvelopeAdministrative,
	EnvelopeOperational,
	EnvelopeFacility,
}

// AllocatedEnvelopes are the leaf envelopes that receive a share of parent fees.
// EnvelopeHRTotal is derived from the four HR components.
var AllocatedEnvelopes = []Envelope{
	EnvelopeHRWages,
	EnvelopeHRBenefits,
	EnvelopeHREmployerHealthTax,
	EnvelopeHRProfessionalDevelopment,
	EnvelopeProgramming,
	EnvelopeAdministrative,
	EnvelopeOperational,
	EnvelopeFacility,
}

// IsNonHR reports whether the envelope is priced from a rate step table
func (e Envelope) IsNonHR() bool {
	switch e {
	case EnvelopeProgramming, EnvelopeAdministrative, EnvelopeOperational, EnvelopeFacility:
		return true
	default:
		return false
	}
}

// ApplicationStatus is the lifecycle state of a funding application
type ApplicationStatus string

const (
	ApplicationDraft      ApplicationStatus = "draft"
	ApplicationSubmitted  ApplicationStatus = "submitted"
	ApplicationInReview   ApplicationStatus = "in_review"
	ApplicationVerified   ApplicationStatus = "verified"
	ApplicationApproved   ApplicationStatus = "approved"
	ApplicationIneligible ApplicationStatus = "ineligible"
	ApplicationCancelled  ApplicationStatus = "cancelled"
)

// Calculable reports whether funding may be calculated for an application in this state
func (s ApplicationStatus) Calculable() bool {
	switch s {
	case ApplicationSubmitted, ApplicationInReview, ApplicationVerified, ApplicationApproved:
		return true
	default:
		return false
	}
}

// SupervisorType selects which role differential applies to required supervisors
type SupervisorType string

const (
	SupervisorITE SupervisorType = "ite_sne"
	SupervisorECE SupervisorType = "ece"
	SupervisorRA  SupervisorType = "ra"
)

// FacilityType describes how the facility premises are held
type FacilityType string

const (
	FacilityRentLease            FacilityType = "rent_lease"
	FacilityOwnedWithMortgage    FacilityType = "owned_with_mortgage"
	FacilityOwnedWithoutMortgage FacilityType = "owned_without_mortgage"
	FacilityProvidedFreeOfCharge FacilityType = "provided_free_of_charge"
)

// Role is a staffing role priced by the wage grid
type Role string

const (
	RoleITE  Role = "ite"  // Infant Toddler Educator
	RoleECE  Role = "ece"  // Early Childhood Educator
	RoleECEA Role = "ecea" // Early Childhood Educator Assistant
	RoleRA   Role = "ra"   // Responsible Adult
)

// Roles lists the staffing roles in a stable order
var Roles = []Role{RoleITE, RoleECE, RoleECEA, RoleRA}
