package calculation

import (
	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

// LicenceAggregator turns a facility's licence details into the core services
// the staffing resolver prices
type LicenceAggregator struct{}

// NewLicenceAggregator creates a new licence aggregator
func NewLicenceAggregator() *LicenceAggregator {
	return &LicenceAggregator{}
}

// CoreServices returns the facility's active licence details annotated with the
// schedule, the room-split flag and the facility's new-space allocations.
// When the facility applies duplicate care types, details sharing a licence type
// are collapsed into one service so hours ratios are not counted twice.
// The input facility is never modified.
func (la *LicenceAggregator) CoreServices(facility *domain.Facility, schedule *domain.RateSchedule) []domain.CoreService {
	if facility == nil {
		return nil
	}
	details := facility.ActiveCoreServices()
	if facility.ApplyDuplicateCareTypes {
		details = mergeByLicenceType(details)
	}

	services := make([]domain.CoreService, 0, len(details))
	for _, d := range details {
		cs := d
		cs.WeekDays = append([]int(nil), d.WeekDays...)
		cs.RateSchedule = schedule
		cs.ApplyRoomSplit = facility.ApplyRoomSplit
		cs.NewSpacesAllocations = append([]domain.SpaceAllocation(nil), facility.NewSpacesAllocations...)
		services = append(services, cs)
	}
	return services
}

// mergeByLicenceType groups details by licence type in first-seen order and
// collapses each group: max spaces, earliest open, latest close, concatenated
// week days and summed weeks in operation
func mergeByLicenceType(details []domain.CoreService) []domain.CoreService {
	var order []string
	groups := make(map[string][]domain.CoreService)
	for _, d := range details {
		if _, ok := groups[d.LicenceType]; !ok {
			order = append(order, d.LicenceType)
		}
		groups[d.LicenceType] = append(groups[d.LicenceType], d)
	}

	merged := make([]domain.CoreService, 0, len(order))
	for _, lt := range order {
		group := groups[lt]
		first := group[0]
		out := domain.CoreService{
			ID:                first.ID,
			LicenceType:       lt,
			CareType:          first.CareType,
			OperationalSpaces: first.OperationalSpaces,
			HoursFrom:         first.HoursFrom,
			HoursTo:           first.HoursTo,
		}
		for _, d := range group {
			if d.OperationalSpaces > out.OperationalSpaces {
				out.OperationalSpaces = d.OperationalSpaces
			}
			out.HoursFrom = decimal.Min(out.HoursFrom, d.HoursFrom)
			out.HoursTo = decimal.Max(out.HoursTo, d.HoursTo)
			out.WeekDays = append(out.WeekDays, d.WeekDays...)
			out.WeeksInOperation += d.WeeksInOperation
		}
		merged = append(merged, out)
	}
	return merged
}
