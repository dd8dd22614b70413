package welfare

import (
	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

// ageBands maps a coarse age-band facet value to its year range.
var ageBands = map[string][2]int{
	"infant": {0, 12},
	"teen":   {13, 24},
	"young":  {25, 39},
	"middle": {40, 64},
	"senior": {65, 999},
}

// Facets holds the user's filter selections. A zero value on any
// dimension leaves that dimension unconstrained.
type Facets struct {
	Gender           string
	AgeBand          string
	IncomePercentage *int
	HouseholdType    string
	Situations       []string
}

// Matches reports whether a service satisfies every constrained facet.
// Absent parsed metadata on any dimension is treated as "no restriction"
// and always passes.
func Matches(svc *domain.WelfareService, f Facets) bool {
	parsed := svc.Parsed

	if f.Gender != "" {
		if parsed != nil && len(parsed.GenderTypes) > 0 &&
			!containsAny(parsed.GenderTypes, "all", f.Gender) {
			return false
		}
	}

	if band, ok := ageBands[f.AgeBand]; ok {
		if parsed != nil && !parsed.AgeRange.Overlaps(band[0], band[1]) {
			return false
		}
	}

	if f.IncomePercentage != nil {
		if parsed != nil && len(parsed.IncomeLimits) > 0 &&
			!anyLimitCovers(parsed.IncomeLimits, *f.IncomePercentage) {
			return false
		}
	}

	if f.HouseholdType != "" {
		if parsed != nil && len(parsed.HouseholdTypes) > 0 &&
			!containsAny(parsed.HouseholdTypes, f.HouseholdType) {
			return false
		}
	}

	if len(f.Situations) > 0 {
		if parsed != nil && len(parsed.SpecialConditions) > 0 &&
			!containsAny(parsed.SpecialConditions, f.Situations...) {
			return false
		}
	}

	return true
}

// Filter returns the subset of services matching the facets, preserving
// the collection's order.
func Filter(services []*domain.WelfareService, f Facets) []*domain.WelfareService {
	var matched []*domain.WelfareService
	for _, svc := range services {
		if Matches(svc, f) {
			matched = append(matched, svc)
		}
	}
	return matched
}

func containsAny(haystack []string, needles ...string) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if h == n {
				return true
			}
		}
	}
	return false
}

func anyLimitCovers(limits []int, percentage int) bool {
	for _, limit := range limits {
		if percentage <= limit {
			return true
		}
	}
	return false
}
