package welfare

import (
	"testing"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

func intPtr(v int) *int { return &v }

func testServices() []*domain.WelfareService {
	return []*domain.WelfareService{
		{
			ServiceID:   "SVC001",
			ServiceName: "무제한 서비스",
			// No parsed metadata: passes every facet.
		},
		{
			ServiceID:   "SVC002",
			ServiceName: "여성 전용 서비스",
			Parsed: &domain.Eligibility{
				GenderTypes: []string{"female"},
			},
		},
		{
			ServiceID:   "SVC003",
			ServiceName: "노인 저소득 서비스",
			Parsed: &domain.Eligibility{
				GenderTypes:  []string{"all"},
				AgeRange:     domain.AgeRange{Min: intPtr(65), Max: nil},
				IncomeLimits: []int{50, 75},
			},
		},
		{
			ServiceID:   "SVC004",
			ServiceName: "청년 월세 지원",
			Parsed: &domain.Eligibility{
				AgeRange:          domain.AgeRange{Min: intPtr(19), Max: intPtr(39)},
				IncomeLimits:      []int{150},
				SpecialConditions: []string{"housing"},
			},
		},
		{
			ServiceID:   "SVC005",
			ServiceName: "1인 가구 지원",
			Parsed: &domain.Eligibility{
				HouseholdTypes: []string{"1"},
			},
		},
	}
}

func TestMatchesAbsentMetadataAlwaysPasses(t *testing.T) {
	svc := &domain.WelfareService{ServiceID: "X"}
	f := Facets{
		Gender:           "male",
		AgeBand:          "senior",
		IncomePercentage: intPtr(180),
		HouseholdType:    "3",
		Situations:       []string{"disability"},
	}

	if !Matches(svc, f) {
		t.Error("Service without parsed metadata must pass every facet")
	}
}

func TestMatchesGenderFacet(t *testing.T) {
	services := testServices()
	f := Facets{Gender: "male"}

	got := Filter(services, f)
	for _, svc := range got {
		if svc.ServiceID == "SVC002" {
			t.Error("Female-only service matched a male gender facet")
		}
	}
	if len(got) != 4 {
		t.Errorf("Matched %d services, want 4", len(got))
	}
}

func TestMatchesAgeBandOverlap(t *testing.T) {
	services := testServices()

	got := Filter(services, Facets{AgeBand: "senior"})
	ids := serviceIDs(got)
	if ids["SVC004"] {
		t.Error("Youth service (19-39) matched the senior band")
	}
	if !ids["SVC003"] {
		t.Error("Senior service (65+) did not match the senior band")
	}

	got = Filter(services, Facets{AgeBand: "young"})
	ids = serviceIDs(got)
	if !ids["SVC004"] {
		t.Error("Youth service did not match the young band")
	}
	if ids["SVC003"] {
		t.Error("Senior service matched the young band")
	}
}

func TestMatchesIncomeLimit(t *testing.T) {
	services := testServices()

	got := Filter(services, Facets{IncomePercentage: intPtr(60)})
	ids := serviceIDs(got)
	if !ids["SVC003"] {
		t.Error("60% income should match a service with a 75% limit")
	}

	got = Filter(services, Facets{IncomePercentage: intPtr(160)})
	ids = serviceIDs(got)
	if ids["SVC003"] {
		t.Error("160% income matched a service limited to 75%")
	}
	if ids["SVC004"] {
		t.Error("160% income matched a service limited to 150%")
	}
}

func TestRemovingFacetNeverShrinksResult(t *testing.T) {
	services := testServices()
	full := Facets{
		Gender:           "male",
		AgeBand:          "senior",
		IncomePercentage: intPtr(45),
		HouseholdType:    "1",
		Situations:       []string{"housing"},
	}

	baseline := len(Filter(services, full))

	relaxations := []Facets{
		{AgeBand: full.AgeBand, IncomePercentage: full.IncomePercentage, HouseholdType: full.HouseholdType, Situations: full.Situations},
		{Gender: full.Gender, IncomePercentage: full.IncomePercentage, HouseholdType: full.HouseholdType, Situations: full.Situations},
		{Gender: full.Gender, AgeBand: full.AgeBand, HouseholdType: full.HouseholdType, Situations: full.Situations},
		{Gender: full.Gender, AgeBand: full.AgeBand, IncomePercentage: full.IncomePercentage, Situations: full.Situations},
		{Gender: full.Gender, AgeBand: full.AgeBand, IncomePercentage: full.IncomePercentage, HouseholdType: full.HouseholdType},
	}

	for i, relaxed := range relaxations {
		if got := len(Filter(services, relaxed)); got < baseline {
			t.Errorf("Removing facet %d shrank the result set: %d < %d", i, got, baseline)
		}
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	services := testServices()
	got := Filter(services, Facets{})

	if len(got) != len(services) {
		t.Fatalf("Unconstrained filter returned %d of %d services", len(got), len(services))
	}
	for i, svc := range got {
		if svc.ServiceID != services[i].ServiceID {
			t.Errorf("Result order changed at index %d", i)
		}
	}
}

func serviceIDs(services []*domain.WelfareService) map[string]bool {
	ids := make(map[string]bool, len(services))
	for _, svc := range services {
		ids[svc.ServiceID] = true
	}
	return ids
}
