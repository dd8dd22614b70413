package welfare

import (
	"testing"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

func searchCatalog() *Catalog {
	return &Catalog{services: []*domain.WelfareService{
		{
			ServiceID:     "S001",
			ServiceName:   "기초연금",
			SupportTarget: "만 65세 이상 저소득 노인",
			LifeCycle:     "노년",
		},
		{
			ServiceID:     "S002",
			ServiceName:   "첫만남이용권",
			SupportTarget: "출산 가정",
			LifeCycle:     "임신·출산",
		},
		{
			ServiceID:     "S003",
			ServiceName:   "청년 월세 지원",
			SupportTarget: "만 19~39세 무주택 청년",
			LifeCycle:     "청년",
		},
		{
			ServiceID:     "S004",
			ServiceName:   "여성 장애인 출산 지원",
			SupportTarget: "출산한 여성 장애인",
			Parsed: &domain.Eligibility{
				GenderTypes: []string{"female"},
			},
		},
	}}
}

func TestSearchSeniorLowIncomeScenario(t *testing.T) {
	result := Search(searchCatalog(), SearchParams{
		Gender:             "male",
		LifeStage:          "senior",
		Income:             "1200",
		HouseholdSize:      "1",
		HouseholdSituation: "low_income",
	})

	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1", result.Total)
	}
	if result.Services[0].ServiceID != "S001" {
		t.Errorf("Matched %s, want S001", result.Services[0].ServiceID)
	}
}

func TestSearchPregnancyGeneralScenario(t *testing.T) {
	result := Search(searchCatalog(), SearchParams{
		Gender:             "female",
		LifeStage:          "pregnancy",
		Income:             "4000",
		HouseholdSize:      "1",
		HouseholdSituation: "general",
	})

	ids := serviceIDs(result.Services)
	if !ids["S002"] || !ids["S003"] || !ids["S004"] {
		t.Errorf("Expected maternity and youth services, got %v", ids)
	}
	if ids["S001"] {
		t.Error("Low-income senior service matched the pregnancy scenario")
	}
}

func TestSearchFacetModeAppliesPredicate(t *testing.T) {
	min65 := 65
	max39 := 39
	catalog := &Catalog{services: []*domain.WelfareService{
		{ServiceID: "F001", Parsed: &domain.Eligibility{AgeRange: domain.AgeRange{Min: &min65}}},
		{ServiceID: "F002", Parsed: &domain.Eligibility{AgeRange: domain.AgeRange{Max: &max39}}},
		{ServiceID: "F003", Parsed: &domain.Eligibility{IncomeLimits: []int{50}}},
	}}

	result := Search(catalog, SearchParams{AgeBand: "young"})
	ids := serviceIDs(result.Services)
	if ids["F001"] {
		t.Error("Senior-only service matched the young age band")
	}
	if !ids["F002"] || !ids["F003"] {
		t.Errorf("Expected F002 and F003 for the young band, got %v", ids)
	}

	// The income facet resolves through the median-income table: 120만원
	// for a 1-person household is 52%, above F003's 50% limit.
	strict := Search(catalog, SearchParams{AgeBand: "young", Income: "120", HouseholdSize: "1"})
	if serviceIDs(strict.Services)["F003"] {
		t.Error("Service limited to 50% of median income matched a 52% income")
	}

	// Profile-shaped parameters alone keep the first-N behaviour.
	legacy := Search(catalog, SearchParams{Income: "120", HouseholdSize: "1"})
	if legacy.Total != 3 {
		t.Errorf("Profile-only query Total = %d, want all 3", legacy.Total)
	}
}

func TestSearchDefaultSliceAndPaging(t *testing.T) {
	services := make([]*domain.WelfareService, 30)
	for i := range services {
		services[i] = &domain.WelfareService{ServiceID: string(rune('A' + i))}
	}
	catalog := &Catalog{services: services}

	result := Search(catalog, SearchParams{Gender: "female", LifeStage: "youth"})
	if result.Total != defaultSearchSlice {
		t.Errorf("Default slice Total = %d, want %d", result.Total, defaultSearchSlice)
	}

	paged := Search(catalog, SearchParams{Limit: 5, Offset: 18})
	if len(paged.Services) != 2 {
		t.Errorf("Paged result length = %d, want 2", len(paged.Services))
	}

	past := Search(catalog, SearchParams{Offset: 100})
	if len(past.Services) != 0 {
		t.Errorf("Offset past end returned %d services", len(past.Services))
	}
}

func TestSearchReportsAppliedFilters(t *testing.T) {
	result := Search(searchCatalog(), SearchParams{Gender: "male", Limit: 10})

	if result.FiltersApplied["gender"] != "male" {
		t.Errorf("filters_applied gender = %v", result.FiltersApplied["gender"])
	}
	if result.FiltersApplied["limit"] != 10 {
		t.Errorf("filters_applied limit = %v", result.FiltersApplied["limit"])
	}
}
