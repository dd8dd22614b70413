package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kje0316/persona-signal-welfare/internal/welfare"
)

// HandleWelfareSearch filters the service catalog and returns a paged
// result. The profile-shaped parameters drive the scenario match rules;
// the filter page's facet parameters (age, household, housing,
// situations) drive the facet predicate instead.
func (h *Handler) HandleWelfareSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := welfare.SearchParams{
		Gender:             q.Get("gender"),
		LifeStage:          q.Get("lifeStage"),
		Income:             q.Get("income"),
		HouseholdSize:      q.Get("householdSize"),
		HouseholdSituation: q.Get("householdSituation"),
		AgeBand:            q.Get("age"),
		HouseholdType:      q.Get("household"),
	}
	if v := q.Get("housing"); v != "" {
		params.Situations = append(params.Situations, v)
	}
	if v := q.Get("situations"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				params.Situations = append(params.Situations, s)
			}
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		params.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			Error(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		params.Offset = n
	}

	JSON(w, http.StatusOK, welfare.Search(h.catalog, params))
}

// HandleIncomeSupport reports the household's median-income percentage
// and the matching support level for an income entered in 만원.
func (h *Handler) HandleIncomeSupport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	income, err := strconv.Atoi(q.Get("income"))
	if err != nil || income < 0 {
		Error(w, http.StatusBadRequest, "income must be a non-negative integer in 만원")
		return
	}
	householdSize, err := strconv.Atoi(q.Get("householdSize"))
	if err != nil || householdSize < 1 {
		Error(w, http.StatusBadRequest, "householdSize must be a positive integer")
		return
	}

	percentage := welfare.IncomePercentage(income, householdSize)
	level := welfare.SupportLevel(percentage)

	resp := map[string]any{
		"income":            income * 10000,
		"household_size":    householdSize,
		"median_income":     welfare.MedianIncome(householdSize),
		"income_percentage": percentage,
		"support_level":     level,
	}
	if info, ok := welfare.SupportLevelInfo(level); ok {
		resp["support_info"] = info
	}

	JSON(w, http.StatusOK, resp)
}
