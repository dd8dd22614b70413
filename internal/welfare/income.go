// Package welfare provides the welfare-service catalog, the facet filter,
// and the median-income support-level math.
package welfare

import (
	"math"
	"strconv"
)

// medianIncome2025 is the legal median income per household size (KRW,
// monthly, 2025). Households of six or more use the six-person figure.
var medianIncome2025 = map[int]int{
	1: 2308000,
	2: 3822000,
	3: 4945000,
	4: 6096000,
	5: 7130000,
	6: 8164000,
}

// SupportInfo describes the services available at one income bracket.
type SupportInfo struct {
	Label    string   `json:"label"`
	Services []string `json:"services"`
}

// supportBrackets lists the income-percentage cut-offs in ascending
// order with the support tier unlocked at each.
var supportBrackets = []struct {
	limit int
	info  SupportInfo
}{
	{50, SupportInfo{Label: "생계급여 대상", Services: []string{"생계급여", "의료급여", "주거급여", "교육급여"}}},
	{75, SupportInfo{Label: "아이돌봄 가형", Services: []string{"아이돌봄 서비스 가형", "기초생활보장"}}},
	{120, SupportInfo{Label: "아이돌봄 나형", Services: []string{"아이돌봄 서비스 나형", "교육비 지원"}}},
	{150, SupportInfo{Label: "산모신생아 지원", Services: []string{"산모신생아 건강관리", "아이돌봄 다형"}}},
	{200, SupportInfo{Label: "아이돌봄 라형", Services: []string{"아이돌봄 서비스 라형", "영유아보육료"}}},
}

// MedianIncome returns the monthly median income in KRW for the given
// household size.
func MedianIncome(householdSize int) int {
	if householdSize < 1 {
		householdSize = 1
	}
	if householdSize > 6 {
		householdSize = 6
	}
	return medianIncome2025[householdSize]
}

// IncomePercentage converts a monthly income entered in 만원 (ten
// thousand KRW) to a percentage of the household-size median.
func IncomePercentage(incomeManwon, householdSize int) int {
	income := float64(incomeManwon) * 10000
	median := float64(MedianIncome(householdSize))
	return int(math.Round(income / median * 100))
}

// SupportLevel maps an income percentage to its bracket key: "50", "75",
// "120", "150", "200", or "200plus" above the final cut-off.
func SupportLevel(percentage int) string {
	switch {
	case percentage <= 50:
		return "50"
	case percentage <= 75:
		return "75"
	case percentage <= 120:
		return "120"
	case percentage <= 150:
		return "150"
	case percentage <= 200:
		return "200"
	default:
		return "200plus"
	}
}

// SupportLevelInfo returns the support tier for a level key, or false for
// "200plus" and unknown keys.
func SupportLevelInfo(level string) (SupportInfo, bool) {
	for _, bracket := range supportBrackets {
		if strconv.Itoa(bracket.limit) == level {
			return bracket.info, true
		}
	}
	return SupportInfo{}, false
}
