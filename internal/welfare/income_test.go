package welfare

import "testing"

func TestIncomePercentage(t *testing.T) {
	tests := []struct {
		incomeManwon  int
		householdSize int
		want          int
	}{
		{120, 1, 52},   // 1,200,000 / 2,308,000
		{231, 1, 100},  // just above the 1-person median
		{400, 1, 173},  // 4,000,000 / 2,308,000
		{300, 4, 49},   // 3,000,000 / 6,096,000
		{610, 4, 100},  // 6,100,000 / 6,096,000
		{0, 1, 0},
		{500, 9, 61},   // clamps to the 6-person median 8,164,000
	}

	for _, tt := range tests {
		if got := IncomePercentage(tt.incomeManwon, tt.householdSize); got != tt.want {
			t.Errorf("IncomePercentage(%d, %d) = %d, want %d",
				tt.incomeManwon, tt.householdSize, got, tt.want)
		}
	}
}

func TestMedianIncomeClampsHouseholdSize(t *testing.T) {
	if got := MedianIncome(0); got != 2308000 {
		t.Errorf("MedianIncome(0) = %d, want 2308000", got)
	}
	if got := MedianIncome(10); got != 8164000 {
		t.Errorf("MedianIncome(10) = %d, want 8164000", got)
	}
}

func TestSupportLevelIsTotal(t *testing.T) {
	tests := []struct {
		percentage int
		want       string
	}{
		{0, "50"}, {50, "50"},
		{51, "75"}, {75, "75"},
		{76, "120"}, {120, "120"},
		{121, "150"}, {150, "150"},
		{151, "200"}, {200, "200"},
		{201, "200plus"}, {1000, "200plus"},
	}

	for _, tt := range tests {
		if got := SupportLevel(tt.percentage); got != tt.want {
			t.Errorf("SupportLevel(%d) = %q, want %q", tt.percentage, got, tt.want)
		}
	}
}

func TestSupportLevelInfo(t *testing.T) {
	info, ok := SupportLevelInfo("50")
	if !ok {
		t.Fatal("SupportLevelInfo(50) not found")
	}
	if info.Label != "생계급여 대상" {
		t.Errorf("Label = %q, want 생계급여 대상", info.Label)
	}
	if len(info.Services) != 4 {
		t.Errorf("Services count = %d, want 4", len(info.Services))
	}

	if _, ok := SupportLevelInfo("200plus"); ok {
		t.Error("SupportLevelInfo(200plus) should report no bracket info")
	}
}
