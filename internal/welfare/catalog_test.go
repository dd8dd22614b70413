package welfare

import (
	"testing"
)

const sampleWelfareData = `{
	"services": {
		"WLF002": {
			"original": {
				"서비스ID": "WLF002",
				"서비스명": "청년 월세 지원",
				"소관부처": "국토교통부",
				"서비스개요": "무주택 청년 월세 지원",
				"지원대상상세": "만 19~39세 무주택 청년",
				"선정기준": "중위소득 150% 이하",
				"지원내용": "월 최대 20만원",
				"지원주기": "월",
				"지급방식": "현금"
			},
			"parsed": {
				"gender_types": ["all"],
				"age_range": {"min": 19, "max": 39},
				"income_limits": [150],
				"household_types": [],
				"special_conditions": ["housing"]
			}
		},
		"WLF001": {
			"original": {
				"서비스ID": "WLF001",
				"서비스명": "기초연금",
				"소관부처": "보건복지부",
				"서비스개요": "노인 기초연금",
				"지원대상상세": "만 65세 이상",
				"선정기준": "소득인정액 하위 70%",
				"지원내용": "매월 연금 지급",
				"지원주기": "월",
				"지급방식": "현금"
			},
			"parsed": {
				"gender_types": ["all"],
				"age_range": {"min": 65, "max": null},
				"income_limits": [70],
				"household_types": [],
				"special_conditions": ["elderly"]
			}
		}
	}
}`

func TestLoadCatalog(t *testing.T) {
	catalog, err := Load([]byte(sampleWelfareData))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if catalog.Len() != 2 {
		t.Fatalf("Len = %d, want 2", catalog.Len())
	}

	services := catalog.Services()
	if services[0].ServiceID != "WLF001" || services[1].ServiceID != "WLF002" {
		t.Errorf("Catalog order not stable by service id: %s, %s",
			services[0].ServiceID, services[1].ServiceID)
	}

	pension := services[0]
	if pension.ServiceName != "기초연금" {
		t.Errorf("ServiceName = %q", pension.ServiceName)
	}
	if pension.Parsed == nil || pension.Parsed.AgeRange.Min == nil || *pension.Parsed.AgeRange.Min != 65 {
		t.Errorf("Parsed age range not decoded: %+v", pension.Parsed)
	}
	if pension.Parsed.AgeRange.Max != nil {
		t.Error("Null age max should decode to nil")
	}
}

func TestLoadCatalogRejectsMalformedDocument(t *testing.T) {
	if _, err := Load([]byte("{not json")); err == nil {
		t.Error("Load accepted malformed JSON")
	}
}
