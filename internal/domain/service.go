package domain

// WelfareService is one entry of the welfare-service reference catalog.
// The catalog is read-only; the client never mutates records.
type WelfareService struct {
	ServiceID      string `json:"service_id"`
	ServiceName    string `json:"service_name"`
	ServiceType    string `json:"service_type"`
	ServiceSummary string `json:"service_summary,omitempty"`
	DetailedLink   string `json:"detailed_link,omitempty"`
	ManagingAgency string `json:"managing_agency,omitempty"`
	RegionSido     string `json:"region_sido,omitempty"`
	RegionSigungu  string `json:"region_sigungu,omitempty"`
	Department     string `json:"department,omitempty"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	ContactEmail   string `json:"contact_email,omitempty"`
	Address        string `json:"address,omitempty"`

	SupportTarget     string `json:"support_target,omitempty"`
	SelectionCriteria string `json:"selection_criteria,omitempty"`
	SupportContent    string `json:"support_content,omitempty"`
	SupportCycle      string `json:"support_cycle,omitempty"`
	PaymentMethod     string `json:"payment_method,omitempty"`
	ApplicationMethod string `json:"application_method,omitempty"`
	RequiredDocuments string `json:"required_documents,omitempty"`

	Category              string `json:"category,omitempty"`
	LifeCycle             string `json:"life_cycle,omitempty"`
	TargetCharacteristics string `json:"target_characteristics,omitempty"`
	InterestTopics        string `json:"interest_topics,omitempty"`
	ServiceStatus         string `json:"service_status,omitempty"`
	StartDate             string `json:"start_date,omitempty"`
	EndDate               string `json:"end_date,omitempty"`
	ViewCount             int    `json:"view_count"`
	LastUpdated           string `json:"last_updated,omitempty"`
	CreatedAt             string `json:"created_at,omitempty"`
	UpdatedAt             string `json:"updated_at,omitempty"`

	// Parsed eligibility metadata extracted from the free-text criteria.
	// Absent metadata means the service carries no restriction on that
	// dimension.
	Parsed *Eligibility `json:"parsed,omitempty"`
}

// Eligibility is the structured eligibility annotation of a service.
type Eligibility struct {
	GenderTypes       []string `json:"gender_types,omitempty"`
	AgeRange          AgeRange `json:"age_range"`
	IncomeLimits      []int    `json:"income_limits,omitempty"`
	HouseholdTypes    []string `json:"household_types,omitempty"`
	SpecialConditions []string `json:"special_conditions,omitempty"`
}

// AgeRange bounds the eligible ages; a nil bound is unconstrained.
type AgeRange struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

// Constrained reports whether the range restricts anything at all.
func (r AgeRange) Constrained() bool {
	return r.Min != nil || r.Max != nil
}

// Overlaps reports whether the service age range intersects [lo, hi].
func (r AgeRange) Overlaps(lo, hi int) bool {
	if !r.Constrained() {
		return true
	}
	if r.Min != nil && hi < *r.Min {
		return false
	}
	if r.Max != nil && lo > *r.Max {
		return false
	}
	return true
}
