package domain

// RiskLevel buckets a risk score into a coarse severity label.
type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskCaution RiskLevel = "caution"
	RiskDanger  RiskLevel = "danger"
)

// RiskAssessment is derived from the conversation on demand; it is
// recomputed from scratch each time and never persisted.
type RiskAssessment struct {
	Level           RiskLevel `json:"level"`
	Score           int       `json:"score"`
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
}

// LevelForScore maps an additive risk score to its severity label.
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskDanger
	case score >= 40:
		return RiskCaution
	default:
		return RiskSafe
	}
}
