package consult

import (
	"strings"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

// riskGroup is one fixed keyword group contributing a fixed score when
// any of its keywords appears in the concatenated user text.
type riskGroup struct {
	keywords       []string
	score          int
	factor         string
	recommendation string
}

var riskGroups = []riskGroup{
	{
		keywords:       []string{"돈이없", "생활비", "빚"},
		score:          30,
		factor:         "경제적 어려움",
		recommendation: "기초생활보장 신청 검토",
	},
	{
		keywords:       []string{"아프", "병원", "치료"},
		score:          20,
		factor:         "건강 문제",
		recommendation: "의료급여 및 의료비 지원 확인",
	},
	{
		keywords:       []string{"혼자", "외로", "도와줄사람"},
		score:          25,
		factor:         "사회적 고립",
		recommendation: "지역 복지관 상담 서비스 이용",
	},
	{
		keywords:       []string{"집이없", "월세", "이사"},
		score:          35,
		factor:         "주거 불안정",
		recommendation: "주거급여 및 임대주택 신청",
	},
}

var baseRecommendations = []string{
	"주민센터 방문 상담",
	"복지로(www.bokjiro.go.kr) 온라인 신청",
}

// AssessRisk derives a risk assessment from the conversation. It is a
// pure function of the user-authored message text: each keyword group
// contributes its score at most once, so duplicate matches never change
// the result.
func AssessRisk(history []domain.Message) domain.RiskAssessment {
	var parts []string
	for _, msg := range history {
		if msg.Sender == domain.SenderUser {
			parts = append(parts, msg.Content)
		}
	}
	text := strings.ToLower(strings.Join(parts, " "))

	score := 0
	var factors []string
	var recommendations []string

	for _, group := range riskGroups {
		for _, keyword := range group.keywords {
			if strings.Contains(text, keyword) {
				score += group.score
				factors = append(factors, group.factor)
				recommendations = append(recommendations, group.recommendation)
				break
			}
		}
	}

	recommendations = append(recommendations, baseRecommendations...)

	if len(factors) == 0 {
		factors = []string{"특별한 위험 요소 없음"}
	}

	return domain.RiskAssessment{
		Level:           domain.LevelForScore(score),
		Score:           score,
		Factors:         factors,
		Recommendations: recommendations,
	}
}
