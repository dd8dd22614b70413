package consult

import (
	"reflect"
	"testing"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

func userMsg(content string) domain.Message {
	return domain.Message{Content: content, Sender: domain.SenderUser}
}

func aiMsg(content string) domain.Message {
	return domain.Message{Content: content, Sender: domain.SenderAI}
}

func TestAssessRiskScoresByGroup(t *testing.T) {
	tests := []struct {
		name      string
		history   []domain.Message
		wantScore int
		wantLevel domain.RiskLevel
	}{
		{
			name:      "no signals",
			history:   []domain.Message{userMsg("안녕하세요")},
			wantScore: 0,
			wantLevel: domain.RiskSafe,
		},
		{
			name:      "economic only",
			history:   []domain.Message{userMsg("생활비가 부족해요")},
			wantScore: 30,
			wantLevel: domain.RiskSafe,
		},
		{
			name:      "economic and health",
			history:   []domain.Message{userMsg("생활비가 부족하고 병원에 다녀요")},
			wantScore: 50,
			wantLevel: domain.RiskCaution,
		},
		{
			name: "all four groups",
			history: []domain.Message{
				userMsg("돈이없어서 병원을 못 가요"),
				userMsg("혼자 살고 월세도 밀렸어요"),
			},
			wantScore: 110,
			wantLevel: domain.RiskDanger,
		},
		{
			name:      "ai messages ignored",
			history:   []domain.Message{aiMsg("생활비 지원을 안내합니다")},
			wantScore: 0,
			wantLevel: domain.RiskSafe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessRisk(tt.history)
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", got.Level, tt.wantLevel)
			}
		})
	}
}

func TestAssessRiskIsIdempotentPerGroup(t *testing.T) {
	once := AssessRisk([]domain.Message{userMsg("생활비가 없어요")})
	twice := AssessRisk([]domain.Message{
		userMsg("생활비가 없어요"),
		userMsg("생활비 때문에 빚까지 졌어요"),
	})

	if once.Score != twice.Score {
		t.Errorf("Duplicate keyword match changed score: %d -> %d", once.Score, twice.Score)
	}
}

func TestAssessRiskIsOrderIndependent(t *testing.T) {
	ab := AssessRisk([]domain.Message{userMsg("병원에 다녀요"), userMsg("혼자 살아요")})
	ba := AssessRisk([]domain.Message{userMsg("혼자 살아요"), userMsg("병원에 다녀요")})

	if ab.Score != ba.Score || ab.Level != ba.Level {
		t.Errorf("Risk score depends on message order: %+v vs %+v", ab, ba)
	}
}

func TestAssessRiskConstantRecommendations(t *testing.T) {
	got := AssessRisk([]domain.Message{userMsg("안녕하세요")})

	wantFactors := []string{"특별한 위험 요소 없음"}
	if !reflect.DeepEqual(got.Factors, wantFactors) {
		t.Errorf("Factors = %v, want %v", got.Factors, wantFactors)
	}

	wantRecs := []string{"주민센터 방문 상담", "복지로(www.bokjiro.go.kr) 온라인 신청"}
	if !reflect.DeepEqual(got.Recommendations, wantRecs) {
		t.Errorf("Recommendations = %v, want %v", got.Recommendations, wantRecs)
	}
}
