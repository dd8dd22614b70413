// Package consult implements the consultation flow: the scripted response
// engine and the conversation risk scorer.
package consult

import (
	"fmt"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

// emergencyKeywords triggers the crisis branch when any of them appears
// as a substring of a user message.
var emergencyKeywords = []string{
	"자살", "죽고싶", "안전하지", "폭력", "위험", "응급", "급해", "힘들어서", "견딜수없",
}

// crisisMessage is returned verbatim on the emergency branch, regardless
// of profile or turn count.
const crisisMessage = `⚠️ 지금 상황이 매우 어려우시군요. 즉시 도움을 받으실 수 있습니다.

**긴급 연락처:**
- 생명의 전화: 1393 (24시간)
- 청소년 전화: 1388
- 다산콜센터: 120

안전한 곳에 계시면서 위 번호로 연락해주세요. 전문 상담사가 도움을 드릴 수 있습니다.

그리고 복지 서비스 측면에서도 긴급지원제도나 위기가구 지원이 가능할 수 있으니, 상황이 안정되면 다시 상담받으시기 바랍니다.`

// FallbackMessage is appended to the conversation when reply generation
// or persistence fails, instead of surfacing a hard error.
const FallbackMessage = `죄송합니다. 일시적으로 상담 서비스에 문제가 발생했습니다.

다음 방법으로 도움받으실 수 있습니다:
📞 다산콜센터: 120 (무료)
🏢 거주지 주민센터 방문 상담
🌐 복지로 온라인: www.bokjiro.go.kr

잠시 후 다시 시도해주세요.`

// genericStages are the stage templates used when no scenario matches,
// keyed by coarse turn buckets 1, 2, >=3.
var genericStages = []string{
	`상황을 이해했습니다. 몇 가지 더 확인하고 싶은 것이 있어요.

현재 같이 살고 계신 가족이 있으신가요? 그리고 지금 상황에서 가장 시급하게 해결되어야 할 문제가 무엇인지 알려주세요.

또한 현재 다른 복지 서비스를 받고 계시거나 신청해본 경험이 있으시면 말씀해 주세요.`,

	`네, 잘 알겠습니다. 마지막으로 몇 가지만 더 확인할게요.

1. 현재 경제적 상황에서 한 달에 어느 정도의 지원이 있으면 도움이 될까요?
2. 복지 서비스 신청 과정에서 어려움이 있었다면 어떤 부분이었나요?
3. 혹시 주변에서 도움을 받을 수 있는 분이 계신가요?

이 정보를 바탕으로 맞춤형 복지 서비스를 추천해드리겠습니다.`,

	`상세한 정보를 알려주셔서 감사합니다.

말씀해주신 내용을 종합해서 위험도 평가와 함께 맞춤형 복지 서비스를 추천해드리겠습니다.

잠시만 기다려주세요...`,
}

// scenarioScripts maps a profile signature to its ordered canned replies.
// Replies are indexed by user-message count and clamp to the final entry
// once the count exceeds the script length.
var scenarioScripts = map[domain.Signature][]string{
	// 남성 / 노년 / 월소득 1200 / 1인 가구 / 저소득층
	{Gender: "male", LifeStage: "senior", Income: "1200", HouseholdSize: "1", HouseholdSituation: "low_income"}: {
		`말씀 감사합니다. 어르신의 상황을 조금 더 자세히 알고 싶습니다.

현재 혼자 생활하시면서 식사나 건강 관리는 어떻게 하고 계신가요? 거동이 불편하시거나 정기적으로 병원에 다니셔야 하는 상황이 있으시면 함께 말씀해 주세요.`,

		`알려주셔서 감사합니다. 어르신께서 받으실 수 있는 지원을 확인하고 있습니다.

혹시 현재 기초연금이나 기초생활보장 급여를 받고 계신가요? 이전에 주민센터에서 복지 상담을 받아보신 경험이 있으시면 말씀해 주세요.`,

		`네, 상황을 잘 알겠습니다.

한 가지만 더 여쭤볼게요. 지금 생활에서 가장 급하게 해결이 필요한 부분이 생활비인가요, 아니면 식사·돌봄이나 주거 문제인가요? 가장 부담이 큰 것부터 알려주시면 우선순위를 정해 안내해드리겠습니다.`,

		`말씀해주신 내용을 정리해보았습니다.

1인 가구로 혼자 생활하시는 저소득 어르신의 경우 기초생활보장제도의 생계급여와 의료급여를 함께 검토해볼 수 있습니다. 소득인정액 기준을 충족하시면 매월 현금 급여와 의료비 지원을 받으실 수 있어요.

마지막으로 추천 서비스를 정리해드리겠습니다. 잠시만 기다려주세요.`,

		`어르신께 추천드리는 복지 서비스입니다.

1. **긴급복지 생계지원** — 갑작스러운 위기 상황으로 생계유지가 곤란할 때 생계비를 지원받을 수 있습니다. 주민센터나 129(보건복지상담센터)로 신청하세요.
2. **기초연금** — 만 65세 이상, 소득인정액 기준 충족 시 매월 연금을 받으실 수 있습니다.
3. **노인맞춤돌봄서비스** — 혼자 생활하시는 어르신께 안전지원과 생활교육, 일상생활 지원을 제공합니다.
4. **의료급여** — 진료비 부담을 크게 줄일 수 있습니다.

가까운 주민센터에 방문하시면 신청을 도와드립니다. 위 내용을 바탕으로 위험도 평가 결과와 함께 보고서를 확인하실 수 있습니다.`,
	},

	// 여성 / 임신·출산 / 월소득 4000 / 1인 가구 / 해당사항 없음
	{Gender: "female", LifeStage: "pregnancy", Income: "4000", HouseholdSize: "1", HouseholdSituation: "general"}: {
		`축하드립니다! 임신·출산 관련 지원을 함께 확인해보겠습니다.

현재 임신 몇 주차이신가요? 그리고 출산 예정일과 산전 진료는 정기적으로 받고 계신지 알려주세요.`,

		`감사합니다. 지원 범위를 확인하고 있어요.

현재 직장에 다니고 계신가요? 재직 중이시라면 출산전후휴가와 육아휴직 급여 대상이 될 수 있어서 여쭤봅니다. 고용보험 가입 여부도 함께 알려주시면 정확한 안내가 가능합니다.`,

		`네, 잘 알겠습니다.

마지막으로 출산 이후의 계획도 간단히 여쭤볼게요. 산후조리 도움을 받을 수 있는 가족이 가까이 계신가요? 산모·신생아 건강관리 지원 서비스 대상 여부를 확인하려고 합니다.`,

		`말씀해주신 내용을 정리해보았습니다.

소득 기준과 관계없이 받을 수 있는 임신·출산 지원이 여러 가지 있습니다. 임신·출산 진료비 지원(국민행복카드)과 첫만남이용권은 모든 출산 가정이 대상이에요.

추천 서비스를 정리해드리겠습니다. 잠시만 기다려주세요.`,

		`추천드리는 임신·출산 지원 서비스입니다.

1. **임신·출산 진료비 지원(국민행복카드)** — 임신 1회당 100만원의 진료비 바우처를 지원합니다.
2. **첫만남이용권** — 출생아당 200만원의 바우처를 지급합니다.
3. **산모·신생아 건강관리 지원사업** — 출산 가정에 건강관리사가 방문하여 산모와 신생아를 돌봐드립니다.
4. **출산전후휴가 급여** — 고용보험 가입 재직자라면 휴가 기간 급여를 지원받을 수 있습니다.

자세한 신청 방법은 복지로(www.bokjiro.go.kr) 또는 가까운 보건소에서 안내받으실 수 있습니다. 위 내용을 바탕으로 위험도 평가 결과와 함께 보고서를 확인하실 수 있습니다.`,
	},
}

// Greeting builds the opening message summarizing the submitted profile.
func Greeting(p *domain.Profile) string {
	return fmt.Sprintf(`안녕하세요! 복지 전문 상담사 AI입니다. 😊

먼저 입력해주신 기본 정보를 정리해보았습니다:
👤 %s · 🎂 %s
💰 월소득 %s만원 · 👥 %s · 🏠 %s

기본 조건으로 찾은 복지 서비스들이 있지만, 더욱 정확하고 도움이 되는 추천을 드리고 싶습니다.

현재 상황을 자세히 말씀해 주세요:
✅ 지금 가장 어려운 점이나 긴급한 도움이 필요한 부분
✅ 함께 사는 가족이나 돌봐야 할 분이 있는지
✅ 건강, 일자리, 주거 등 특별한 상황
✅ 이전에 받아본 복지 혜택이나 신청 경험

어떤 내용이든 편하게 말씀해 주세요. 차근차근 도와드리겠습니다! 💪`,
		genderLabel(p.Gender), lifeStageLabel(p.LifeStage),
		p.Income, householdSizeLabel(p.HouseholdSize),
		householdSituationLabel(p.HouseholdSituation))
}

func genderLabel(v string) string {
	switch v {
	case "male":
		return "남성"
	case "female":
		return "여성"
	}
	return v
}

func lifeStageLabel(v string) string {
	labels := map[string]string{
		"pregnancy":  "출산-임신",
		"infant":     "영유아",
		"child":      "아동",
		"adolescent": "청소년",
		"youth":      "청년",
		"middle":     "중장년",
		"senior":     "노년",
	}
	if label, ok := labels[v]; ok {
		return label
	}
	return v
}

func householdSizeLabel(v string) string {
	switch v {
	case "1", "2", "3":
		return v + "인 가구"
	case "4+":
		return "4인 이상 가구"
	}
	return v
}

func householdSituationLabel(v string) string {
	labels := map[string]string{
		"single_parent": "한부모·조손가정",
		"disability":    "장애인",
		"veteran":       "보훈대상자",
		"multi_child":   "다자녀가정",
		"multicultural": "다문화·탈북민",
		"low_income":    "저소득층",
		"general":       "해당사항 없음",
	}
	if label, ok := labels[v]; ok {
		return label
	}
	return v
}
