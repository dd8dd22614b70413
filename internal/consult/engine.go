package consult

import (
	"strings"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

// pdfAffordanceTurn is the user-message count from which AI replies carry
// the PDF report download affordance.
const pdfAffordanceTurn = 13

// Reply is one selected chatbot response along with its inline action
// affordances.
type Reply struct {
	Content         string
	ShowReportLink  bool
	ShowPDFDownload bool
	// Finished marks the conversation for early termination (crisis
	// branch) or script completion.
	Finished bool
}

// Respond selects the canned reply for the given profile, accumulated
// user-message count (including the current message), and latest input.
// Selection is deterministic: identical inputs always yield the identical
// reply.
//
// The emergency branch takes precedence over everything else so that a
// crisis keyword produces the fixed hotline response at any turn and for
// any profile.
func Respond(profile *domain.Profile, userTurn int, input string) Reply {
	if containsEmergencyKeyword(input) {
		return Reply{
			Content:        crisisMessage,
			ShowReportLink: true,
			Finished:       true,
		}
	}

	if profile != nil {
		if script, ok := scenarioScripts[profile.Signature()]; ok {
			idx := clamp(userTurn, 1, len(script)) - 1
			return Reply{
				Content:         script[idx],
				ShowPDFDownload: userTurn >= pdfAffordanceTurn,
				Finished:        userTurn >= len(script),
			}
		}
	}

	// The generic flow has no scripted ending; the third stage repeats
	// for every later turn.
	idx := clamp(userTurn, 1, len(genericStages)) - 1
	return Reply{
		Content:         genericStages[idx],
		ShowPDFDownload: userTurn >= pdfAffordanceTurn,
	}
}

func containsEmergencyKeyword(input string) bool {
	text := strings.ToLower(input)
	for _, keyword := range emergencyKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
