package domain

import (
	"time"
)

// Phase is one of the three consultation steps.
type Phase string

const (
	PhasePreview Phase = "preview"
	PhaseChat    Phase = "chat"
	PhaseResults Phase = "results"
)

// ConsultationSession ties a session identifier to its profile and
// conversation state.
type ConsultationSession struct {
	SessionID string    `json:"session_id"`
	Profile   *Profile  `json:"profile,omitempty"`
	Phase     Phase     `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanChat reports whether the session is allowed to exchange chat
// messages. The profile must be complete before chat starts; sessions
// created without a profile (plain chat page) are always allowed.
func (s *ConsultationSession) CanChat() bool {
	if s.Profile == nil {
		return true
	}
	return s.Profile.Complete()
}
