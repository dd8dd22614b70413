// Package session manages consultation session identity and lifecycle.
package session

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
	"github.com/kje0316/persona-signal-welfare/internal/store"
)

// uuidV4Pattern matches the canonical lowercase-or-uppercase UUIDv4 shape.
var uuidV4Pattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// ValidID reports whether id has the UUIDv4 shape accepted as a session key.
func ValidID(id string) bool {
	return uuidV4Pattern.MatchString(id)
}

// Manager issues, validates, and retrieves consultation sessions.
type Manager struct {
	repo store.Repository
}

// NewManager creates a session manager backed by the given repository.
func NewManager(repo store.Repository) *Manager {
	return &Manager{repo: repo}
}

// Issue creates a fresh session with a server-generated identifier.
// A profile may be nil; plain chat sessions attach one later or never.
func (m *Manager) Issue(ctx context.Context, profile *domain.Profile) (*domain.ConsultationSession, error) {
	now := time.Now()
	session := &domain.ConsultationSession{
		SessionID: uuid.NewString(),
		Profile:   profile,
		Phase:     domain.PhasePreview,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if profile == nil {
		session.Phase = domain.PhaseChat
	}

	if err := m.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return session, nil
}

// Resolve returns the session for id, or issues a new one when the id is
// malformed or unknown. The second return value reports whether the
// caller's id survived.
func (m *Manager) Resolve(ctx context.Context, id string) (*domain.ConsultationSession, bool, error) {
	if !ValidID(id) {
		session, err := m.Issue(ctx, nil)
		return session, false, err
	}

	session, err := m.repo.GetSession(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("resolve session: %w", err)
	}
	if session == nil {
		session, err = m.Issue(ctx, nil)
		return session, false, err
	}

	if err := m.repo.TouchSession(ctx, id, time.Now()); err != nil {
		return nil, false, err
	}
	return session, true, nil
}

// Get returns the session for id, or nil when the id is malformed or unknown.
func (m *Manager) Get(ctx context.Context, id string) (*domain.ConsultationSession, error) {
	if !ValidID(id) {
		return nil, nil
	}
	return m.repo.GetSession(ctx, id)
}

// AttachProfile stores a completed profile on an existing session and
// moves it into the preview phase.
func (m *Manager) AttachProfile(ctx context.Context, id string, profile *domain.Profile) error {
	if !profile.Complete() {
		return fmt.Errorf("profile is incomplete")
	}
	if err := m.repo.UpdateSessionProfile(ctx, id, profile); err != nil {
		return err
	}
	return m.repo.UpdateSessionPhase(ctx, id, domain.PhasePreview)
}

// Advance moves a session to the given phase.
func (m *Manager) Advance(ctx context.Context, id string, phase domain.Phase) error {
	return m.repo.UpdateSessionPhase(ctx, id, phase)
}

// Reset deletes a session and its conversation so the caller starts over.
func (m *Manager) Reset(ctx context.Context, id string) error {
	if !ValidID(id) {
		return nil
	}
	return m.repo.DeleteSession(ctx, id)
}
