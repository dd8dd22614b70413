package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
	"github.com/kje0316/persona-signal-welfare/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return NewManager(repo)
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"3b241101-e2bb-4255-8caf-4136c566a962", true},
		{"3B241101-E2BB-4255-8CAF-4136C566A962", true},
		{"3b241101-e2bb-1255-8caf-4136c566a962", false}, // wrong version nibble
		{"3b241101-e2bb-4255-1caf-4136c566a962", false}, // wrong variant nibble
		{"not-a-uuid", false},
		{"", false},
		{"3b241101e2bb42558caf4136c566a962", false},
	}

	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.valid {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.valid)
		}
	}
}

func TestIssueAndGet(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	issued, err := mgr.Issue(ctx, nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !ValidID(issued.SessionID) {
		t.Errorf("Issued session id %q is not a valid UUIDv4", issued.SessionID)
	}
	if issued.Phase != domain.PhaseChat {
		t.Errorf("Profile-less session phase = %q, want %q", issued.Phase, domain.PhaseChat)
	}

	got, err := mgr.Get(ctx, issued.SessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.SessionID != issued.SessionID {
		t.Errorf("Get returned %+v, want session %s", got, issued.SessionID)
	}
}

func TestResolveMalformedIDIssuesFreshSession(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	session, kept, err := mgr.Resolve(ctx, "garbage-id")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if kept {
		t.Error("Resolve reported malformed id as kept")
	}
	if session == nil || !ValidID(session.SessionID) {
		t.Fatalf("Resolve did not issue a fresh session, got %+v", session)
	}
}

func TestResolveUnknownIDIssuesFreshSession(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	unknown := "3b241101-e2bb-4255-8caf-4136c566a962"
	session, kept, err := mgr.Resolve(ctx, unknown)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if kept {
		t.Error("Resolve reported unknown id as kept")
	}
	if session.SessionID == unknown {
		t.Error("Resolve reused an unknown session id instead of issuing a new one")
	}
}

func TestResolveKeepsKnownID(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	issued, err := mgr.Issue(ctx, nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	session, kept, err := mgr.Resolve(ctx, issued.SessionID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !kept {
		t.Error("Resolve did not keep a known session id")
	}
	if session.SessionID != issued.SessionID {
		t.Errorf("Resolve returned %s, want %s", session.SessionID, issued.SessionID)
	}
}

func TestAttachProfileRequiresCompleteProfile(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	issued, err := mgr.Issue(ctx, nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := mgr.AttachProfile(ctx, issued.SessionID, &domain.Profile{Gender: "male"}); err == nil {
		t.Error("AttachProfile accepted an incomplete profile")
	}

	profile := &domain.Profile{
		Gender:             "male",
		LifeStage:          "senior",
		Income:             "1200",
		HouseholdSize:      "1",
		HouseholdSituation: "low_income",
	}
	if err := mgr.AttachProfile(ctx, issued.SessionID, profile); err != nil {
		t.Fatalf("AttachProfile failed: %v", err)
	}

	got, err := mgr.Get(ctx, issued.SessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Profile == nil || got.Profile.LifeStage != "senior" {
		t.Errorf("Profile not persisted, got %+v", got.Profile)
	}
	if got.Phase != domain.PhasePreview {
		t.Errorf("Phase after AttachProfile = %q, want %q", got.Phase, domain.PhasePreview)
	}
}

func TestResetDeletesSession(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	issued, err := mgr.Issue(ctx, nil)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if err := mgr.Reset(ctx, issued.SessionID); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	got, err := mgr.Get(ctx, issued.SessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Session still present after Reset: %+v", got)
	}
}
