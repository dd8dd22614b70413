package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func seedSession(t *testing.T, repo Repository) string {
	t.Helper()
	id := uuid.NewString()
	err := repo.CreateSession(context.Background(), &domain.ConsultationSession{
		SessionID: id,
		Phase:     domain.PhaseChat,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return id
}

func TestGetSessionMissingReturnsNil(t *testing.T) {
	repo := newTestStore(t)

	sess, err := repo.GetSession(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if sess != nil {
		t.Errorf("GetSession() = %+v, want nil for unknown id", sess)
	}
}

func TestMessagesKeepInsertionOrder(t *testing.T) {
	repo := newTestStore(t)
	sessionID := seedSession(t, repo)

	for i := 0; i < 5; i++ {
		sender := domain.SenderUser
		if i%2 == 1 {
			sender = domain.SenderAI
		}
		msg := &domain.Message{
			ID:        uuid.NewString(),
			Content:   fmt.Sprintf("메시지 %d", i),
			Sender:    sender,
			Timestamp: time.Now(),
		}
		if err := repo.AppendMessage(context.Background(), sessionID, msg); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}

	messages, err := repo.GetMessages(context.Background(), sessionID, 0)
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("len(messages) = %d, want 5", len(messages))
	}
	for i, msg := range messages {
		if want := fmt.Sprintf("메시지 %d", i); msg.Content != want {
			t.Errorf("messages[%d].Content = %q, want %q", i, msg.Content, want)
		}
	}
}

func TestGetMessagesLimitReturnsMostRecent(t *testing.T) {
	repo := newTestStore(t)
	sessionID := seedSession(t, repo)

	for i := 0; i < 6; i++ {
		msg := &domain.Message{
			ID:        uuid.NewString(),
			Content:   fmt.Sprintf("메시지 %d", i),
			Sender:    domain.SenderUser,
			Timestamp: time.Now(),
		}
		if err := repo.AppendMessage(context.Background(), sessionID, msg); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}

	messages, err := repo.GetMessages(context.Background(), sessionID, 2)
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if messages[0].Content != "메시지 4" || messages[1].Content != "메시지 5" {
		t.Errorf("limited window = %q, %q, want the two most recent oldest-first",
			messages[0].Content, messages[1].Content)
	}
}

func TestDeleteSessionRemovesMessages(t *testing.T) {
	repo := newTestStore(t)
	sessionID := seedSession(t, repo)

	msg := &domain.Message{ID: uuid.NewString(), Content: "안녕하세요", Sender: domain.SenderUser, Timestamp: time.Now()}
	if err := repo.AppendMessage(context.Background(), sessionID, msg); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	if err := repo.DeleteSession(context.Background(), sessionID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	sess, err := repo.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if sess != nil {
		t.Error("session survived deletion")
	}
	messages, err := repo.GetMessages(context.Background(), sessionID, 0)
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("len(messages) = %d after deletion, want 0", len(messages))
	}
}

func TestUpsertTaskOverwritesSnapshot(t *testing.T) {
	repo := newTestStore(t)

	task := &domain.Task{
		ID:           "aug_20250101_000000_deadbeef",
		Status:       domain.TaskPending,
		CurrentStage: "초기화 중",
		StartedAt:    time.Now(),
	}
	if err := repo.UpsertTask(context.Background(), task); err != nil {
		t.Fatalf("UpsertTask() error = %v", err)
	}

	task.Status = domain.TaskAugmenting
	task.Progress = 60
	task.CurrentStage = "데이터 증강"
	if err := repo.UpsertTask(context.Background(), task); err != nil {
		t.Fatalf("UpsertTask() error = %v", err)
	}

	got, err := repo.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Status != domain.TaskAugmenting || got.Progress != 60 {
		t.Errorf("snapshot = %s/%d, want augmenting/60", got.Status, got.Progress)
	}
}

func TestDeleteTerminalTasksBefore(t *testing.T) {
	repo := newTestStore(t)

	old := time.Now().Add(-48 * time.Hour)
	finished := &domain.Task{
		ID:         "aug_20250101_000000_00000001",
		Status:     domain.TaskCompleted,
		StartedAt:  old,
		FinishedAt: &old,
	}
	running := &domain.Task{
		ID:        "aug_20250101_000000_00000002",
		Status:    domain.TaskAugmenting,
		StartedAt: old,
	}
	for _, task := range []*domain.Task{finished, running} {
		if err := repo.UpsertTask(context.Background(), task); err != nil {
			t.Fatalf("UpsertTask() error = %v", err)
		}
	}

	deleted, err := repo.DeleteTerminalTasksBefore(context.Background(), time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteTerminalTasksBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	kept, err := repo.GetTask(context.Background(), running.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if kept == nil {
		t.Error("running task was pruned")
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	repo := newTestStore(t)
	sessionID := seedSession(t, repo)

	// Age the session past the TTL window.
	if err := repo.TouchSession(context.Background(), sessionID, time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatalf("TouchSession() error = %v", err)
	}

	cleaned, err := repo.CleanupExpiredSessions(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions() error = %v", err)
	}
	if cleaned != 1 {
		t.Errorf("cleaned = %d, want 1", cleaned)
	}

	sess, err := repo.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if sess != nil {
		t.Error("expired session survived cleanup")
	}
}
