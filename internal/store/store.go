// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

// Repository defines the interface for persisting consultation sessions,
// conversation messages, and augmentation task snapshots.
type Repository interface {
	// GetSession retrieves a consultation session by its identifier.
	// Returns (nil, nil) when no such session exists.
	GetSession(ctx context.Context, sessionID string) (*domain.ConsultationSession, error)

	// CreateSession inserts a new consultation session record.
	CreateSession(ctx context.Context, session *domain.ConsultationSession) error

	// UpdateSessionProfile attaches a pre-consultation profile to a session.
	UpdateSessionProfile(ctx context.Context, sessionID string, profile *domain.Profile) error

	// UpdateSessionPhase advances the consultation phase for a session.
	UpdateSessionPhase(ctx context.Context, sessionID string, phase domain.Phase) error

	// TouchSession updates the session's updated_at timestamp.
	TouchSession(ctx context.Context, sessionID string, at time.Time) error

	// DeleteSession removes a session and its messages.
	DeleteSession(ctx context.Context, sessionID string) error

	// AppendMessage appends one message to a session's conversation.
	AppendMessage(ctx context.Context, sessionID string, msg *domain.Message) error

	// GetMessages returns a session's conversation in insertion order,
	// optionally truncated to the most recent limit entries (0 = all).
	GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// UpsertTask stores the latest snapshot of an augmentation task.
	UpsertTask(ctx context.Context, task *domain.Task) error

	// GetTask retrieves a task snapshot. Returns (nil, nil) when missing.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// ListTasks returns snapshots of all known tasks.
	ListTasks(ctx context.Context) ([]*domain.Task, error)

	// DeleteTerminalTasksBefore removes terminal tasks finished before the
	// cutoff and returns how many were deleted.
	DeleteTerminalTasksBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// CleanupExpiredSessions removes sessions idle longer than TTL and
	// returns how many were deleted.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
