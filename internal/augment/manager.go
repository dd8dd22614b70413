// Package augment runs data-augmentation tasks and reports their
// progress over polling and websocket push.
package augment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
	"github.com/kje0316/persona-signal-welfare/internal/store"
)

// terminalTaskRetention is how long finished tasks stay listed before
// system cleanup may prune them.
const terminalTaskRetention = 24 * time.Hour

// NewTaskID builds an augmentation task identifier:
// aug_<yyyymmdd_hhmmss>_<8 hex chars>.
func NewTaskID(now time.Time) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("aug_%s_%s", now.Format("20060102_150405"), hex)
}

// Manager tracks augmentation tasks in memory and mirrors every snapshot
// to the repository so task state survives restarts.
type Manager struct {
	mu      sync.RWMutex
	tasks   map[string]*domain.Task
	cancels map[string]context.CancelFunc

	repo store.Repository
	hub  *Hub
}

// NewManager creates a task manager. The hub may be nil when push
// notifications are not wired.
func NewManager(repo store.Repository, hub *Hub) *Manager {
	return &Manager{
		tasks:   make(map[string]*domain.Task),
		cancels: make(map[string]context.CancelFunc),
		repo:    repo,
		hub:     hub,
	}
}

// Create registers a new pending task and returns its snapshot.
func (m *Manager) Create(ctx context.Context) (*domain.Task, error) {
	task := &domain.Task{
		ID:           NewTaskID(time.Now()),
		Status:       domain.TaskPending,
		Progress:     0,
		CurrentStage: "초기화 중",
		StartedAt:    time.Now(),
	}

	m.mu.Lock()
	m.tasks[task.ID] = task
	m.mu.Unlock()

	if err := m.repo.UpsertTask(ctx, task); err != nil {
		// The caller was told creation failed; the task must not stay
		// registered.
		m.mu.Lock()
		delete(m.tasks, task.ID)
		m.mu.Unlock()
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// BindCancel attaches the pipeline's cancel function to a running task.
func (m *Manager) BindCancel(taskID string, cancel context.CancelFunc) {
	m.mu.Lock()
	m.cancels[taskID] = cancel
	m.mu.Unlock()
}

// Get returns a task snapshot, falling back to the repository for tasks
// from a previous process. Returns nil when unknown.
func (m *Manager) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	m.mu.RLock()
	task, ok := m.tasks[taskID]
	m.mu.RUnlock()
	if ok {
		return snapshot(task), nil
	}
	return m.repo.GetTask(ctx, taskID)
}

// List returns snapshots of all known tasks.
func (m *Manager) List(ctx context.Context) ([]*domain.Task, error) {
	stored, err := m.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var tasks []*domain.Task
	seen := make(map[string]bool)
	for _, task := range stored {
		if live, ok := m.tasks[task.ID]; ok {
			task = snapshot(live)
		}
		seen[task.ID] = true
		tasks = append(tasks, task)
	}
	for id, task := range m.tasks {
		if !seen[id] {
			tasks = append(tasks, snapshot(task))
		}
	}
	return tasks, nil
}

// Progress moves a running task to a new stage. The progress value is
// monotonic: a lower value than the current one is ignored.
func (m *Manager) Progress(ctx context.Context, taskID string, status domain.TaskStatus, stage string, progress int, message string) {
	m.mu.Lock()
	task, ok := m.tasks[taskID]
	if !ok || task.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	if progress > task.Progress {
		task.Progress = progress
	}
	task.Status = status
	task.CurrentStage = stage
	task.Message = message
	updated := snapshot(task)
	m.mu.Unlock()

	m.persist(ctx, updated)
	m.hub.Send(taskID, map[string]any{
		"type":     "progress",
		"task_id":  taskID,
		"stage":    stage,
		"progress": updated.Progress,
		"message":  message,
	})
}

// Complete marks a task as finished with its results and output files.
func (m *Manager) Complete(ctx context.Context, taskID string, results map[string]any, outputFiles map[string]string) {
	now := time.Now()

	m.mu.Lock()
	task, ok := m.tasks[taskID]
	if !ok || task.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	task.Status = domain.TaskCompleted
	task.Progress = 100
	task.CurrentStage = "완료"
	task.Message = "모든 작업이 완료되었습니다"
	task.Results = results
	task.OutputFiles = outputFiles
	task.FinishedAt = &now
	updated := snapshot(task)
	m.mu.Unlock()

	m.persist(ctx, updated)
	m.hub.Send(taskID, map[string]any{
		"type":         "completed",
		"task_id":      taskID,
		"results":      results,
		"output_files": outputFiles,
	})
}

// Fail marks a task as failed.
func (m *Manager) Fail(ctx context.Context, taskID string, taskErr error) {
	now := time.Now()

	m.mu.Lock()
	task, ok := m.tasks[taskID]
	if !ok || task.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	task.Status = domain.TaskFailed
	task.Error = taskErr.Error()
	task.FinishedAt = &now
	updated := snapshot(task)
	m.mu.Unlock()

	m.persist(ctx, updated)
	m.hub.Send(taskID, map[string]any{
		"type":    "error",
		"task_id": taskID,
		"error":   taskErr.Error(),
	})
}

// Cancel stops a running task. Returns false when the task is unknown.
func (m *Manager) Cancel(ctx context.Context, taskID string) (bool, error) {
	now := time.Now()

	m.mu.Lock()
	task, ok := m.tasks[taskID]
	if !ok {
		m.mu.Unlock()
		stored, err := m.repo.GetTask(ctx, taskID)
		if err != nil || stored == nil {
			return false, err
		}
		// Known only from a previous process; nothing is running.
		if !stored.Status.Terminal() {
			stored.Status = domain.TaskCancelled
			stored.FinishedAt = &now
			m.persist(ctx, stored)
		}
		return true, nil
	}

	if cancel, ok := m.cancels[taskID]; ok {
		cancel()
		delete(m.cancels, taskID)
	}
	if !task.Status.Terminal() {
		task.Status = domain.TaskCancelled
		task.FinishedAt = &now
	}
	updated := snapshot(task)
	m.mu.Unlock()

	m.persist(ctx, updated)
	m.hub.Send(taskID, map[string]any{
		"type":    "cancelled",
		"task_id": taskID,
		"message": "작업이 취소되었습니다",
	})
	return true, nil
}

// Cleanup prunes terminal tasks older than the retention window and
// returns how many were removed.
func (m *Manager) Cleanup(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-terminalTaskRetention)

	m.mu.Lock()
	removed := 0
	for id, task := range m.tasks {
		if task.Status.Terminal() && task.FinishedAt != nil && task.FinishedAt.Before(cutoff) {
			delete(m.tasks, id)
			delete(m.cancels, id)
			removed++
			m.hub.Close(id)
		}
	}
	m.mu.Unlock()

	deleted, err := m.repo.DeleteTerminalTasksBefore(ctx, cutoff)
	if err != nil {
		return removed, fmt.Errorf("cleanup tasks: %w", err)
	}
	if int(deleted) > removed {
		removed = int(deleted)
	}
	return removed, nil
}

func (m *Manager) persist(ctx context.Context, task *domain.Task) {
	if err := m.repo.UpsertTask(ctx, task); err != nil {
		slog.Warn("failed to persist task snapshot", "task_id", task.ID, "error", err)
	}
}

func snapshot(task *domain.Task) *domain.Task {
	copied := *task
	return &copied
}
