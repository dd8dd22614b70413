package domain

import (
	"time"
)

// TaskStatus is the backend status vocabulary for long-running
// augmentation jobs.
type TaskStatus string

const (
	TaskPending            TaskStatus = "pending"
	TaskUploading          TaskStatus = "uploading"
	TaskAnalyzing          TaskStatus = "analyzing"
	TaskClustering         TaskStatus = "clustering"
	TaskGeneratingPersonas TaskStatus = "generating_personas"
	TaskAugmenting         TaskStatus = "augmenting"
	TaskEvaluating         TaskStatus = "evaluating"
	TaskCompleted          TaskStatus = "completed"
	TaskFailed             TaskStatus = "failed"
	TaskCancelled          TaskStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// Phase maps the backend status vocabulary to the coarse client-side
// phase enum used by progress displays.
func (s TaskStatus) Phase() string {
	switch s {
	case TaskClustering, TaskGeneratingPersonas:
		return "generating"
	case TaskAugmenting:
		return "augmenting"
	case TaskCompleted, TaskFailed, TaskCancelled:
		return "completed"
	default:
		return "analyzing"
	}
}

// Task mirrors the latest snapshot of a backend augmentation job.
// Progress is monotonically non-decreasing while the status is not
// terminal.
type Task struct {
	ID           string            `json:"task_id"`
	Status       TaskStatus        `json:"status"`
	Progress     int               `json:"progress"`
	CurrentStage string            `json:"current_stage"`
	Message      string            `json:"message,omitempty"`
	Results      map[string]any    `json:"results,omitempty"`
	OutputFiles  map[string]string `json:"output_files,omitempty"`
	Error        string            `json:"error,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
}
