package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/kje0316/persona-signal-welfare/internal/augment"
	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

type generatePersonasRequest struct {
	StructuredFilePath string `json:"structured_file_path"`
	StructuredFileID   string `json:"structured_file_id"`
	Count              int    `json:"count"`
}

// HandleGeneratePersonas derives a persona set from an uploaded dataset
// and caches it as the latest set. Without a source the simulated set is
// returned.
func (h *Handler) HandleGeneratePersonas(w http.ResponseWriter, r *http.Request) {
	var req generatePersonasRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	structuredPath := req.StructuredFilePath
	if structuredPath == "" && req.StructuredFileID != "" {
		path, err := h.uploader.StructuredPath(req.StructuredFileID)
		if err != nil {
			Error(w, http.StatusNotFound, "structured file not found")
			return
		}
		structuredPath = path
	}

	personas, err := augment.GeneratePersonas(structuredPath, req.Count)
	if err != nil {
		slog.Error("failed to generate personas", "error", err)
		Error(w, http.StatusInternalServerError, "failed to generate personas")
		return
	}

	now := time.Now()
	h.personaMu.Lock()
	h.personaSet = personas
	h.personaAt = now
	h.personaMu.Unlock()

	JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  fmt.Sprintf("%d개 페르소나 생성 완료", len(personas)),
		"personas": personas,
		"metadata": map[string]any{
			"cached":       false,
			"generated_at": now,
		},
	})
}

// HandleListPersonas returns the most recent persona set: the cache from
// an explicit generation request, falling back to the newest completed
// augmentation task's persona output.
func (h *Handler) HandleListPersonas(w http.ResponseWriter, r *http.Request) {
	h.personaMu.Lock()
	cached := h.personaSet
	cachedAt := h.personaAt
	h.personaMu.Unlock()

	if cached != nil {
		JSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"message":  fmt.Sprintf("캐시된 %d개 페르소나 반환", len(cached)),
			"personas": cached,
			"metadata": map[string]any{
				"cached":       true,
				"generated_at": cachedAt,
			},
		})
		return
	}

	personas, taskID, finishedAt, err := h.latestTaskPersonas(r.Context())
	if err != nil {
		slog.Error("failed to load persona output", "error", err)
		Error(w, http.StatusInternalServerError, "failed to load personas")
		return
	}
	if personas == nil {
		JSON(w, http.StatusOK, map[string]any{
			"success":  false,
			"message":  "생성된 페르소나가 없습니다. /api/v1/personas/generate를 사용해주세요",
			"personas": []map[string]any{},
		})
		return
	}

	metadata := map[string]any{
		"cached":  false,
		"task_id": taskID,
	}
	if finishedAt != nil {
		metadata["generated_at"] = finishedAt
	}
	JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  fmt.Sprintf("%d개 페르소나 반환", len(personas)),
		"personas": personas,
		"metadata": metadata,
	})
}

// latestTaskPersonas reads the persona output of the most recently
// finished completed task. Returns nils when no task has one.
func (h *Handler) latestTaskPersonas(ctx context.Context) ([]map[string]any, string, *time.Time, error) {
	tasks, err := h.tasks.List(ctx)
	if err != nil {
		return nil, "", nil, err
	}

	var newest *domain.Task
	for _, task := range tasks {
		if task.Status != domain.TaskCompleted || task.OutputFiles["personas"] == "" {
			continue
		}
		if newest == nil {
			newest = task
			continue
		}
		if task.FinishedAt != nil && (newest.FinishedAt == nil || task.FinishedAt.After(*newest.FinishedAt)) {
			newest = task
		}
	}
	if newest == nil {
		return nil, "", nil, nil
	}

	data, err := os.ReadFile(newest.OutputFiles["personas"])
	if err != nil {
		return nil, "", nil, fmt.Errorf("read persona output: %w", err)
	}
	var personas []map[string]any
	if err := json.Unmarshal(data, &personas); err != nil {
		return nil, "", nil, fmt.Errorf("decode persona output: %w", err)
	}
	return personas, newest.ID, newest.FinishedAt, nil
}
