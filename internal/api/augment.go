package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kje0316/persona-signal-welfare/internal/augment"
	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

// downloadMediaTypes maps output file types to their content type.
var downloadMediaTypes = map[string]string{
	"personas":          "application/json",
	"augmented_data":    "text/csv",
	"evaluation_report": "text/plain",
}

// maxUploadBytes bounds multipart upload parsing.
const maxUploadBytes = 100 << 20

// HandleUploadStructured accepts a single tabular dataset upload.
func (h *Handler) HandleUploadStructured(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	fileID, uploaded, err := h.uploader.SaveStructured(file, header.Filename)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"file_id":   fileID,
		"filename":  uploaded.Filename,
		"size":      uploaded.Size,
		"file_path": uploaded.FilePath,
	})
}

// HandleUploadKnowledge accepts a batch of knowledge documents.
// Unsupported files in the batch are skipped, not rejected.
func (h *Handler) HandleUploadKnowledge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		Error(w, http.StatusBadRequest, "files field is required")
		return
	}

	batchID, saved, err := h.uploader.SaveKnowledge(r.MultipartForm.File["files"])
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"batch_id": batchID,
		"files":    saved,
		"count":    len(saved),
	})
}

type startAugmentationRequest struct {
	StructuredFilePath string         `json:"structured_file_path"`
	StructuredFileID   string         `json:"structured_file_id"`
	KnowledgeFilePaths []string       `json:"knowledge_file_paths"`
	KnowledgeBatchID   string         `json:"knowledge_batch_id"`
	Config             augment.Config `json:"config"`
}

// HandleStartAugmentation creates a task and launches the pipeline. The
// structured input may be named by path (query or body) or by upload id.
func (h *Handler) HandleStartAugmentation(w http.ResponseWriter, r *http.Request) {
	var req startAugmentationRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if v := r.URL.Query().Get("structured_file_path"); v != "" {
		req.StructuredFilePath = v
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
	if structuredPath == "" {
		Error(w, http.StatusBadRequest, "structured data file is required")
		return
	}
	if _, err := os.Stat(structuredPath); err != nil {
		Error(w, http.StatusNotFound, "structured file not found")
		return
	}

	knowledgePaths := req.KnowledgeFilePaths
	if len(knowledgePaths) == 0 && req.KnowledgeBatchID != "" {
		paths, err := h.uploader.KnowledgeBatchPaths(req.KnowledgeBatchID)
		if err != nil {
			Error(w, http.StatusNotFound, "knowledge batch not found")
			return
		}
		knowledgePaths = paths
	}

	task, err := h.tasks.Create(r.Context())
	if err != nil {
		slog.Error("failed to create augmentation task", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.pipeline.Launch(task, structuredPath, knowledgePaths, req.Config)

	JSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"task_id":       task.ID,
		"status":        task.Status,
		"message":       "데이터 증강 작업이 시작되었습니다",
		"websocket_url": "/ws/" + task.ID,
	})
}

// HandleTaskStatus reports a task's progress snapshot.
func (h *Handler) HandleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	resp := map[string]any{
		"task_id":       task.ID,
		"status":        task.Status,
		"phase":         task.Status.Phase(),
		"progress":      task.Progress,
		"current_stage": task.CurrentStage,
		"message":       task.Message,
		"started_at":    task.StartedAt,
	}
	if task.Error != "" {
		resp["error"] = task.Error
	}
	if task.FinishedAt != nil {
		resp["finished_at"] = task.FinishedAt
	}
	if !task.Status.Terminal() && task.Progress > 0 {
		elapsed := time.Since(task.StartedAt)
		remaining := elapsed * time.Duration(100-task.Progress) / time.Duration(task.Progress)
		resp["estimated_completion"] = time.Now().Add(remaining)
	}

	JSON(w, http.StatusOK, resp)
}

// HandleTaskResults returns a completed task's result summary.
func (h *Handler) HandleTaskResults(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if task.Status != domain.TaskCompleted {
		Error(w, http.StatusBadRequest, "task is not completed")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"task_id":      task.ID,
		"results":      task.Results,
		"output_files": task.OutputFiles,
	})
}

// HandleTaskDownload streams one of a completed task's output files.
func (h *Handler) HandleTaskDownload(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	if task.Status != domain.TaskCompleted {
		Error(w, http.StatusBadRequest, "task is not completed")
		return
	}

	fileType := chi.URLParam(r, "file_type")
	mediaType, ok := downloadMediaTypes[fileType]
	if !ok {
		Error(w, http.StatusBadRequest, "unknown file type")
		return
	}
	path, ok := task.OutputFiles[fileType]
	if !ok {
		Error(w, http.StatusNotFound, "output file not available")
		return
	}

	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(path)+"\"")
	http.ServeFile(w, r, path)
}

// HandleCancelTask stops a running augmentation task.
func (h *Handler) HandleCancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	found, err := h.tasks.Cancel(r.Context(), taskID)
	if err != nil {
		slog.Error("failed to cancel task", "task_id", taskID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to cancel task")
		return
	}
	if !found {
		Error(w, http.StatusNotFound, "task not found")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"task_id": taskID,
		"message": "작업이 취소되었습니다",
	})
}

// HandleSystemTasks lists every known task with the live websocket count.
func (h *Handler) HandleSystemTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		slog.Error("failed to list tasks", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	JSON(w, http.StatusOK, map[string]any{
		"total_tasks":       len(tasks),
		"active_websockets": h.hub.Len(),
		"tasks":             tasks,
	})
}

// HandleSystemCleanup prunes terminal tasks past the retention window.
func (h *Handler) HandleSystemCleanup(w http.ResponseWriter, r *http.Request) {
	cleaned, err := h.tasks.Cleanup(r.Context())
	if err != nil {
		slog.Error("task cleanup failed", "error", err)
		Error(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"cleaned_tasks":   cleaned,
		"remaining_tasks": len(tasks),
	})
}

func (h *Handler) loadTask(w http.ResponseWriter, r *http.Request) (*domain.Task, bool) {
	taskID := chi.URLParam(r, "task_id")
	task, err := h.tasks.Get(r.Context(), taskID)
	if err != nil {
		slog.Error("failed to load task", "task_id", taskID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load task")
		return nil, false
	}
	if task == nil {
		Error(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return task, true
}
