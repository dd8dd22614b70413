package api

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// The data-aug routes are the flat-response aliases used by the upload
// wizard. They reuse the augmentation handlers' logic but answer in the
// wizard's simpler shapes.

// HandleDataAugStatus reports a task snapshot in the wizard's flat shape.
func (h *Handler) HandleDataAugStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"task_id":  task.ID,
		"status":   task.Status,
		"progress": task.Progress,
		"stage":    task.CurrentStage,
		"message":  task.Message,
		"error":    task.Error,
	})
}

// HandleDataAugDownload streams the augmented dataset, the wizard's only
// download target.
func (h *Handler) HandleDataAugDownload(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	path, ok := task.OutputFiles["augmented_data"]
	if !ok {
		Error(w, http.StatusNotFound, "augmented data not available")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(path)+"\"")
	http.ServeFile(w, r, path)
}

// HandleDataAugResults returns the wizard's result view for a task.
func (h *Handler) HandleDataAugResults(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"task_id": chi.URLParam(r, "task_id"),
		"status":  task.Status,
		"results": task.Results,
	})
}
