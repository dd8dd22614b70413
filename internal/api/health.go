package api

import (
	"context"
	"net/http"
	"time"
)

// HandleHealth reports service and database health plus task activity.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbHealthy := h.repo.Ping(ctx) == nil

	status := "healthy"
	database := "connected"
	code := http.StatusOK
	if !dbHealthy {
		status = "degraded"
		database = "disconnected"
		code = http.StatusServiceUnavailable
	}

	tasks, err := h.tasks.List(r.Context())
	activeTasks := 0
	if err == nil {
		for _, task := range tasks {
			if !task.Status.Terminal() {
				activeTasks++
			}
		}
	}

	JSON(w, code, map[string]any{
		"status":                status,
		"database":              database,
		"active_tasks":          activeTasks,
		"websocket_connections": h.hub.Len(),
		"uptime":                time.Since(h.startTime).Round(time.Second).String(),
		"server_start":          h.startTime.Format(time.RFC3339),
	})
}
