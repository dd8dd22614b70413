// Package api provides HTTP handlers for the welfare consultation API.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/kje0316/persona-signal-welfare/internal/augment"
	"github.com/kje0316/persona-signal-welfare/internal/config"
	"github.com/kje0316/persona-signal-welfare/internal/session"
	"github.com/kje0316/persona-signal-welfare/internal/store"
	"github.com/kje0316/persona-signal-welfare/internal/welfare"
)

// Handler provides common handler utilities and shared dependencies.
type Handler struct {
	cfg      *config.Config
	repo     store.Repository
	sessions *session.Manager
	catalog  *welfare.Catalog
	tasks    *augment.Manager
	pipeline *augment.Pipeline
	uploader *augment.Uploader
	hub      *augment.Hub

	startTime time.Time

	// Latest explicitly generated persona set.
	personaMu  sync.Mutex
	personaSet []map[string]any
	personaAt  time.Time
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(
	cfg *config.Config,
	repo store.Repository,
	sessions *session.Manager,
	catalog *welfare.Catalog,
	tasks *augment.Manager,
	pipeline *augment.Pipeline,
	uploader *augment.Uploader,
	hub *augment.Hub,
) *Handler {
	return &Handler{
		cfg:       cfg,
		repo:      repo,
		sessions:  sessions,
		catalog:   catalog,
		tasks:     tasks,
		pipeline:  pipeline,
		uploader:  uploader,
		hub:       hub,
		startTime: time.Now(),
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
