package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kje0316/persona-signal-welfare/internal/augment"
)

// RegisterRoutes registers the versioned API surface.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", h.HandleChat)
			r.Post("/session", h.HandleCreateSession)
			r.Get("/session/{id}", h.HandleGetSession)
			r.Delete("/session/{id}", h.HandleDeleteSession)
			r.Put("/session/{id}/profile", h.HandleAttachProfile)
			r.Put("/session/{id}/phase", h.HandleAdvancePhase)
			r.Get("/history/{id}", h.HandleChatHistory)
			r.Get("/assessment/{id}", h.HandleAssessment)
		})

		r.Route("/welfare", func(r chi.Router) {
			r.Get("/services", h.HandleWelfareSearch)
			r.Get("/income-support", h.HandleIncomeSupport)
		})

		r.Route("/personas", func(r chi.Router) {
			r.Get("/", h.HandleListPersonas)
			r.Post("/generate", h.HandleGeneratePersonas)
		})

		r.Route("/upload", func(r chi.Router) {
			r.Post("/structured-data", h.HandleUploadStructured)
			r.Post("/knowledge-files", h.HandleUploadKnowledge)
		})

		r.Route("/augmentation", func(r chi.Router) {
			r.Post("/start", h.HandleStartAugmentation)
			r.Get("/status/{task_id}", h.HandleTaskStatus)
			r.Get("/results/{task_id}", h.HandleTaskResults)
			r.Get("/download/{task_id}/{file_type}", h.HandleTaskDownload)
			r.Delete("/cancel/{task_id}", h.HandleCancelTask)
		})

		// Aliases used by the data upload wizard.
		r.Route("/data-aug", func(r chi.Router) {
			r.Post("/upload-structured", h.HandleUploadStructured)
			r.Post("/upload-knowledge", h.HandleUploadKnowledge)
			r.Post("/start", h.HandleStartAugmentation)
			r.Get("/status/{task_id}", h.HandleDataAugStatus)
			r.Get("/results/{task_id}", h.HandleDataAugResults)
			r.Get("/download/{task_id}", h.HandleDataAugDownload)
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/tasks", h.HandleSystemTasks)
			r.Delete("/cleanup", h.HandleSystemCleanup)
		})
	})

	// Unversioned catalog search kept for the filter page.
	r.Get("/welfare-services", h.HandleWelfareSearch)

	// Task progress push.
	wsHandler := augment.NewWSHandler(h.hub, h.cfg.IsDevelopment())
	r.Get("/ws/{task_id}", wsHandler.ServeHTTP)

	// The raw catalog is also served as a static dataset.
	r.Get("/welfare_data.json", h.HandleWelfareData)
}

// HandleWelfareData serves the raw catalog JSON.
func (h *Handler) HandleWelfareData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(h.catalog.Raw())
}
