// Persona Signal - Welfare Consultation Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/kje0316/persona-signal-welfare/internal/api"
	"github.com/kje0316/persona-signal-welfare/internal/augment"
	"github.com/kje0316/persona-signal-welfare/internal/config"
	"github.com/kje0316/persona-signal-welfare/internal/middleware"
	"github.com/kje0316/persona-signal-welfare/internal/session"
	"github.com/kje0316/persona-signal-welfare/internal/store"
	"github.com/kje0316/persona-signal-welfare/internal/welfare"
	"github.com/kje0316/persona-signal-welfare/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "simulate_pipeline", cfg.SimulatePipeline)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	catalog, err := welfare.LoadFile(cfg.WelfareDataPath, web.WelfareData())
	if err != nil {
		slog.Error("Failed to load welfare catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Welfare catalog loaded", "services", catalog.Len())

	uploader, err := augment.NewUploader(cfg.UploadDir)
	if err != nil {
		slog.Error("Failed to initialize upload directory", "error", err)
		os.Exit(1)
	}

	// Initialize services.
	hub := augment.NewHub()
	tasks := augment.NewManager(repo, hub)
	pipeline := augment.NewPipeline(tasks, cfg.ResultDir, cfg.SimulatePipeline, cfg.SimulateStepWait)
	sessions := session.NewManager(repo)

	// Initialize handlers.
	handler := api.NewHandler(cfg, repo, sessions, catalog, tasks, pipeline, uploader, hub)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	corsOrigins := []string{cfg.FrontendURL}
	if cfg.FrontendURL == "" {
		corsOrigins = []string{"*"}
	}
	r.Use(middleware.CORS(corsOrigins))

	handler.RegisterRoutes(r)

	// Create server.
	// Note: the task progress websocket stays open for the length of a
	// pipeline run, so writes must not time out.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start TTL worker.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartTTLWorker(ctx, repo, cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
