// Agentic scam-honeypot server.
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
	"github.com/honeypot-ai/honeypot-server/internal/agent"
	"github.com/honeypot-ai/honeypot-server/internal/api"
	"github.com/honeypot-ai/honeypot-server/internal/auth"
	"github.com/honeypot-ai/honeypot-server/internal/callback"
	"github.com/honeypot-ai/honeypot-server/internal/config"
	"github.com/honeypot-ai/honeypot-server/internal/feed"
	"github.com/honeypot-ai/honeypot-server/internal/middleware"
	"github.com/honeypot-ai/honeypot-server/internal/pipeline"
	"github.com/honeypot-ai/honeypot-server/internal/store"
	"github.com/honeypot-ai/honeypot-server/web"
	"github.com/joho/godotenv"
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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

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

	// Gemini engine (optional). Without a key the pipeline still runs on
	// its fallback replies.
	var engine agent.Engine
	if cfg.AIEnabled() {
		ge, err := agent.NewGemini(context.Background(), cfg.GeminiAPIKey,
			agent.WithModel(cfg.GeminiModel),
			agent.WithTimeout(cfg.ModelTimeout))
		if err != nil {
			slog.Error("Failed to initialize Gemini client", "error", err)
			os.Exit(1)
		}
		engine = ge
		slog.Info("Gemini engine initialized", "model", cfg.GeminiModel)
	} else {
		slog.Warn("GEMINI_API_KEY not set, AI features disabled")
	}
	ai := agent.NewService(engine)

	engLog, err := agent.NewEngagementLogger(agent.EngagementLogConfig{
		Enabled:       cfg.EngagementLog.Enabled,
		Dir:           cfg.EngagementLog.Dir,
		GlobalEnabled: cfg.EngagementLog.GlobalEnabled,
		GlobalPath:    cfg.EngagementLog.GlobalPath,
		QueueSize:     cfg.EngagementLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize engagement logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := engLog.Close(); closeErr != nil {
			slog.Error("Failed to close engagement logger", "error", closeErr)
		}
	}()

	// Initialize services.
	callbacks := callback.New(cfg.CallbackURL, cfg.CallbackTimeout)
	hub := feed.NewHub()
	pipe := pipeline.New(ai, repo, callbacks, hub, engLog)

	// Initialize handlers.
	handler := api.NewHandler(pipe, repo, callbacks)
	wsHandler := feed.NewWebSocketHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	handler.RegisterRoutes(r, auth.Middleware(cfg.APIKey))

	// WebSocket live feed for the dashboard.
	r.Get("/ws/feed", wsHandler.ServeHTTP)

	// Serve embedded dashboard (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket feed connections stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store.StartRetentionWorker(ctx, repo, cfg.SessionTTL)
	slog.Info("Retention worker started", "session_ttl", cfg.SessionTTL)

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

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
