// Tuition Teacher - AI tutoring server
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sambhav874/tuition-teacher/internal/api"
	"github.com/sambhav874/tuition-teacher/internal/attachment"
	"github.com/sambhav874/tuition-teacher/internal/config"
	"github.com/sambhav874/tuition-teacher/internal/identity"
	"github.com/sambhav874/tuition-teacher/internal/live"
	"github.com/sambhav874/tuition-teacher/internal/llm"
	"github.com/sambhav874/tuition-teacher/internal/middleware"
	"github.com/sambhav874/tuition-teacher/internal/normalize"
	"github.com/sambhav874/tuition-teacher/internal/store"
	"github.com/sambhav874/tuition-teacher/internal/tutor"
	"github.com/sambhav874/tuition-teacher/web"
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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "provider", cfg.LLM.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// A missing key keeps the server up; turns answer with a configuration hint.
	var (
		generator   llm.Generator
		illustrator normalize.Illustrator
	)
	generator, illustrator, err = llm.New(ctx, cfg.LLMClientConfig())
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		slog.Warn("AI features disabled: no API key configured", "env", cfg.APIKeyEnv())
	case err != nil:
		slog.Error("Failed to initialize model client", "error", err)
		os.Exit(1)
	default:
		slog.Info("Model client ready", "model", generator.Model(), "illustrations", illustrator != nil)
	}

	conversationLogger, err := tutor.NewConversationLogger(tutor.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Warn("failed to close conversation logger", "error", closeErr)
		}
	}()

	// Initialize services.
	hub := live.NewHub(logger)
	defer hub.Close()

	svc := tutor.NewService(repo, tutor.Options{
		Generator:   generator,
		Illustrator: illustrator,
		Compressor: attachment.Compressor{
			MaxWidth:    cfg.Attachment.MaxWidth,
			JPEGQuality: cfg.Attachment.JPEGQuality,
		},
		Publisher:         hub,
		ConvLog:           conversationLogger,
		Logger:            logger,
		MissingKeyMessage: fmt.Sprintf("⚠️ **Missing API Key**: Please add your `%s` to `.env`.", cfg.APIKeyEnv()),
	})

	limiter := tutor.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Stop()

	// Initialize handlers.
	apiHandler := api.NewHandler(svc, api.Options{
		Provider:            cfg.LLM.Provider,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		Limiter:             limiter,
	})
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := live.NewWebSocketHandler(hub, svc, cfg.AllowedOrigins(), cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// Identity-scoped routes.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))
		apiHandler.RegisterRoutes(r)
		r.Get("/ws/sessions", wsHandler.ServeHTTP)
	})

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Model calls can take tens of seconds, and /ws/sessions is long-lived.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	store.StartCleanupWorker(ctx, repo, cfg.StateTTL, func(userID string) {
		svc.Forget(userID)
		hub.CloseUser(userID)
	})

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

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
