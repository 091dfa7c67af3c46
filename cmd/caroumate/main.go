// Package main is the entry point for the caroumate API server.
// It loads configuration, connects to the optional backing services, sets
// up routing, and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caroumate/internal/ai"
	"caroumate/internal/cache"
	"caroumate/internal/carousel"
	"caroumate/internal/config"
	"caroumate/internal/database"
	"caroumate/internal/handlers"
	"caroumate/internal/imaging"
	"caroumate/internal/media"
	"caroumate/internal/middleware"
	"caroumate/internal/persist"
	"caroumate/internal/raster"
	"caroumate/internal/render"
	"caroumate/internal/router"
	"caroumate/internal/storage"
	"caroumate/internal/store"
)

func main() {
	// Load configuration from .env and the environment.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text at debug level in development.
	var logger *slog.Logger
	if cfg.IsDev() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Persistence backend: Valkey with a per-user quota, or memory.
	var backend persist.Backend
	if cfg.HasValkey() {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		backend = cache.NewBackend(valkeyClient, cfg.HistoryQuota)
	} else {
		slog.Warn("valkey not configured, persistence is in memory")
		backend = persist.NewMemoryBackend(int(cfg.HistoryQuota))
	}

	opts := []carousel.Option{carousel.WithExportConcurrency(cfg.ExportConcurrency)}

	// Postgres record store (optional).
	if cfg.HasDatabase() {
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		opts = append(opts, carousel.WithRecords(store.NewRecords(db)))
	} else {
		slog.Warn("postgres not configured, records are not mirrored")
	}

	// S3-compatible archive delivery (optional).
	var linker handlers.ArchiveLinker
	if cfg.HasS3() {
		storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		if storageClient != nil {
			linker = storageClient
		}
	}
	if linker != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, archives are only streamed")
	}

	// libvips for upload optimisation.
	imaging.Startup(0)
	defer imaging.Shutdown()

	// Initialize the AI provider registry with all configured providers.
	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"gemini": {
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			ImageModel: cfg.GeminiImageModel,
			VideoModel: cfg.GeminiVideoModel,
		},
		"openai": {
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			ImageModel: cfg.OpenAIImageModel,
		},
	})

	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
	)

	fetcher := media.NewFetcher(30 * time.Second)
	painter := raster.New(raster.Options{Scale: cfg.ExportScale, Viewport: cfg.ExportViewport}, fetcher)
	svc := carousel.New(aiRegistry, persist.New(backend), painter, fetcher, opts...)

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize preview renderer", "error", err)
		os.Exit(1)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM, time.Minute)
	defer limiter.Stop()

	r := router.New(handlers.NewAPI(svc, renderer, linker), limiter)

	// WriteTimeout must accommodate video generation, which polls the
	// provider for up to a few minutes.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
