package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/api"
	"github.com/govbuilder/engine/internal/api/handlers"
	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/repository"
	"github.com/govbuilder/engine/internal/services"
	"github.com/govbuilder/engine/internal/store"
	"github.com/govbuilder/engine/pkg/config"
	"github.com/govbuilder/engine/pkg/database"
	"github.com/govbuilder/engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting GovBuilder engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("data_dir", cfg.DataDir),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sync history database
	db, err := database.Open(ctx, cfg.DatabaseURL, database.Options{Verbose: cfg.AppEnv != "production", MaxRetries: 3})
	if err != nil {
		log.Fatal("Failed to open sync history database", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.SyncRun{}); err != nil {
		log.Fatal("Failed to migrate sync history", zap.Error(err))
	}

	fsys := store.OSFileSystem{}
	projects := services.NewProjectService(fsys, store.NewAppFiles(fsys, cfg.DataDir))
	syncSvc := services.NewSyncService(
		services.HTTPSourceFactory(cfg.FetchTimeout, cfg.FetchRPS),
		repository.NewSyncRunRepository(db),
	)

	var queue handlers.Enqueuer
	if cfg.QueueEnabled() {
		client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		queue = client
	}

	if cfg.APISecret == "" {
		log.Warn("API_SECRET not set, local API is unauthenticated")
	}

	router := api.NewRouter(api.Dependencies{
		HMACSecret: []byte(cfg.APISecret),
		DB:         db,
		Projects:   projects,
		Sync:       syncSvc,
		Hub:        services.NewProgressHub(),
		Queue:      queue,
	})

	// Keep discovery fresh while the root directory is configured.
	go func() {
		err := projects.WatchRoot(ctx, func(found []models.ProjectSummary) {
			log.Info("root directory changed", zap.Int("projects", len(found)))
		})
		if err != nil {
			log.Info("root directory not watched", zap.Error(err))
		}
	}()

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// a sync pass runs inside its request
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
