package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/queue/tasks"
	"github.com/govbuilder/engine/internal/repository"
	"github.com/govbuilder/engine/internal/services"
	"github.com/govbuilder/engine/internal/store"
	"github.com/govbuilder/engine/pkg/config"
	"github.com/govbuilder/engine/pkg/database"
	"github.com/govbuilder/engine/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.QueueEnabled() {
		log.Fatal("REDIS_ADDR is required for the sync worker")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	_ = rdb.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	}

	// Sync passes against one project must not overlap.
	srv := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 1})

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL, database.Options{Verbose: cfg.AppEnv != "production", MaxRetries: 5})
	if err != nil {
		logger.L().Fatal("failed to open database", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.SyncRun{}); err != nil {
		logger.L().Fatal("failed to migrate sync history", zap.Error(err))
	}

	syncSvc := services.NewSyncService(
		services.HTTPSourceFactory(cfg.FetchTimeout, cfg.FetchRPS),
		repository.NewSyncRunRepository(db),
	)
	handler := tasks.NewSyncTaskHandler(store.OSFileSystem{}, syncSvc, nil)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeProjectSync, handler.HandleSync)

	var scheduler *asynq.Scheduler
	if cfg.SyncSchedule != "" && cfg.SyncProjectPath != "" {
		task, err := tasks.NewSyncTask(tasks.SyncPayload{ProjectPath: cfg.SyncProjectPath, Trigger: "schedule"})
		if err != nil {
			logger.L().Fatal("invalid scheduled sync", zap.Error(err))
		}
		scheduler = asynq.NewScheduler(redisOpt, nil)
		entryID, err := scheduler.Register(cfg.SyncSchedule, task)
		if err != nil {
			logger.L().Fatal("failed to register sync schedule", zap.String("schedule", cfg.SyncSchedule), zap.Error(err))
		}
		if err := scheduler.Start(); err != nil {
			logger.L().Fatal("failed to start scheduler", zap.Error(err))
		}
		logger.L().Info("scheduled sync registered",
			zap.String("entry_id", entryID),
			zap.String("schedule", cfg.SyncSchedule),
			zap.String("project_path", cfg.SyncProjectPath),
		)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("asynq worker starting", zap.Int("concurrency", 1))
		if err := srv.Run(mux); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.L().Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.L().Error("worker stopped with error", zap.Error(err))
	}

	if scheduler != nil {
		scheduler.Shutdown()
	}
	// Allow in-flight tasks to finish gracefully
	srv.Shutdown()
}
