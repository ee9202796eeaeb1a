package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/services"
	"github.com/govbuilder/engine/internal/store"
	appErr "github.com/govbuilder/engine/pkg/errors"
	"github.com/govbuilder/engine/pkg/logger"
)

// TypeProjectSync is the asynq task type for a headless sync pass.
const TypeProjectSync = "project:sync"

// SyncPayload is the task payload for project sync tasks.
type SyncPayload struct {
	ProjectPath string `json:"project_path"`
	// BaseURL overrides the project's stagingUrl when set.
	BaseURL string `json:"base_url,omitempty"`
	Trigger string `json:"trigger,omitempty"`
}

// NewSyncTask builds a project sync task. A pass is not retried: the next
// scheduled run is the retry.
func NewSyncTask(p SyncPayload) (*asynq.Task, error) {
	if strings.TrimSpace(p.ProjectPath) == "" {
		return nil, appErr.New(appErr.CodeValidation, "project path is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode sync payload")
	}
	return asynq.NewTask(TypeProjectSync, data, asynq.MaxRetry(0), asynq.Timeout(30*time.Minute)), nil
}

// SyncTaskHandler runs sync passes for queued tasks.
type SyncTaskHandler struct {
	fs      store.FileSystem
	syncSvc services.SyncService
	hub     *services.ProgressHub
}

// NewSyncTaskHandler builds the handler; hub may be nil.
func NewSyncTaskHandler(fsys store.FileSystem, syncSvc services.SyncService, hub *services.ProgressHub) *SyncTaskHandler {
	return &SyncTaskHandler{fs: fsys, syncSvc: syncSvc, hub: hub}
}

func (h *SyncTaskHandler) HandleSync(ctx context.Context, t *asynq.Task) error {
	var p SyncPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid sync task payload", zap.Error(err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	logger.L().Info("handling sync task", zap.String("project_path", p.ProjectPath))

	sess, err := services.OpenSession(h.fs, p.ProjectPath)
	if err != nil {
		logger.L().Error("open project failed", zap.String("project_path", p.ProjectPath), zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	trigger := p.Trigger
	if trigger == "" {
		trigger = "worker"
	}
	opts := services.SyncOptions{BaseURL: p.BaseURL, Trigger: trigger}
	if h.hub != nil {
		opts.Progress = h.hub.Publish
	}

	report, err := h.syncSvc.Sync(ctx, sess, opts)
	if err != nil {
		logger.L().Error("sync task failed", zap.String("project_path", p.ProjectPath), zap.Error(err))
		if appErr.IsCode(err, appErr.CodeConfiguration) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	logger.L().Info("sync task completed",
		zap.String("project_path", p.ProjectPath),
		zap.String("run_id", report.RunID),
		zap.Int("failed", report.Failed),
	)
	return nil
}
