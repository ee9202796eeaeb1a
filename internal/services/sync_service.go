package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/govbuilder/engine/internal/govbuilt"
	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/repository"
	appErr "github.com/govbuilder/engine/pkg/errors"
	"github.com/govbuilder/engine/pkg/logger"
)

// SourceFactory builds the remote source for a base URL.
type SourceFactory func(baseURL string) (govbuilt.Source, error)

// HTTPSourceFactory returns a factory producing rate-limited HTTP sources.
func HTTPSourceFactory(timeout time.Duration, rps float64) SourceFactory {
	return func(baseURL string) (govbuilt.Source, error) {
		return govbuilt.NewHTTPSource(baseURL, govbuilt.WithTimeout(timeout), govbuilt.WithRateLimit(rps))
	}
}

// SyncOptions tunes one sync pass.
type SyncOptions struct {
	// BaseURL overrides the project's stagingUrl.
	BaseURL string
	// Source replaces the remote entirely (fixtures, tests).
	Source govbuilt.Source
	// Trigger is recorded in history: manual, api, worker, cli.
	Trigger string
	// Progress is called after each content type; it cannot affect the pass.
	Progress func(SyncProgress)
}

// SyncResult is the outcome for one content type. A merged record takes every
// remote field and keeps its local id. Case and license types also keep their
// local workflowId, and inspection types keep it unless the remote names a
// resolvable one.
type SyncResult struct {
	ContentType string `json:"contentType"`
	Success     bool   `json:"success"`
	Fetched     int    `json:"fetched"`
	Added       int    `json:"added"`
	Updated     int    `json:"updated"`
	// Unresolved lists remote ids referenced by this type that had no local match.
	Unresolved []string `json:"unresolved,omitempty"`
	// DependencyFetched is set when a dedicated fetch of a dependency was needed.
	DependencyFetched string `json:"dependencyFetched,omitempty"`
	Error             string `json:"error,omitempty"`
	ErrorCode         string `json:"errorCode,omitempty"`
}

// SyncReport is the outcome of a whole pass.
type SyncReport struct {
	RunID       string       `json:"runId,omitempty"`
	ProjectPath string       `json:"projectPath"`
	BaseURL     string       `json:"baseUrl"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
	Results     []SyncResult `json:"results"`
	Failed      int          `json:"failed"`
}

// SyncService reconciles a project's collections with a remote GovBuilt instance.
type SyncService interface {
	// Sync runs one sequential pass over every content type. It fails as a
	// whole only when no remote is configured; per-type failures are reported
	// in the results.
	Sync(ctx context.Context, sess *Session, opts SyncOptions) (*SyncReport, error)
	History(ctx context.Context, projectPath string, limit int) ([]models.SyncRun, error)
}

type syncService struct {
	factory SourceFactory
	runs    repository.SyncRunRepository
}

// NewSyncService builds the service; runs may be nil to skip history.
func NewSyncService(factory SourceFactory, runs repository.SyncRunRepository) SyncService {
	return &syncService{factory: factory, runs: runs}
}

var _ SyncService = (*syncService)(nil)

func (s *syncService) Sync(ctx context.Context, sess *Session, opts SyncOptions) (*SyncReport, error) {
	doc := sess.Document().Current()
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(doc.StagingURL)
	}

	src := opts.Source
	if src == nil {
		if baseURL == "" {
			return nil, appErr.New(appErr.CodeConfiguration, "remote base URL is not configured").
				WithMeta("project_path", sess.Dir())
		}
		var err error
		if src, err = s.factory(baseURL); err != nil {
			return nil, err
		}
	} else if baseURL == "" {
		baseURL = "fixture"
	}

	report := &SyncReport{ProjectPath: sess.Dir(), BaseURL: baseURL, StartedAt: time.Now().UTC()}
	logger.L().Info("sync started", zap.String("project_path", sess.Dir()), zap.String("base_url", baseURL))

	pass := &syncPass{
		ctx:      ctx,
		src:      src,
		repos:    sess.Repos,
		cache:    map[govbuilt.ContentType][]govbuilt.ContentItem{},
		produced: map[govbuilt.ContentType]int{},
	}
	total := len(govbuilt.SyncOrder)
	err := sess.Document().Batch(func() error {
		for i, ct := range govbuilt.SyncOrder {
			res := pass.run(ct)
			report.Results = append(report.Results, res)
			if !res.Success {
				report.Failed++
			}
			notify(opts.Progress, SyncProgress{
				ProjectPath: sess.Dir(), ContentType: string(ct), Index: i + 1, Total: total, Success: res.Success,
			})
		}
		return nil
	})
	report.FinishedAt = time.Now().UTC()
	notify(opts.Progress, SyncProgress{ProjectPath: sess.Dir(), ContentType: "Complete", Index: total, Total: total, Success: report.Failed == 0, Done: true})
	if err != nil {
		return report, err
	}

	s.record(ctx, report, opts.Trigger)
	logger.L().Info("sync finished",
		zap.String("project_path", sess.Dir()),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (s *syncService) History(ctx context.Context, projectPath string, limit int) ([]models.SyncRun, error) {
	if s.runs == nil {
		return []models.SyncRun{}, nil
	}
	return s.runs.ListRecent(ctx, projectPath, limit)
}

func (s *syncService) record(ctx context.Context, report *SyncReport, trigger string) {
	if s.runs == nil {
		return
	}
	results, err := json.Marshal(report.Results)
	if err != nil {
		logger.L().Warn("failed to encode sync results", zap.Error(err))
		return
	}
	if trigger == "" {
		trigger = "manual"
	}
	run := &models.SyncRun{
		ProjectPath: report.ProjectPath,
		BaseURL:     report.BaseURL,
		Trigger:     trigger,
		Succeeded:   len(report.Results) - report.Failed,
		Failed:      report.Failed,
		Results:     datatypes.JSON(results),
		StartedAt:   report.StartedAt,
		FinishedAt:  report.FinishedAt,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		logger.L().Warn("failed to record sync run", zap.String("project_path", report.ProjectPath), zap.Error(err))
		return
	}
	report.RunID = run.ID.String()
}

func notify(fn func(SyncProgress), p SyncProgress) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.L().Warn("progress callback panicked", zap.Any("panic", r))
		}
	}()
	fn(p)
}
