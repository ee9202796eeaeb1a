package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/govbuilder/engine/internal/models"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

const defaultRunLimit = 20

type SyncRunRepository interface {
	BaseRepository[models.SyncRun]
	// ListRecent returns the newest runs first; an empty projectPath lists every project.
	ListRecent(ctx context.Context, projectPath string, limit int) ([]models.SyncRun, error)
}

type syncRunRepository struct {
	BaseRepository[models.SyncRun]
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{BaseRepository: NewBaseRepository[models.SyncRun](db), db: db}
}

func (r *syncRunRepository) ListRecent(ctx context.Context, projectPath string, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	q := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if projectPath != "" {
		q = q.Where("project_path = ?", projectPath)
	}
	var out []models.SyncRun
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list sync runs failed")
	}
	return out, nil
}
