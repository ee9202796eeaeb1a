package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/govbuilder/engine/internal/models"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SyncRun{}))
	return db
}

func TestSyncRunRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncRunRepository(newTestDB(t))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, path := range []string{"/a", "/b", "/a"} {
		run := &models.SyncRun{
			ProjectPath: path,
			BaseURL:     "https://staging.test",
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
			FinishedAt:  base.Add(time.Duration(i)*time.Minute + time.Second),
			Results:     datatypes.JSON(`[{"contentType":"CaseStatus","count":2}]`),
		}
		require.NoError(t, repo.Create(ctx, run))
		assert.NotEmpty(t, run.ID)
	}

	all, err := repo.ListRecent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].StartedAt.After(all[1].StartedAt))

	onlyA, err := repo.ListRecent(ctx, "/a", 1)
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, "/a", onlyA[0].ProjectPath)
	assert.True(t, base.Add(2*time.Minute).Equal(onlyA[0].StartedAt))

	var got models.SyncRun
	require.NoError(t, repo.GetByID(ctx, onlyA[0].ID, &got))
	assert.JSONEq(t, `[{"contentType":"CaseStatus","count":2}]`, string(got.Results))

	require.NoError(t, repo.Delete(ctx, got.ID))
	err = repo.Delete(ctx, got.ID)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}
