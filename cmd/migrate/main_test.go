package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/store"
	"github.com/govbuilder/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.UseNop()
	os.Exit(m.Run())
}

func TestRunMigrations(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, runMigrations(db))
	require.NoError(t, runMigrations(db))
	assert.True(t, db.Migrator().HasTable(&models.SyncRun{}))
}

func TestUpgradeProjects(t *testing.T) {
	fsys := store.OSFileSystem{}
	root, dataDir := t.TempDir(), t.TempDir()
	require.NoError(t, store.NewAppFiles(fsys, dataDir).SaveSettings(models.Settings{RootDirectory: root}))

	write := func(name, content string) {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, models.DocumentFileName), []byte(content), 0o644))
	}
	write("legacy", `{"name":"legacy","govData":{"statuses":[{"id":"s1","title":"Draft"}]}}`)
	write("bare", `{"name":"bare"}`)

	n, err := upgradeProjects(context.Background(), fsys, dataDir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = upgradeProjects(context.Background(), fsys, dataDir)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
