package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/pkg/config"
	"github.com/govbuilder/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.UseNop()
	os.Exit(m.Run())
}

const fixture = "../../internal/govbuilt/testdata/mock.yaml"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	return &config.Config{
		DataDir:      dataDir,
		DatabaseURL:  "sqlite://" + filepath.ToSlash(filepath.Join(dataDir, "history.db")),
		FetchTimeout: 5 * time.Second,
		FetchRPS:     10,
	}
}

// run executes one command line against a fresh app sharing cfg.
func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&app{cfg: cfg, out: &out})
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestProjects_CreateAndList(t *testing.T) {
	cfg := testConfig(t)
	parent := t.TempDir()

	out, err := run(t, cfg, "projects", "create", "Springfield", "--parent", parent)
	require.NoError(t, err)
	assert.Contains(t, out, "Springfield")
	assert.FileExists(t, filepath.Join(parent, "Springfield", models.DocumentFileName))

	out, err = run(t, cfg, "projects", "list", "-o", "json")
	require.NoError(t, err)
	var list []models.ProjectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, filepath.Join(parent, "Springfield"), list[0].Path)

	_, err = run(t, cfg, "projects", "create", "Springfield", "--parent", parent)
	assert.Error(t, err)
}

func TestProjects_CreateWithoutParent(t *testing.T) {
	_, err := run(t, testConfig(t), "projects", "create", "Orphan")
	assert.Error(t, err)
}

func TestProjects_RejectsUnknownFormat(t *testing.T) {
	_, err := run(t, testConfig(t), "projects", "list", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestSyncRun_FixtureThenEntities(t *testing.T) {
	cfg := testConfig(t)
	parent := t.TempDir()
	_, err := run(t, cfg, "projects", "create", "Demo", "--parent", parent)
	require.NoError(t, err)
	dir := filepath.Join(parent, "Demo")

	out, err := run(t, cfg, "sync", "run", dir, "--fixture", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "CaseStatus")
	assert.Contains(t, out, "AccountingDetails")

	out, err = run(t, cfg, "entities", "list", dir, "statuses", "-o", "json")
	require.NoError(t, err)
	var statuses []models.Status
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	assert.Len(t, statuses, 3)

	out, err = run(t, cfg, "entities", "list", dir, "statuses")
	require.NoError(t, err)
	assert.Contains(t, out, "Under Review")
	assert.Contains(t, out, "mock-case-status-2")

	out, err = run(t, cfg, "sync", "history", "-o", "json")
	require.NoError(t, err)
	var runs []models.SyncRun
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "cli", runs[0].Trigger)
	assert.Equal(t, dir, runs[0].ProjectPath)
}

func TestEntities_UnknownCollection(t *testing.T) {
	cfg := testConfig(t)
	parent := t.TempDir()
	_, err := run(t, cfg, "projects", "create", "Demo", "--parent", parent)
	require.NoError(t, err)

	_, err = run(t, cfg, "entities", "list", filepath.Join(parent, "Demo"), "widgets")
	assert.Error(t, err)
}

func TestProjectMigrate(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	legacy := `{"name":"legacy","govData":{"statuses":[{"id":"s1","title":"Open"}]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, models.DocumentFileName), []byte(legacy), 0o644))

	out, err := run(t, cfg, "project", "migrate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "upgraded")

	out, err = run(t, cfg, "project", "migrate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "already current")
}

func TestSyncEnqueue_RequiresRedis(t *testing.T) {
	_, err := run(t, testConfig(t), "sync", "enqueue", t.TempDir())
	assert.ErrorContains(t, err, "REDIS_ADDR")
}

func TestToken(t *testing.T) {
	cfg := testConfig(t)
	_, err := run(t, cfg, "token")
	assert.ErrorContains(t, err, "API_SECRET")

	cfg.APISecret = "0123456789abcdef0123"
	out, err := run(t, cfg, "token", "--subject", "tester")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(string(bytes.TrimSpace([]byte(out))), claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.APISecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "tester", claims.Subject)
}
