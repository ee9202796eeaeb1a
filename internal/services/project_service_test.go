package services

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/store"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

func newProjectService(t *testing.T) (*projectService, string) {
	t.Helper()
	root := t.TempDir()
	files := store.NewAppFiles(store.OSFileSystem{}, t.TempDir())
	svc := NewProjectService(store.OSFileSystem{}, files).(*projectService)
	_, err := svc.UpdateSettings(context.Background(), models.Settings{RootDirectory: root})
	require.NoError(t, err)
	return svc, root
}

func TestProjectService_Create(t *testing.T) {
	ctx := context.Background()
	svc, root := newProjectService(t)

	sess, err := svc.Create(ctx, "  Springfield  ", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Springfield"), sess.Dir())
	assert.Equal(t, "Springfield", sess.Document().Current().Name)
	assert.FileExists(t, filepath.Join(root, "Springfield", models.DocumentFileName))

	recent := svc.Recent(ctx)
	require.Len(t, recent, 1)
	assert.Equal(t, sess.Dir(), recent[0].Path)

	_, err = svc.Create(ctx, "Springfield", "")
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict))

	for _, bad := range []string{"", "   ", "a/b", ".."} {
		_, err = svc.Create(ctx, bad, root)
		assert.True(t, appErr.IsCode(err, appErr.CodeValidation), bad)
	}
}

func TestProjectService_CreateWithoutRoot(t *testing.T) {
	files := store.NewAppFiles(store.OSFileSystem{}, t.TempDir())
	svc := NewProjectService(store.OSFileSystem{}, files)
	_, err := svc.Create(context.Background(), "p", "")
	assert.True(t, appErr.IsCode(err, appErr.CodeConfiguration))

	_, err = svc.Scan(context.Background())
	assert.True(t, appErr.IsCode(err, appErr.CodeConfiguration))
}

func TestProjectService_OpenAndForget(t *testing.T) {
	ctx := context.Background()
	svc, root := newProjectService(t)

	_, err := svc.Open(ctx, root)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotAProject))

	dir := filepath.Join(root, "legacy")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, models.DocumentFileName), []byte(`{"govData":{}}`), 0o644))

	sess, err := svc.Open(ctx, dir)
	require.NoError(t, err)
	assert.NotNil(t, sess.Document().Build())

	recent := svc.Recent(ctx)
	require.Len(t, recent, 1)
	assert.Equal(t, "legacy", recent[0].Name)

	_, err = svc.Open(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, svc.Recent(ctx), 1)

	require.NoError(t, svc.Forget(ctx, dir))
	assert.Empty(t, svc.Recent(ctx))
}

func TestProjectService_Scan(t *testing.T) {
	ctx := context.Background()
	svc, root := newProjectService(t)

	for _, name := range []string{"beta", "Alpha", "gamma"} {
		_, err := svc.Create(ctx, name, "")
		require.NoError(t, err)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-project"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "broken"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken", models.DocumentFileName), []byte(`{oops`), 0o644))

	projects, err := svc.Scan(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Alpha", "beta", "gamma"}, names)
}

func TestProjectService_UpdateSettingsRejectsMissingRoot(t *testing.T) {
	svc, _ := newProjectService(t)
	_, err := svc.UpdateSettings(context.Background(), models.Settings{RootDirectory: filepath.Join(t.TempDir(), "missing")})
	assert.True(t, appErr.IsCode(err, appErr.CodeValidation))

	cleared, err := svc.UpdateSettings(context.Background(), models.Settings{})
	require.NoError(t, err)
	assert.Empty(t, cleared.RootDirectory)
}

func TestProjectService_WatchRoot(t *testing.T) {
	svc, root := newProjectService(t)
	svc.debounce = 20 * time.Millisecond
	_, err := svc.Create(context.Background(), "watched", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan []models.ProjectSummary, 8)
	done := make(chan error, 1)
	go func() {
		done <- svc.WatchRoot(ctx, func(p []models.ProjectSummary) { changes <- p })
	}()

	i := 0
	require.Eventually(t, func() bool {
		i++
		_ = os.WriteFile(filepath.Join(root, ".touch"+strconv.Itoa(i)), nil, 0o644)
		select {
		case got := <-changes:
			return len(got) == 1 && got[0].Name == "watched"
		default:
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
