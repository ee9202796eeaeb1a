package services

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/store"
	appErr "github.com/govbuilder/engine/pkg/errors"
	"github.com/govbuilder/engine/pkg/logger"
)

// ProjectService creates, opens and discovers projects.
type ProjectService interface {
	Create(ctx context.Context, name, parentDir string) (*Session, error)
	Open(ctx context.Context, dir string) (*Session, error)
	Recent(ctx context.Context) []models.ProjectSummary
	Forget(ctx context.Context, dir string) error

	Settings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error)

	// Scan lists project folders directly under the configured root directory.
	Scan(ctx context.Context) ([]models.ProjectSummary, error)
	// WatchRoot calls onChange with a fresh scan whenever the root directory
	// changes. It blocks until ctx is done.
	WatchRoot(ctx context.Context, onChange func([]models.ProjectSummary)) error
}

type projectService struct {
	fs       store.FileSystem
	files    *store.AppFiles
	debounce time.Duration
}

func NewProjectService(fsys store.FileSystem, files *store.AppFiles) ProjectService {
	return &projectService{fs: fsys, files: files, debounce: 250 * time.Millisecond}
}

// Ensure interfaces are satisfied at compile time
var _ ProjectService = (*projectService)(nil)

// Create makes <parentDir>/<name> and writes the starter document into it.
func (s *projectService) Create(ctx context.Context, name, parentDir string) (*Session, error) {
	name = strings.TrimSpace(name)
	logger.L().Info("create project called", zap.String("name", name), zap.String("parent_dir", parentDir))
	if name == "" {
		return nil, appErr.New(appErr.CodeValidation, "project name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, appErr.Newf(appErr.CodeValidation, "project name %q is not a valid folder name", name)
	}
	if parentDir == "" {
		settings, err := s.files.Settings()
		if err != nil {
			return nil, err
		}
		parentDir = settings.RootDirectory
	}
	if parentDir == "" {
		return nil, appErr.New(appErr.CodeConfiguration, "no parent directory given and no root directory configured")
	}

	dir := filepath.Join(parentDir, name)
	if _, err := s.fs.Stat(dir); err == nil {
		return nil, appErr.Newf(appErr.CodeConflict, "a folder named %q already exists there", name).WithMeta("path", dir)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to inspect project folder")
	}
	if err := s.fs.MkdirAll(dir); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to create project folder")
	}

	doc, err := store.Create(s.fs, dir, models.NewProjectDocument(name, time.Now()))
	if err != nil {
		return nil, err
	}
	if _, err := s.files.AddRecent(models.ProjectSummary{Name: name, Path: dir}); err != nil {
		logger.L().Warn("failed to update recent projects", zap.Error(err))
	}

	logger.L().Info("project created", zap.String("project_path", dir))
	return NewSession(doc), nil
}

// Open loads the project in dir and adds it to the recent list if missing.
func (s *projectService) Open(ctx context.Context, dir string) (*Session, error) {
	logger.L().Info("open project", zap.String("project_path", dir))
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	sess, err := OpenSession(s.fs, dir)
	if err != nil {
		return nil, err
	}

	name := sess.Document().Current().Name
	if name == "" {
		name = filepath.Base(dir)
	}
	if _, err := s.files.AddRecent(models.ProjectSummary{Name: name, Path: dir}); err != nil {
		logger.L().Warn("failed to update recent projects", zap.Error(err))
	}
	return sess, nil
}

func (s *projectService) Recent(ctx context.Context) []models.ProjectSummary {
	return s.files.Recent()
}

func (s *projectService) Forget(ctx context.Context, dir string) error {
	return s.files.RemoveRecent(dir)
}

func (s *projectService) Settings(ctx context.Context) (models.Settings, error) {
	return s.files.Settings()
}

func (s *projectService) UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	settings.RootDirectory = strings.TrimSpace(settings.RootDirectory)
	if settings.RootDirectory != "" {
		info, err := s.fs.Stat(settings.RootDirectory)
		if err != nil || !info.IsDir() {
			return models.Settings{}, appErr.Newf(appErr.CodeValidation, "root directory %q does not exist", settings.RootDirectory)
		}
	}
	if err := s.files.SaveSettings(settings); err != nil {
		return models.Settings{}, err
	}
	logger.L().Info("settings updated", zap.String("root_directory", settings.RootDirectory))
	return settings, nil
}

func (s *projectService) rootDir() (string, error) {
	settings, err := s.files.Settings()
	if err != nil {
		return "", err
	}
	if settings.RootDirectory == "" {
		return "", appErr.New(appErr.CodeConfiguration, "root directory is not configured")
	}
	return settings.RootDirectory, nil
}

func (s *projectService) Scan(ctx context.Context) ([]models.ProjectSummary, error) {
	root, err := s.rootDir()
	if err != nil {
		return nil, err
	}
	return s.scan(root)
}

func (s *projectService) scan(root string) ([]models.ProjectSummary, error) {
	entries, err := s.fs.ReadDir(root)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeNotFound, "failed to read root directory").WithMeta("path", root)
	}

	out := []models.ProjectSummary{}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, e.Name())
		data, err := s.fs.ReadFile(store.DocumentPath(dir))
		if err != nil {
			continue
		}
		var head struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			logger.L().Debug("skipping unreadable project", zap.String("project_path", dir), zap.Error(err))
			continue
		}
		name := head.Name
		if name == "" {
			name = e.Name()
		}
		out = append(out, models.ProjectSummary{Name: name, Path: dir})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *projectService) WatchRoot(ctx context.Context, onChange func([]models.ProjectSummary)) error {
	root, err := s.rootDir()
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "failed to create watcher")
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return appErr.Wrap(err, appErr.CodeNotFound, "failed to watch root directory").WithMeta("path", root)
	}
	// project folders are watched too so a govbuilder.json appearing inside one is seen
	if entries, err := s.fs.ReadDir(root); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				_ = w.Add(filepath.Join(root, e.Name()))
			}
		}
	}
	logger.L().Info("watching root directory", zap.String("root", root))

	timer := time.NewTimer(s.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Write) {
				continue
			}
			if ev.Has(fsnotify.Create) && filepath.Dir(ev.Name) == filepath.Clean(root) {
				if info, err := s.fs.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.Add(ev.Name)
				}
			}
			timer.Reset(s.debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.L().Warn("root watcher error", zap.Error(err))
		case <-timer.C:
			projects, err := s.scan(root)
			if err != nil {
				logger.L().Warn("rescan failed", zap.Error(err))
				continue
			}
			onChange(projects)
		}
	}
}
