package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/models"
	appErr "github.com/govbuilder/engine/pkg/errors"
	"github.com/govbuilder/engine/pkg/logger"
)

const (
	SettingsFileName = "settings.json"
	RecentFileName   = "recent-projects.json"
)

// AppFiles manages the per-installation files kept in the data directory.
type AppFiles struct {
	fs  FileSystem
	dir string
	mu  sync.Mutex
}

func NewAppFiles(fsys FileSystem, dataDir string) *AppFiles {
	return &AppFiles{fs: fsys, dir: dataDir}
}

// Settings returns the saved settings; a missing file yields zero settings.
func (a *AppFiles) Settings() (models.Settings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var s models.Settings
	data, err := a.fs.ReadFile(filepath.Join(a.dir, SettingsFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, appErr.Wrap(err, appErr.CodeInternal, "failed to read settings")
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, appErr.Wrap(err, appErr.CodeInvalid, "settings file is corrupted")
	}
	return s, nil
}

// SaveSettings writes the settings file.
func (a *AppFiles) SaveSettings(s models.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writeJSON(SettingsFileName, s)
}

// Recent returns the recent-projects list, newest first. A missing or
// corrupted file reads as an empty list.
func (a *AppFiles) Recent() []models.ProjectSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recentLocked()
}

// AddRecent puts p at the top of the list unless its path is already listed.
// It reports whether the list changed.
func (a *AppFiles) AddRecent(p models.ProjectSummary) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := a.recentLocked()
	for _, existing := range list {
		if existing.Path == p.Path {
			return false, nil
		}
	}
	list = append([]models.ProjectSummary{p}, list...)
	if err := a.writeJSON(RecentFileName, list); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveRecent drops the entry with path from the list.
func (a *AppFiles) RemoveRecent(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	list := a.recentLocked()
	out := list[:0]
	for _, p := range list {
		if p.Path != path {
			out = append(out, p)
		}
	}
	if len(out) == len(list) {
		return nil
	}
	return a.writeJSON(RecentFileName, out)
}

func (a *AppFiles) recentLocked() []models.ProjectSummary {
	data, err := a.fs.ReadFile(filepath.Join(a.dir, RecentFileName))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.L().Warn("failed to read recent projects", zap.Error(err))
		}
		return []models.ProjectSummary{}
	}
	var list []models.ProjectSummary
	if err := json.Unmarshal(data, &list); err != nil {
		logger.L().Warn("recent projects file is corrupted, starting empty", zap.Error(err))
		return []models.ProjectSummary{}
	}
	if list == nil {
		list = []models.ProjectSummary{}
	}
	return list
}

func (a *AppFiles) writeJSON(name string, v any) error {
	if err := a.fs.MkdirAll(a.dir); err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "failed to create data directory")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "failed to encode "+name)
	}
	if err := a.fs.WriteFile(filepath.Join(a.dir, name), data); err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "failed to write "+name)
	}
	return nil
}
