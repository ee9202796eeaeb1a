package services

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/govbuilt"
	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/repository"
	"github.com/govbuilder/engine/internal/store"
	appErr "github.com/govbuilder/engine/pkg/errors"
	"github.com/govbuilder/engine/pkg/logger"
)

// Session is one opened project: its document and the repositories over it.
// A session is single-actor; callers serialize loads, saves and syncs.
type Session struct {
	doc   *store.Document
	Repos *repository.Repositories
}

// NewSession wires repositories to an already loaded document.
func NewSession(doc *store.Document) *Session {
	return &Session{doc: doc, Repos: repository.NewRepositories(doc)}
}

// OpenSession loads the project in dir.
func OpenSession(fsys store.FileSystem, dir string) (*Session, error) {
	doc, err := store.Open(fsys, dir)
	if err != nil {
		return nil, err
	}
	return NewSession(doc), nil
}

func (s *Session) Document() *store.Document { return s.doc }

func (s *Session) Dir() string { return s.doc.Dir() }

// Summary returns the project's name and path.
func (s *Session) Summary() models.ProjectSummary {
	return models.ProjectSummary{Name: s.doc.Current().Name, Path: s.doc.Dir()}
}

// ConfigureRemote stores the staging URL used by sync. A blank URL clears it.
func (s *Session) ConfigureRemote(rawURL string) (string, error) {
	normalized, err := govbuilt.NormalizeBaseURL(rawURL)
	if err != nil && !appErr.IsCode(err, appErr.CodeConfiguration) {
		return "", err
	}
	err = s.doc.Update(func(doc *models.ProjectDocument) error {
		doc.StagingURL = normalized
		doc.APIConfigured = normalized != ""
		return nil
	})
	if err != nil {
		return "", err
	}
	logger.L().Info("remote configured", zap.String("project_path", s.Dir()), zap.String("staging_url", normalized))
	return normalized, nil
}

// Import saves parsed records (for example CSV rows) into collection as new
// entities, writing the document once.
func (s *Session) Import(collection string, records []json.RawMessage) (repository.ImportResult, error) {
	c, err := s.Repos.Collection(collection)
	if err != nil {
		return repository.ImportResult{}, err
	}
	var res repository.ImportResult
	err = s.doc.Batch(func() error {
		res = c.Import(records)
		return nil
	})
	if err != nil {
		return res, err
	}
	logger.L().Info("records imported",
		zap.String("project_path", s.Dir()),
		zap.String("collection", collection),
		zap.Int("saved", res.Saved),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}
