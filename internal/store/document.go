package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/models"
	appErr "github.com/govbuilder/engine/pkg/errors"
	"github.com/govbuilder/engine/pkg/logger"
	"github.com/govbuilder/engine/pkg/utils"
)

// Document owns the in-memory project document of one opened project and
// writes it back to <dir>/govbuilder.json.
//
// Mutation is single-actor: callers must not run two loads or syncs against
// the same Document at once. Persist itself is safe to call concurrently.
type Document struct {
	fs  FileSystem
	dir string

	mu      sync.Mutex
	current *models.ProjectDocument
	version string
	batch   int
	dirty   bool
}

// Open loads and migrates the project document in dir.
func Open(fsys FileSystem, dir string) (*Document, error) {
	d := &Document{fs: fsys, dir: dir}
	if err := d.Load(); err != nil {
		return nil, err
	}
	return d, nil
}

// Create writes doc as a new project document in dir, which must already exist.
func Create(fsys FileSystem, dir string, doc *models.ProjectDocument) (*Document, error) {
	d := &Document{fs: fsys, dir: dir, current: doc}
	if err := d.Persist(); err != nil {
		return nil, err
	}
	return d, nil
}

// DocumentPath returns the project document path inside dir.
func DocumentPath(dir string) string {
	return filepath.Join(dir, models.DocumentFileName)
}

// Dir returns the project directory.
func (d *Document) Dir() string { return d.dir }

// Path returns the project document path.
func (d *Document) Path() string { return DocumentPath(d.dir) }

// Load replaces the in-memory document with the migrated contents of the file.
// Nothing is installed when the load fails.
func (d *Document) Load() error {
	raw, err := d.fs.ReadFile(d.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return appErr.New(appErr.CodeNotAProject, "Not a valid GovBuilder project (missing govbuilder.json)").
				WithMeta("path", d.dir)
		}
		return appErr.Wrap(err, appErr.CodeInternal, "failed to read project document")
	}

	doc, report, err := Decode(raw)
	if err != nil {
		return err
	}
	if report.Changed() {
		logger.L().Info("project document migrated",
			zap.String("project_path", d.dir),
			zap.Bool("legacy", report.Legacy),
			zap.Strings("moved", report.Moved),
			zap.Strings("reset", report.Reset),
			zap.Int("dropped", report.Dropped),
			zap.Int("coerced", report.Coerced),
			zap.Int("assigned_ids", report.AssignedIDs),
		)
	}

	d.mu.Lock()
	d.current = doc
	d.version = utils.VersionOf(raw)
	d.dirty = false
	d.mu.Unlock()
	return nil
}

// Decode parses raw document bytes, runs the schema migration and returns the typed tree.
func Decode(raw []byte) (*models.ProjectDocument, MigrationReport, error) {
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, MigrationReport{}, appErr.Wrap(err, appErr.CodeInvalid, "project document is not valid JSON")
	}
	root, ok := tree.(map[string]any)
	if !ok {
		return nil, MigrationReport{}, appErr.New(appErr.CodeInvalid, "project document root must be an object")
	}
	report := Migrate(root)

	normalized, err := json.Marshal(root)
	if err != nil {
		return nil, report, appErr.Wrap(err, appErr.CodeInternal, "failed to re-encode migrated document")
	}
	var doc models.ProjectDocument
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, report, appErr.Wrap(err, appErr.CodeInvalid, "project document has an unexpected shape")
	}
	doc.GovData.Build().EnsureContainers()
	return &doc, report, nil
}

// Current returns the live document. Callers mutate it only through repositories or Update.
func (d *Document) Current() *models.ProjectDocument {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Build returns the live project build, creating any missing container.
func (d *Document) Build() *models.ProjectBuild {
	b := d.Current().GovData.Build()
	b.EnsureContainers()
	return b
}

// Version returns the SHA-256 of the bytes last read or written.
func (d *Document) Version() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Update applies fn to the document and persists the result.
func (d *Document) Update(fn func(doc *models.ProjectDocument) error) error {
	if err := fn(d.Current()); err != nil {
		return err
	}
	return d.Changed()
}

// Changed records a mutation. Outside a batch it persists immediately.
func (d *Document) Changed() error {
	d.mu.Lock()
	if d.batch > 0 {
		d.dirty = true
		d.mu.Unlock()
		return nil
	}
	defer d.mu.Unlock()
	return d.persistLocked()
}

// Batch runs fn with persistence deferred, then writes once if anything changed.
// Changes made before fn failed are still persisted so disk matches memory.
func (d *Document) Batch(fn func() error) error {
	d.mu.Lock()
	d.batch++
	d.mu.Unlock()

	fnErr := fn()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.batch--
	if d.batch > 0 || !d.dirty {
		return fnErr
	}
	return errors.Join(fnErr, d.persistLocked())
}

// Persist writes the full document as 2-space indented JSON.
func (d *Document) Persist() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.persistLocked()
}

// Snapshot returns the encoded document and its version without writing it.
func (d *Document) Snapshot() ([]byte, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, err := encode(d.current)
	if err != nil {
		return nil, "", err
	}
	return data, utils.VersionOf(data), nil
}

func (d *Document) persistLocked() error {
	if d.current == nil {
		return appErr.New(appErr.CodeInvalid, "no project document loaded")
	}
	data, err := encode(d.current)
	if err != nil {
		return err
	}
	if err := d.fs.WriteFile(d.Path(), data); err != nil {
		logger.L().Error("failed to persist project document", zap.String("project_path", d.dir), zap.Error(err))
		return appErr.Wrap(err, appErr.CodeInternal, "failed to write project document")
	}
	d.version = utils.VersionOf(data)
	d.dirty = false
	logger.L().Debug("project document persisted", zap.String("project_path", d.dir), zap.Int("bytes", len(data)))
	return nil
}

func encode(doc *models.ProjectDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to encode project document")
	}
	return buf.Bytes(), nil
}

// Upgrade rewrites the document in dir in the current schema and layout.
// It reports whether the file changed.
func Upgrade(fsys FileSystem, dir string) (bool, error) {
	d, err := Open(fsys, dir)
	if err != nil {
		return false, err
	}
	_, next, err := d.Snapshot()
	if err != nil {
		return false, err
	}
	if next == d.Version() {
		return false, nil
	}
	if err := d.Persist(); err != nil {
		return false, err
	}
	logger.L().Info("project document upgraded", zap.String("project_path", dir))
	return true, nil
}
