package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem is the minimal file capability the store needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces path with data; readers never observe a partial file.
	WriteFile(path string, data []byte) error
	ReadDir(path string) ([]fs.DirEntry, error)
	MkdirAll(path string) error
	Stat(path string) (fs.FileInfo, error)
}

// OSFileSystem is the FileSystem backed by the local disk.
type OSFileSystem struct{}

var _ FileSystem = OSFileSystem{}

func (OSFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (OSFileSystem) ReadDir(path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }

func (OSFileSystem) MkdirAll(path string) error { return os.MkdirAll(path, 0o755) }

func (OSFileSystem) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

// WriteFile writes to a temp file in the same directory, fsyncs, then renames over path.
func (OSFileSystem) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	tmpName = ""
	return nil
}
