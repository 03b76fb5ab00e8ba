package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrExists is returned by Save when the target exists and overwriting is off.
var ErrExists = errors.New("file already exists")

// WriteAtomic streams r into path through a temporary sibling file and an
// atomic rename. Readers never observe a partially written file.
func WriteAtomic(path string, r io.Reader, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()

	if copyErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write data: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Manager saves downloaded media under one output directory
type Manager struct {
	outputDir string
	overwrite bool
}

// NewManager creates the output directory if needed
func NewManager(outputDir string, overwrite bool) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{outputDir: outputDir, overwrite: overwrite}, nil
}

// Path resolves name inside the output directory. Names that would escape it
// are reduced to their base name.
func (m *Manager) Path(name string) string {
	clean := filepath.Clean("/" + name)
	if strings.Contains(name, "..") {
		clean = filepath.Base(clean)
	}
	return filepath.Join(m.outputDir, clean)
}

// Exists reports whether name has already been saved
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// Save writes r to name and returns the full path
func (m *Manager) Save(name string, r io.Reader) (string, error) {
	if name == "" {
		return "", errors.New("file name is required")
	}
	path := m.Path(name)
	if !m.overwrite && m.Exists(name) {
		return path, fmt.Errorf("%s: %w", path, ErrExists)
	}
	if err := WriteAtomic(path, r, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}
