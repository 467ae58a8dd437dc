package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FilePrefix is the fixed part of every exported file name
const FilePrefix = "bilibili_following_list_"

// FileName returns the export file name for the given day
func FileName(day time.Time) string {
	return FilePrefix + day.Format("2006-01-02") + ".html"
}

// Manager writes export documents into an output directory
type Manager struct {
	outputDir string
	overwrite bool
	mu        sync.Mutex
}

// NewManager creates a new storage manager, creating outputDir if needed.
// When overwrite is false an existing file of the same name is kept and the
// new document gets a -1, -2, ... suffix.
func NewManager(outputDir string, overwrite bool) (*Manager, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{outputDir: outputDir, overwrite: overwrite}, nil
}

// SaveDocument writes r to the export file for now and returns its path
func (m *Manager) SaveDocument(r io.Reader, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filename, err := m.targetPath(FileName(now))
	if err != nil {
		return "", err
	}
	if err := writeAtomic(filename, r); err != nil {
		return "", err
	}
	return filename, nil
}

// targetPath picks the file to write, avoiding existing files unless
// overwriting is allowed
func (m *Manager) targetPath(name string) (string, error) {
	path := filepath.Join(m.outputDir, name)
	if m.overwrite {
		return path, nil
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	ext := filepath.Ext(name)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", path, err)
		}
		path = filepath.Join(m.outputDir, fmt.Sprintf("%s-%d%s", base, i, ext))
	}
}

// writeAtomic writes to a temporary file and renames it into place
func writeAtomic(filename string, r io.Reader) error {
	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write document: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}
