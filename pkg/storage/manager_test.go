package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 9, 23, 59, 0, 0, time.Local)

func TestFileName(t *testing.T) {
	assert.Equal(t, "bilibili_following_list_2024-03-09.html", FileName(day))
}

func TestNewManagerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	m, err := NewManager(dir, false)
	require.NoError(t, err)
	assert.Equal(t, dir, m.GetOutputDir())
	assert.DirExists(t, dir)
}

func TestSaveDocument(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, false)
	require.NoError(t, err)

	path, err := m.SaveDocument(strings.NewReader("<html>one</html>"), day)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bilibili_following_list_2024-03-09.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html>one</html>", string(data))
	assert.NoFileExists(t, path+".tmp")
}

func TestSaveDocumentKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, false)
	require.NoError(t, err)

	first, err := m.SaveDocument(strings.NewReader("first"), day)
	require.NoError(t, err)
	second, err := m.SaveDocument(strings.NewReader("second"), day)
	require.NoError(t, err)
	third, err := m.SaveDocument(strings.NewReader("third"), day)
	require.NoError(t, err)

	assert.Equal(t, "bilibili_following_list_2024-03-09-1.html", filepath.Base(second))
	assert.Equal(t, "bilibili_following_list_2024-03-09-2.html", filepath.Base(third))

	data, _ := os.ReadFile(first)
	assert.Equal(t, "first", string(data))
}

func TestSaveDocumentOverwrite(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, true)
	require.NoError(t, err)

	_, err = m.SaveDocument(strings.NewReader("old"), day)
	require.NoError(t, err)
	path, err := m.SaveDocument(strings.NewReader("new"), day)
	require.NoError(t, err)

	assert.Equal(t, FileName(day), filepath.Base(path))
	data, _ := os.ReadFile(path)
	assert.Equal(t, "new", string(data))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestSaveDocumentCleansUpOnError(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, false)
	require.NoError(t, err)

	_, err = m.SaveDocument(failingReader{}, day)
	require.Error(t, err)

	files, _ := os.ReadDir(dir)
	assert.Empty(t, files)
}
