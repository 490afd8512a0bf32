package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// FileAssertions checks file system state below a base directory.
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

// NewFileAssertions creates a new file assertions helper.
func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

func (fa *FileAssertions) path(rel string) string {
	return filepath.Join(fa.baseDir, filepath.FromSlash(rel))
}

// Exists asserts that rel is a regular file.
func (fa *FileAssertions) Exists(rel string) *FileAssertions {
	fa.t.Helper()
	require.FileExists(fa.t, fa.path(rel))
	return fa
}

// Missing asserts that nothing exists at rel.
func (fa *FileAssertions) Missing(rel string) *FileAssertions {
	fa.t.Helper()
	require.NoFileExists(fa.t, fa.path(rel))
	require.NoDirExists(fa.t, fa.path(rel))
	return fa
}

// Contains asserts that the file at rel contains want.
func (fa *FileAssertions) Contains(rel, want string) *FileAssertions {
	fa.t.Helper()
	require.Contains(fa.t, fa.Content(rel), want)
	return fa
}

// Content returns the content of rel.
func (fa *FileAssertions) Content(rel string) string {
	fa.t.Helper()
	data, err := os.ReadFile(fa.path(rel))
	require.NoError(fa.t, err)
	return string(data)
}

// Files lists the regular files below the base directory as sorted
// slash-separated relative paths.
func (fa *FileAssertions) Files() []string {
	fa.t.Helper()
	var files []string
	err := filepath.WalkDir(fa.baseDir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(fa.baseDir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(fa.t, err)
	return files
}
