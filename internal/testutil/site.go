package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Site is a project directory laid out file by file.
type Site struct {
	t   *testing.T
	dir string
}

// NewSite creates an empty project in a temporary directory.
func NewSite(t *testing.T) *Site {
	t.Helper()
	return &Site{t: t, dir: t.TempDir()}
}

// Dir returns the project root.
func (s *Site) Dir() string { return s.dir }

// Path joins a slash-separated relative path onto the project root.
func (s *Site) Path(rel string) string {
	return filepath.Join(s.dir, filepath.FromSlash(rel))
}

// ConfigPath returns the path of the project's configuration file.
func (s *Site) ConfigPath() string { return s.Path(ConfigFileName) }

// WithConfig writes the configuration file.
func (s *Site) WithConfig(yaml string) *Site {
	return s.WithFile(ConfigFileName, yaml)
}

// WithFile writes body to rel, creating parent directories.
func (s *Site) WithFile(rel, body string) *Site {
	s.t.Helper()
	p := s.Path(rel)
	require.NoError(s.t, os.MkdirAll(filepath.Dir(p), dirPermissions))
	require.NoError(s.t, os.WriteFile(p, []byte(body), filePermissions))
	return s
}

// Remove deletes rel.
func (s *Site) Remove(rel string) *Site {
	s.t.Helper()
	require.NoError(s.t, os.Remove(s.Path(rel)))
	return s
}

// Touch sets the modification time of rel.
func (s *Site) Touch(rel string, at time.Time) *Site {
	s.t.Helper()
	require.NoError(s.t, os.Chtimes(s.Path(rel), at, at))
	return s
}

// Read returns the content of rel.
func (s *Site) Read(rel string) string {
	s.t.Helper()
	data, err := os.ReadFile(s.Path(rel))
	require.NoError(s.t, err)
	return string(data)
}

// Files returns assertions rooted at rel.
func (s *Site) Files(rel string) *FileAssertions {
	return NewFileAssertions(s.t, s.Path(rel))
}
