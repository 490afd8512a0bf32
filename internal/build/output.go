package build

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644 // atomic.WriteFile creates new files 0600
)

// outputDir performs every file operation under one output root. Paths
// handed to it are slash-separated and relative to the root.
type outputDir struct {
	root string
}

// abs resolves rel under the root, rejecting paths that would escape it.
func (o outputDir) abs(rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", ferrors.FileSystemError("output path escapes output directory").WithPath(rel).Build()
	}
	return filepath.Join(o.root, local), nil
}

func (o outputDir) exists(rel string) bool {
	p, err := o.abs(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// write replaces rel with data atomically.
func (o outputDir) write(rel string, data []byte) error {
	p, err := o.abs(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").WithPath(filepath.Dir(p)).Fatal().Build()
	}
	if err := atomic.WriteFile(p, bytes.NewReader(data)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write output").WithPath(p).Fatal().Build()
	}
	return chmod(p)
}

// copyFrom copies src to rel atomically.
func (o outputDir) copyFrom(src, rel string) error {
	p, err := o.abs(rel)
	if err != nil {
		return err
	}
	in, err := os.Open(src) // #nosec G304 -- src comes from walking a configured input directory
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "open asset").WithPath(src).Fatal().Build()
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").WithPath(filepath.Dir(p)).Fatal().Build()
	}
	if err := atomic.WriteFile(p, in); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "copy asset").WithPath(p).Fatal().Build()
	}
	return chmod(p)
}

func chmod(p string) error {
	if err := os.Chmod(p, filePerm); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "set output permissions").WithPath(p).Fatal().Build()
	}
	return nil
}

// remove deletes rel and then every parent directory it leaves empty, up
// to but excluding the root. A missing file is not an error.
func (o outputDir) remove(rel string) (bool, error) {
	p, err := o.abs(rel)
	if err != nil {
		return false, err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "delete output").WithPath(p).Fatal().Build()
	}

	root := filepath.Clean(o.root)
	for dir := filepath.Dir(p); dir != root && len(dir) > len(root); dir = filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(dir); err != nil {
			break
		}
	}
	return true, nil
}

// clean empties the root, keeping the directory itself.
func (o outputDir) clean() error {
	entries, err := os.ReadDir(o.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read output directory").WithPath(o.root).Fatal().Build()
	}
	for _, e := range entries {
		p := filepath.Join(o.root, e.Name())
		if err := os.RemoveAll(p); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clean output directory").WithPath(p).Fatal().Build()
		}
	}
	return nil
}
