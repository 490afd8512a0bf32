package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/glaze/internal/hash"
	"git.home.luguber.info/inful/glaze/internal/logfields"
)

// Sentinel signatures for inputs that cannot be fingerprinted.
const (
	SignatureMissing    = "missing"
	SignatureUnreadable = "unreadable"
)

// FileSignature returns the hash of a file's contents, SignatureMissing when
// it does not exist and SignatureUnreadable when it cannot be read.
func FileSignature(path string) string {
	if path == "" {
		return SignatureMissing
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return SignatureMissing
	}
	if err != nil {
		slog.Debug("Signature input unreadable", logfields.Path(path), logfields.Error(err))
		return SignatureUnreadable
	}
	return hash.MakeBytes(data)
}

// DirectorySignature hashes the sorted "relpath:mtime" pairs of every file
// under dir. It changes whenever a file is added, removed or touched, even
// without a content change.
func DirectorySignature(dir string) string {
	if dir == "" {
		return SignatureMissing
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return SignatureMissing
	}
	if err != nil || !info.IsDir() {
		return SignatureUnreadable
	}

	var entries []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		entries = append(entries, fmt.Sprintf("%s:%d", filepath.ToSlash(rel), fi.ModTime().UnixNano()))
		return nil
	})
	if err != nil {
		slog.Debug("Signature directory unreadable", logfields.Path(dir), logfields.Error(err))
		return SignatureUnreadable
	}

	slices.Sort(entries)
	return hash.MakeFromParts(entries...)
}

// AssetSignatures returns "size:mtime" for every regular file under root,
// keyed by slash-separated relative path. Dot-prefixed files and directories
// are ignored, as are paths for which skip returns true. A missing root
// yields an empty map.
func AssetSignatures(root string, skip func(rel string) bool) map[string]string {
	out := map[string]string{}
	if root == "" {
		return out
	}
	if _, err := os.Stat(root); err != nil {
		return out
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// An unreadable subtree contributes nothing; its outputs become orphans.
			slog.Debug("Skipping unreadable asset path", logfields.Path(p), logfields.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if skip != nil && skip(rel) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		out[rel] = fmt.Sprintf("%d:%d", fi.Size(), fi.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		slog.Debug("Asset walk ended early", logfields.Path(root), logfields.Error(err))
	}
	return out
}
