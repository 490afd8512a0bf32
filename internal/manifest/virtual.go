package manifest

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/natefinch/atomic"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/logfields"
)

// VirtualFileName lists the outputs of virtual pages written by the last
// successful build. Virtual pages have no body hash, so the manifest alone
// cannot tell when one disappears.
const VirtualFileName = "virtual-outputs.json"

// LoadVirtualOutputs reads the list saved by SaveVirtualOutputs. Like Load it
// never fails: any defect yields nil.
func LoadVirtualOutputs(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		slog.Debug("Ignoring invalid virtual output list", logfields.Path(path), logfields.Error(err))
		return nil
	}
	return paths
}

// SaveVirtualOutputs atomically writes paths as a sorted JSON array.
func SaveVirtualOutputs(path string, paths []string) error {
	sorted := slices.Sorted(slices.Values(paths))
	sorted = slices.Compact(sorted)
	if sorted == nil {
		sorted = []string{}
	}
	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryManifest, "encode virtual output list").Fatal().WithPath(path).Build()
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create manifest directory").
			Fatal().
			WithPath(filepath.Dir(path)).
			Build()
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write virtual output list").Fatal().WithPath(path).Build()
	}
	return nil
}
