package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/logfields"
)

// FileName is the manifest's file name inside the cache directory.
const FileName = "build-manifest.json"

// Load reads a persisted manifest. Any defect (missing file, unreadable file,
// invalid JSON, a missing or mistyped key) yields nil so that the caller
// performs a full rebuild.
func Load(path string) *Manifest {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("No previous manifest", logfields.Path(path), logfields.Error(err))
		return nil
	}
	m, err := decode(data)
	if err != nil {
		slog.Debug("Ignoring invalid manifest", logfields.Path(path), logfields.Error(err))
		return nil
	}
	return m
}

func decode(data []byte) (*Manifest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("manifest is not a JSON object")
	}

	var m Manifest
	if err := decodeField(fields, "globalHash", &m.GlobalHash); err != nil {
		return nil, err
	}
	if err := decodeField(fields, "pageBodyHashes", &m.PageBodyHashes); err != nil {
		return nil, err
	}
	if err := decodeField(fields, "contentAssetSignatures", &m.ContentAssetSignatures); err != nil {
		return nil, err
	}
	if err := decodeField(fields, "staticAssetSignatures", &m.StaticAssetSignatures); err != nil {
		return nil, err
	}
	return &m, nil
}

// decodeField requires key to be present, non-null and decodable into dst.
func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("missing key %q", key)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fmt.Errorf("key %q is null", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}
	return nil
}

// Save writes the manifest as indented JSON with sorted keys, creating parent
// directories. The file is replaced atomically.
func (m *Manifest) Save(path string) error {
	out := Manifest{
		GlobalHash:             m.GlobalHash,
		PageBodyHashes:         nonNil(m.PageBodyHashes),
		ContentAssetSignatures: nonNil(m.ContentAssetSignatures),
		StaticAssetSignatures:  nonNil(m.StaticAssetSignatures),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryManifest, "encode manifest").
			Fatal().
			WithPath(path).
			Build()
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create manifest directory").
			Fatal().
			WithPath(filepath.Dir(path)).
			Build()
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write manifest").
			Fatal().
			WithPath(path).
			Build()
	}
	return nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
