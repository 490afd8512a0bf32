package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
)

// envFiles are read, in order, from the configuration directory.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles sets variables from .env files in dir. Variables already
// present in the environment are never overridden.
func loadEnvFiles(dir string) error {
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "load environment file").WithPath(p).Fatal().Build()
		}
	}
	return nil
}
