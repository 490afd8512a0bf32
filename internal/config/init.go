package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
)

// Example returns the configuration written by Init.
func Example() Config {
	return Config{
		Site: SiteConfig{
			Title:   DefaultSiteTitle,
			BaseURL: "https://example.com/",
		},
		Paths: PathsConfig{
			Content:   DefaultContentDir,
			Templates: DefaultTemplateDir,
			Static:    DefaultStaticDir,
			Output:    DefaultOutputDir,
		},
		Build: BuildConfig{
			DefaultTemplate: DefaultTemplate,
			Clean:           true,
		},
		Content: ContentConfig{
			Taxonomies: []string{"tags"},
			Types: TypeRules{
				{
					Name:          "post",
					Paths:         []string{"blog"},
					CreatePattern: "{date}-{slug}.md",
					Meta:          map[string]any{"template": "post.html"},
				},
			},
		},
		Extensions: ExtensionsConfig{Enabled: []string{"heading-anchors"}},
	}
}

// Init writes an example configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").WithPath(path).Build()
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat configuration").WithPath(path).Fatal().Build()
	}

	example := Example()
	data, err := yaml.Marshal(&example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal example configuration").Fatal().Build()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create configuration directory").WithPath(dir).Fatal().Build()
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write configuration").WithPath(path).Fatal().Build()
	}
	return nil
}
