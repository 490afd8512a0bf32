// Package config loads the project configuration file (glaze.yaml).
//
// Loading order: .env files next to the config file populate the process
// environment without overriding it, ${VAR} references in the file are
// expanded, the YAML is decoded strictly, defaults are applied, relative
// paths are resolved against the config file's directory, and the result is
// validated.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/retry"
)

// DefaultFileName is the configuration file looked up when none is given.
const DefaultFileName = "glaze.yaml"

// Config represents the project configuration.
type Config struct {
	Site       SiteConfig       `yaml:"site,omitempty"`
	Paths      PathsConfig      `yaml:"paths,omitempty"`
	Build      BuildConfig      `yaml:"build,omitempty"`
	Content    ContentConfig    `yaml:"content,omitempty"`
	Extensions ExtensionsConfig `yaml:"extensions,omitempty"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty"`
	History    HistoryConfig    `yaml:"history,omitempty"`
	Notify     NotifyConfig     `yaml:"notify,omitempty"`
	Watch      WatchConfig      `yaml:"watch,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`

	file string // Absolute path of the loaded file
}

// SiteConfig holds values exposed to templates.
type SiteConfig struct {
	Title   string `yaml:"title,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// PathsConfig locates the project's input and output trees.
type PathsConfig struct {
	Content    string `yaml:"content,omitempty"`
	Templates  string `yaml:"templates,omitempty"`
	Static     string `yaml:"static,omitempty"`
	Extensions string `yaml:"extensions,omitempty"`
	Output     string `yaml:"output,omitempty"`
	Cache      string `yaml:"cache,omitempty"`
}

// BuildConfig controls rendering.
type BuildConfig struct {
	IncludeDrafts   bool   `yaml:"include_drafts,omitempty"`
	DefaultTemplate string `yaml:"default_template,omitempty"`
	Clean           bool   `yaml:"clean,omitempty"` // Empty the output directory before a build without a previous manifest
	Workers         int    `yaml:"workers,omitempty"`
	TaxonomyPages   bool   `yaml:"taxonomy_pages,omitempty"`
}

// ContentConfig controls discovery.
type ContentConfig struct {
	Extensions []string  `yaml:"extensions,omitempty"`
	Taxonomies []string  `yaml:"taxonomies,omitempty"`
	Types      TypeRules `yaml:"types,omitempty"`
}

// ExtensionsConfig lists the built-in HTML transformers to enable, in order.
type ExtensionsConfig struct {
	Enabled []string `yaml:"enabled,omitempty"`
}

// MetricsConfig controls Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// HistoryConfig controls the build history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// NotifyConfig controls build notifications over NATS.
type NotifyConfig struct {
	NATSURL      string        `yaml:"nats_url,omitempty"`
	Subject      string        `yaml:"subject,omitempty"`
	Retries      int           `yaml:"retries,omitempty"`       // Extra publish attempts after a failure
	RetryBackoff string        `yaml:"retry_backoff,omitempty"` // fixed|linear|exponential
	RetryDelay   time.Duration `yaml:"retry_delay,omitempty"`
}

// RetryPolicy returns the publish retry policy described by n.
func (n NotifyConfig) RetryPolicy() retry.Policy {
	return retry.NewPolicy(retry.Backoff(n.RetryBackoff), n.RetryDelay, maxRetryDelay, n.Retries)
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// File returns the absolute path of the loaded configuration file.
func (c *Config) File() string { return c.file }

// Dir returns the directory relative paths were resolved against.
func (c *Config) Dir() string { return filepath.Dir(c.file) }

// Load reads, expands, decodes, defaults, resolves and validates the
// configuration at path.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve configuration path").WithPath(path).Fatal().Build()
	}

	if err := loadEnvFiles(filepath.Dir(abs)); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ferrors.ConfigError("configuration file not found (run `glaze init`)").WithPath(abs).Build()
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read configuration").WithPath(abs).Fatal().Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "decode configuration").WithPath(abs).Fatal().Build()
	}
	cfg.file = abs
	cfg.resolvePaths(filepath.Dir(abs))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands environment references in data, decodes it strictly and
// applies defaults. Paths are left as written.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{
		&c.Paths.Content,
		&c.Paths.Templates,
		&c.Paths.Static,
		&c.Paths.Extensions,
		&c.Paths.Output,
		&c.Paths.Cache,
		&c.History.Path,
		&c.Metrics.Textfile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}
