package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
)

// Validate checks the configuration and canonicalizes enum fields. Problems
// are reported together as a single validation error.
func (c *Config) Validate() error {
	var problems []error

	if c.Site.BaseURL != "" {
		u, err := url.Parse(c.Site.BaseURL)
		if err != nil || (u.Scheme != "" && u.Host == "") {
			problems = append(problems, fmt.Errorf("site.base_url %q is not a valid URL", c.Site.BaseURL))
		}
	}

	if c.Build.Workers < 1 {
		problems = append(problems, fmt.Errorf("build.workers must be at least 1, got %d", c.Build.Workers))
	}
	if strings.TrimSpace(c.Build.DefaultTemplate) == "" {
		problems = append(problems, errors.New("build.default_template cannot be blank"))
	}

	problems = append(problems, c.validatePaths()...)
	problems = append(problems, c.validateContent()...)

	if c.Watch.Debounce < 0 {
		problems = append(problems, errors.New("watch.debounce cannot be negative"))
	}
	if c.Watch.PollInterval < 0 {
		problems = append(problems, errors.New("watch.poll_interval cannot be negative"))
	}
	if c.Notify.NATSURL != "" && strings.TrimSpace(c.Notify.Subject) == "" {
		problems = append(problems, errors.New("notify.subject cannot be blank when notify.nats_url is set"))
	}
	if c.Notify.Retries < 0 {
		problems = append(problems, fmt.Errorf("notify.retries cannot be negative, got %d", c.Notify.Retries))
	}
	if c.Notify.RetryDelay < 0 {
		problems = append(problems, errors.New("notify.retry_delay cannot be negative"))
	}
	if mode, err := NormalizeRetryBackoff(c.Notify.RetryBackoff); err != nil {
		problems = append(problems, err)
	} else {
		c.Notify.RetryBackoff = string(mode)
	}

	if lvl, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		problems = append(problems, err)
	} else {
		c.Logging.Level = lvl
	}
	if format, err := NormalizeLogFormat(c.Logging.Format); err != nil {
		problems = append(problems, err)
	} else {
		c.Logging.Format = format
	}

	if len(problems) == 0 {
		return nil
	}
	b := ferrors.WrapError(errors.Join(problems...), ferrors.CategoryValidation, "invalid configuration").Fatal()
	if c.file != "" {
		b = b.WithPath(c.file)
	}
	return b.Build()
}

func (c *Config) validatePaths() []error {
	var problems []error
	out := filepath.Clean(c.Paths.Output)
	for name, dir := range map[string]string{
		"paths.content":   c.Paths.Content,
		"paths.templates": c.Paths.Templates,
		"paths.static":    c.Paths.Static,
	} {
		d := filepath.Clean(dir)
		if d == out {
			problems = append(problems, fmt.Errorf("%s and paths.output must differ (%s)", name, dir))
			continue
		}
		if within(out, d) {
			problems = append(problems, fmt.Errorf("paths.output cannot contain %s (%s)", name, dir))
		}
	}
	return problems
}

func (c *Config) validateContent() []error {
	var problems []error
	for _, ext := range c.Content.Extensions {
		if strings.Trim(strings.TrimSpace(ext), ".") == "" {
			problems = append(problems, fmt.Errorf("content.extensions contains blank entry %q", ext))
		}
	}
	seen := map[string]bool{}
	for _, key := range c.Content.Taxonomies {
		if strings.TrimSpace(key) == "" {
			problems = append(problems, errors.New("content.taxonomies contains a blank key"))
			continue
		}
		if seen[key] {
			problems = append(problems, fmt.Errorf("duplicate taxonomy %q", key))
		}
		seen[key] = true
	}
	names := map[string]bool{}
	for _, tc := range c.Content.Types {
		if strings.TrimSpace(tc.Name) == "" {
			problems = append(problems, errors.New("content type name cannot be blank"))
			continue
		}
		if names[tc.Name] {
			problems = append(problems, fmt.Errorf("duplicate content type %q", tc.Name))
		}
		names[tc.Name] = true
	}
	return problems
}

// within reports whether child lies strictly inside parent.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
