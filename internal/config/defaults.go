package config

import (
	"path/filepath"
	"runtime"
	"time"

	"git.home.luguber.info/inful/glaze/internal/content"
	"git.home.luguber.info/inful/glaze/internal/retry"
)

// Default values applied to fields left empty.
const (
	DefaultSiteTitle       = "My Site"
	DefaultContentDir      = "content"
	DefaultTemplateDir     = "templates"
	DefaultStaticDir       = "static"
	DefaultExtensionsDir   = "extensions"
	DefaultOutputDir       = "public"
	DefaultCacheDir        = ".glaze"
	DefaultTemplate        = "page.html"
	DefaultNotifySubject   = "glaze.builds"
	DefaultWatchDebounce   = 300 * time.Millisecond
	DefaultHistoryFileName = "history.db"
	DefaultRetryDelay      = time.Second

	maxRetryDelay = 30 * time.Second
)

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = DefaultSiteTitle
	}

	setDefault(&c.Paths.Content, DefaultContentDir)
	setDefault(&c.Paths.Templates, DefaultTemplateDir)
	setDefault(&c.Paths.Static, DefaultStaticDir)
	setDefault(&c.Paths.Extensions, DefaultExtensionsDir)
	setDefault(&c.Paths.Output, DefaultOutputDir)
	setDefault(&c.Paths.Cache, DefaultCacheDir)

	setDefault(&c.Build.DefaultTemplate, DefaultTemplate)
	if c.Build.Workers == 0 {
		c.Build.Workers = runtime.NumCPU()
	}

	if len(c.Content.Extensions) == 0 {
		c.Content.Extensions = append([]string(nil), content.DefaultExtensions...)
	}
	if c.Content.Taxonomies == nil {
		c.Content.Taxonomies = append([]string(nil), content.DefaultTaxonomyKeys...)
	}

	setDefault(&c.History.Path, filepath.Join(c.Paths.Cache, DefaultHistoryFileName))
	setDefault(&c.Notify.Subject, DefaultNotifySubject)
	setDefault(&c.Notify.RetryBackoff, string(retry.BackoffLinear))
	if c.Notify.RetryDelay == 0 {
		c.Notify.RetryDelay = DefaultRetryDelay
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = DefaultWatchDebounce
	}

	setDefault(&c.Logging.Level, LogLevelInfo)
	setDefault(&c.Logging.Format, LogFormatText)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
