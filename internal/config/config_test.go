package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/glaze/internal/content"
	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeConfig(t, dir, ""))
	require.NoError(t, err)

	require.Equal(t, DefaultSiteTitle, cfg.Site.Title)
	require.Equal(t, filepath.Join(dir, "content"), cfg.Paths.Content)
	require.Equal(t, filepath.Join(dir, "public"), cfg.Paths.Output)
	require.Equal(t, filepath.Join(dir, ".glaze"), cfg.Paths.Cache)
	require.Equal(t, filepath.Join(dir, ".glaze", "history.db"), cfg.History.Path)
	require.Equal(t, "page.html", cfg.Build.DefaultTemplate)
	require.Equal(t, runtime.NumCPU(), cfg.Build.Workers)
	require.Equal(t, []string{".dj", ".djot", ".md"}, cfg.Content.Extensions)
	require.Equal(t, []string{"tags"}, cfg.Content.Taxonomies)
	require.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	require.Equal(t, "glaze.builds", cfg.Notify.Subject)
	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
	require.Equal(t, LogFormatText, cfg.Logging.Format)
	require.Equal(t, dir, cfg.Dir())
}

func TestLoad_FullFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeConfig(t, dir, `
site:
  title: Notes
  base_url: https://notes.example.com/
paths:
  content: docs
  output: /srv/www
build:
  include_drafts: true
  workers: 2
  taxonomy_pages: true
content:
  taxonomies: [tags, categories]
  types:
    post:
      paths: [blog]
      create_pattern: "{date}-{slug}.md"
      meta:
        template: post.html
    doc:
      paths: ["guides/**"]
watch:
  debounce: 1s
  poll_interval: 5m
logging:
  level: WARNING
  format: console
`))
	require.NoError(t, err)

	require.Equal(t, "Notes", cfg.Site.Title)
	require.Equal(t, filepath.Join(dir, "docs"), cfg.Paths.Content)
	require.Equal(t, "/srv/www", cfg.Paths.Output)
	require.True(t, cfg.Build.IncludeDrafts)
	require.Equal(t, 2, cfg.Build.Workers)
	require.Equal(t, []string{"tags", "categories"}, cfg.Content.Taxonomies)
	require.Equal(t, time.Second, cfg.Watch.Debounce)
	require.Equal(t, 5*time.Minute, cfg.Watch.PollInterval)
	require.Equal(t, LogLevelWarn, cfg.Logging.Level)
	require.Equal(t, LogFormatPretty, cfg.Logging.Format)

	require.Len(t, cfg.Content.Types, 2)
	require.Equal(t, "post", cfg.Content.Types[0].Name)
	require.Equal(t, "doc", cfg.Content.Types[1].Name)

	rules := cfg.TypeRules()
	require.Equal(t, "post", rules[0].Name)
	require.Equal(t, "{date}-{slug}.md", rules[0].CreatePattern)
	require.Equal(t, map[string]any{"template": "post.html"}, rules[0].Meta)
	require.True(t, rules[0].Matches("blog/a.md"))
	require.Equal(t, content.GlobMatcher{Pattern: "guides/**"}, rules[1].Matchers[0])

	post, ok := cfg.Content.Types.Lookup("post")
	require.True(t, ok)
	require.Equal(t, []string{"blog"}, post.Paths)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "glaze.yaml"))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.Contains(t, err.Error(), "glaze.yaml")
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), "site:\n  titel: typo\n"))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.Contains(t, err.Error(), "titel")
}

func TestLoad_TypesMustBeMapping(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), "content:\n  types: [post]\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "content.types")
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("GLAZE_TEST_TITLE", "From Env")
	cfg, err := Load(writeConfig(t, t.TempDir(), "site:\n  title: ${GLAZE_TEST_TITLE}\n"))
	require.NoError(t, err)
	require.Equal(t, "From Env", cfg.Site.Title)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GLAZE_TEST_KEPT", "process")
	t.Setenv("GLAZE_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("GLAZE_TEST_FROM_FILE"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("GLAZE_TEST_KEPT=file\nGLAZE_TEST_FROM_FILE=dotenv\n"), 0o600))

	cfg, err := Load(writeConfig(t, dir, "site:\n  title: ${GLAZE_TEST_KEPT}-${GLAZE_TEST_FROM_FILE}\n"))
	require.NoError(t, err)
	require.Equal(t, "process-dotenv", cfg.Site.Title)
	require.NoError(t, os.Unsetenv("GLAZE_TEST_FROM_FILE"))
}

func TestValidate_CollectsProblems(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), `
paths:
  content: site
  output: site
build:
  workers: -1
content:
  taxonomies: [tags, tags]
logging:
  level: loud
`))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	msg := err.Error()
	require.Contains(t, msg, "paths.content and paths.output must differ")
	require.Contains(t, msg, "build.workers")
	require.Contains(t, msg, `duplicate taxonomy "tags"`)
	require.Contains(t, msg, `invalid log level "loud"`)
}

func TestValidate_OutputMayNotContainContent(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), "paths:\n  output: .\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "paths.output cannot contain paths.content")
}

func TestNormalizeLogFormat(t *testing.T) {
	f, err := NormalizeLogFormat(" JSON ")
	require.NoError(t, err)
	require.Equal(t, LogFormatJSON, f)

	_, err = NormalizeLogFormat("xml")
	require.ErrorContains(t, err, "valid: console, json, logfmt, pretty, text")
}

func TestInit_WritesLoadableExample(t *testing.T) {
	p := filepath.Join(t.TempDir(), "site", DefaultFileName)
	require.NoError(t, Init(p, false))

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/", cfg.Site.BaseURL)
	require.True(t, cfg.Build.Clean)
	require.Equal(t, []string{"heading-anchors"}, cfg.Extensions.Enabled)
	require.Len(t, cfg.Content.Types, 1)
	require.Equal(t, "{date}-{slug}.md", cfg.Content.Types[0].CreatePattern)

	err = Init(p, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "--force")
	require.NoError(t, Init(p, true))
}

func TestNotifyRetryPolicy(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), `
notify:
  retries: 3
  retry_backoff: EXP
  retry_delay: 200ms
`))
	require.NoError(t, err)
	require.Equal(t, "exponential", cfg.Notify.RetryBackoff)

	p := cfg.Notify.RetryPolicy()
	require.Equal(t, 3, p.MaxRetries)
	require.Equal(t, 200*time.Millisecond, p.Delay(1))
	require.Equal(t, 400*time.Millisecond, p.Delay(2))
}

func TestNotifyRetryDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), ""))
	require.NoError(t, err)
	require.Equal(t, "linear", cfg.Notify.RetryBackoff)
	require.Equal(t, time.Second, cfg.Notify.RetryDelay)
	require.Zero(t, cfg.Notify.RetryPolicy().MaxRetries)

	_, err = Load(writeConfig(t, t.TempDir(), "notify:\n  retries: -1\n  retry_backoff: random\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "notify.retries cannot be negative")
	require.Contains(t, err.Error(), `invalid retry backoff "random"`)
}

func TestLoad_EmptyTaxonomyListIsKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), "content:\n  taxonomies: []\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Content.Taxonomies)
	require.Empty(t, cfg.Content.Taxonomies)
	require.NotNil(t, cfg.DiscoveryOptions().TaxonomyKeys)
}
