package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/glaze/internal/build"
	"git.home.luguber.info/inful/glaze/internal/config"
	"git.home.luguber.info/inful/glaze/internal/extension"
	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/frontmatter"
	"git.home.luguber.info/inful/glaze/internal/history"
	"git.home.luguber.info/inful/glaze/internal/testutil"
)

// runCLI parses args against a fresh CLI rooted at site and runs the command.
func runCLI(t *testing.T, site *testutil.Site, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("glaze"), kong.Vars{"version": "test"})
	require.NoError(t, err)

	kctx, err := parser.Parse(append([]string{"--config", site.ConfigPath()}, args...))
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out}, &cli)
	return out.String(), err
}

func loadTestConfig(t *testing.T, site *testutil.Site) *config.Config {
	t.Helper()
	cfg, err := config.Load(site.ConfigPath())
	require.NoError(t, err)
	return cfg
}

func TestInit_ThenBuild(t *testing.T) {
	site := testutil.NewSite(t)

	out, err := runCLI(t, site, "init")
	require.NoError(t, err)
	require.Contains(t, out, "initialized successfully")

	site.WithFile("content/index.md", "# Welcome\n")
	out, err = runCLI(t, site, "build")
	require.NoError(t, err)
	require.Contains(t, out, "Built 1 pages (full)")
	require.FileExists(t, site.Path("public/index.html"))

	out, err = runCLI(t, site, "build")
	require.NoError(t, err)
	require.Contains(t, out, "(incremental)")
	require.Contains(t, out, "0 rendered")
}

func TestInit_RefusesToOverwrite(t *testing.T) {
	site := testutil.NewSite(t)
	_, err := runCLI(t, site, "init")
	require.NoError(t, err)

	_, err = runCLI(t, site, "init")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = runCLI(t, site, "init", "--force")
	require.NoError(t, err)
}

func TestBuild_MissingConfig(t *testing.T) {
	_, err := runCLI(t, testutil.NewSite(t), "build")
	require.Error(t, err)
	require.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestBuild_DraftsAndFullFlags(t *testing.T) {
	site := testutil.NewSite(t)
	site.WithConfig("site:\n  title: T\n")
	site.WithFile("content/index.md", "# Home\n")
	site.WithFile("content/wip.md", "---\ndraft: true\n---\nSoon\n")

	_, err := runCLI(t, site, "build")
	require.NoError(t, err)
	require.NoFileExists(t, site.Path("public/wip/index.html"))

	out, err := runCLI(t, site, "build", "--drafts", "--full")
	require.NoError(t, err)
	require.Contains(t, out, "2 rendered")
	require.FileExists(t, site.Path("public/wip/index.html"))
}

func TestBuild_WritesMetricsTextfile(t *testing.T) {
	site := testutil.NewSite(t)
	site.WithConfig("metrics:\n  textfile: metrics/glaze.prom\n")
	site.WithFile("content/index.md", "# Home\n")

	_, err := runCLI(t, site, "build")
	require.NoError(t, err)

	data, err := os.ReadFile(site.Path("metrics/glaze.prom"))
	require.NoError(t, err)
	require.Contains(t, string(data), "glaze_pages_rendered_total 1")
	require.Contains(t, string(data), `glaze_build_mode_total{mode="full"} 1`)
}

func TestHistory_RecordsBuilds(t *testing.T) {
	site := testutil.NewSite(t)
	site.WithConfig("history:\n  enabled: true\n")
	site.WithFile("content/index.md", "# Home\n")

	_, err := runCLI(t, site, "build")
	require.NoError(t, err)
	_, err = runCLI(t, site, "build")
	require.NoError(t, err)

	out, err := runCLI(t, site, "history", "-n", "5")
	require.NoError(t, err)
	require.Contains(t, out, "STARTED")
	require.Contains(t, out, "full")
	require.Contains(t, out, "incremental")
}

func TestHistory_Disabled(t *testing.T) {
	site := testutil.NewSite(t)
	site.WithConfig("site:\n  title: T\n")

	out, err := runCLI(t, site, "history")
	require.NoError(t, err)
	require.Contains(t, out, "disabled")
}

func TestDiscover_JSON(t *testing.T) {
	site := testutil.NewSite(t)
	site.WithConfig("build:\n  taxonomy_pages: true\n")
	site.WithFile("content/index.md", "# Home\n")
	site.WithFile("content/blog/post.md", "---\ntags: [go]\n---\nx\n")

	out, err := runCLI(t, site, "discover", "--json")
	require.NoError(t, err)

	var pages []discoveredPage
	require.NoError(t, json.Unmarshal([]byte(out), &pages))
	slugs := make([]string, 0, len(pages))
	for _, p := range pages {
		slugs = append(slugs, p.Slug)
	}
	require.Equal(t, []string{"blog/post", "index", "tags", "tags/go"}, slugs)
}

func TestDiscover_Table(t *testing.T) {
	site := testutil.NewSite(t)
	site.WithConfig("site:\n  title: T\n")
	site.WithFile("content/about.md", "---\ndraft: true\n---\nx\n")

	out, err := runCLI(t, site, "discover")
	require.NoError(t, err)
	require.Contains(t, out, "SLUG")
	require.Contains(t, out, "/about/")
	require.Contains(t, out, "1 pages")
}

const typedConfig = `content:
  types:
    post:
      paths: [blog/**]
      create_pattern: "{date}-{slug}"
    doc:
      paths: [docs]
`

func TestNew_WithCreatePattern(t *testing.T) {
	site := testutil.NewSite(t)
	site.WithConfig(typedConfig)
	cfg := loadTestConfig(t, site)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	created, err := RunNew(cfg, NewOptions{Path: "My First Post", Type: "post", Draft: true, Now: now})
	require.NoError(t, err)
	require.Equal(t, site.Path("content/blog/2026-10-16-my-first-post.md"), created)

	data, err := os.ReadFile(created)
	require.NoError(t, err)
	fields, _, err := frontmatter.Parse(data)
	require.NoError(t, err)
	require.Equal(t, "My First Post", fields["title"])
	require.Equal(t, "post", fields["type"])
	require.Equal(t, "2026-10-16", fields["date"])
	require.Equal(t, true, fields["draft"])
}

func TestNew_PlainPath(t *testing.T) {
	site := testutil.NewSite(t)
	site.WithConfig(typedConfig)
	cfg := loadTestConfig(t, site)

	created, err := RunNew(cfg, NewOptions{Path: "docs/getting-started", Type: "doc", Now: time.Now()})
	require.NoError(t, err)
	require.Equal(t, site.Path("content/docs/getting-started.md"), created)

	fields, _, err := frontmatter.Parse(mustRead(t, created))
	require.NoError(t, err)
	require.Equal(t, "Getting Started", fields["title"])
	require.NotContains(t, fields, "draft")

	created, err = RunNew(cfg, NewOptions{Path: "about.md", Title: "About us", Now: time.Now()})
	require.NoError(t, err)
	fields, _, err = frontmatter.Parse(mustRead(t, created))
	require.NoError(t, err)
	require.Equal(t, "About us", fields["title"])
	require.NotContains(t, fields, "type")
}

func TestNew_Rejections(t *testing.T) {
	site := testutil.NewSite(t)
	site.WithConfig(typedConfig)
	site.WithFile("content/taken.md", "x")
	cfg := loadTestConfig(t, site)

	for name, opts := range map[string]NewOptions{
		"unknown type": {Path: "x", Type: "recipe"},
		"exists":       {Path: "taken"},
		"escapes":      {Path: "../outside"},
		"empty slug":   {Path: "!!!", Type: "post"},
	} {
		t.Run(name, func(t *testing.T) {
			opts.Now = time.Now()
			_, err := RunNew(cfg, opts)
			require.Error(t, err)
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
		})
	}
}

func TestStaticPrefix(t *testing.T) {
	tests := map[string]string{
		"blog":         "blog",
		"/blog/posts/": "blog/posts",
		"blog/**":      "blog",
		"docs/*/guide": "docs",
		"**/*.md":      "",
	}
	for in, want := range tests {
		require.Equal(t, want, staticPrefix(in), in)
	}
}

func mustRead(t *testing.T, p string) []byte {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	return data
}

type fakeStore struct{ entries []history.Entry }

func (f *fakeStore) Record(_ context.Context, e history.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakePublisher struct {
	sent []any
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, v any) error {
	f.sent = append(f.sent, v)
	return f.err
}

func TestHandlers_ConvertReports(t *testing.T) {
	report := &build.Report{
		BuildID: "b1", Status: build.StatusFailed, Mode: "full",
		Rendered: 3, Deleted: 1, AssetsPublished: 2, Revision: "abc", Error: "boom",
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev := extension.Event{Kind: extension.EventBuildFailed, BuildID: "b1", Payload: report}

	store := &fakeStore{}
	require.NoError(t, historyHandler(store)(ctx, ev))
	require.Equal(t, []history.Entry{{
		BuildID: "b1", Mode: "full", Status: "failed",
		Rendered: 3, Deleted: 1, Assets: 2, Revision: "abc", Error: "boom",
	}}, store.entries)

	pub := &fakePublisher{err: errors.New("offline")}
	require.Error(t, notifyHandler(pub)(ctx, ev))
	require.Equal(t, []any{report}, pub.sent)

	require.NoError(t, historyHandler(store)(ctx, extension.Event{Payload: "other"}))
	require.Len(t, store.entries, 1)
}

func TestWatchOptions(t *testing.T) {
	site := testutil.NewSite(t)
	site.WithConfig("watch:\n  debounce: 50ms\n  poll_interval: 1m\n")
	cfg := loadTestConfig(t, site)

	opts := watchOptions(cfg)
	require.Equal(t, []string{
		site.Path("content"),
		site.Path("templates"),
		site.Path("static"),
		site.Path("extensions"),
	}, opts.Roots)
	require.Equal(t, []string{site.ConfigPath()}, opts.Files)
	require.Equal(t, 50*time.Millisecond, opts.Debounce)
	require.Equal(t, time.Minute, opts.PollInterval)
}
