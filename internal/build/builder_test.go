package build

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/glaze/internal/config"
	"git.home.luguber.info/inful/glaze/internal/extension"
	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/manifest"
	"git.home.luguber.info/inful/glaze/internal/metrics"
	"git.home.luguber.info/inful/glaze/internal/testutil"
)

const siteConfig = `site:
  title: Test Site
  base_url: https://example.com
build:
  workers: 2
`

const postSource = `---
title: First Post
tags: [Go, Web]
---
# Hello

See [home](/) and [missing](/nope/).
`

// newSite lays out a small project.
func newSite(t *testing.T, cfg string) *testutil.Site {
	t.Helper()
	return testutil.NewSite(t).
		WithConfig(cfg).
		WithFile("content/index.md", "# Home\n").
		WithFile("content/blog/post.md", postSource).
		WithFile("content/blog/pic.png", "png").
		WithFile("static/css/site.css", "body{}").
		WithFile("templates/page.html", `{{ .Page.Title }}|{{ .Content }}`)
}

func newTestBuilder(t *testing.T, site *testutil.Site) *Builder {
	t.Helper()
	cfg, err := config.Load(site.ConfigPath())
	require.NoError(t, err)
	b := NewBuilder(cfg)
	b.revision = func(string) string { return "abc123" }
	return b
}

func TestBuilder_FirstBuildIsFull(t *testing.T) {
	site := newSite(t, siteConfig)
	b := newTestBuilder(t, site)

	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, report.Status)
	require.Equal(t, metrics.ModeFull, report.Mode)
	require.Equal(t, "abc123", report.Revision)
	require.NotEmpty(t, report.BuildID)
	require.Equal(t, 2, report.Pages)
	require.Equal(t, 2, report.Rendered)
	require.Equal(t, 2, report.AssetsPublished)
	require.Zero(t, report.Deleted)

	require.Contains(t, site.Read("public/index.html"), `Home|<h1 id="home">Home</h1>`)
	require.Contains(t, site.Read("public/blog/post/index.html"), "First Post|")
	require.Equal(t, "png", site.Read("public/blog/pic.png"))
	require.Equal(t, "body{}", site.Read("public/css/site.css"))
	require.NotNil(t, manifest.Load(b.ManifestPath()))
}

func TestBuilder_UnchangedRebuildRendersNothing(t *testing.T) {
	site := newSite(t, siteConfig)
	b := newTestBuilder(t, site)
	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)

	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, metrics.ModeIncremental, report.Mode)
	require.Zero(t, report.Rendered)
	require.Zero(t, report.AssetsPublished)
	require.Zero(t, report.Deleted)
}

func TestBuilder_BodyChangeRendersOnlyThatPage(t *testing.T) {
	site := newSite(t, siteConfig)
	b := newTestBuilder(t, site)
	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)

	site.WithFile("content/blog/post.md", "---\ntitle: First Post\ntags: [Go, Web]\n---\nRewritten.\n")
	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, metrics.ModeIncremental, report.Mode)
	require.Equal(t, 1, report.Rendered)
	require.Contains(t, site.Read("public/blog/post/index.html"), "Rewritten.")
}

func TestBuilder_RequestFullIgnoresManifest(t *testing.T) {
	site := newSite(t, siteConfig)
	b := newTestBuilder(t, site)
	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)

	report, err := b.Run(context.Background(), Request{Full: true})
	require.NoError(t, err)
	require.Equal(t, metrics.ModeFull, report.Mode)
	require.Equal(t, 2, report.Rendered)
}

func TestBuilder_TemplateChangeForcesFullBuild(t *testing.T) {
	site := newSite(t, siteConfig)
	b := newTestBuilder(t, site)
	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)

	site.Touch("templates/page.html", time.Now().Add(time.Hour))

	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, metrics.ModeFull, report.Mode)
	require.Equal(t, 2, report.Rendered)
}

func TestBuilder_RemovedPageIsDeletedAndDirectoryPruned(t *testing.T) {
	site := newSite(t, siteConfig)
	b := newTestBuilder(t, site)
	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)

	site.Remove("content/blog/post.md")
	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Deleted)
	require.NoDirExists(t, site.Path("public/blog/post"))
	require.FileExists(t, site.Path("public/blog/pic.png"))
}

func TestBuilder_RemovedAssetIsDeleted(t *testing.T) {
	site := newSite(t, siteConfig)
	b := newTestBuilder(t, site)
	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)

	site.Remove("static/css/site.css")
	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Deleted)
	require.NoDirExists(t, site.Path("public/css"))
}

func TestBuilder_MissingOutputIsRestored(t *testing.T) {
	site := newSite(t, siteConfig)
	b := newTestBuilder(t, site)
	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)

	site.Remove("public/index.html")
	site.Remove("public/css/site.css")

	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, metrics.ModeIncremental, report.Mode)
	require.Equal(t, 1, report.Rendered)
	require.Equal(t, 1, report.AssetsPublished)
	require.FileExists(t, site.Path("public/index.html"))
	require.FileExists(t, site.Path("public/css/site.css"))
}

func TestBuilder_Drafts(t *testing.T) {
	site := newSite(t, siteConfig)
	site.WithFile("content/wip.md", "---\ndraft: true\n---\nSoon.\n")
	b := newTestBuilder(t, site)

	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, 2, report.Rendered)
	require.NoFileExists(t, site.Path("public/wip/index.html"))

	report, err = b.Run(context.Background(), Request{IncludeDrafts: true})
	require.NoError(t, err)
	require.Equal(t, metrics.ModeFull, report.Mode)
	require.Equal(t, 3, report.Rendered)
	require.Contains(t, site.Read("public/wip/index.html"), "Soon.")

	report, err = b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Deleted)
	require.NoFileExists(t, site.Path("public/wip/index.html"))
}

func TestBuilder_CleanEmptiesOutputOnFirstBuild(t *testing.T) {
	site := newSite(t, siteConfig+"  clean: true\n")
	site.WithFile("public/stale.html", "old")
	b := newTestBuilder(t, site)

	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.NoFileExists(t, site.Path("public/stale.html"))
	require.FileExists(t, site.Path("public/index.html"))
}

func TestBuilder_WithoutCleanKeepsForeignFiles(t *testing.T) {
	site := newSite(t, siteConfig)
	site.WithFile("public/stale.html", "old")
	b := newTestBuilder(t, site)

	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.FileExists(t, site.Path("public/stale.html"))
}

func TestBuilder_TaxonomyPages(t *testing.T) {
	site := newSite(t, siteConfig+"  taxonomy_pages: true\n")
	b := newTestBuilder(t, site)

	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	// Two real pages, the tags index and one page per term.
	require.Equal(t, 5, report.Pages)
	require.Equal(t, 5, report.Rendered)

	term := site.Read("public/tags/go/index.html")
	require.Contains(t, term, `<a href="https://example.com/blog/post/">First Post</a>`)
	require.FileExists(t, site.Path("public/tags/index.html"))
	require.FileExists(t, site.Path("public/tags/web/index.html"))
}

func TestBuilder_RemovedTermPageIsDeleted(t *testing.T) {
	site := newSite(t, siteConfig+"  taxonomy_pages: true\n")
	_, err := newTestBuilder(t, site).Run(context.Background(), Request{})
	require.NoError(t, err)
	require.FileExists(t, site.Path("public/tags/web/index.html"))

	site.WithFile("content/blog/post.md", "---\ntitle: First Post\ntags: [Go]\n---\n# Hello\n")
	b := newTestBuilder(t, site)
	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Deleted)

	require.NoFileExists(t, site.Path("public/tags/web/index.html"))
	require.NoDirExists(t, site.Path("public/tags/web"))
	require.FileExists(t, site.Path("public/tags/go/index.html"))
	require.Equal(t, []string{"tags/go/index.html", "tags/index.html"}, manifest.LoadVirtualOutputs(b.VirtualOutputsPath()))
}

func TestBuilder_DisablingTaxonomyPagesRemovesThem(t *testing.T) {
	site := newSite(t, siteConfig+"  taxonomy_pages: true\n")
	_, err := newTestBuilder(t, site).Run(context.Background(), Request{})
	require.NoError(t, err)

	site.WithConfig(siteConfig)
	report, err := newTestBuilder(t, site).Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, 3, report.Deleted)
	require.NoDirExists(t, site.Path("public/tags"))
	require.FileExists(t, site.Path("public/blog/post/index.html"))
}

func TestBuilder_ReportsBrokenLinks(t *testing.T) {
	site := newSite(t, siteConfig)
	b := newTestBuilder(t, site)

	report, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, []BrokenLink{{Page: "blog/post.md", Destination: "/nope/"}}, report.BrokenLinks)
}

func TestBuilder_AppliesTransformers(t *testing.T) {
	site := newSite(t, siteConfig)
	site.WithFile("content/links.md", "[go](https://go.dev)\n")
	registry := extension.NewRegistry()
	require.NoError(t, registry.EnableBuiltins([]string{extension.ExternalLinks}))
	b := newTestBuilder(t, site).WithRegistry(registry)

	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Contains(t, site.Read("public/links/index.html"), `target="_blank"`)
}

func TestBuilder_EmitsLifecycleEvents(t *testing.T) {
	site := newSite(t, siteConfig)
	registry := extension.NewRegistry()
	var (
		mu    sync.Mutex
		kinds []extension.EventKind
		last  *Report
	)
	record := func(_ context.Context, ev extension.Event) error {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, ev.Kind)
		last, _ = ev.Payload.(*Report)
		return nil
	}
	registry.On(extension.EventBuildStarted, record)
	registry.On(extension.EventBuildCompleted, record)
	registry.On(extension.EventBuildFailed, record)
	registry.On(extension.EventBuildCompleted, func(context.Context, extension.Event) error {
		return ferrors.InternalError("handler broke").Build()
	})

	report, err := newTestBuilder(t, site).WithRegistry(registry).Run(context.Background(), Request{})
	require.NoError(t, err, "handler errors must not fail the build")
	require.Equal(t, []extension.EventKind{extension.EventBuildStarted, extension.EventBuildCompleted}, kinds)
	require.Same(t, report, last)
	require.Equal(t, StatusSuccess, last.Status)
}

func TestBuilder_RenderFailureKeepsPreviousManifest(t *testing.T) {
	site := newSite(t, siteConfig)
	b := newTestBuilder(t, site)
	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	before, err := os.ReadFile(b.ManifestPath())
	require.NoError(t, err)

	registry := extension.NewRegistry()
	var failed bool
	registry.On(extension.EventBuildFailed, func(context.Context, extension.Event) error {
		failed = true
		return nil
	})
	site.WithFile("templates/page.html", `{{ .Page.Nope }}`)

	report, err := newTestBuilder(t, site).WithRegistry(registry).Run(context.Background(), Request{Full: true})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryRender))
	require.Equal(t, StatusFailed, report.Status)
	require.NotEmpty(t, report.Error)
	require.True(t, failed)

	after, err := os.ReadFile(b.ManifestPath())
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestBuilder_CancelledContext(t *testing.T) {
	site := newSite(t, siteConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newTestBuilder(t, site)
	report, err := b.Run(ctx, Request{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusCancelled, report.Status)
	require.NoFileExists(t, b.ManifestPath())
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	modes    []string
	rendered int
	results  map[string]metrics.ResultLabel
}

func (r *countingRecorder) IncBuildMode(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes = append(r.modes, mode)
}

func (r *countingRecorder) AddPagesRendered(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered += n
}

func (r *countingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[stage] = result
}

func TestBuilder_RecordsMetrics(t *testing.T) {
	site := newSite(t, siteConfig)
	rec := &countingRecorder{results: map[string]metrics.ResultLabel{}}
	b := newTestBuilder(t, site).WithRecorder(rec)

	_, err := b.Run(context.Background(), Request{})
	require.NoError(t, err)
	_, err = b.Run(context.Background(), Request{})
	require.NoError(t, err)

	require.Equal(t, []string{metrics.ModeFull, metrics.ModeIncremental}, rec.modes)
	require.Equal(t, 2, rec.rendered)
	for _, stage := range []string{StageDiscover, StagePlan, StageRender, StageDelete, StageAssets, StageLinks, StageManifest} {
		require.Equal(t, metrics.ResultSuccess, rec.results[stage], stage)
	}
}
