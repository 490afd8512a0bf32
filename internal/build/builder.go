package build

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/glaze/internal/config"
	"git.home.luguber.info/inful/glaze/internal/content"
	"git.home.luguber.info/inful/glaze/internal/extension"
	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/logfields"
	"git.home.luguber.info/inful/glaze/internal/manifest"
	"git.home.luguber.info/inful/glaze/internal/metrics"
	"git.home.luguber.info/inful/glaze/internal/observability"
	"git.home.luguber.info/inful/glaze/internal/render"
	"git.home.luguber.info/inful/glaze/internal/vcs"
)

// Stage names used in logs and metrics.
const (
	StageDiscover = "discover"
	StagePlan     = "plan"
	StageRender   = "render"
	StageDelete   = "delete"
	StageAssets   = "assets"
	StageLinks    = "links"
	StageManifest = "manifest"
)

// Builder is the standard implementation of Service.
type Builder struct {
	cfg       *config.Config
	registry  *extension.Registry
	converter render.Converter
	recorder  metrics.Recorder
	revision  func(dir string) string
}

// NewBuilder creates a Builder for cfg with Goldmark conversion, an empty
// extension registry and no metrics.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		cfg:       cfg,
		registry:  extension.NewRegistry(),
		converter: render.NewGoldmark(),
		recorder:  metrics.NoopRecorder{},
		revision:  vcs.Revision,
	}
}

// WithRegistry sets the event and transformer registry.
func (b *Builder) WithRegistry(r *extension.Registry) *Builder {
	b.registry = r
	return b
}

// WithConverter replaces the markup converter.
func (b *Builder) WithConverter(c render.Converter) *Builder {
	b.converter = c
	return b
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	b.recorder = r
	return b
}

// ManifestPath is where the build manifest is persisted.
func (b *Builder) ManifestPath() string {
	return filepath.Join(b.cfg.Paths.Cache, manifest.FileName)
}

// VirtualOutputsPath is where the outputs of virtual pages are recorded.
func (b *Builder) VirtualOutputsPath() string {
	return filepath.Join(b.cfg.Paths.Cache, manifest.VirtualFileName)
}

// Run executes one build. The returned report is never nil.
func (b *Builder) Run(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	report := &Report{
		BuildID:   uuid.NewString(),
		StartedAt: start,
		Revision:  b.revision(b.cfg.Dir()),
	}
	ctx = observability.WithBuildID(ctx, report.BuildID)

	b.emit(ctx, extension.EventBuildStarted, report)
	err := b.run(ctx, req, report)
	report.Duration = time.Since(start)
	b.recorder.ObserveBuildDuration(report.Duration)

	if err != nil {
		report.Status = StatusFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.Status = StatusCancelled
		}
		report.Error = err.Error()
		observability.ErrorContext(ctx, "Build failed", logfields.Error(err), logfields.DurationMS(ms(report.Duration)))
		b.emit(ctx, extension.EventBuildFailed, report)
		return report, err
	}

	report.Status = StatusSuccess
	observability.InfoContext(ctx, "Build completed",
		logfields.Mode(report.Mode),
		logfields.Count(report.Rendered),
		logfields.DurationMS(ms(report.Duration)))
	b.emit(ctx, extension.EventBuildCompleted, report)
	return report, nil
}

// emit notifies handlers. Handler failures never fail the build.
func (b *Builder) emit(ctx context.Context, kind extension.EventKind, report *Report) {
	err := b.registry.Emit(ctx, extension.Event{Kind: kind, BuildID: report.BuildID, Payload: report})
	if err != nil {
		observability.WarnContext(ctx, "Event handler failed", logfields.Event(string(kind)), logfields.Error(err))
	}
}

// stage runs fn with the stage recorded in logs and metrics.
func (b *Builder) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		b.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	}
	ctx = observability.WithStage(ctx, name)
	start := time.Now()
	err := fn(ctx)
	b.recorder.ObserveStageDuration(name, time.Since(start))
	switch {
	case err == nil:
		b.recorder.IncStageResult(name, metrics.ResultSuccess)
	case errors.Is(err, context.Canceled):
		b.recorder.IncStageResult(name, metrics.ResultCanceled)
	default:
		b.recorder.IncStageResult(name, metrics.ResultFatal)
	}
	return err
}

func (b *Builder) run(ctx context.Context, req Request, report *Report) error {
	cfg := b.cfg
	includeDrafts := cfg.Build.IncludeDrafts || req.IncludeDrafts
	out := outputDir{root: cfg.Paths.Output}

	var pages []content.Page
	err := b.stage(ctx, StageDiscover, func(ctx context.Context) error {
		discovered, err := content.Discover(cfg.Paths.Content, cfg.DiscoveryOptions())
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryContent, "discover content").WithPath(cfg.Paths.Content).Fatal().Build()
		}
		pages = discovered
		if cfg.Build.TaxonomyPages {
			pages = append(pages, content.TaxonomyPages(publishable(discovered, includeDrafts), cfg.Content.Taxonomies)...)
		}
		observability.InfoContext(ctx, "Discovered content", logfields.Count(len(pages)))
		return nil
	})
	if err != nil {
		return err
	}
	report.Pages = len(pages)

	var (
		next *manifest.Manifest
		plan Plan
	)
	err = b.stage(ctx, StagePlan, func(ctx context.Context) error {
		next = manifest.FromBuild(manifest.Inputs{
			ConfigFile:      cfg.File(),
			TemplateDir:     cfg.Paths.Templates,
			ExtensionsDir:   cfg.Paths.Extensions,
			ContentDir:      cfg.Paths.Content,
			StaticDir:       cfg.Paths.Static,
			IncludeDrafts:   includeDrafts,
			DefaultTemplate: cfg.Build.DefaultTemplate,
			Extensions:      cfg.Content.Extensions,
		}, pages)

		var prev *manifest.Manifest
		if !req.Full {
			prev = manifest.Load(b.ManifestPath())
		}
		if prev == nil {
			observability.InfoContext(ctx, "No previous build manifest, performing full rebuild", logfields.Path(b.ManifestPath()))
			if cfg.Build.Clean {
				if err := out.clean(); err != nil {
					return err
				}
			}
		}

		plan = NewPlan(next, prev, pages, PlanOptions{
			IncludeDrafts:   includeDrafts,
			OutputExists:    out.exists,
			PreviousVirtual: manifest.LoadVirtualOutputs(b.VirtualOutputsPath()),
		})
		return nil
	})
	if err != nil {
		return err
	}

	report.Mode = metrics.ModeIncremental
	if plan.Full {
		report.Mode = metrics.ModeFull
	}
	ctx = observability.WithMode(ctx, report.Mode)
	b.recorder.IncBuildMode(report.Mode)
	observability.InfoContext(ctx, "Build planned",
		logfields.Count(len(plan.Render)),
		logfields.Workers(cfg.Build.Workers))

	site := render.Site{Title: cfg.Site.Title, BaseURL: cfg.Site.BaseURL, Pages: publishable(realPages(pages), includeDrafts)}
	err = b.stage(ctx, StageRender, func(ctx context.Context) error {
		n, err := b.renderAll(ctx, plan.Render, site, out, report.BuildID)
		report.Rendered = n
		b.recorder.AddPagesRendered(n)
		return err
	})
	if err != nil {
		return err
	}

	err = b.stage(ctx, StageDelete, func(ctx context.Context) error {
		for _, rel := range plan.Deletions() {
			removed, err := out.remove(rel)
			if err != nil {
				return err
			}
			if removed {
				report.Deleted++
				observability.DebugContext(ctx, "Deleted output", logfields.Path(rel))
			}
		}
		b.recorder.AddOutputsDeleted(report.Deleted)
		return nil
	})
	if err != nil {
		return err
	}

	err = b.stage(ctx, StageAssets, func(ctx context.Context) error {
		// Static assets are copied last so they win over content assets.
		for _, set := range []struct {
			root  string
			paths []string
		}{
			{cfg.Paths.Content, plan.PublishContentAssets},
			{cfg.Paths.Static, plan.PublishStaticAssets},
		} {
			for _, rel := range set.paths {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := out.copyFrom(filepath.Join(set.root, filepath.FromSlash(rel)), rel); err != nil {
					return err
				}
				report.AssetsPublished++
			}
		}
		b.recorder.AddAssetsPublished(report.AssetsPublished)
		return nil
	})
	if err != nil {
		return err
	}

	if x, ok := b.converter.(LinkExtractor); ok {
		_ = b.stage(ctx, StageLinks, func(ctx context.Context) error {
			known := knownURLs(site.Pages, next.ContentAssetOutputPaths(), next.StaticAssetOutputPaths())
			for _, p := range pages {
				if p.Virtual && Publishable(p, includeDrafts) {
					known[p.URLPath] = true
				}
			}
			report.BrokenLinks = findBrokenLinks(x, plan.Render, known)
			for _, bl := range report.BrokenLinks {
				observability.WarnContext(ctx, "Broken internal link", logfields.File(bl.Page), logfields.URL(bl.Destination))
			}
			return nil
		})
	}

	// The virtual list goes first: if the manifest save then fails, the next
	// build is a full one and the list still matches the output tree.
	return b.stage(ctx, StageManifest, func(context.Context) error {
		if err := manifest.SaveVirtualOutputs(b.VirtualOutputsPath(), VirtualOutputs(pages, includeDrafts)); err != nil {
			return err
		}
		return next.Save(b.ManifestPath())
	})
}

// renderAll renders pages with at most cfg.Build.Workers in flight and
// returns how many were written.
func (b *Builder) renderAll(ctx context.Context, pages []content.Page, site render.Site, out outputDir, buildID string) (int, error) {
	engine, err := render.NewEngine(b.cfg.Paths.Templates, b.cfg.Site.BaseURL)
	if err != nil {
		return 0, err
	}

	var rendered atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.cfg.Build.Workers))
	for _, p := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := b.renderPage(gctx, engine, site, out, p, buildID); err != nil {
				return err
			}
			rendered.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(rendered.Load()), err
}

func (b *Builder) renderPage(ctx context.Context, engine *render.Engine, site render.Site, out outputDir, p content.Page, buildID string) error {
	where := p.RelativePath
	if p.Virtual {
		where = p.Slug
	}

	html, err := b.converter.Convert([]byte(p.Source))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRender, "convert markup").WithPath(where).Fatal().Build()
	}
	html, err = b.registry.Apply(ctx, p, html)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRender, "transform html").WithPath(where).Fatal().Build()
	}

	var buf bytes.Buffer
	err = engine.Render(&buf, p.Template(b.cfg.Build.DefaultTemplate), render.PageData{
		Site:    site,
		Page:    p,
		Content: template.HTML(html), //nolint:gosec // converter output with raw HTML disabled
		Pages:   content.Members(p, site.Pages),
		BuildID: buildID,
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRender, "render page").WithPath(where).Fatal().Build()
	}

	if err := out.write(p.OutputRelativePath, buf.Bytes()); err != nil {
		return err
	}
	observability.DebugContext(ctx, "Rendered page", logfields.Slug(p.Slug), logfields.Path(p.OutputRelativePath))
	return nil
}

func publishable(pages []content.Page, includeDrafts bool) []content.Page {
	out := make([]content.Page, 0, len(pages))
	for _, p := range pages {
		if Publishable(p, includeDrafts) {
			out = append(out, p)
		}
	}
	return out
}

func realPages(pages []content.Page) []content.Page {
	out := make([]content.Page, 0, len(pages))
	for _, p := range pages {
		if !p.Virtual {
			out = append(out, p)
		}
	}
	return out
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
