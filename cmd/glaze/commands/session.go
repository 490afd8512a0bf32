package commands

import (
	"context"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/glaze/internal/build"
	"git.home.luguber.info/inful/glaze/internal/config"
	"git.home.luguber.info/inful/glaze/internal/extension"
	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/history"
	"git.home.luguber.info/inful/glaze/internal/logfields"
	"git.home.luguber.info/inful/glaze/internal/metrics"
	"git.home.luguber.info/inful/glaze/internal/notify"
)

// session is a builder wired to the handlers and recorders the
// configuration asks for.
type session struct {
	cfg      *config.Config
	builder  *build.Builder
	recorder *metrics.PrometheusRecorder
	closers  []func()
}

func openSession(cfg *config.Config) (*session, error) {
	s := &session{cfg: cfg}

	registry := extension.NewRegistry()
	if err := registry.EnableBuiltins(cfg.Extensions.Enabled); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "enable extensions").WithPath(cfg.File()).Build()
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = store.Close() })
		h := historyHandler(store)
		registry.On(extension.EventBuildCompleted, h)
		registry.On(extension.EventBuildFailed, h)
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := notify.Connect(cfg.Notify.NATSURL, cfg.Notify.Subject, cfg.Notify.RetryPolicy())
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, pub.Close)
		h := notifyHandler(pub)
		registry.On(extension.EventBuildCompleted, h)
		registry.On(extension.EventBuildFailed, h)
	}

	s.builder = build.NewBuilder(cfg).WithRegistry(registry)
	if cfg.Metrics.Textfile != "" {
		s.recorder = metrics.NewPrometheusRecorder(prom.NewRegistry())
		s.builder.WithRecorder(s.recorder)
	}
	return s, nil
}

// run executes one build and exports metrics whatever the outcome.
func (s *session) run(ctx context.Context, req build.Request) (*build.Report, error) {
	report, err := s.builder.Run(ctx, req)
	if s.recorder != nil {
		if werr := s.recorder.WriteTextfile(s.cfg.Metrics.Textfile); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(s.cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	return report, err
}

// Close releases handler resources in reverse order.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

type recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// historyHandler stores every finished build.
func historyHandler(store recorder) extension.Handler {
	return func(ctx context.Context, ev extension.Event) error {
		report, ok := ev.Payload.(*build.Report)
		if !ok {
			return nil
		}
		return store.Record(context.WithoutCancel(ctx), history.Entry{
			BuildID:   report.BuildID,
			StartedAt: report.StartedAt,
			Duration:  report.Duration,
			Mode:      report.Mode,
			Status:    string(report.Status),
			Rendered:  report.Rendered,
			Deleted:   report.Deleted,
			Assets:    report.AssetsPublished,
			Revision:  report.Revision,
			Error:     report.Error,
		})
	}
}

type publisher interface {
	Publish(ctx context.Context, v any) error
}

// notifyHandler publishes the report of every finished build.
func notifyHandler(pub publisher) extension.Handler {
	return func(ctx context.Context, ev extension.Event) error {
		report, ok := ev.Payload.(*build.Report)
		if !ok {
			return nil
		}
		return pub.Publish(context.WithoutCancel(ctx), report)
	}
}
