package commands

import (
	"context"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/glaze/internal/build"
	"git.home.luguber.info/inful/glaze/internal/config"
	"git.home.luguber.info/inful/glaze/internal/logfields"
	"git.home.luguber.info/inful/glaze/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Drafts bool `help:"Publish draft pages"`
}

func (wc *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rebuild := rebuildFunc(g.out(), root, wc.Drafts)
	rebuild(ctx, watch.Trigger{Count: 1, Last: "startup"})

	w, err := watch.New(watchOptions(cfg), rebuild)
	if err != nil {
		return err
	}
	err = w.Run(ctx)
	slog.Info("Watch stopped")
	return err
}

func watchOptions(cfg *config.Config) watch.Options {
	return watch.Options{
		Roots:        []string{cfg.Paths.Content, cfg.Paths.Templates, cfg.Paths.Static, cfg.Paths.Extensions},
		Files:        []string{cfg.File()},
		Debounce:     cfg.Watch.Debounce,
		PollInterval: cfg.Watch.PollInterval,
	}
}

// rebuildFunc reloads the configuration and runs one build per trigger.
// Failures are logged; watching continues.
func rebuildFunc(w io.Writer, root *CLI, drafts bool) watch.BuildFunc {
	return func(ctx context.Context, t watch.Trigger) {
		slog.Info("Rebuilding", logfields.Count(t.Count), logfields.Path(t.Last))

		cfg, err := loadConfig(root)
		if err != nil {
			slog.Error("Configuration invalid, skipping build", logfields.Error(err))
			return
		}
		s, err := openSession(cfg)
		if err != nil {
			slog.Error("Build setup failed", logfields.Error(err))
			return
		}
		defer s.Close()

		report, err := s.run(ctx, build.Request{IncludeDrafts: drafts})
		if err != nil {
			// Already logged by the builder.
			return
		}
		printReport(w, report)
	}
}
