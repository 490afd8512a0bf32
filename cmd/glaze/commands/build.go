package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/glaze/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Drafts bool `help:"Publish draft pages"`
	Full   bool `help:"Ignore the previous build manifest and rebuild everything"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.run(ctx, build.Request{Full: b.Full, IncludeDrafts: b.Drafts})
	if err != nil {
		return err
	}
	printReport(g.out(), report)
	return nil
}

func printReport(w io.Writer, r *build.Report) {
	_, _ = fmt.Fprintf(w, "Built %d pages (%s) in %s: %d rendered, %d deleted, %d assets published\n",
		r.Pages, r.Mode, r.Duration.Round(time.Millisecond), r.Rendered, r.Deleted, r.AssetsPublished)
	for _, bl := range r.BrokenLinks {
		_, _ = fmt.Fprintf(w, "  broken link in %s: %s\n", bl.Page, bl.Destination)
	}
}
