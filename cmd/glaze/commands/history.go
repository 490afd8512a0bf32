package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/glaze/internal/config"
	"git.home.luguber.info/inful/glaze/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return RunHistory(context.Background(), g.out(), cfg, h.Limit)
}

// RunHistory prints the most recent builds, newest first.
func RunHistory(ctx context.Context, w io.Writer, cfg *config.Config, limit int) error {
	if _, err := os.Stat(cfg.History.Path); errors.Is(err, fs.ErrNotExist) {
		if !cfg.History.Enabled {
			_, _ = fmt.Fprintln(w, "Build history is disabled (set history.enabled: true)")
			return nil
		}
		_, _ = fmt.Fprintln(w, "No builds recorded yet")
		return nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No builds recorded yet")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tBUILD\tMODE\tSTATUS\tRENDERED\tDELETED\tASSETS\tDURATION\tREVISION")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			e.StartedAt.Local().Format(time.DateTime),
			short(e.BuildID, 8),
			dash(e.Mode),
			e.Status,
			e.Rendered, e.Deleted, e.Assets,
			e.Duration.Round(time.Millisecond),
			dash(short(e.Revision, 7)))
	}
	return tw.Flush()
}

func short(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
