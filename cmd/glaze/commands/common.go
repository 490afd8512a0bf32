package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/glaze/internal/config"
	"git.home.luguber.info/inful/glaze/internal/observability"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer // User-facing output; logs go to stderr
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"glaze.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format (text, json, pretty); overrides logging.format"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the site once"`
	Discover DiscoverCmd `cmd:"" help:"List discovered pages without building"`
	New      NewCmd      `cmd:"" help:"Create a content file with front matter"`
	Watch    WatchCmd    `cmd:"" help:"Build, then rebuild whenever inputs change"`
	History  HistoryCmd  `cmd:"" help:"Show recent builds"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing and sets up logging from the flags
// alone. configureLogging refines it once a configuration is loaded.
func (c *CLI) AfterApply() error {
	level := config.LogLevelInfo
	if c.Verbose {
		level = config.LogLevelDebug
	}
	format := config.LogFormatText
	if c.LogFormat != "" {
		f, err := config.NormalizeLogFormat(c.LogFormat)
		if err != nil {
			return err
		}
		format = f
	}
	slog.SetDefault(observability.NewLogger(level, format, os.Stderr))
	return nil
}

// loadConfig loads the configuration named by the global flags and applies
// its logging section. Flags take precedence over the file.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	configureLogging(root, cfg)
	return cfg, nil
}

func configureLogging(root *CLI, cfg *config.Config) {
	level := cfg.Logging.Level
	if root.Verbose {
		level = config.LogLevelDebug
	}
	format := cfg.Logging.Format
	if root.LogFormat != "" {
		if f, err := config.NormalizeLogFormat(root.LogFormat); err == nil {
			format = f
		}
	}
	slog.SetDefault(observability.NewLogger(level, format, os.Stderr))
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
