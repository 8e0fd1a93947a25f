package commands

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/mskaar/nbpress/internal/config"
	"github.com/mskaar/nbpress/internal/history"
	"github.com/mskaar/nbpress/internal/logfields"
	"github.com/mskaar/nbpress/internal/metrics"
	"github.com/mskaar/nbpress/internal/notify"
	"github.com/mskaar/nbpress/internal/observability"
	"github.com/mskaar/nbpress/internal/site"
	"github.com/mskaar/nbpress/internal/toolrunner"
)

// Global carries state shared across subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"nbpress.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site and publish it to the hosting branch"`
	Publish PublishCmd `cmd:"" help:"Publish an already generated site without rebuilding"`
	Clean   CleanCmd   `cmd:"" help:"Remove build intermediates from the content directory"`
	Lint    LintCmd    `cmd:"" help:"Check content sources for broken relative links"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild on content changes until interrupted"`
	Daemon  DaemonCmd  `cmd:"" help:"Run continuously with scheduled rebuilds and metrics"`
	History HistoryCmd `cmd:"" help:"Show recent build history"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; installs logging before any command runs.
func (c *CLI) AfterApply(g *Global) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		// Commands that need no config (init) still get sane logging.
		g.Logger = observability.Setup(config.LoggingConfig{}, c.Verbose)
		return nil
	}
	g.Logger = observability.Setup(cfg.Logging, c.Verbose)
	return nil
}

// loadConfig loads and validates the configuration file.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}

// newBuilder wires a builder with the optional history store and notifier.
// The returned closer releases both.
func newBuilder(cfg *config.Config, recorder metrics.Recorder) (*site.Builder, func(), error) {
	var store *history.Store
	if cfg.History.Enabled {
		s, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
		store = s
	}

	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.Notify.Enabled {
		n, err := notify.NewNATSNotifier(cfg.Notify)
		if err != nil {
			if store != nil {
				_ = store.Close()
			}
			return nil, nil, err
		}
		notifier = n
	}

	builder := site.NewBuilder(cfg, toolrunner.NewExecRunner(), recorder, store, notifier)
	closer := func() {
		notifier.Close()
		if store != nil {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close history store", logfields.Error(err))
			}
		}
	}
	return builder, closer, nil
}
