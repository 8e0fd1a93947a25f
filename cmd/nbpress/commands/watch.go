package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mskaar/nbpress/internal/daemon"
	"github.com/mskaar/nbpress/internal/site"
)

// WatchCmd rebuilds on content changes until interrupted. It is daemon mode
// without scheduling or metrics, intended for local authoring.
type WatchCmd struct {
	Publish bool `help:"Publish after each rebuild (off by default in watch mode)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Watch mode never schedules and never serves metrics.
	cfg.Daemon.RebuildInterval = ""
	cfg.Metrics.Enabled = false

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder, closer, err := newBuilder(cfg, nil)
	if err != nil {
		return err
	}
	defer closer()

	d := daemon.New(cfg, builder, site.Options{SkipPublish: !w.Publish})
	return d.Start(ctx, nil)
}
