package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/mskaar/nbpress/internal/daemon"
	"github.com/mskaar/nbpress/internal/metrics"
	"github.com/mskaar/nbpress/internal/site"
)

// DaemonCmd runs continuously: rebuilds on content changes, on the configured
// schedule, and serves Prometheus metrics when enabled.
type DaemonCmd struct {
	NoPublish bool `help:"Rebuild without publishing"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		registry *prom.Registry
		recorder metrics.Recorder
	)
	if cfg.Metrics.Enabled {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	builder, closer, err := newBuilder(cfg, recorder)
	if err != nil {
		return err
	}
	defer closer()

	dmn := daemon.New(cfg, builder, site.Options{SkipPublish: d.NoPublish})
	return dmn.Start(ctx, registry)
}
