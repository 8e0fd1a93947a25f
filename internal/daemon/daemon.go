package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/mskaar/nbpress/internal/config"
	"github.com/mskaar/nbpress/internal/logfields"
	"github.com/mskaar/nbpress/internal/metrics"
	"github.com/mskaar/nbpress/internal/site"
	"github.com/mskaar/nbpress/internal/watch"
)

// Daemon runs builds continuously: on content changes, and optionally on a
// fixed schedule. With metrics enabled it also serves a Prometheus endpoint.
type Daemon struct {
	cfg     *config.Config
	builder *site.Builder
	opts    site.Options

	watcher   *watch.Watcher
	scheduler gocron.Scheduler
	server    *http.Server

	mu       sync.Mutex // serializes builds
	triggers chan string
}

// New creates a daemon around an already-wired builder.
func New(cfg *config.Config, builder *site.Builder, opts site.Options) *Daemon {
	return &Daemon{
		cfg:      cfg,
		builder:  builder,
		opts:     opts,
		triggers: make(chan string, 8),
	}
}

// Start brings up the watcher, the optional scheduler and the optional metrics
// server, then blocks running builds until ctx is canceled.
func (d *Daemon) Start(ctx context.Context, registry *prom.Registry) error {
	w, err := watch.New(d.cfg.Content.Dir, watch.Config{
		QuietWindow: d.cfg.Watch.QuietWindowOrDefault(500 * time.Millisecond),
		MaxDelay:    d.cfg.Watch.MaxDelayOrDefault(5 * time.Second),
	}, func() { d.trigger("content change") })
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	d.watcher = w
	if err := d.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	if interval := d.cfg.Daemon.RebuildIntervalOrZero(); interval > 0 {
		if err := d.startScheduler(interval); err != nil {
			return err
		}
	}

	if d.cfg.Metrics.Enabled && registry != nil {
		d.startMetricsServer(registry)
	}

	slog.Info("Daemon started", logfields.Path(d.cfg.Content.Dir))
	d.runLoop(ctx)
	return d.shutdown()
}

func (d *Daemon) startScheduler(interval time.Duration) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { d.trigger("scheduled rebuild") }),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule periodic rebuild: %w", err)
	}
	s.Start()
	d.scheduler = s
	slog.Info("Periodic rebuilds scheduled", slog.Duration("interval", interval))
	return nil
}

func (d *Daemon) startMetricsServer(registry *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	d.server = &http.Server{Addr: d.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("Metrics endpoint listening", slog.String("addr", d.cfg.Metrics.Addr))
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
}

// trigger queues a rebuild. A full queue means a rebuild is already pending.
func (d *Daemon) trigger(reason string) {
	select {
	case d.triggers <- reason:
	default:
	}
}

func (d *Daemon) runLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-d.triggers:
			d.runBuild(ctx, reason)
		}
	}
}

// runBuild executes one build. A failed build keeps the daemon alive; the next
// trigger gets a fresh attempt.
func (d *Daemon) runBuild(ctx context.Context, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slog.Info("Rebuild triggered", slog.String("reason", reason))
	report, err := d.builder.Run(ctx, d.opts)
	if err != nil {
		slog.Error("Build failed", logfields.BuildID(report.BuildID), logfields.Error(err))
	}
}

func (d *Daemon) shutdown() error {
	var errs []error
	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("watcher close: %w", err))
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
		}
	}
	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	slog.Info("Daemon stopped")
	return errors.Join(errs...)
}
