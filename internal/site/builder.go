package site

import (
	"context"
	"log/slog"

	"github.com/mskaar/nbpress/internal/config"
	"github.com/mskaar/nbpress/internal/history"
	"github.com/mskaar/nbpress/internal/linkcheck"
	"github.com/mskaar/nbpress/internal/logfields"
	"github.com/mskaar/nbpress/internal/metrics"
	"github.com/mskaar/nbpress/internal/notify"
	"github.com/mskaar/nbpress/internal/pipeline"
	"github.com/mskaar/nbpress/internal/publish"
	"github.com/mskaar/nbpress/internal/toolrunner"
)

// Builder wires configuration, tool execution, publishing and reporting into
// runnable builds. It is reused across runs in watch and daemon mode.
type Builder struct {
	cfg      *config.Config
	runner   toolrunner.Runner
	recorder metrics.Recorder
	store    *history.Store
	notifier notify.Notifier
}

// NewBuilder creates a builder. Store and notifier may be nil.
func NewBuilder(cfg *config.Config, runner toolrunner.Runner, recorder metrics.Recorder, store *history.Store, notifier notify.Notifier) *Builder {
	if runner == nil {
		runner = toolrunner.NewExecRunner()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &Builder{cfg: cfg, runner: runner, recorder: recorder, store: store, notifier: notifier}
}

// Run executes one full build and returns its report. The report is always
// returned, also when the build failed partway.
func (b *Builder) Run(ctx context.Context, opts Options) (*pipeline.Report, error) {
	bs := pipeline.NewBuildState(b.cfg, b.runner, b.recorder)
	bs.Verifier = linkcheck.NewService()
	if b.cfg.Publish.Enabled && !opts.SkipPublish {
		bs.Publisher = publish.New(b.cfg.Publish, b.recorder)
	}

	slog.Info("Build starting", logfields.BuildID(bs.Report.BuildID))
	err := pipeline.RunStages(ctx, bs, BuildPipeline(opts))
	b.finish(ctx, bs.Report)
	if err != nil {
		return bs.Report, err
	}
	slog.Info("Build finished",
		logfields.BuildID(bs.Report.BuildID),
		logfields.Outcome(string(bs.Report.Outcome)),
		logfields.DurationMS(float64(bs.Report.Duration().Milliseconds())))
	return bs.Report, nil
}

// Clean runs only the generator's clean command.
func (b *Builder) Clean(ctx context.Context) (*pipeline.Report, error) {
	bs := pipeline.NewBuildState(b.cfg, b.runner, b.recorder)
	err := pipeline.RunStages(ctx, bs, CleanPipeline())
	return bs.Report, err
}

// finish records the build in history and publishes the build event. Both are
// best effort and never fail the build itself.
func (b *Builder) finish(ctx context.Context, report *pipeline.Report) {
	if b.store != nil {
		if err := b.store.Record(ctx, report); err != nil {
			slog.Warn("Failed to record build history", logfields.Error(err))
		}
	}
	if err := b.notifier.BuildFinished(ctx, notify.NewEvent(report)); err != nil {
		slog.Warn("Failed to publish build event", logfields.Error(err))
	}
}
