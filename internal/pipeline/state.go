package pipeline

import (
	"context"

	"github.com/mskaar/nbpress/internal/config"
	"github.com/mskaar/nbpress/internal/metrics"
	"github.com/mskaar/nbpress/internal/toolrunner"
	"github.com/mskaar/nbpress/internal/workspace"
)

// PublishSummary is what a publisher reports back after replacing the branch.
type PublishSummary struct {
	Branch string
	Commit string
}

// Publisher replaces the hosting branch with the contents of htmlDir.
type Publisher interface {
	Publish(ctx context.Context, htmlDir string) (PublishSummary, error)
}

// HTMLVerifier checks the generated site and returns human-readable problems.
type HTMLVerifier interface {
	Verify(ctx context.Context, htmlDir string) ([]string, error)
}

// BuildState carries everything the stages need for one pipeline run.
type BuildState struct {
	Config    *config.Config
	Layout    workspace.Layout
	Runner    toolrunner.Runner
	Publisher Publisher
	Verifier  HTMLVerifier
	Recorder  metrics.Recorder
	Report    *Report
}

// NewBuildState wires a state with a fresh report; nil recorder becomes a noop.
func NewBuildState(cfg *config.Config, runner toolrunner.Runner, recorder metrics.Recorder) *BuildState {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &BuildState{
		Config:   cfg,
		Layout:   workspace.NewLayout(cfg.Output.Dir, cfg.Output.HTMLSubdir, cfg.Output.ImagesSubdir),
		Runner:   runner,
		Recorder: recorder,
		Report:   NewReport(),
	}
}
