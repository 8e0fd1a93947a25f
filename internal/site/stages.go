package site

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mskaar/nbpress/internal/logfields"
	"github.com/mskaar/nbpress/internal/pipeline"
	"github.com/mskaar/nbpress/internal/toolrunner"
)

const defaultToolTimeout = 10 * time.Minute

// PrepareOutput creates the output tree. Existing directories are fine; a
// rebuild over a previous run's tree must not fail here.
func PrepareOutput(ctx context.Context, bs *pipeline.BuildState) error {
	if err := bs.Layout.Prepare(); err != nil {
		return pipeline.NewFatalStageError(pipeline.StagePrepareOutput, err)
	}
	slog.Debug("Output directories ready", logfields.Path(bs.Layout.Root))
	return nil
}

// Preprocess runs the configured notebook preprocessor. The tool takes no
// positional arguments beyond what the config lists; with no tool configured
// the stage is skipped.
func Preprocess(ctx context.Context, bs *pipeline.BuildState) error {
	tool := bs.Config.Preprocess
	if tool.Command == "" {
		slog.Debug("No preprocessor configured, skipping")
		return pipeline.ErrSkipped
	}

	inv := toolrunner.Invocation{
		Name:    tool.Command,
		Args:    tool.Args,
		Timeout: tool.TimeoutOrDefault(defaultToolTimeout),
	}
	slog.Info("Preprocessing notebooks", logfields.Tool(tool.Command))
	if err := bs.Runner.Run(ctx, inv); err != nil {
		return pipeline.NewFatalStageError(pipeline.StagePreprocess, err)
	}
	return nil
}

// Generate invokes the site generator with the content directory as its single
// positional argument.
func Generate(ctx context.Context, bs *pipeline.BuildState) error {
	gen := bs.Config.Generator
	args := append(append([]string{}, gen.BuildArgs...), bs.Config.Content.Dir)
	inv := toolrunner.Invocation{
		Name:    gen.Command,
		Args:    args,
		Timeout: gen.TimeoutOrDefault(defaultToolTimeout),
	}
	slog.Info("Generating site", logfields.Tool(gen.Command), logfields.Path(bs.Config.Content.Dir))
	if err := bs.Runner.Run(ctx, inv); err != nil {
		return pipeline.NewFatalStageError(pipeline.StageGenerate, err)
	}
	return nil
}

// VerifyHTML checks the generated tree for broken internal links. Problems are
// reported as a warning so the build can still publish.
func VerifyHTML(ctx context.Context, bs *pipeline.BuildState) error {
	if !bs.Config.Verify.Links {
		return pipeline.ErrSkipped
	}
	if bs.Verifier == nil {
		return pipeline.ErrSkipped
	}
	problems, err := bs.Verifier.Verify(ctx, bs.Layout.HTMLDir)
	if err != nil {
		return pipeline.NewFatalStageError(pipeline.StageVerifyHTML, err)
	}
	if len(problems) > 0 {
		for _, p := range problems {
			slog.Warn("Link check problem", slog.String("problem", p))
		}
		return pipeline.NewWarnStageError(pipeline.StageVerifyHTML,
			fmt.Errorf("%d broken links in generated site", len(problems)))
	}
	return nil
}

// Publish replaces the hosting branch with the generated HTML tree.
func Publish(ctx context.Context, bs *pipeline.BuildState) error {
	if bs.Publisher == nil {
		return pipeline.ErrSkipped
	}
	summary, err := bs.Publisher.Publish(ctx, bs.Layout.HTMLDir)
	if err != nil {
		return pipeline.NewFatalStageError(pipeline.StagePublish, err)
	}
	bs.Report.Published = true
	bs.Report.PublishCommit = summary.Commit
	slog.Info("Site published", logfields.Branch(summary.Branch), slog.String("commit", summary.Commit))
	return nil
}

// Clean removes build intermediates via the generator's clean command, pointed
// at the same content directory the generate stage used. A clean failure does
// not undo an already-completed publish, so it is a warning.
func Clean(ctx context.Context, bs *pipeline.BuildState) error {
	gen := bs.Config.Generator
	args := append(append([]string{}, gen.CleanArgs...), bs.Config.Content.Dir)
	inv := toolrunner.Invocation{
		Name:    gen.Command,
		Args:    args,
		Timeout: gen.TimeoutOrDefault(defaultToolTimeout),
	}
	slog.Info("Cleaning build intermediates", logfields.Path(bs.Config.Content.Dir))
	if err := bs.Runner.Run(ctx, inv); err != nil {
		return pipeline.NewWarnStageError(pipeline.StageClean, err)
	}
	if bs.Config.Output.RemoveAfterPublish {
		if err := bs.Layout.Remove(); err != nil {
			return pipeline.NewWarnStageError(pipeline.StageClean, err)
		}
	}
	return nil
}

// Options select which optional stages participate in a build.
type Options struct {
	// SkipPublish leaves the hosting branch untouched.
	SkipPublish bool
	// SkipClean keeps build intermediates for inspection.
	SkipClean bool
}

// BuildPipeline assembles the full build in canonical order: prepare the
// output tree, preprocess notebooks, generate the site, verify it, publish,
// and clean up.
func BuildPipeline(opts Options) []pipeline.StageDef {
	return pipeline.NewPipeline().
		Add(pipeline.StagePrepareOutput, PrepareOutput).
		Add(pipeline.StagePreprocess, Preprocess).
		Add(pipeline.StageGenerate, Generate).
		Add(pipeline.StageVerifyHTML, VerifyHTML).
		AddIf(!opts.SkipPublish, pipeline.StagePublish, Publish).
		AddIf(!opts.SkipClean, pipeline.StageClean, Clean).
		Build()
}

// CleanPipeline runs only the clean stage, for the standalone clean command.
func CleanPipeline() []pipeline.StageDef {
	return pipeline.NewPipeline().
		Add(pipeline.StageClean, Clean).
		Build()
}
