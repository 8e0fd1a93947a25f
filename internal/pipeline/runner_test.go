package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/mskaar/nbpress/internal/config"
	"github.com/mskaar/nbpress/internal/toolrunner"
)

func testState(t *testing.T) *BuildState {
	t.Helper()
	cfg := &config.Config{}
	cfg.Output.Dir = t.TempDir()
	cfg.Output.HTMLSubdir = "html"
	cfg.Output.ImagesSubdir = "_images"
	cfg.Content.Dir = "notebooks"
	return NewBuildState(cfg, toolrunner.NewRecordingRunner(), nil)
}

func TestRunStagesExecutesInOrder(t *testing.T) {
	bs := testState(t)
	var order []StageName
	record := func(name StageName) Stage {
		return func(context.Context, *BuildState) error {
			order = append(order, name)
			return nil
		}
	}

	stages := NewPipeline().
		Add(StagePrepareOutput, record(StagePrepareOutput)).
		Add(StagePreprocess, record(StagePreprocess)).
		Add(StageGenerate, record(StageGenerate)).
		Build()

	if err := RunStages(context.Background(), bs, stages); err != nil {
		t.Fatalf("RunStages() failed: %v", err)
	}

	want := []StageName{StagePrepareOutput, StagePreprocess, StageGenerate}
	if len(order) != len(want) {
		t.Fatalf("expected %d stages, ran %d", len(want), len(order))
	}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("stage %d: expected %s, got %s", i, name, order[i])
		}
	}
	if bs.Report.Outcome != OutcomeSuccess {
		t.Errorf("expected success outcome, got %s", bs.Report.Outcome)
	}
}

func TestRunStagesStopsOnFirstFatal(t *testing.T) {
	bs := testState(t)
	boom := errors.New("preprocess exploded")
	generateRan := false

	stages := NewPipeline().
		Add(StagePreprocess, func(context.Context, *BuildState) error {
			return NewFatalStageError(StagePreprocess, boom)
		}).
		Add(StageGenerate, func(context.Context, *BuildState) error {
			generateRan = true
			return nil
		}).
		Build()

	err := RunStages(context.Background(), bs, stages)
	if err == nil {
		t.Fatal("expected fatal error to propagate")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
	if generateRan {
		t.Error("generate must not run after a fatal preprocess failure")
	}
	if bs.Report.StageResults[StagePreprocess] != StageResultFatal {
		t.Errorf("expected fatal result, got %s", bs.Report.StageResults[StagePreprocess])
	}
	if bs.Report.Outcome != OutcomeFailed {
		t.Errorf("expected failed outcome, got %s", bs.Report.Outcome)
	}
}

func TestRunStagesPlainErrorIsFatal(t *testing.T) {
	bs := testState(t)
	nextRan := false

	stages := NewPipeline().
		Add(StageGenerate, func(context.Context, *BuildState) error {
			return errors.New("generator exited 1")
		}).
		Add(StagePublish, func(context.Context, *BuildState) error {
			nextRan = true
			return nil
		}).
		Build()

	if err := RunStages(context.Background(), bs, stages); err == nil {
		t.Fatal("expected error")
	}
	if nextRan {
		t.Error("publish must not run after generator failure")
	}
}

func TestRunStagesContinuesOnWarning(t *testing.T) {
	bs := testState(t)
	publishRan := false

	stages := NewPipeline().
		Add(StageVerifyHTML, func(context.Context, *BuildState) error {
			return NewWarnStageError(StageVerifyHTML, errors.New("3 broken links"))
		}).
		Add(StagePublish, func(context.Context, *BuildState) error {
			publishRan = true
			return nil
		}).
		Build()

	if err := RunStages(context.Background(), bs, stages); err != nil {
		t.Fatalf("warnings must not abort: %v", err)
	}
	if !publishRan {
		t.Error("publish should run after a warning-only verify stage")
	}
	if bs.Report.Outcome != OutcomeWarning {
		t.Errorf("expected warning outcome, got %s", bs.Report.Outcome)
	}
	if len(bs.Report.Issues) != 1 {
		t.Errorf("expected one recorded issue, got %d", len(bs.Report.Issues))
	}
}

func TestRunStagesSkippedStage(t *testing.T) {
	bs := testState(t)

	stages := NewPipeline().
		Add(StagePreprocess, func(context.Context, *BuildState) error {
			return ErrSkipped
		}).
		Add(StageGenerate, func(context.Context, *BuildState) error { return nil }).
		Build()

	if err := RunStages(context.Background(), bs, stages); err != nil {
		t.Fatalf("skip must not abort: %v", err)
	}
	if bs.Report.StageResults[StagePreprocess] != StageResultSkipped {
		t.Errorf("expected skipped result, got %s", bs.Report.StageResults[StagePreprocess])
	}
	if bs.Report.Outcome != OutcomeSuccess {
		t.Errorf("skip should not degrade outcome, got %s", bs.Report.Outcome)
	}
}

func TestRunStagesCanceledContext(t *testing.T) {
	bs := testState(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	stages := NewPipeline().
		Add(StageGenerate, func(context.Context, *BuildState) error {
			ran = true
			return nil
		}).
		Build()

	err := RunStages(ctx, bs, stages)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Kind != StageErrorCanceled {
		t.Errorf("expected canceled stage error, got %v", err)
	}
	if ran {
		t.Error("no stage should run under a canceled context")
	}
	if bs.Report.Outcome != OutcomeCanceled {
		t.Errorf("expected canceled outcome, got %s", bs.Report.Outcome)
	}
}

func TestPipelineAddIf(t *testing.T) {
	p := NewPipeline().
		Add(StagePrepareOutput, func(context.Context, *BuildState) error { return nil }).
		AddIf(false, StagePublish, func(context.Context, *BuildState) error { return nil }).
		AddIf(true, StageClean, func(context.Context, *BuildState) error { return nil })

	defs := p.Build()
	if len(defs) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(defs))
	}
	if defs[0].Name != StagePrepareOutput || defs[1].Name != StageClean {
		t.Errorf("unexpected stage set: %v, %v", defs[0].Name, defs[1].Name)
	}
}
