package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mskaar/nbpress/internal/logfields"
)

// RunStages executes stages in order, recording timing and stopping on the
// first fatal error. Warnings are recorded and execution continues; a canceled
// context aborts before the next stage starts.
func RunStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(st.Name, ctx.Err())
			bs.Report.RecordStage(st.Name, 0, StageResultCanceled, bs.Recorder)
			bs.Report.AddIssue(st.Name, "error", se.Error())
			finishReport(bs)
			return se
		default:
		}

		slog.Debug("Stage starting", logfields.BuildID(bs.Report.BuildID), logfields.Stage(string(st.Name)))
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		res, abort := classify(st.Name, err)
		bs.Report.RecordStage(st.Name, dur, res, bs.Recorder)

		switch res {
		case StageResultSuccess:
			slog.Debug("Stage completed", logfields.Stage(string(st.Name)), logfields.DurationMS(float64(dur.Milliseconds())))
		case StageResultSkipped:
			slog.Info("Stage skipped", logfields.Stage(string(st.Name)))
		case StageResultWarning:
			bs.Report.AddIssue(st.Name, "warning", err.Error())
			slog.Warn("Stage completed with warnings", logfields.Stage(string(st.Name)), logfields.Error(err))
		default:
			bs.Report.AddIssue(st.Name, "error", err.Error())
			slog.Error("Stage failed", logfields.Stage(string(st.Name)), logfields.Error(err))
		}

		if abort {
			finishReport(bs)
			return err
		}
	}

	finishReport(bs)
	return nil
}

func finishReport(bs *BuildState) {
	bs.Report.DeriveOutcome()
	bs.Report.Finish(bs.Recorder)
}

// classify maps a stage's returned error to a result and an abort decision.
// Plain errors (no StageError wrapper) are treated as fatal: the pipeline
// stops on the first failure instead of blindly running later stages.
func classify(stage StageName, err error) (StageResult, bool) {
	if err == nil {
		return StageResultSuccess, false
	}
	if errors.Is(err, ErrSkipped) {
		return StageResultSkipped, false
	}
	var se *StageError
	if errors.As(err, &se) {
		switch se.Kind {
		case StageErrorWarning:
			return StageResultWarning, false
		case StageErrorCanceled:
			return StageResultCanceled, true
		default:
			return StageResultFatal, true
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return StageResultCanceled, true
	}
	return StageResultFatal, true
}
