package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/mskaar/nbpress/internal/metrics"
)

// Outcome is the final classification of a whole build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Issue is a single recorded problem attached to a stage.
type Issue struct {
	Stage    StageName `json:"stage"`
	Severity string    `json:"severity"` // warning|error
	Message  string    `json:"message"`
}

// Report accumulates the observable results of one pipeline run.
type Report struct {
	BuildID        string                    `json:"build_id"`
	StartedAt      time.Time                 `json:"started_at"`
	FinishedAt     time.Time                 `json:"finished_at"`
	StageDurations map[StageName]time.Duration `json:"stage_durations"`
	StageResults   map[StageName]StageResult `json:"stage_results"`
	Issues         []Issue                   `json:"issues,omitempty"`
	Outcome        Outcome                   `json:"outcome"`
	Published      bool                      `json:"published"`
	PublishCommit  string                    `json:"publish_commit,omitempty"`
}

// NewReport starts a report for a fresh build.
func NewReport() *Report {
	return &Report{
		BuildID:        uuid.NewString(),
		StartedAt:      time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

// AddIssue records a problem for a stage.
func (r *Report) AddIssue(stage StageName, severity, message string) {
	r.Issues = append(r.Issues, Issue{Stage: stage, Severity: severity, Message: message})
}

// RecordStage stores a stage's duration and result and emits metrics.
func (r *Report) RecordStage(stage StageName, d time.Duration, res StageResult, recorder metrics.Recorder) {
	r.StageDurations[stage] = d
	r.StageResults[stage] = res
	if recorder != nil {
		recorder.ObserveStageDuration(string(stage), d)
		recorder.IncStageResult(string(stage), resultLabel(res))
	}
}

func resultLabel(res StageResult) metrics.ResultLabel {
	switch res {
	case StageResultWarning:
		return metrics.ResultWarning
	case StageResultFatal:
		return metrics.ResultFatal
	case StageResultCanceled:
		return metrics.ResultCanceled
	case StageResultSkipped:
		return metrics.ResultSkipped
	default:
		return metrics.ResultSuccess
	}
}

// DeriveOutcome computes the final outcome from recorded stage results.
func (r *Report) DeriveOutcome() {
	outcome := OutcomeSuccess
	for _, res := range r.StageResults {
		switch res {
		case StageResultCanceled:
			r.Outcome = OutcomeCanceled
			return
		case StageResultFatal:
			outcome = OutcomeFailed
		case StageResultWarning:
			if outcome == OutcomeSuccess {
				outcome = OutcomeWarning
			}
		}
	}
	r.Outcome = outcome
}

// Finish stamps the end time and emits whole-build metrics.
func (r *Report) Finish(recorder metrics.Recorder) {
	r.FinishedAt = time.Now()
	if recorder != nil {
		recorder.ObserveBuildDuration(r.Duration())
		recorder.IncBuildOutcome(string(r.Outcome))
	}
}

// Duration returns the wall-clock build duration.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
