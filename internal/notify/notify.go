package notify

import (
	"context"
	"time"

	"github.com/mskaar/nbpress/internal/pipeline"
)

// Event is the payload published after a build finishes.
type Event struct {
	BuildID    string            `json:"build_id"`
	Outcome    string            `json:"outcome"`
	Published  bool              `json:"published"`
	DurationMS int64             `json:"duration_ms"`
	FinishedAt time.Time         `json:"finished_at"`
	Stages     map[string]string `json:"stages,omitempty"` // stage -> result
}

// NewEvent builds an Event from a finished report.
func NewEvent(report *pipeline.Report) Event {
	stages := make(map[string]string, len(report.StageResults))
	for name, res := range report.StageResults {
		stages[string(name)] = string(res)
	}
	return Event{
		BuildID:    report.BuildID,
		Outcome:    string(report.Outcome),
		Published:  report.Published,
		DurationMS: report.Duration().Milliseconds(),
		FinishedAt: report.FinishedAt,
		Stages:     stages,
	}
}

// Notifier delivers build events to downstream consumers.
type Notifier interface {
	BuildFinished(ctx context.Context, event Event) error
	Close()
}

// NoopNotifier is the default when notification is not configured.
type NoopNotifier struct{}

func (NoopNotifier) BuildFinished(context.Context, Event) error { return nil }
func (NoopNotifier) Close()                                     {}
