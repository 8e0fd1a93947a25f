package toolrunner

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInvocationString(t *testing.T) {
	inv := Invocation{Name: "jb", Args: []string{"build", "notebooks"}}
	if got := inv.String(); got != "jb build notebooks" {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestRecordingRunnerRecordsInOrder(t *testing.T) {
	r := NewRecordingRunner()
	ctx := context.Background()

	_ = r.Run(ctx, Invocation{Name: "nbprep"})
	_ = r.Run(ctx, Invocation{Name: "jb", Args: []string{"build", "notebooks"}})

	calls := r.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0] != "nbprep" || calls[1] != "jb build notebooks" {
		t.Errorf("unexpected call order: %v", calls)
	}
}

func TestRecordingRunnerInjectedFailure(t *testing.T) {
	r := NewRecordingRunner()
	boom := errors.New("boom")
	r.FailWith("nbprep", boom)

	err := r.Run(context.Background(), Invocation{Name: "nbprep"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	// The invocation is still recorded; the tool ran and failed.
	if len(r.Invocations) != 1 {
		t.Errorf("expected failed invocation to be recorded")
	}
}

func TestRecordingRunnerHonorsCanceledContext(t *testing.T) {
	r := NewRecordingRunner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Run(ctx, Invocation{Name: "jb"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(r.Invocations) != 0 {
		t.Error("canceled invocation must not be recorded")
	}
}

func TestExecRunnerRejectsEmptyCommand(t *testing.T) {
	r := NewExecRunner()
	if err := r.Run(context.Background(), Invocation{}); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestExecRunnerSurfacesFailure(t *testing.T) {
	r := NewExecRunner()
	// A binary that cannot exist.
	err := r.Run(context.Background(), Invocation{Name: "nbpress-no-such-tool-xyz", Timeout: 5 * time.Second})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}
