package toolrunner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/mskaar/nbpress/internal/logfields"
)

// Invocation describes a single external tool call.
type Invocation struct {
	Name    string        // binary name or path
	Args    []string      // arguments in order
	Dir     string        // working directory; empty means inherit
	Env     []string      // extra environment entries, KEY=VALUE
	Timeout time.Duration // zero means no timeout beyond ctx
}

// String renders the invocation the way a shell would show it.
func (i Invocation) String() string {
	s := i.Name
	for _, a := range i.Args {
		s += " " + a
	}
	return s
}

// Runner executes external tools. The exec-backed implementation is used in
// production; tests substitute a RecordingRunner.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExecRunner runs invocations via os/exec, streaming output to the parent process.
type ExecRunner struct{}

// NewExecRunner returns the production Runner.
func NewExecRunner() *ExecRunner { return &ExecRunner{} }

// Run executes the invocation, honoring context cancellation and the
// per-invocation timeout. A non-zero exit status is returned as an error.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	if inv.Name == "" {
		return fmt.Errorf("tool invocation has no command")
	}

	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, inv.Name, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	slog.Debug("Running external tool", logfields.Tool(inv.Name), slog.String("invocation", inv.String()))
	start := time.Now()
	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("tool %s timed out after %s: %w", inv.Name, inv.Timeout, err)
		}
		return fmt.Errorf("tool %s failed: %w", inv.Name, err)
	}
	slog.Debug("External tool completed", logfields.Tool(inv.Name), logfields.DurationMS(float64(dur.Milliseconds())))
	return nil
}

// RecordingRunner records invocations instead of executing them. Failures can
// be injected per tool name to exercise error paths.
type RecordingRunner struct {
	Invocations []Invocation
	Failures    map[string]error // tool name -> error to return
}

// NewRecordingRunner returns an empty recorder.
func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{Failures: make(map[string]error)}
}

// FailWith makes every invocation of the named tool return err.
func (r *RecordingRunner) FailWith(name string, err error) {
	if r.Failures == nil {
		r.Failures = make(map[string]error)
	}
	r.Failures[name] = err
}

// Run records the invocation and returns any injected failure.
func (r *RecordingRunner) Run(ctx context.Context, inv Invocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Invocations = append(r.Invocations, inv)
	if err, ok := r.Failures[inv.Name]; ok {
		return err
	}
	return nil
}

// Calls returns the recorded invocations rendered as shell-like strings.
func (r *RecordingRunner) Calls() []string {
	out := make([]string, 0, len(r.Invocations))
	for _, inv := range r.Invocations {
		out = append(out, inv.String())
	}
	return out
}
