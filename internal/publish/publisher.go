package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	appcfg "github.com/mskaar/nbpress/internal/config"
	"github.com/mskaar/nbpress/internal/logfields"
	"github.com/mskaar/nbpress/internal/metrics"
	"github.com/mskaar/nbpress/internal/pipeline"
	"github.com/mskaar/nbpress/internal/retry"
)

// Publisher replaces a hosting branch with the contents of a directory.
//
// The branch is rewritten as a single parentless commit and force-pushed, so
// the remote branch never accumulates history. Force and orphan semantics are
// one code path here: there is no way to get one without the other.
type Publisher struct {
	cfg      appcfg.PublishConfig
	recorder metrics.Recorder
}

// New creates a Publisher; a nil recorder becomes a noop.
func New(cfg appcfg.PublishConfig, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Publisher{cfg: cfg, recorder: recorder}
}

// Publish commits htmlDir as an orphan commit on the configured branch and
// force-pushes it to the remote. Transient push failures are retried.
func (p *Publisher) Publish(ctx context.Context, htmlDir string) (pipeline.PublishSummary, error) {
	start := time.Now()
	summary, err := p.publish(ctx, htmlDir)
	p.recorder.ObservePublishDuration(time.Since(start), err == nil)
	return summary, err
}

func (p *Publisher) publish(ctx context.Context, htmlDir string) (pipeline.PublishSummary, error) {
	var none pipeline.PublishSummary

	if info, err := os.Stat(htmlDir); err != nil || !info.IsDir() {
		return none, fmt.Errorf("publish source %s is not a directory: %w", htmlDir, err)
	}
	if err := p.writeExtras(htmlDir); err != nil {
		return none, err
	}

	repo, err := git.PlainOpen(p.cfg.RepoPath)
	if err != nil {
		return none, fmt.Errorf("failed to open repository %s: %w", p.cfg.RepoPath, err)
	}

	treeHash, err := writeTree(repo.Storer, htmlDir)
	if err != nil {
		return none, fmt.Errorf("failed to store site tree: %w", err)
	}

	commitHash, err := p.writeOrphanCommit(repo, treeHash)
	if err != nil {
		return none, err
	}

	branchRef := plumbing.NewBranchReferenceName(p.cfg.Branch)
	if err := repo.Storer.SetReference(plumbing.NewHashReference(branchRef, commitHash)); err != nil {
		return none, fmt.Errorf("failed to update branch %s: %w", p.cfg.Branch, err)
	}

	if err := p.push(ctx, repo, branchRef); err != nil {
		return none, err
	}

	slog.Info("Published site",
		logfields.Branch(p.cfg.Branch),
		logfields.Remote(p.cfg.Remote),
		slog.String("commit", commitHash.String()[:8]))

	return pipeline.PublishSummary{Branch: p.cfg.Branch, Commit: commitHash.String()}, nil
}

// writeExtras drops hosting control files into the site before it is committed.
func (p *Publisher) writeExtras(htmlDir string) error {
	if p.cfg.NoJekyll {
		path := filepath.Join(htmlDir, ".nojekyll")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return fmt.Errorf("failed to write .nojekyll: %w", err)
		}
	}
	if p.cfg.CNAME != "" {
		path := filepath.Join(htmlDir, "CNAME")
		if err := os.WriteFile(path, []byte(p.cfg.CNAME+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write CNAME: %w", err)
		}
	}
	return nil
}

func (p *Publisher) writeOrphanCommit(repo *git.Repository, treeHash plumbing.Hash) (plumbing.Hash, error) {
	sig := object.Signature{
		Name:  p.cfg.AuthorName,
		Email: p.cfg.AuthorEmail,
		When:  time.Now(),
	}
	commit := &object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   p.cfg.Message,
		TreeHash:  treeHash,
		// No parents: the branch carries exactly one commit.
	}
	obj := repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode commit: %w", err)
	}
	hash, err := repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store commit: %w", err)
	}
	return hash, nil
}

func (p *Publisher) push(ctx context.Context, repo *git.Repository, branchRef plumbing.ReferenceName) error {
	auth, err := authMethod(p.cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to setup authentication: %w", err)
	}

	refspec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s", branchRef, branchRef))
	opts := &git.PushOptions{
		RemoteName: p.cfg.Remote,
		RefSpecs:   []gitconfig.RefSpec{refspec},
		Force:      true,
		Auth:       auth,
	}

	pol := p.retryPolicy()
	var lastErr error
	for attempt := 0; attempt <= pol.MaxRetries; attempt++ {
		if attempt > 0 {
			p.recorder.IncPublishRetry()
			delay := pol.Delay(attempt)
			slog.Warn("Retrying publish push",
				logfields.Branch(p.cfg.Branch),
				slog.Int("attempt", attempt),
				slog.String("delay", delay.String()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := repo.PushContext(ctx, opts)
		if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		lastErr = classifyPushError(p.cfg.Remote, err)
		if !IsTransient(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("push to %s failed after retries: %w", p.cfg.Remote, lastErr)
}

func (p *Publisher) retryPolicy() retry.Policy {
	initial, _ := time.ParseDuration(p.cfg.Retry.InitialDelay)
	maxDelay, _ := time.ParseDuration(p.cfg.Retry.MaxDelay)
	return retry.NewPolicy(retry.NormalizeBackoffMode(p.cfg.Retry.Backoff), initial, maxDelay, p.cfg.Retry.MaxRetries)
}
