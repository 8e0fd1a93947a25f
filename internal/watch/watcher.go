package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mskaar/nbpress/internal/logfields"
)

// Config controls debouncing of rebuild triggers.
type Config struct {
	// QuietWindow is how long the content dir must stay quiet before a trigger fires.
	QuietWindow time.Duration
	// MaxDelay bounds how long a trigger can be postponed by continuous changes.
	MaxDelay time.Duration
}

// Watcher monitors a content directory and invokes a callback after changes
// settle. Bursts of events coalesce into a single trigger.
type Watcher struct {
	contentDir string
	cfg        Config
	watcher    *fsnotify.Watcher
	onChange   func()
	events     chan struct{}
}

// New creates a watcher over contentDir. onChange runs on the watcher
// goroutine after each settled burst of changes.
func New(contentDir string, cfg Config, onChange func()) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is required")
	}
	if cfg.QuietWindow <= 0 {
		cfg.QuietWindow = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absDir, err := filepath.Abs(contentDir)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to resolve content dir: %w", err)
	}

	return &Watcher{
		contentDir: absDir,
		cfg:        cfg,
		watcher:    fsw,
		onChange:   onChange,
		events:     make(chan struct{}, 1),
	}, nil
}

// Start registers the content tree and begins watching until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.contentDir); err != nil {
		return err
	}
	slog.Info("Watching content directory", logfields.Path(w.contentDir))

	go w.watchLoop(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error { return w.watcher.Close() }

// addRecursive watches the directory and every subdirectory, skipping
// generated output and hidden directories.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (d.Name() == "_build" || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.ignore(event) {
				continue
			}
			// New directories join the watch set so nested edits are seen.
			if event.Op.Has(fsnotify.Create) {
				if err := w.addRecursive(event.Name); err != nil {
					slog.Debug("Failed to extend watch", logfields.Path(event.Name), logfields.Error(err))
				}
			}
			select {
			case w.events <- struct{}{}:
			default: // an event is already pending
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

// ignore filters events from generated output, hidden files and editor noise.
func (w *Watcher) ignore(event fsnotify.Event) bool {
	rel, err := filepath.Rel(w.contentDir, event.Name)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "_build" || strings.HasPrefix(part, ".") {
			return true
		}
		if strings.HasSuffix(part, "~") || strings.HasSuffix(part, ".swp") {
			return true
		}
	}
	return false
}

// debounceLoop coalesces events: a trigger fires after QuietWindow of silence,
// or after MaxDelay of continuous changes, whichever comes first.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var (
		quiet    *time.Timer
		deadline *time.Timer
	)
	quietC := func() <-chan time.Time {
		if quiet == nil {
			return nil
		}
		return quiet.C
	}
	deadlineC := func() <-chan time.Time {
		if deadline == nil {
			return nil
		}
		return deadline.C
	}
	fire := func() {
		quiet.Stop()
		if deadline != nil {
			deadline.Stop()
		}
		quiet, deadline = nil, nil
		slog.Debug("Content changed, triggering rebuild")
		w.onChange()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.events:
			if quiet == nil {
				quiet = time.NewTimer(w.cfg.QuietWindow)
				deadline = time.NewTimer(w.cfg.MaxDelay)
			} else {
				quiet.Reset(w.cfg.QuietWindow)
			}
		case <-quietC():
			fire()
		case <-deadlineC():
			fire()
		}
	}
}
