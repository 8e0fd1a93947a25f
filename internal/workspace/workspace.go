package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mskaar/nbpress/internal/logfields"
)

// Layout is the local staging tree generated output is written into before
// publishing: root, the HTML directory under it, and the image directory
// under that.
type Layout struct {
	Root      string
	HTMLDir   string
	ImagesDir string
}

// NewLayout builds a Layout from an output root and its subdirectory names.
func NewLayout(root, htmlSubdir, imagesSubdir string) Layout {
	html := filepath.Join(root, htmlSubdir)
	return Layout{
		Root:      root,
		HTMLDir:   html,
		ImagesDir: filepath.Join(html, imagesSubdir),
	}
}

// Dirs returns the directories in creation order (parents first).
func (l Layout) Dirs() []string {
	return []string{l.Root, l.HTMLDir, l.ImagesDir}
}

// Prepare creates the output tree. Creation is idempotent: directories that
// already exist are left untouched, so repeated builds do not fail.
func (l Layout) Prepare() error {
	for _, dir := range l.Dirs() {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	slog.Debug("Prepared output tree", logfields.Path(l.Root))
	return nil
}

// Remove deletes the whole output tree.
func (l Layout) Remove() error {
	if l.Root == "" {
		return nil
	}
	if err := os.RemoveAll(l.Root); err != nil {
		return fmt.Errorf("failed to remove output tree: %w", err)
	}
	slog.Debug("Removed output tree", logfields.Path(l.Root))
	return nil
}
