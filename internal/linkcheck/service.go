package linkcheck

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mskaar/nbpress/internal/logfields"
)

// Service verifies internal links in a generated HTML tree. Broken links are
// reported, never fatal: the site is still publishable.
type Service struct{}

// NewService creates a link verification service.
func NewService() *Service { return &Service{} }

// Verify walks the HTML files under htmlDir and returns one message per broken
// internal link.
func (s *Service) Verify(ctx context.Context, htmlDir string) ([]string, error) {
	var problems []string
	err := filepath.WalkDir(htmlDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			return nil
		}

		links, err := ExtractLinks(p)
		if err != nil {
			return fmt.Errorf("extract links from %s: %w", p, err)
		}
		rel, _ := filepath.Rel(htmlDir, p)
		for _, link := range links {
			if !link.IsInternal() {
				continue
			}
			if !s.targetExists(htmlDir, p, link.URL) {
				problems = append(problems, fmt.Sprintf("%s: broken link %q (%s %s)", rel, link.URL, link.Tag, link.Attribute))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		slog.Warn("Link verification found problems", slog.Int("count", len(problems)), logfields.Path(htmlDir))
	}
	return problems, nil
}

// targetExists resolves an internal link relative to the page (or the site
// root for absolute paths) and checks the filesystem.
func (s *Service) targetExists(htmlDir, page, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	target := u.Path
	if target == "" { // pure fragment/query
		return true
	}

	var full string
	if path.IsAbs(target) {
		full = filepath.Join(htmlDir, filepath.FromSlash(target))
	} else {
		full = filepath.Join(filepath.Dir(page), filepath.FromSlash(target))
	}

	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	// Directory links resolve like a web server would: index.html inside.
	if info.IsDir() {
		_, err := os.Stat(filepath.Join(full, "index.html"))
		return err == nil
	}
	return true
}
