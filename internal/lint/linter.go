package lint

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mskaar/nbpress/internal/markdown"
)

// Finding is a single problem in a content source file.
type Finding struct {
	File    string // path relative to the content dir
	Rule    string
	Message string
}

// Result aggregates lint findings over a content directory.
type Result struct {
	FilesScanned int
	Findings     []Finding
}

// Clean reports whether no findings were produced.
func (r *Result) Clean() bool { return len(r.Findings) == 0 }

// Linter checks notebook-book source content before a build.
type Linter struct {
	contentDir string
}

// New creates a linter rooted at the content directory.
func New(contentDir string) *Linter { return &Linter{contentDir: contentDir} }

// Run scans Markdown sources for relative links whose targets do not exist.
// Notebook files are inspected only for existence-level problems; their
// internal structure belongs to the preprocessing tool.
func (l *Linter) Run() (*Result, error) {
	res := &Result{}
	err := filepath.WalkDir(l.contentDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Generated output and VCS metadata inside the content dir are not source.
			if p != l.contentDir && (d.Name() == "_build" || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		res.FilesScanned++
		rel, _ := filepath.Rel(l.contentDir, p)
		body, err := os.ReadFile(filepath.Clean(p))
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}

		links, err := markdown.ExtractLinks(body)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		for _, link := range links {
			if msg, bad := l.checkLink(p, link.Destination); bad {
				res.Findings = append(res.Findings, Finding{File: rel, Rule: "broken-relative-link", Message: msg})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// checkLink validates a single destination; only relative file links are ours.
func (l *Linter) checkLink(sourceFile, dest string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	target := u.Path
	if target == "" || strings.HasPrefix(target, "/") {
		return "", false
	}

	full := filepath.Join(filepath.Dir(sourceFile), filepath.FromSlash(target))
	if _, err := os.Stat(full); err != nil {
		return fmt.Sprintf("link target %q does not exist", dest), true
	}
	return "", false
}
