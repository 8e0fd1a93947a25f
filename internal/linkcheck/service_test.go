package linkcheck

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestExtractLinksFromReader(t *testing.T) {
	doc := `<html><body>
		<a href="page.html">page</a>
		<img src="_images/plot.png">
		<link href="style.css" rel="stylesheet">
		<script src="app.js"></script>
		<a href="https://example.com">ext</a>
		<a href="#section">anchor</a>
	</body></html>`

	links, err := ExtractLinksFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ExtractLinksFromReader() failed: %v", err)
	}
	if len(links) != 6 {
		t.Fatalf("expected 6 links, got %d: %v", len(links), links)
	}

	internal := 0
	for _, l := range links {
		if l.IsInternal() {
			internal++
		}
	}
	if internal != 4 {
		t.Errorf("expected 4 internal links, got %d", internal)
	}
}

func TestIsInternal(t *testing.T) {
	cases := map[string]bool{
		"page.html":            true,
		"/chapter/index.html":  true,
		"../up.html":           true,
		"https://example.com":  false,
		"//cdn.example.com/x":  false,
		"mailto:a@b.c":         false,
		"#fragment":            false,
		"data:image/png;xxx":   false,
		"javascript:void(0)":   false,
	}
	for raw, want := range cases {
		if got := (Link{URL: raw}).IsInternal(); got != want {
			t.Errorf("IsInternal(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestVerifyFindsBrokenLinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", `<html><body>
		<a href="existing.html">ok</a>
		<a href="missing.html">broken</a>
		<img src="_images/present.png">
		<img src="_images/gone.png">
		<a href="https://example.com/anything">external ignored</a>
	</body></html>`)
	writeFile(t, dir, "existing.html", "<html></html>")
	writeFile(t, dir, "_images/present.png", "png")

	problems, err := NewService().Verify(context.Background(), dir)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %d: %v", len(problems), problems)
	}
	for _, p := range problems {
		if !strings.Contains(p, "missing.html") && !strings.Contains(p, "gone.png") {
			t.Errorf("unexpected problem: %s", p)
		}
	}
}

func TestVerifyDirectoryLinksUseIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", `<a href="chapter/">chapter</a><a href="empty/">empty</a>`)
	writeFile(t, dir, "chapter/index.html", "<html></html>")
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0o750); err != nil {
		t.Fatal(err)
	}

	problems, err := NewService().Verify(context.Background(), dir)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem for dir without index, got %d: %v", len(problems), problems)
	}
}

func TestVerifyRootRelativeLinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/deep/page.html", `<a href="/top.html">top</a>`)
	writeFile(t, dir, "top.html", "<html></html>")

	problems, err := NewService().Verify(context.Background(), dir)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}
}

func TestVerifyCanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewService().Verify(ctx, dir); err == nil {
		t.Fatal("expected context error")
	}
}
