package linkcheck

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL       string // the URL or path
	Tag       string // HTML tag (a, img, script, link)
	Attribute string // attribute containing the link (href, src)
}

// linkAttributes maps tags to the attribute that carries their target.
var linkAttributes = map[string]string{
	"a":      "href",
	"img":    "src",
	"script": "src",
	"link":   "href",
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath string) ([]Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open HTML file %s: %w", htmlPath, err)
	}
	defer func() { _ = file.Close() }()

	return ExtractLinksFromReader(file)
}

// ExtractLinksFromReader extracts all links from an HTML reader.
func ExtractLinksFromReader(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attrName, ok := linkAttributes[n.Data]; ok {
				for _, attr := range n.Attr {
					if attr.Key == attrName && attr.Val != "" {
						links = append(links, Link{URL: attr.Val, Tag: n.Data, Attribute: attr.Key})
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

// IsInternal reports whether the link points inside the generated site.
// External schemes, protocol-relative URLs, anchors and mail links are not ours
// to verify.
func (l Link) IsInternal() bool {
	u := l.URL
	switch {
	case u == "", strings.HasPrefix(u, "#"):
		return false
	case strings.HasPrefix(u, "//"):
		return false
	case strings.Contains(u, "://"):
		return false
	case strings.HasPrefix(u, "mailto:"), strings.HasPrefix(u, "tel:"), strings.HasPrefix(u, "data:"), strings.HasPrefix(u, "javascript:"):
		return false
	default:
		return true
	}
}
