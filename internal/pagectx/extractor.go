// Package pagectx distills a live page into the evidence bundle the
// inference provider reasons over: title, URL, a trimmed HTML body, and a
// digest of interactive elements.
package pagectx

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"locheal/internal/healing"
	"locheal/internal/logging"
)

// Trimming limits. Full page HTML routinely exceeds what the model needs;
// interactive elements carry most of the locator signal.
const (
	DefaultMaxHTMLBytes = 40 * 1024
	DefaultMaxElements  = 150
)

// interactiveTags are the elements collected into the snapshot digest.
var interactiveTags = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"label":    true,
	"form":     true,
}

// Extractor builds page snapshots. The zero value uses the default limits.
type Extractor struct {
	MaxHTMLBytes int
	MaxElements  int
}

// Snapshot implements healing.ContextExtractor.
func (e Extractor) Snapshot(ctx context.Context, page healing.Page) (*healing.PageSnapshot, error) {
	maxBytes := e.MaxHTMLBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxHTMLBytes
	}
	maxElements := e.MaxElements
	if maxElements <= 0 {
		maxElements = DefaultMaxElements
	}

	raw, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	title, err := page.Title(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page title: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	snap := &healing.PageSnapshot{
		Title: title,
		URL:   page.URL(),
	}

	strip(doc)
	snap.Elements = collectElements(doc, maxElements)

	var rendered strings.Builder
	if err := html.Render(&rendered, doc); err != nil {
		return nil, fmt.Errorf("render trimmed html: %w", err)
	}
	snap.HTML = truncate(collapseWhitespace(rendered.String()), maxBytes)

	logging.BrowserDebug("snapshot of %s: %d bytes html, %d elements",
		snap.URL, len(snap.HTML), len(snap.Elements))
	return snap, nil
}

// strip removes script, style and noscript subtrees in place.
func strip(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style" || c.Data == "noscript") {
			n.RemoveChild(c)
			continue
		}
		strip(c)
	}
}

// collectElements walks the document and digests up to max interactive
// elements in document order.
func collectElements(doc *html.Node, max int) []healing.ElementInfo {
	var out []healing.ElementInfo
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) >= max {
			return
		}
		if n.Type == html.ElementNode && interactiveTags[n.Data] {
			out = append(out, digest(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func digest(n *html.Node) healing.ElementInfo {
	info := healing.ElementInfo{Tag: n.Data}
	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			info.ID = attr.Val
		case "class":
			info.Classes = attr.Val
		case "data-testid":
			info.TestID = attr.Val
		case "role":
			info.Role = attr.Val
		case "type":
			info.Type = attr.Val
		case "name":
			info.Name = attr.Val
		}
	}
	info.Text = truncate(collapseWhitespace(textOf(n)), 80)
	return info
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
