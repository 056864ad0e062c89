package driver

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// selectorKind is the query dialect sniffed from a locator string.
type selectorKind int

const (
	kindCSS selectorKind = iota
	kindXPath
	kindText
)

// splitSelector sniffs the dialect of a locator string. Explicit prefixes
// win; bare strings starting with "//" or "(//" are treated as XPath,
// everything else as CSS.
func splitSelector(selector string) (selectorKind, string) {
	switch {
	case strings.HasPrefix(selector, "xpath="):
		return kindXPath, strings.TrimPrefix(selector, "xpath=")
	case strings.HasPrefix(selector, "css="):
		return kindCSS, strings.TrimPrefix(selector, "css=")
	case strings.HasPrefix(selector, "text="):
		return kindText, strings.TrimPrefix(selector, "text=")
	case strings.HasPrefix(selector, "//"), strings.HasPrefix(selector, "(//"):
		return kindXPath, selector
	default:
		return kindCSS, selector
	}
}

// Page adapts one rod page to the resolver's page surface.
type Page struct {
	page *rod.Page
}

// NewPage wraps an existing rod page.
func NewPage(p *rod.Page) *Page {
	return &Page{page: p}
}

// Rod exposes the underlying rod page for operations outside the healing
// surface.
func (p *Page) Rod() *rod.Page {
	return p.page
}

// find waits for an element matching selector within the page's current
// context.
func (p *Page) find(ctx context.Context, selector string, timeout time.Duration) (*rod.Element, error) {
	pg := p.page.Context(ctx)
	if timeout > 0 {
		pg = pg.Timeout(timeout)
	}
	kind, value := splitSelector(selector)
	switch kind {
	case kindXPath:
		return pg.ElementX(value)
	case kindText:
		return pg.ElementR("*", "/^\\s*"+regexp.QuoteMeta(value)+"\\s*$/")
	default:
		return pg.Element(value)
	}
}

// Attached waits up to timeout for an element matching selector. Timeout
// and not-found are values, not errors.
func (p *Page) Attached(ctx context.Context, selector string, timeout time.Duration) bool {
	el, err := p.find(ctx, selector, timeout)
	return err == nil && el != nil
}

// Click clicks the element matching selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	el, err := p.find(ctx, selector, 0)
	if err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// Fill replaces the element's current value with text.
func (p *Page) Fill(ctx context.Context, selector, text string) error {
	el, err := p.find(ctx, selector, 0)
	if err != nil {
		return fmt.Errorf("fill %q: %w", selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("fill %q: %w", selector, err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("fill %q: %w", selector, err)
	}
	return nil
}

// Text returns the element's textContent.
func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	el, err := p.find(ctx, selector, 0)
	if err != nil {
		return "", fmt.Errorf("text of %q: %w", selector, err)
	}
	res, err := el.Eval("() => this.textContent")
	if err != nil {
		return "", fmt.Errorf("text of %q: %w", selector, err)
	}
	return res.Value.Str(), nil
}

// InnerText returns the element's rendered innerText.
func (p *Page) InnerText(ctx context.Context, selector string) (string, error) {
	el, err := p.find(ctx, selector, 0)
	if err != nil {
		return "", fmt.Errorf("inner text of %q: %w", selector, err)
	}
	res, err := el.Eval("() => this.innerText")
	if err != nil {
		return "", fmt.Errorf("inner text of %q: %w", selector, err)
	}
	return res.Value.Str(), nil
}

// HTML returns the full page HTML.
func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// Title returns the document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.Title, nil
}

// URL returns the page's current URL, or empty when the target is gone.
func (p *Page) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close closes the page.
func (p *Page) Close() error {
	return p.page.Close()
}
