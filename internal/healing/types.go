// Package healing resolves symbolic element locators against a live page,
// tolerating locator breakage caused by UI changes. The resolver probes the
// original locator, falls back to the persisted cache of previously healed
// alternatives, and finally asks the inference provider for a fresh
// candidate which it validates against the page before recording the
// outcome.
package healing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"locheal/internal/locator"
)

// Page is the capability the resolver needs from a live browser page.
// Every method reports ordinary "not found" as a value, never as an error;
// errors are reserved for driver faults.
type Page interface {
	// Attached waits up to timeout for an element matching selector to be
	// attached to the DOM.
	Attached(ctx context.Context, selector string, timeout time.Duration) bool
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	// Text returns the element's textContent.
	Text(ctx context.Context, selector string) (string, error)
	// InnerText returns the element's rendered innerText.
	InnerText(ctx context.Context, selector string) (string, error)

	// Snapshot evidence for regeneration.
	HTML(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	URL() string
}

// ElementInfo describes one interactive element in a page snapshot.
type ElementInfo struct {
	Tag     string `json:"tag"`
	ID      string `json:"id,omitempty"`
	Classes string `json:"classes,omitempty"`
	TestID  string `json:"testId,omitempty"`
	Role    string `json:"role,omitempty"`
	Type    string `json:"type,omitempty"`
	Name    string `json:"name,omitempty"`
	Text    string `json:"text,omitempty"`
}

// PageSnapshot is the structured page evidence handed to the inference
// provider.
type PageSnapshot struct {
	Title    string        `json:"title"`
	URL      string        `json:"url"`
	HTML     string        `json:"html"`
	Elements []ElementInfo `json:"elements"`
}

// ContextExtractor supplies a page snapshot used as regeneration evidence.
type ContextExtractor interface {
	Snapshot(ctx context.Context, page Page) (*PageSnapshot, error)
}

// GenerationRequest is the structured payload submitted to the inference
// provider.
type GenerationRequest struct {
	Locator       string
	FailureReason string
	Description   string
	Snapshot      *PageSnapshot
}

// Candidate is the provider's structured response: a locator string, its
// strategy tag, a 0-100 confidence, and an optional rationale.
type Candidate struct {
	Locator    string
	Strategy   locator.Strategy
	Confidence float64
	Rationale  string
}

// Provider generates a fresh locator candidate from page evidence.
type Provider interface {
	Suggest(ctx context.Context, req GenerationRequest) (*Candidate, error)
}

// Request describes one resolution attempt. Requests are transient; the
// resolver owns no persistent state beyond what it writes to the cache.
type Request struct {
	ID            string
	Locator       string
	Page          Page
	FailureReason string
	Description   string
}

// NewRequest builds a request with a fresh correlation ID.
func NewRequest(loc string, page Page) Request {
	return Request{ID: uuid.NewString(), Locator: loc, Page: page}
}

// Source tags how a resolution produced its locator.
type Source int

const (
	SourceFailed Source = iota
	SourceOriginal
	SourceCacheHealed
	SourceFreshlyHealed
)

func (s Source) String() string {
	switch s {
	case SourceOriginal:
		return "original"
	case SourceCacheHealed:
		return "cache-healed"
	case SourceFreshlyHealed:
		return "freshly-healed"
	default:
		return "failed"
	}
}

// Outcome is the result of one resolution.
type Outcome struct {
	Source     Source
	Locator    string
	Strategy   locator.Strategy
	Confidence float64
	Reason     string
}

// Resolved reports whether the outcome carries a usable locator.
func (o Outcome) Resolved() bool {
	return o.Source != SourceFailed
}
