package healing

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"locheal/internal/cache"
	"locheal/internal/logging"
)

// Resolver orchestrates original-locator probing, cache lookup and
// validation, AI-assisted regeneration, and result propagation. It owns no
// persistent state; all durable writes funnel through the cache store.
type Resolver struct {
	cache    *cache.Store
	policy   Policy
	provider Provider
	extract  ContextExtractor

	// group deduplicates the generate-validate-store sequence per locator
	// key so overlapping resolutions of one key fire at most one inference
	// call.
	group singleflight.Group
}

// NewResolver wires a resolver from its collaborators. provider and
// extract may be nil when healing is disabled by policy.
func NewResolver(store *cache.Store, policy Policy, provider Provider, extract ContextExtractor) *Resolver {
	return &Resolver{
		cache:    store,
		policy:   policy.normalized(),
		provider: provider,
		extract:  extract,
	}
}

// Policy returns the resolver's policy.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve runs the resolution state machine for one request.
//
// Ordinary not-found of the original locator is never an error; it starts
// the fallback chain. A non-nil error is always a *Error carrying the
// original locator and, where one exists, the suggested replacement.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Outcome, error) {
	if req.Locator == "" {
		return Outcome{}, fmt.Errorf("resolve: empty locator")
	}
	if req.Page == nil {
		return Outcome{}, fmt.Errorf("resolve: no page attached to request")
	}

	ctx, cancel := context.WithTimeout(ctx, r.policy.ResolveTimeout)
	defer cancel()

	// TryOriginal
	if req.Page.Attached(ctx, req.Locator, r.policy.ElementTimeout) {
		logging.ResolverDebug("[%s] original locator %q attached", req.ID, req.Locator)
		return Outcome{Source: SourceOriginal, Locator: req.Locator}, nil
	}
	logging.Resolver("[%s] original locator %q not attached, consulting cache", req.ID, req.Locator)

	// CheckCache -> ValidateCandidate
	if entry := r.cache.Get(req.Locator); entry != nil {
		if r.probe(ctx, req.Page, entry.GeneratedLocator) {
			r.cache.RecordSuccess(req.Locator)
			logging.Resolver("[%s] cached locator %q validated for %q", req.ID, entry.GeneratedLocator, req.Locator)
			return Outcome{
				Source:   SourceCacheHealed,
				Locator:  entry.GeneratedLocator,
				Strategy: entry.Strategy,
			}, nil
		}
		// The stale entry stays in place; only its failure counter moves.
		// It is replaced when a fresh generation eventually succeeds.
		r.cache.RecordFailure(req.Locator)
		logging.ResolverWarn("[%s] cached locator %q no longer matches for %q", req.ID, entry.GeneratedLocator, req.Locator)
	}

	// RequireHealingEnabled
	if !r.policy.HealingEnabled() {
		err := &Error{Kind: ErrHealingDisabled, Original: req.Locator}
		logging.Resolver("[%s] %v", req.ID, err)
		return Outcome{Source: SourceFailed, Reason: err.Kind.String()}, err
	}

	// Generate -> ValidateFresh, single-flighted per key.
	v, err, shared := r.group.Do(req.Locator, func() (interface{}, error) {
		return r.heal(ctx, req)
	})
	if err != nil {
		return Outcome{Source: SourceFailed, Reason: reasonOf(err)}, err
	}
	cand := v.(*Candidate)
	if shared {
		logging.ResolverDebug("[%s] reused in-flight healing result for %q", req.ID, req.Locator)
	}

	// ApplyPolicy
	if r.policy.ApplyTransparently() {
		logging.Resolver("[%s] healed %q -> %q (%s, confidence %.0f)",
			req.ID, req.Locator, cand.Locator, cand.Strategy, cand.Confidence)
		return Outcome{
			Source:     SourceFreshlyHealed,
			Locator:    cand.Locator,
			Strategy:   cand.Strategy,
			Confidence: cand.Confidence,
		}, nil
	}

	// Discovery mode: deliberate soft failure so a human updates the
	// source locator. The suggestion is cached and validated; only the
	// propagation differs.
	err = &Error{Kind: ErrReviewRequired, Original: req.Locator, Suggested: cand.Locator}
	logging.Resolver("[%s] %v", req.ID, err)
	return Outcome{Source: SourceFailed, Reason: ErrReviewRequired.String()}, err
}

// heal runs Generate and ValidateFresh for one key and records the outcome
// in the cache. Called under the per-key singleflight group.
func (r *Resolver) heal(ctx context.Context, req Request) (*Candidate, error) {
	if r.provider == nil || r.extract == nil {
		return nil, &Error{Kind: ErrGenerationFailed, Original: req.Locator,
			Cause: fmt.Errorf("no inference provider configured")}
	}

	timer := logging.StartTimer(logging.CategoryResolver, fmt.Sprintf("heal %q", req.Locator))
	defer timer.Stop()

	snapshot, err := r.extract.Snapshot(ctx, req.Page)
	if err != nil {
		return nil, &Error{Kind: ErrGenerationFailed, Original: req.Locator,
			Cause: fmt.Errorf("page snapshot: %w", err)}
	}

	reason := req.FailureReason
	if reason == "" {
		reason = fmt.Sprintf("element did not attach within %v", r.policy.ElementTimeout)
	}

	cand, err := r.provider.Suggest(ctx, GenerationRequest{
		Locator:       req.Locator,
		FailureReason: reason,
		Description:   req.Description,
		Snapshot:      snapshot,
	})
	if err != nil {
		return nil, &Error{Kind: ErrGenerationFailed, Original: req.Locator, Cause: err}
	}
	if cand == nil || cand.Locator == "" || !cand.Strategy.Valid() {
		return nil, &Error{Kind: ErrGenerationFailed, Original: req.Locator,
			Cause: fmt.Errorf("provider returned a malformed candidate")}
	}

	// ValidateFresh
	if !r.probe(ctx, req.Page, cand.Locator) {
		// No-op when no entry exists for the key; otherwise the failed
		// attempt is recorded against the stale entry.
		r.cache.RecordFailure(req.Locator)
		return nil, &Error{Kind: ErrValidationFailed, Original: req.Locator, Suggested: cand.Locator}
	}

	r.cache.Set(req.Locator, cand.Locator, cand.Strategy)
	return cand, nil
}

// probe waits for a candidate selector, retrying up to the policy's
// validation retry count. Each attempt is bounded by the element timeout;
// the resolution deadline caps the whole sequence.
func (r *Resolver) probe(ctx context.Context, page Page, selector string) bool {
	attempts := r.policy.ValidationRetries
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return false
		}
		if page.Attached(ctx, selector, r.policy.ElementTimeout) {
			return true
		}
	}
	return false
}

func reasonOf(err error) string {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind.String()
	}
	return "failed"
}
