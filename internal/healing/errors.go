package healing

import (
	"errors"
	"fmt"
)

// ErrorKind classifies resolution failures that surface to callers.
// Transient original-not-found conditions and storage faults are absorbed
// inside the resolver and never carry one of these kinds.
type ErrorKind int

const (
	// ErrHealingDisabled: regeneration was needed but is switched off or
	// has no inference credential.
	ErrHealingDisabled ErrorKind = iota + 1
	// ErrGenerationFailed: the inference provider returned nothing usable.
	ErrGenerationFailed
	// ErrValidationFailed: a candidate did not match the live page.
	ErrValidationFailed
	// ErrReviewRequired: discovery-mode soft failure on a successful
	// regeneration, so a human can update the source locator.
	ErrReviewRequired
)

func (k ErrorKind) String() string {
	switch k {
	case ErrHealingDisabled:
		return "healing disabled"
	case ErrGenerationFailed:
		return "generation failed"
	case ErrValidationFailed:
		return "validation failed"
	case ErrReviewRequired:
		return "review required"
	default:
		return "unknown"
	}
}

// Error is the structured failure surfaced by the resolver. It always
// names the original locator; validation and review failures also carry
// the suggested replacement so callers can update their definitions.
type Error struct {
	Kind      ErrorKind
	Original  string
	Suggested string
	Cause     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrHealingDisabled:
		return fmt.Sprintf("locator %q not found and healing is disabled", e.Original)
	case ErrGenerationFailed:
		if e.Cause != nil {
			return fmt.Sprintf("could not generate a replacement for locator %q: %v", e.Original, e.Cause)
		}
		return fmt.Sprintf("could not generate a replacement for locator %q", e.Original)
	case ErrValidationFailed:
		return fmt.Sprintf("suggested locator %q for %q did not match the live page", e.Suggested, e.Original)
	case ErrReviewRequired:
		return fmt.Sprintf("locator %q is broken; validated replacement %q requires review, update your locator definition", e.Original, e.Suggested)
	default:
		return fmt.Sprintf("resolution of locator %q failed", e.Original)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var he *Error
	return errors.As(err, &he) && he.Kind == kind
}
