package cache

import (
	"time"

	"locheal/internal/locator"
)

// Entry is one healed-locator record. Entries are keyed by the exact
// original locator string; no normalization is applied, so two
// syntactically different but equivalent locators are distinct keys.
type Entry struct {
	OriginalLocator  string           `json:"originalLocator"`
	GeneratedLocator string           `json:"generatedLocator"`
	Strategy         locator.Strategy `json:"strategy"`
	Timestamp        time.Time        `json:"timestamp"`
	SuccessCount     int              `json:"successCount"`
	FailureCount     int              `json:"failureCount"`
}

// structurallyValid reports whether a decoded record carries every
// required field with a sensible value. Records failing this check are
// skipped at load time rather than aborting the load.
func (e *Entry) structurallyValid() bool {
	return e.OriginalLocator != "" &&
		e.GeneratedLocator != "" &&
		e.Strategy.Valid() &&
		!e.Timestamp.IsZero() &&
		e.SuccessCount >= 0 &&
		e.FailureCount >= 0
}

// expired reports whether the entry is older than maxAge at the given
// reference time. A non-positive maxAge disables expiry.
func (e *Entry) expired(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(e.Timestamp) > maxAge
}

func (e *Entry) clone() *Entry {
	cp := *e
	return &cp
}
