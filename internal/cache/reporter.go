package cache

import (
	"fmt"
	"strings"

	"locheal/internal/logging"
)

// Reporter derives aggregate hit-rate and age metrics from a Store for
// observability. It never mutates the store.
type Reporter struct {
	store *Store
}

// NewReporter wraps a store.
func NewReporter(store *Store) *Reporter {
	return &Reporter{store: store}
}

// Snapshot returns the current statistics.
func (r *Reporter) Snapshot() Statistics {
	return r.store.Statistics()
}

// Render formats a statistics snapshot for human consumption.
func (r *Reporter) Render() string {
	stats := r.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "Cache entries: %d\n", stats.TotalEntries)
	if !stats.OldestEntry.IsZero() {
		fmt.Fprintf(&b, "Oldest entry:  %s\n", stats.OldestEntry.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(&b, "Newest entry:  %s\n", stats.NewestEntry.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "Hits/misses:   %d/%d\n", stats.TotalHits, stats.TotalMisses)
	fmt.Fprintf(&b, "Hit rate:      %.2f%%\n", stats.HitRate)
	if r.store.Degraded() {
		b.WriteString("Storage:       DEGRADED (in-memory only)\n")
	} else if r.store.Path() != "" {
		fmt.Fprintf(&b, "Document:      %s\n", r.store.Path())
	}
	return b.String()
}

// Log writes the snapshot to the cache log category.
func (r *Reporter) Log() {
	stats := r.Snapshot()
	logging.Cache("stats: entries=%d hits=%d misses=%d hit_rate=%.2f%%",
		stats.TotalEntries, stats.TotalHits, stats.TotalMisses, stats.HitRate)
}
