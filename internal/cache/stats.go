package cache

import (
	"math"
	"time"
)

// Statistics is a derived, read-only snapshot of store state. Hit/miss
// counters are process-lifetime cumulative and are not persisted.
type Statistics struct {
	TotalEntries int       `json:"totalEntries"`
	OldestEntry  time.Time `json:"oldestEntry,omitempty"`
	NewestEntry  time.Time `json:"newestEntry,omitempty"`
	HitRate      float64   `json:"hitRate"`
	TotalHits    uint64    `json:"totalHits"`
	TotalMisses  uint64    `json:"totalMisses"`
}

// Statistics computes a snapshot on demand. Hit rate is
// hits/(hits+misses)*100, rounded to 2 decimals, and 0 before the first
// request.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{
		TotalEntries: len(s.entries),
		TotalHits:    s.hits,
		TotalMisses:  s.misses,
	}

	for _, entry := range s.entries {
		if stats.OldestEntry.IsZero() || entry.Timestamp.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.Timestamp
		}
		if stats.NewestEntry.IsZero() || entry.Timestamp.After(stats.NewestEntry) {
			stats.NewestEntry = entry.Timestamp
		}
	}

	if total := s.hits + s.misses; total > 0 {
		rate := float64(s.hits) / float64(total) * 100
		stats.HitRate = math.Round(rate*100) / 100
	}
	return stats
}
