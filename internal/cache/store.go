// Package cache persists healed-locator outcomes as a single JSON document
// keyed by the original locator string. The store is the only owner of the
// document: every mutation rewrites the whole file through a temp-file
// rename, so a crash loses at most the latest mutation and never corrupts
// prior state.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"locheal/internal/locator"
	"locheal/internal/logging"
)

// DefaultMaxAge is how long entries survive between process runs.
// Expiry is checked only at load time; there is no background sweeper.
const DefaultMaxAge = 48 * time.Hour

// Options configures a Store.
type Options struct {
	// Path locates the persisted cache document. Empty means in-memory only.
	Path string
	// MaxAge drops entries older than this at load time. Zero means
	// DefaultMaxAge; negative disables expiry.
	MaxAge time.Duration
}

// Store is a durable key-value store of locator-healing outcomes with
// load-time expiry and process-lifetime hit/miss accounting.
//
// Storage I/O errors are logged and degrade the store to in-memory-only
// operation for the rest of the process run; they are never surfaced to
// resolution callers.
type Store struct {
	mu       sync.Mutex
	path     string
	maxAge   time.Duration
	entries  map[string]*Entry
	hits     uint64
	misses   uint64
	degraded bool

	now func() time.Time // test hook
}

// New creates a store bound to opts.Path and loads the persisted document.
// A store opened on a new path starts from that path's document alone;
// nothing is merged from elsewhere.
func New(opts Options) *Store {
	maxAge := opts.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}
	s := &Store{
		path:    opts.Path,
		maxAge:  maxAge,
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
	s.load()
	return s
}

// load reads the persisted document, skipping structurally invalid records
// and entries past their max age.
func (s *Store) load() {
	if s.path == "" {
		return
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		logging.CacheError("read %s failed, running in-memory only: %v", s.path, err)
		s.degraded = true
		return
	}

	// Decode into raw messages first so one malformed record does not
	// abort the whole load.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logging.CacheError("cache document %s is not valid JSON, starting empty: %v", s.path, err)
		return
	}

	now := s.now()
	skipped, expired := 0, 0
	for key, msg := range raw {
		var entry Entry
		if err := json.Unmarshal(msg, &entry); err != nil {
			skipped++
			continue
		}
		if !entry.structurallyValid() {
			skipped++
			continue
		}
		if entry.expired(now, s.maxAge) {
			expired++
			continue
		}
		s.entries[key] = &entry
	}
	if skipped > 0 {
		logging.CacheWarn("skipped %d invalid cache records in %s", skipped, s.path)
	}
	if expired > 0 {
		logging.Cache("dropped %d expired cache entries (max age %v)", expired, s.maxAge)
		// Rewrite so the expired entries do not come back on the next load.
		s.persistLocked()
	}
	logging.CacheDebug("loaded %d cache entries from %s", len(s.entries), s.path)
}

// Get returns a copy of the entry for key, or nil on a miss. Hit/miss
// counters are updated as a side effect.
func (s *Store) Get(key string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.misses++
		logging.CacheDebug("miss for %q", key)
		return nil
	}
	s.hits++
	logging.CacheDebug("hit for %q -> %q", key, entry.GeneratedLocator)
	return entry.clone()
}

// Set records a freshly healed locator for key, overwriting any existing
// entry, and persists before returning.
func (s *Store) Set(key, generated string, strategy locator.Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &Entry{
		OriginalLocator:  key,
		GeneratedLocator: generated,
		Strategy:         strategy,
		Timestamp:        s.now().UTC(),
	}
	s.persistLocked()
	logging.Cache("stored healed locator %q -> %q (%s)", key, generated, strategy)
}

// RecordSuccess increments the success counter for key. Missing keys are a
// no-op, not an error.
func (s *Store) RecordSuccess(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return
	}
	entry.SuccessCount++
	s.persistLocked()
}

// RecordFailure increments the failure counter for key. Missing keys are a
// no-op, not an error.
func (s *Store) RecordFailure(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return
	}
	entry.FailureCount++
	s.persistLocked()
}

// Delete removes the entry for key, reporting whether one existed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	s.persistLocked()
	return true
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry)
	s.persistLocked()
	logging.Cache("cache cleared")
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Path returns the backing document path ("" for in-memory stores).
func (s *Store) Path() string {
	return s.path
}

// Degraded reports whether storage I/O has failed and the store is running
// in-memory only for this process.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// persistLocked writes the whole document. Caller must hold s.mu.
// The write goes to a temp file in the same directory followed by a rename,
// which the filesystem applies atomically.
func (s *Store) persistLocked() {
	if s.path == "" || s.degraded {
		return
	}
	if err := s.writeDocument(); err != nil {
		logging.CacheError("persist %s failed, running in-memory only: %v", s.path, err)
		s.degraded = true
	}
}

func (s *Store) writeDocument() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache document: %w", err)
	}
	return nil
}
