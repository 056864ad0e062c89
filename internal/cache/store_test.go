package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locheal/internal/locator"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cache.json")
}

func TestStore_GetMissAndHit(t *testing.T) {
	s := New(Options{Path: tempStorePath(t)})

	assert.Nil(t, s.Get("#missing"))

	s.Set("#old-id", "[data-testid=submit]", locator.StrategyTestID)
	entry := s.Get("#old-id")
	require.NotNil(t, entry)
	assert.Equal(t, "#old-id", entry.OriginalLocator)
	assert.Equal(t, "[data-testid=submit]", entry.GeneratedLocator)
	assert.Equal(t, locator.StrategyTestID, entry.Strategy)
	assert.Equal(t, 0, entry.SuccessCount)
	assert.Equal(t, 0, entry.FailureCount)

	stats := s.Statistics()
	assert.Equal(t, uint64(1), stats.TotalHits)
	assert.Equal(t, uint64(1), stats.TotalMisses)
	assert.InDelta(t, 50.0, stats.HitRate, 0.001)
}

func TestStore_SetOverwritesAndResetsCounters(t *testing.T) {
	s := New(Options{Path: tempStorePath(t)})

	s.Set("#btn", "button.primary", locator.StrategyCSS)
	s.RecordSuccess("#btn")
	s.RecordSuccess("#btn")
	s.RecordFailure("#btn")

	entry := s.Get("#btn")
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.SuccessCount)
	assert.Equal(t, 1, entry.FailureCount)

	s.Set("#btn", "//button[@type='submit']", locator.StrategyXPath)
	entry = s.Get("#btn")
	require.NotNil(t, entry)
	assert.Equal(t, "//button[@type='submit']", entry.GeneratedLocator)
	assert.Equal(t, locator.StrategyXPath, entry.Strategy)
	assert.Equal(t, 0, entry.SuccessCount)
	assert.Equal(t, 0, entry.FailureCount)
}

func TestStore_CounterUpdatesAreNoOpForMissingKeys(t *testing.T) {
	s := New(Options{Path: tempStorePath(t)})
	s.RecordSuccess("#ghost")
	s.RecordFailure("#ghost")
	assert.Equal(t, 0, s.Len())
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New(Options{Path: tempStorePath(t)})
	s.Set("#a", ".a", locator.StrategyCSS)

	entry := s.Get("#a")
	require.NotNil(t, entry)
	entry.SuccessCount = 99

	again := s.Get("#a")
	require.NotNil(t, again)
	assert.Equal(t, 0, again.SuccessCount)
}

func TestStore_RoundTrip(t *testing.T) {
	path := tempStorePath(t)

	s := New(Options{Path: path})
	s.Set("#one", "button.one", locator.StrategyCSS)
	s.Set("#two", "//div[@id='two']", locator.StrategyXPath)
	s.Set("#three", "text=Submit", locator.StrategyText)
	s.RecordSuccess("#one")
	s.RecordFailure("#two")

	reloaded := New(Options{Path: path})
	require.Equal(t, 3, reloaded.Len())

	one := reloaded.Get("#one")
	require.NotNil(t, one)
	assert.Equal(t, "button.one", one.GeneratedLocator)
	assert.Equal(t, locator.StrategyCSS, one.Strategy)
	assert.Equal(t, 1, one.SuccessCount)
	assert.False(t, one.Timestamp.IsZero())

	two := reloaded.Get("#two")
	require.NotNil(t, two)
	assert.Equal(t, 1, two.FailureCount)

	// Hit/miss counters are process-lifetime, not persisted.
	stats := reloaded.Statistics()
	assert.Equal(t, uint64(2), stats.TotalHits)
	assert.Equal(t, uint64(0), stats.TotalMisses)
}

func TestStore_ExpiryAtLoad(t *testing.T) {
	path := tempStorePath(t)

	s := New(Options{Path: path})
	s.now = func() time.Time { return time.Now().Add(-72 * time.Hour) }
	s.Set("#stale", ".stale", locator.StrategyCSS)
	s.RecordSuccess("#stale") // even well-used entries expire
	s.now = time.Now
	s.Set("#fresh", ".fresh", locator.StrategyCSS)

	reloaded := New(Options{Path: path})
	assert.Nil(t, reloaded.Get("#stale"))
	assert.NotNil(t, reloaded.Get("#fresh"))
	assert.Equal(t, 1, reloaded.Len())

	// The rewrite after expiry keeps the document clean for the next load.
	again := New(Options{Path: path})
	assert.Equal(t, 1, again.Len())
}

func TestStore_ExpiryConfigurable(t *testing.T) {
	path := tempStorePath(t)

	s := New(Options{Path: path})
	s.now = func() time.Time { return time.Now().Add(-36 * time.Hour) }
	s.Set("#aging", ".aging", locator.StrategyCSS)

	// Within the default two days.
	assert.Equal(t, 1, New(Options{Path: path}).Len())
	// Outside a one-day window.
	assert.Equal(t, 0, New(Options{Path: path, MaxAge: 24 * time.Hour}).Len())
}

func TestStore_InvalidRecordsSkippedOnLoad(t *testing.T) {
	path := tempStorePath(t)

	doc := map[string]interface{}{
		"#good": map[string]interface{}{
			"originalLocator":  "#good",
			"generatedLocator": "button.ok",
			"strategy":         "CSS",
			"timestamp":        time.Now().UTC().Format(time.RFC3339),
			"successCount":     1,
			"failureCount":     0,
		},
		"#missing-fields": map[string]interface{}{
			"originalLocator": "#missing-fields",
		},
		"#bad-strategy": map[string]interface{}{
			"originalLocator":  "#bad-strategy",
			"generatedLocator": ".x",
			"strategy":         "REGEX",
			"timestamp":        time.Now().UTC().Format(time.RFC3339),
			"successCount":     0,
			"failureCount":     0,
		},
		"#wrong-types": map[string]interface{}{
			"originalLocator":  "#wrong-types",
			"generatedLocator": ".y",
			"strategy":         "CSS",
			"timestamp":        12345,
			"successCount":     "lots",
			"failureCount":     0,
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s := New(Options{Path: path})
	assert.Equal(t, 1, s.Len())
	assert.NotNil(t, s.Get("#good"))
}

func TestStore_CorruptDocumentStartsEmpty(t *testing.T) {
	path := tempStorePath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(Options{Path: path})
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Degraded())

	// The store stays usable and the next mutation replaces the document.
	s.Set("#n", ".n", locator.StrategyCSS)
	assert.Equal(t, 1, New(Options{Path: path}).Len())
}

func TestStore_DegradesOnWriteFailure(t *testing.T) {
	// A directory at the document path makes the rename fail.
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	s := New(Options{Path: path})
	s.Set("#k", ".k", locator.StrategyCSS)

	assert.True(t, s.Degraded())
	// In-memory operation continues for the rest of the run.
	require.NotNil(t, s.Get("#k"))
	s.RecordSuccess("#k")
	assert.Equal(t, 1, s.Get("#k").SuccessCount)
}

func TestStore_DeleteAndClear(t *testing.T) {
	path := tempStorePath(t)
	s := New(Options{Path: path})
	s.Set("#a", ".a", locator.StrategyCSS)
	s.Set("#b", ".b", locator.StrategyCSS)

	assert.True(t, s.Delete("#a"))
	assert.False(t, s.Delete("#a"))
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, New(Options{Path: path}).Len())
}

func TestStatistics_EmptyStore(t *testing.T) {
	s := New(Options{Path: tempStorePath(t)})
	stats := s.Statistics()
	assert.Equal(t, 0, stats.TotalEntries)
	assert.Equal(t, uint64(0), stats.TotalHits)
	assert.Equal(t, uint64(0), stats.TotalMisses)
	assert.Zero(t, stats.HitRate)
	assert.True(t, stats.OldestEntry.IsZero())
	assert.True(t, stats.NewestEntry.IsZero())
}

func TestStatistics_HitRateRounding(t *testing.T) {
	s := New(Options{Path: tempStorePath(t)})
	s.Set("#hit", ".h", locator.StrategyCSS)

	// 1 hit, 2 misses -> 33.333...% -> 33.33
	s.Get("#hit")
	s.Get("#miss1")
	s.Get("#miss2")

	stats := s.Statistics()
	assert.Equal(t, uint64(1), stats.TotalHits)
	assert.Equal(t, uint64(2), stats.TotalMisses)
	assert.Equal(t, 33.33, stats.HitRate)
}

func TestStatistics_OldestNewest(t *testing.T) {
	s := New(Options{Path: tempStorePath(t)})

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return old }
	s.Set("#old", ".old", locator.StrategyCSS)
	newer := old.Add(6 * time.Hour)
	s.now = func() time.Time { return newer }
	s.Set("#new", ".new", locator.StrategyCSS)

	stats := s.Statistics()
	assert.True(t, stats.OldestEntry.Equal(old))
	assert.True(t, stats.NewestEntry.Equal(newer))
}

func TestReporter_Render(t *testing.T) {
	s := New(Options{Path: tempStorePath(t)})
	s.Set("#a", ".a", locator.StrategyCSS)
	s.Get("#a")

	out := NewReporter(s).Render()
	assert.Contains(t, out, "Cache entries: 1")
	assert.Contains(t, out, "Hit rate:      100.00%")
	assert.Contains(t, out, s.Path())
}
