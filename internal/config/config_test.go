package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.True(t, cfg.Healing.Enabled)
	assert.False(t, cfg.Healing.TransparentApply)
	assert.Equal(t, 3, cfg.Healing.ValidationRetries)
	assert.Equal(t, 2, cfg.Cache.ExpiryDays)
	assert.Equal(t, "gemini-3-flash-preview", cfg.Inference.Model)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locheal.yaml")
	doc := `
healing:
  enabled: false
  element_timeout: 2s
cache:
  path: /tmp/custom-cache.json
  expiry_days: 7
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Healing.Enabled)
	assert.Equal(t, 2*time.Second, cfg.GetElementTimeout())
	assert.Equal(t, "/tmp/custom-cache.json", cfg.Cache.Path)
	assert.Equal(t, 7*24*time.Hour, cfg.GetCacheMaxAge())
	// Untouched sections keep their defaults.
	assert.Equal(t, "30s", cfg.Healing.ResolveTimeout)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("healing: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("LOCHEAL_CACHE", "/data/cache.json")
	t.Setenv("LOCHEAL_HEALING", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gem-key", cfg.Inference.APIKey)
	assert.Equal(t, "/data/cache.json", cfg.Cache.Path)
	assert.False(t, cfg.Healing.Enabled)
}

func TestLochealKeyWinsOverGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("LOCHEAL_API_KEY", "loc-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "loc-key", cfg.Inference.APIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "locheal.yaml")
	cfg := DefaultConfig()
	cfg.Healing.TransparentApply = true
	cfg.Inference.Model = "custom-model"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Healing.TransparentApply)
	assert.Equal(t, "custom-model", loaded.Inference.Model)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Cache.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Healing.ElementTimeout = "soon"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Inference.Timeout = "soonish"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Browser.PageTimeout = "1 minute"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.Enabled = true
	cfg.Logging.Dir = ""
	assert.Error(t, cfg.Validate())
}

func TestGetCacheMaxAgeDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.ExpiryDays = 0
	assert.Negative(t, int64(cfg.GetCacheMaxAge()))
}

func TestDurationGettersFallBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Healing.ResolveTimeout = "garbage"
	assert.Equal(t, 30*time.Second, cfg.GetResolveTimeout())
	cfg.Inference.Timeout = ""
	assert.Equal(t, 60*time.Second, cfg.GetInferenceTimeout())
}
