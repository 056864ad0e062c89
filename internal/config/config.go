package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all locheal configuration.
type Config struct {
	// Healing behavior
	Healing HealingConfig `yaml:"healing"`

	// Locator cache
	Cache CacheConfig `yaml:"cache"`

	// Inference provider
	Inference InferenceConfig `yaml:"inference"`

	// Browser session
	Browser BrowserConfig `yaml:"browser"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// HealingConfig configures the resolution policy.
type HealingConfig struct {
	Enabled bool `yaml:"enabled"`
	// TransparentApply switches from discovery mode (surface suggestions
	// for review) to healing mode (substitute silently).
	TransparentApply  bool   `yaml:"transparent_apply"`
	ElementTimeout    string `yaml:"element_timeout"`
	ResolveTimeout    string `yaml:"resolve_timeout"`
	ValidationRetries int    `yaml:"validation_retries"`
}

// CacheConfig configures the persisted locator cache.
type CacheConfig struct {
	Path string `yaml:"path"`
	// ExpiryDays bounds entry age at load time. Zero or negative disables
	// expiry.
	ExpiryDays int `yaml:"expiry_days"`
}

// InferenceConfig configures the locator generation provider.
type InferenceConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// BrowserConfig configures the rod session.
type BrowserConfig struct {
	Headless bool `yaml:"headless"`
	// DebuggerURL attaches to an existing browser instead of launching one.
	DebuggerURL string `yaml:"debugger_url"`
	PageTimeout string `yaml:"page_timeout"`
}

// LoggingConfig configures category file logging.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"` // debug, info, warn, error
	Dir     string `yaml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Healing: HealingConfig{
			Enabled:           true,
			TransparentApply:  false,
			ElementTimeout:    "5s",
			ResolveTimeout:    "30s",
			ValidationRetries: 3,
		},

		Cache: CacheConfig{
			Path:       filepath.Join(".locheal", "cache.json"),
			ExpiryDays: 2,
		},

		Inference: InferenceConfig{
			Model:   "gemini-3-flash-preview",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Timeout: "60s",
		},

		Browser: BrowserConfig{
			Headless:    true,
			PageTimeout: "30s",
		},

		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
			Dir:     filepath.Join(".locheal", "logs"),
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Inference API key (checked in priority order)
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Inference.APIKey = key
	}
	if key := os.Getenv("LOCHEAL_API_KEY"); key != "" {
		c.Inference.APIKey = key
	}

	if model := os.Getenv("LOCHEAL_MODEL"); model != "" {
		c.Inference.Model = model
	}
	if path := os.Getenv("LOCHEAL_CACHE"); path != "" {
		c.Cache.Path = path
	}
	if url := os.Getenv("LOCHEAL_DEBUGGER_URL"); url != "" {
		c.Browser.DebuggerURL = url
	}
	if v := os.Getenv("LOCHEAL_HEALING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Healing.Enabled = b
		}
	}
}

// Validate checks for settings that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path must not be empty")
	}
	if c.Healing.ValidationRetries < 0 {
		return fmt.Errorf("healing.validation_retries must not be negative")
	}
	if _, err := time.ParseDuration(c.Healing.ElementTimeout); err != nil {
		return fmt.Errorf("invalid healing.element_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Healing.ResolveTimeout); err != nil {
		return fmt.Errorf("invalid healing.resolve_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Inference.Timeout); err != nil {
		return fmt.Errorf("invalid inference.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Browser.PageTimeout); err != nil {
		return fmt.Errorf("invalid browser.page_timeout: %w", err)
	}
	if c.Logging.Enabled && c.Logging.Dir == "" {
		return fmt.Errorf("logging.dir must be set when logging is enabled")
	}
	return nil
}

// GetElementTimeout returns the per-probe element timeout as a duration.
func (c *Config) GetElementTimeout() time.Duration {
	d, err := time.ParseDuration(c.Healing.ElementTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetResolveTimeout returns the whole-resolution timeout as a duration.
func (c *Config) GetResolveTimeout() time.Duration {
	d, err := time.ParseDuration(c.Healing.ResolveTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetInferenceTimeout returns the provider request timeout as a duration.
func (c *Config) GetInferenceTimeout() time.Duration {
	d, err := time.ParseDuration(c.Inference.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetPageTimeout returns the browser page timeout as a duration.
func (c *Config) GetPageTimeout() time.Duration {
	d, err := time.ParseDuration(c.Browser.PageTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetCacheMaxAge converts expiry_days to a duration. Non-positive means
// expiry is disabled.
func (c *Config) GetCacheMaxAge() time.Duration {
	if c.Cache.ExpiryDays <= 0 {
		return -1
	}
	return time.Duration(c.Cache.ExpiryDays) * 24 * time.Hour
}
