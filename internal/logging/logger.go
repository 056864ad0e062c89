// Package logging provides config-driven categorized file-based logging.
// Logs are written with separate files per category. When logging is
// disabled every call is a silent no-op; diagnostic output never affects
// resolution outcomes.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup and configuration
	CategoryResolver  Category = "resolver"  // Locator resolution state machine
	CategoryCache     Category = "cache"     // Cache store operations
	CategoryInference Category = "inference" // Inference provider calls
	CategoryBrowser   Category = "browser"   // Page driver operations
)

// Settings controls whether and how much gets logged.
type Settings struct {
	Enabled bool
	Level   string // debug, info, warn, error
	Dir     string
}

// Log levels
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	settings  Settings
	settingMu sync.RWMutex
	logLevel  = LevelInfo
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

// Initialize configures the logging system. Safe to call again with new
// settings; previously opened files are closed first.
func Initialize(s Settings) error {
	CloseAll()

	settingMu.Lock()
	settings = s
	switch s.Level {
	case "debug":
		logLevel = LevelDebug
	case "info", "":
		logLevel = LevelInfo
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	settingMu.Unlock()

	if !s.Enabled {
		return nil
	}
	if s.Dir == "" {
		return fmt.Errorf("logging enabled but no log directory configured")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	Get(CategoryBoot).Info("logging initialized: dir=%s level=%s", s.Dir, s.Level)
	return nil
}

// Enabled reports whether logging is active.
func Enabled() bool {
	settingMu.RLock()
	defer settingMu.RUnlock()
	return settings.Enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger when logging is disabled.
func Get(category Category) *Logger {
	settingMu.RLock()
	enabled, dir := settings.Enabled, settings.Dir
	settingMu.RUnlock()
	if !enabled || dir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix keeps rotation a matter of deleting old files.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

func level() int {
	settingMu.RLock()
	defer settingMu.RUnlock()
	return logLevel
}

// Debug logs a debug message (only if level <= debug).
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || level() > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info).
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || level() > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn).
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || level() > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged if logger exists).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if logging is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootError logs error to the boot category
func BootError(format string, args ...interface{}) {
	Get(CategoryBoot).Error(format, args...)
}

// Resolver logs to the resolver category
func Resolver(format string, args ...interface{}) {
	Get(CategoryResolver).Info(format, args...)
}

// ResolverDebug logs debug to the resolver category
func ResolverDebug(format string, args ...interface{}) {
	Get(CategoryResolver).Debug(format, args...)
}

// ResolverWarn logs warning to the resolver category
func ResolverWarn(format string, args ...interface{}) {
	Get(CategoryResolver).Warn(format, args...)
}

// ResolverError logs error to the resolver category
func ResolverError(format string, args ...interface{}) {
	Get(CategoryResolver).Error(format, args...)
}

// Cache logs to the cache category
func Cache(format string, args ...interface{}) {
	Get(CategoryCache).Info(format, args...)
}

// CacheDebug logs debug to the cache category
func CacheDebug(format string, args ...interface{}) {
	Get(CategoryCache).Debug(format, args...)
}

// CacheWarn logs warning to the cache category
func CacheWarn(format string, args ...interface{}) {
	Get(CategoryCache).Warn(format, args...)
}

// CacheError logs error to the cache category
func CacheError(format string, args ...interface{}) {
	Get(CategoryCache).Error(format, args...)
}

// Inference logs to the inference category
func Inference(format string, args ...interface{}) {
	Get(CategoryInference).Info(format, args...)
}

// InferenceDebug logs debug to the inference category
func InferenceDebug(format string, args ...interface{}) {
	Get(CategoryInference).Debug(format, args...)
}

// InferenceError logs error to the inference category
func InferenceError(format string, args ...interface{}) {
	Get(CategoryInference).Error(format, args...)
}

// Browser logs to the browser category
func Browser(format string, args ...interface{}) {
	Get(CategoryBrowser).Info(format, args...)
}

// BrowserDebug logs debug to the browser category
func BrowserDebug(format string, args ...interface{}) {
	Get(CategoryBrowser).Debug(format, args...)
}

// BrowserError logs error to the browser category
func BrowserError(format string, args ...interface{}) {
	Get(CategoryBrowser).Error(format, args...)
}
