package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMaxSelectionInvalid = errors.New("bulk config: max selection must be greater than zero")
var ErrHistoryCapInvalid = errors.New("bulk config: history cap must be greater than zero")
var ErrConcurrencyInvalid = errors.New("bulk config: executor concurrency must be greater than zero")
var ErrItemTimeoutInvalid = errors.New("bulk config: item timeout must be zero or positive")
var ErrRetryBackoffInvalid = errors.New("bulk config: retry backoff must be zero or positive")

// ErrAuditDriverRequired indicates the audit feature was enabled without a storage driver.
var ErrAuditDriverRequired = errors.New("bulk config: audit driver is required when audit feature is enabled")
var ErrAuditDriverUnknown = errors.New("bulk config: audit driver is invalid")
var ErrAuditDSNRequired = errors.New("bulk config: audit dsn is required for sql drivers")

var ErrLoggingProviderRequired = errors.New("bulk config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("bulk config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("bulk config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("bulk config: logging format is invalid")

const (
	DefaultMaxSelection = 100
	DefaultHistoryCap   = 50
	DefaultConcurrency  = 4
	DefaultItemTimeout  = 30 * time.Second
	DefaultRetryBackoff = 500 * time.Millisecond
)

// Config aggregates the tunables of a bulk action controller.
type Config struct {
	MaxSelection int
	HistoryCap   int
	Executor     ExecutorConfig
	Audit        AuditConfig
	Logging      LoggingConfig
	Features     Features
}

// ExecutorConfig tunes batch execution.
type ExecutorConfig struct {
	// Concurrency bounds the number of in-flight item requests.
	Concurrency int
	// ItemTimeout bounds each backend call. Zero disables the timeout.
	ItemTimeout time.Duration
	// RetryBackoff is the delay before the single transient retry.
	RetryBackoff time.Duration
	// RetryTransient toggles the single retry for transient failures.
	RetryTransient bool
}

// AuditConfig selects the audit trail storage.
type AuditConfig struct {
	Driver string
	DSN    string
}

// Features toggles optional functionality.
type Features struct {
	Logger bool
	Audit  bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns the defaults used when hosts do not override options.
func DefaultConfig() Config {
	return Config{
		MaxSelection: DefaultMaxSelection,
		HistoryCap:   DefaultHistoryCap,
		Executor: ExecutorConfig{
			Concurrency:    DefaultConcurrency,
			ItemTimeout:    DefaultItemTimeout,
			RetryBackoff:   DefaultRetryBackoff,
			RetryTransient: true,
		},
		Audit: AuditConfig{
			Driver: "memory",
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if cfg.MaxSelection <= 0 {
		return fmt.Errorf("%w: %d", ErrMaxSelectionInvalid, cfg.MaxSelection)
	}
	if cfg.HistoryCap <= 0 {
		return fmt.Errorf("%w: %d", ErrHistoryCapInvalid, cfg.HistoryCap)
	}
	if cfg.Executor.Concurrency <= 0 {
		return fmt.Errorf("%w: %d", ErrConcurrencyInvalid, cfg.Executor.Concurrency)
	}
	if cfg.Executor.ItemTimeout < 0 {
		return ErrItemTimeoutInvalid
	}
	if cfg.Executor.RetryBackoff < 0 {
		return ErrRetryBackoffInvalid
	}
	if cfg.Features.Audit {
		driver := NormalizeDriver(cfg.Audit.Driver)
		if driver == "" {
			return ErrAuditDriverRequired
		}
		if !isSupportedDriver(driver) {
			return fmt.Errorf("%w: %s", ErrAuditDriverUnknown, driver)
		}
		if driver != "memory" && strings.TrimSpace(cfg.Audit.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrAuditDSNRequired, driver)
		}
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// NormalizeDriver lowercases driver names and folds aliases.
func NormalizeDriver(driver string) string {
	switch value := strings.ToLower(strings.TrimSpace(driver)); value {
	case "sqlite3":
		return "sqlite"
	case "postgresql", "pg":
		return "postgres"
	default:
		return value
	}
}

func isSupportedDriver(driver string) bool {
	switch driver {
	case "memory", "sqlite", "postgres":
		return true
	default:
		return false
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "gologger", "noop":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
