package runtimeconfig_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-bulk/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	if cfg.HistoryCap != 50 {
		t.Fatalf("expected default history cap 50, got %d", cfg.HistoryCap)
	}
	if cfg.Executor.Concurrency < 3 || cfg.Executor.Concurrency > 5 {
		t.Fatalf("expected default concurrency within 3-5, got %d", cfg.Executor.Concurrency)
	}
}

func TestConfigValidate_RejectsNonPositiveMaxSelection(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.MaxSelection = 0

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrMaxSelectionInvalid) {
		t.Fatalf("expected ErrMaxSelectionInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsNonPositiveHistoryCap(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.HistoryCap = -1

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrHistoryCapInvalid) {
		t.Fatalf("expected ErrHistoryCapInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsZeroConcurrency(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Executor.Concurrency = 0

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrConcurrencyInvalid) {
		t.Fatalf("expected ErrConcurrencyInvalid, got %v", err)
	}
}

func TestConfigValidate_RequiresAuditDSNForSQLDrivers(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Audit = true
	cfg.Audit.Driver = "sqlite3"
	cfg.Audit.DSN = " "

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrAuditDSNRequired) {
		t.Fatalf("expected ErrAuditDSNRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownAuditDriver(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Audit = true
	cfg.Audit.Driver = "mongo"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrAuditDriverUnknown) {
		t.Fatalf("expected ErrAuditDriverUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestNormalizeDriverFoldsAliases(t *testing.T) {
	if got := runtimeconfig.NormalizeDriver(" SQLite3 "); got != "sqlite" {
		t.Fatalf("expected sqlite, got %q", got)
	}
	if got := runtimeconfig.NormalizeDriver("pg"); got != "postgres" {
		t.Fatalf("expected postgres, got %q", got)
	}
}
