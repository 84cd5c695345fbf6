package bulk

import "github.com/goliatone/go-bulk/internal/runtimeconfig"

var (
	ErrMaxSelectionInvalid     = runtimeconfig.ErrMaxSelectionInvalid
	ErrHistoryCapInvalid       = runtimeconfig.ErrHistoryCapInvalid
	ErrConcurrencyInvalid      = runtimeconfig.ErrConcurrencyInvalid
	ErrItemTimeoutInvalid      = runtimeconfig.ErrItemTimeoutInvalid
	ErrRetryBackoffInvalid     = runtimeconfig.ErrRetryBackoffInvalid
	ErrAuditDriverRequired     = runtimeconfig.ErrAuditDriverRequired
	ErrAuditDriverUnknown      = runtimeconfig.ErrAuditDriverUnknown
	ErrAuditDSNRequired        = runtimeconfig.ErrAuditDSNRequired
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	ExecutorConfig = runtimeconfig.ExecutorConfig
	AuditConfig    = runtimeconfig.AuditConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	Features       = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
