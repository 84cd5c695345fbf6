package commands

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-bulk/internal/logging"
	"github.com/goliatone/go-bulk/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const commandModuleRoot = "bulk.commands"

// CommandLogger resolves the logger for the command group named module,
// e.g. "bulk.commands.bulk".
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	module = strings.TrimSpace(module)
	if module == "" {
		module = "core"
	}
	return logging.WithFields(logging.ModuleLogger(provider, commandModuleRoot+"."+module), map[string]any{
		"component": "command",
	})
}

// TelemetryStatus is the outcome class of one command execution.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo describes a finished command execution.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry is invoked once per execution after the handler returns.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs outcomes with their duration. Cancellations are
// logged as warnings since an operator usually triggered them.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	logger = logging.OrNoOp(logger)
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := logging.WithFields(logger, info.Fields)
		args := []any{"duration_ms", info.Duration.Milliseconds()}
		switch info.Status {
		case TelemetryStatusSuccess:
			entry.Info("command.execute.success", args...)
		case TelemetryStatusContextError:
			entry.Warn("command.execute.context_error", append(args, "error", info.Error)...)
		default:
			entry.Error("command.execute.failed", append(args, "error", info.Error)...)
		}
	}
}
