package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-bulk/pkg/interfaces"
)

const (
	rootModule       = "bulk"
	executorModule   = "bulk.executor"
	historyModule    = "bulk.history"
	controllerModule = "bulk.controller"
	auditModule      = "bulk.audit"
)

const (
	fieldModule      = "module"
	fieldBatchID     = "batch_id"
	fieldAction      = "action"
	fieldContentType = "content_type"
)

// ModuleLogger resolves module from provider and tags every entry with it.
// A nil provider, or one that returns nil, yields a no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	module = strings.TrimSpace(module)
	if module == "" {
		module = rootModule
	}

	var logger interfaces.Logger = noopLogger{}
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{fieldModule: module})
}

func ExecutorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, executorModule)
}

func HistoryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, historyModule)
}

func ControllerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, controllerModule)
}

func AuditLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, auditModule)
}

// WithFields returns a child logger carrying a copy of fields. Blank keys
// are dropped; when nothing is left the logger is returned unchanged.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil {
		return noopLogger{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		if key = strings.TrimSpace(key); key != "" {
			copied[key] = value
		}
	}
	if len(copied) == 0 {
		return logger
	}
	return logger.WithFields(copied)
}

// WithBatchContext tags logger with the batch identity. Blank values are skipped.
func WithBatchContext(logger interfaces.Logger, batchID, action, contentType string) interfaces.Logger {
	fields := map[string]any{}
	for key, value := range map[string]string{
		fieldBatchID:     batchID,
		fieldAction:      action,
		fieldContentType: contentType,
	} {
		if value = strings.TrimSpace(value); value != "" {
			fields[key] = value
		}
	}
	return WithFields(logger, fields)
}

// OrNoOp returns logger, or a no-op logger when it is nil.
func OrNoOp(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return noopLogger{}
	}
	return logger
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
