package bulkcmd

import (
	"errors"

	"github.com/goliatone/go-bulk/internal/commands"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the handlers built by RegisterBulkCommands.
type HandlerSet struct {
	Execute      *ExecuteBulkActionHandler
	Undo         *UndoBulkActionHandler
	ClearHistory *ClearHistoryHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	executeOpts []commands.HandlerOption[ExecuteBulkActionCommand]
	undoOpts    []commands.HandlerOption[UndoBulkActionCommand]
	clearOpts   []commands.HandlerOption[ClearHistoryCommand]
}

func WithExecuteHandlerOptions(opts ...commands.HandlerOption[ExecuteBulkActionCommand]) Option {
	return func(cfg *options) {
		cfg.executeOpts = append(cfg.executeOpts, opts...)
	}
}

func WithUndoHandlerOptions(opts ...commands.HandlerOption[UndoBulkActionCommand]) Option {
	return func(cfg *options) {
		cfg.undoOpts = append(cfg.undoOpts, opts...)
	}
}

func WithClearHistoryHandlerOptions(opts ...commands.HandlerOption[ClearHistoryCommand]) Option {
	return func(cfg *options) {
		cfg.clearOpts = append(cfg.clearOpts, opts...)
	}
}

// RegisterBulkCommands builds the bulk handlers and registers them with reg
// when it is non-nil. The handler set is returned for dispatcher wiring.
func RegisterBulkCommands(reg CommandRegistry, ctrl Controller, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if ctrl == nil {
		return nil, errors.New("bulk command registration: controller is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "bulk")
	set := &HandlerSet{
		Execute:      NewExecuteBulkActionHandler(ctrl, logger, cfg.executeOpts...),
		Undo:         NewUndoBulkActionHandler(ctrl, logger, cfg.undoOpts...),
		ClearHistory: NewClearHistoryHandler(ctrl, logger, cfg.clearOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Execute, set.Undo, set.ClearHistory} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
