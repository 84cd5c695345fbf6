package bulkcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-bulk/internal/catalog"
	"github.com/goliatone/go-bulk/internal/commands"
	"github.com/goliatone/go-bulk/internal/controller"
	"github.com/goliatone/go-bulk/internal/executor"
	"github.com/goliatone/go-bulk/internal/logging"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

// ErrContentTypeMismatch reports a command addressed to another content type.
var ErrContentTypeMismatch = errors.New("bulkcmd: content type does not match controller")

// Controller is the subset of the bulk controller the handlers drive.
type Controller interface {
	ContentType() string
	Execute(ctx context.Context, actionID catalog.ActionID, input map[string]any, opts ...controller.ExecuteOption) (*executor.BatchResult, error)
	Undo(ctx context.Context) (*executor.BatchResult, error)
	ClearHistory()
}

func checkContentType(ctrl Controller, requested string) error {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return nil
	}
	if catalog.NormalizeContentType(requested) != ctrl.ContentType() {
		return fmt.Errorf("%w: %s", ErrContentTypeMismatch, requested)
	}
	return nil
}

// ExecuteBulkActionHandler runs bulk actions through the controller.
type ExecuteBulkActionHandler struct {
	inner *commands.Handler[ExecuteBulkActionCommand]
}

func NewExecuteBulkActionHandler(ctrl Controller, logger interfaces.Logger, opts ...commands.HandlerOption[ExecuteBulkActionCommand]) *ExecuteBulkActionHandler {
	baseLogger := logging.OrNoOp(logger)

	exec := func(ctx context.Context, msg ExecuteBulkActionCommand) error {
		if err := checkContentType(ctrl, msg.ContentType); err != nil {
			return err
		}
		var execOpts []controller.ExecuteOption
		if key := strings.TrimSpace(msg.IdempotencyKey); key != "" {
			execOpts = append(execOpts, controller.WithIdempotencyKey(key))
		}
		result, err := ctrl.Execute(ctx, catalog.ActionID(strings.TrimSpace(msg.ActionID)), msg.InputData, execOpts...)
		if err != nil {
			return err
		}
		logging.WithBatchContext(baseLogger, result.ID, result.Action, result.ContentType).
			Info("bulk.execute.result", "successful", result.Successful, "failed", result.Failed, "status", result.Status)
		return nil
	}

	handlerOpts := []commands.HandlerOption[ExecuteBulkActionCommand]{
		commands.WithLogger[ExecuteBulkActionCommand](baseLogger),
		commands.WithOperation[ExecuteBulkActionCommand]("bulk.execute"),
		commands.WithMessageFields(func(msg ExecuteBulkActionCommand) map[string]any {
			fields := map[string]any{"action": msg.ActionID}
			if msg.IdempotencyKey != "" {
				fields["idempotency_key"] = msg.IdempotencyKey
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ExecuteBulkActionCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ExecuteBulkActionHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ExecuteBulkActionCommand].Execute.
func (h *ExecuteBulkActionHandler) Execute(ctx context.Context, msg ExecuteBulkActionCommand) error {
	return h.inner.Execute(ctx, msg)
}

// UndoBulkActionHandler reverses the latest batch.
type UndoBulkActionHandler struct {
	inner *commands.Handler[UndoBulkActionCommand]
}

func NewUndoBulkActionHandler(ctrl Controller, logger interfaces.Logger, opts ...commands.HandlerOption[UndoBulkActionCommand]) *UndoBulkActionHandler {
	baseLogger := logging.OrNoOp(logger)

	exec := func(ctx context.Context, msg UndoBulkActionCommand) error {
		if err := checkContentType(ctrl, msg.ContentType); err != nil {
			return err
		}
		result, err := ctrl.Undo(ctx)
		if err != nil {
			return err
		}
		baseLogger.Info("bulk.undo.result", "batch_id", result.ID, "undo_of", result.UndoOf, "successful", result.Successful)
		return nil
	}

	handlerOpts := []commands.HandlerOption[UndoBulkActionCommand]{
		commands.WithLogger[UndoBulkActionCommand](baseLogger),
		commands.WithOperation[UndoBulkActionCommand]("bulk.undo"),
		commands.WithTelemetry(commands.DefaultTelemetry[UndoBulkActionCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &UndoBulkActionHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[UndoBulkActionCommand].Execute.
func (h *UndoBulkActionHandler) Execute(ctx context.Context, msg UndoBulkActionCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ClearHistoryHandler empties the batch history.
type ClearHistoryHandler struct {
	inner *commands.Handler[ClearHistoryCommand]
}

func NewClearHistoryHandler(ctrl Controller, logger interfaces.Logger, opts ...commands.HandlerOption[ClearHistoryCommand]) *ClearHistoryHandler {
	exec := func(ctx context.Context, msg ClearHistoryCommand) error {
		if err := checkContentType(ctrl, msg.ContentType); err != nil {
			return err
		}
		ctrl.ClearHistory()
		return nil
	}

	handlerOpts := []commands.HandlerOption[ClearHistoryCommand]{
		commands.WithLogger[ClearHistoryCommand](logger),
		commands.WithOperation[ClearHistoryCommand]("bulk.history.clear"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ClearHistoryHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ClearHistoryCommand].Execute.
func (h *ClearHistoryHandler) Execute(ctx context.Context, msg ClearHistoryCommand) error {
	return h.inner.Execute(ctx, msg)
}
