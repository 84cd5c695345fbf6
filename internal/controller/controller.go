package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-bulk/internal/audit"
	"github.com/goliatone/go-bulk/internal/catalog"
	"github.com/goliatone/go-bulk/internal/domain"
	"github.com/goliatone/go-bulk/internal/executor"
	"github.com/goliatone/go-bulk/internal/history"
	"github.com/goliatone/go-bulk/internal/logging"
	"github.com/goliatone/go-bulk/internal/selection"
	"github.com/goliatone/go-bulk/internal/validation"
	"github.com/goliatone/go-bulk/pkg/interfaces"
	goerrors "github.com/goliatone/go-errors"
)

const (
	defaultMaxSelection = 100
	defaultHistoryCap   = 50

	actionUnavailableCode = "BULK_ACTION_UNAVAILABLE"
	batchRunningCode      = "BULK_BATCH_RUNNING"
)

var (
	ErrContentTypeRequired = errors.New("controller: content type is required")
	ErrActionUnavailable   = errors.New("controller: action not available for content type")
)

// Controller composes the catalog, selection, validator, executor and
// history for one content type. It owns that state until discarded.
type Controller struct {
	contentType    string
	catalog        *catalog.Registry
	maxSelection   int
	historyCap     int
	executorOpts   []executor.Option
	audit          interfaces.AuditRecorder
	loggerProvider interfaces.LoggerProvider
	onComplete     func(executor.BatchResult)
	onProgress     executor.ProgressFunc

	selection *selection.Store
	validator *validation.Validator
	executor  *executor.Executor
	ledger    *history.Ledger
	logger    interfaces.Logger

	mu     sync.RWMutex
	items  []catalog.Item
	cancel context.CancelFunc
}

// New wires a controller for contentType over backend.
func New(contentType string, backend interfaces.Backend, opts ...Option) (*Controller, error) {
	key := catalog.NormalizeContentType(contentType)
	if key == "" {
		return nil, ErrContentTypeRequired
	}
	c := &Controller{
		contentType:  key,
		catalog:      catalog.Default(),
		maxSelection: defaultMaxSelection,
		historyCap:   defaultHistoryCap,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = logging.WithBatchContext(logging.ControllerLogger(c.loggerProvider), "", "", key)
	c.selection = selection.NewStore(c.maxSelection)
	c.validator = validation.NewValidator(c.maxSelection)

	execOpts := append([]executor.Option{
		executor.WithLogger(logging.ExecutorLogger(c.loggerProvider)),
	}, c.executorOpts...)
	c.executor = executor.NewExecutor(backend, execOpts...)
	c.ledger = history.NewLedger(c.executor,
		history.WithCap(c.historyCap),
		history.WithInverseResolver(c.catalog),
		history.WithProgressFunc(c.onProgress),
		history.WithLogger(logging.HistoryLogger(c.loggerProvider)),
	)
	return c, nil
}

func (c *Controller) ContentType() string {
	return c.contentType
}

// AvailableActions lists the catalog actions for the content type.
func (c *Controller) AvailableActions() []catalog.ActionDescriptor {
	return c.catalog.AvailableActions(c.contentType)
}

// SetItems replaces the item list and drops selected ids that no longer
// exist. The dropped ids are returned.
func (c *Controller) SetItems(items []catalog.Item) []string {
	cloned := cloneItems(items)
	ids := make([]string, len(cloned))
	for i, item := range cloned {
		ids[i] = item.ID
	}
	c.mu.Lock()
	c.items = cloned
	c.mu.Unlock()
	return c.selection.Prune(ids)
}

func (c *Controller) Items() []catalog.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneItems(c.items)
}

func (c *Controller) ToggleSelectionMode() bool {
	return c.selection.ToggleSelectionMode()
}

// SelectAll selects the current items up to the cap and returns how many
// were left out.
func (c *Controller) SelectAll() int {
	c.mu.RLock()
	ids := make([]string, len(c.items))
	for i, item := range c.items {
		ids[i] = item.ID
	}
	c.mu.RUnlock()
	return c.selection.SelectAll(ids)
}

func (c *Controller) DeselectAll() {
	c.selection.DeselectAll()
}

func (c *Controller) Toggle(id string) bool {
	return c.selection.Toggle(id)
}

func (c *Controller) Selection() selection.State {
	return c.selection.Snapshot()
}

// Validate checks the current selection against actionID.
func (c *Controller) Validate(actionID catalog.ActionID, input map[string]any) []string {
	action, ok := c.catalog.Lookup(c.contentType, actionID)
	if !ok {
		return []string{fmt.Sprintf("Action %s is not available", actionID)}
	}
	return c.validator.Validate(action, c.selection.Selected(), c.Items(), input)
}

// Execute validates and runs actionID over the selected items, records the
// result, clears the selection unless every item failed and notifies the host. Per-item failures are
// reported in the result, not as an error.
func (c *Controller) Execute(ctx context.Context, actionID catalog.ActionID, input map[string]any, opts ...ExecuteOption) (*executor.BatchResult, error) {
	action, ok := c.catalog.Lookup(c.contentType, actionID)
	if !ok {
		return nil, goerrors.Wrap(fmt.Errorf("%w: %s", ErrActionUnavailable, actionID), goerrors.CategoryValidation, "bulk action unavailable").
			WithTextCode(actionUnavailableCode)
	}
	selected := c.selection.Selected()
	if errs := c.validator.Validate(action, selected, c.Items(), input); len(errs) > 0 {
		c.logger.Debug("controller.execute.invalid", "action", actionID, "errors", errs)
		return nil, validation.AsError(errs)
	}

	req := executor.BatchRequest{
		ContentType: c.contentType,
		Action:      action,
		ItemIDs:     selected,
		InputData:   input,
	}
	for _, opt := range opts {
		opt(&req)
	}

	inverse, _ := c.catalog.InverseOf(c.contentType, action)
	result, err := c.run(ctx, func(runCtx context.Context) (*executor.BatchResult, error) {
		result, err := c.executor.Execute(runCtx, req, c.onProgress)
		if err != nil {
			return nil, err
		}
		c.ledger.Record(result, history.NewUndoPlan(result, inverse))
		// a failed batch keeps its selection
		if result.Status != domain.BatchStatusFailed {
			c.selection.DeselectAll()
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	c.complete(ctx, result)
	return result, nil
}

// Undo reverses the most recent batch. It returns history.ErrUndoUnavailable
// when the latest entry has no inverse.
func (c *Controller) Undo(ctx context.Context) (*executor.BatchResult, error) {
	result, err := c.run(ctx, c.ledger.UndoLast)
	if err != nil {
		return nil, err
	}
	c.complete(ctx, result)
	return result, nil
}

// Cancel stops dispatching new items of the running batch. It reports
// whether a batch was running.
func (c *Controller) Cancel() bool {
	c.mu.RLock()
	cancel := c.cancel
	c.mu.RUnlock()
	if cancel == nil {
		return false
	}
	cancel()
	c.logger.Info("controller.cancel.requested")
	return true
}

func (c *Controller) Running() bool {
	return c.executor.Running()
}

func (c *Controller) Progress() executor.Progress {
	return c.executor.Progress()
}

func (c *Controller) CanUndo() bool {
	return c.ledger.CanUndo()
}

func (c *Controller) History() []executor.BatchResult {
	return c.ledger.Entries()
}

func (c *Controller) Stats() history.Stats {
	return c.ledger.Stats()
}

func (c *Controller) ClearHistory() {
	c.ledger.Clear()
}

// run holds the running-batch guard for the whole of fn, so history and
// selection updates made inside fn land before another batch or undo starts.
func (c *Controller) run(ctx context.Context, fn func(context.Context) (*executor.BatchResult, error)) (*executor.BatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return nil, goerrors.Wrap(executor.ErrBatchInProgress, goerrors.CategoryCommand, "bulk batch already running").
			WithTextCode(batchRunningCode)
	}
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	return fn(runCtx)
}

func (c *Controller) complete(ctx context.Context, result *executor.BatchResult) {
	if c.onComplete != nil {
		c.onComplete(*result)
	}
	if c.audit == nil {
		return
	}
	// audit writes outlive batch cancellation
	if err := c.audit.Record(context.WithoutCancel(orBackground(ctx)), audit.EventFromResult(*result)); err != nil {
		c.logger.Warn("controller.audit.failed", "batch_id", result.ID, "error", err)
	}
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func cloneItems(items []catalog.Item) []catalog.Item {
	out := make([]catalog.Item, 0, len(items))
	for _, item := range items {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
