package executor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goliatone/go-bulk/internal/domain"
	"github.com/goliatone/go-bulk/internal/identity"
	"github.com/goliatone/go-bulk/internal/logging"
	"github.com/goliatone/go-bulk/pkg/interfaces"
	"golang.org/x/sync/semaphore"
)

const (
	defaultConcurrency  = 4
	defaultItemTimeout  = 30 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
)

// Executor runs one action across a set of items with bounded concurrency.
// It runs at most one batch at a time.
type Executor struct {
	backend        interfaces.Backend
	logger         interfaces.Logger
	now            func() time.Time
	newID          func() string
	concurrency    int
	itemTimeout    time.Duration
	retryBackoff   time.Duration
	retryTransient bool

	running atomic.Bool
	mu      sync.RWMutex
	current *tracker
}

type Option func(*Executor)

// WithConcurrency bounds the number of in-flight backend calls.
func WithConcurrency(limit int) Option {
	return func(e *Executor) {
		if limit > 0 {
			e.concurrency = limit
		}
	}
}

// WithItemTimeout bounds each backend attempt. Zero disables the bound.
func WithItemTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		if timeout >= 0 {
			e.itemTimeout = timeout
		}
	}
}

// WithRetryBackoff sets the wait before the single transient retry.
func WithRetryBackoff(wait time.Duration) Option {
	return func(e *Executor) {
		if wait >= 0 {
			e.retryBackoff = wait
		}
	}
}

// WithRetryTransient toggles the transient retry.
func WithRetryTransient(enabled bool) Option {
	return func(e *Executor) {
		e.retryTransient = enabled
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(e *Executor) {
		if clock != nil {
			e.now = clock
		}
	}
}

func WithIDGenerator(generator func() string) Option {
	return func(e *Executor) {
		if generator != nil {
			e.newID = generator
		}
	}
}

func NewExecutor(backend interfaces.Backend, opts ...Option) *Executor {
	e := &Executor{
		backend:        backend,
		logger:         logging.NoOp(),
		now:            time.Now,
		newID:          identity.NewBatchID,
		concurrency:    defaultConcurrency,
		itemTimeout:    defaultItemTimeout,
		retryBackoff:   defaultRetryBackoff,
		retryTransient: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Running reports whether a batch is in flight.
func (e *Executor) Running() bool {
	return e.running.Load()
}

// Progress returns the progress of the current or most recent batch.
func (e *Executor) Progress() Progress {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return Progress{Status: domain.BatchStatusIdle}
	}
	return e.current.snapshot()
}

type itemOutcome struct {
	err      error
	kind     interfaces.ErrorKind
	attempts int
}

// Execute dispatches the action for every item id in order, at most
// concurrency at a time. Cancelling ctx stops new dispatches; items already
// in flight run to completion and are counted. Per-item failures never abort
// the batch. The returned error reports misuse only.
func (e *Executor) Execute(ctx context.Context, req BatchRequest, onProgress ProgressFunc) (*BatchResult, error) {
	if e.backend == nil {
		return nil, wrapMisuse(ErrBackendRequired)
	}
	if strings.TrimSpace(string(req.Action.ID)) == "" {
		return nil, wrapMisuse(ErrActionRequired)
	}
	if !e.running.CompareAndSwap(false, true) {
		return nil, wrapBusy(ErrBatchInProgress)
	}
	defer e.running.Store(false)

	if ctx == nil {
		ctx = context.Background()
	}

	batchID := strings.TrimSpace(req.BatchID)
	if batchID == "" {
		batchID = e.newID()
	}
	actionID := string(req.Action.ID)
	logger := logging.WithBatchContext(e.logger, batchID, actionID, req.ContentType)

	ids := append([]string(nil), req.ItemIDs...)
	total := len(ids)
	progress := newTracker(total, onProgress)
	e.mu.Lock()
	e.current = progress
	e.mu.Unlock()

	started := e.now()
	progress.transition(domain.BatchStatusRunning)
	logger.Info("executor.batch.start", "items", total, "concurrency", e.concurrency)

	finished := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			if progress.transition(domain.BatchStatusCancelling) {
				logger.Info("executor.batch.cancelling")
			}
		case <-finished:
		}
	}()

	outcomes := make([]itemOutcome, total)
	completions := make(chan int, total)
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		completed := make([]bool, total)
		next := 0
		for index := range completions {
			completed[index] = true
			for next < total && completed[next] {
				next++
				progress.advance(next)
			}
		}
	}()

	// Item calls outlive a cancelled batch context so in-flight work
	// finishes and is counted.
	itemBase := context.WithoutCancel(ctx)
	sem := semaphore.NewWeighted(int64(e.concurrency))
	var wg sync.WaitGroup
	dispatched := 0
	for index, itemID := range ids {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		if ctx.Err() != nil {
			sem.Release(1)
			break
		}
		dispatched++
		wg.Add(1)
		go func(index int, itemID string) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[index] = e.runItem(itemBase, batchID, req, itemID)
			completions <- index
		}(index, itemID)
	}

	wg.Wait()
	close(completions)
	<-collectorDone
	close(finished)
	<-watcherDone

	if ctx.Err() != nil {
		progress.transition(domain.BatchStatusCancelling)
	}
	cancelled := progress.status() == domain.BatchStatusCancelling

	result := &BatchResult{
		ID:          batchID,
		ContentType: req.ContentType,
		Action:      actionID,
		ItemCount:   dispatched,
		Requested:   total,
		FailedItems: []ItemFailure{},
		Attempted:   ids[:dispatched],
		Cancelled:   cancelled,
		UndoOf:      req.UndoOf,
		Timestamp:   started,
	}
	for index := 0; index < dispatched; index++ {
		outcome := outcomes[index]
		if outcome.err == nil {
			result.Successful++
			continue
		}
		result.Failed++
		result.FailedItems = append(result.FailedItems, ItemFailure{
			ItemID:   ids[index],
			Kind:     outcome.kind,
			Error:    outcome.err.Error(),
			Attempts: outcome.attempts,
		})
	}

	status := domain.BatchStatusDone
	if !cancelled && dispatched > 0 && result.Failed == dispatched {
		status = domain.BatchStatusFailed
	}
	result.Status = status
	result.Duration = e.now().Sub(started)
	progress.finish(dispatched, status)

	logger.Info("executor.batch.finish",
		"status", status,
		"attempted", dispatched,
		"successful", result.Successful,
		"failed", result.Failed,
		"cancelled", cancelled,
	)
	return result, nil
}

func (e *Executor) runItem(base context.Context, batchID string, req BatchRequest, itemID string) itemOutcome {
	actionID := string(req.Action.ID)
	call := interfaces.ActionRequest{
		BatchID:     batchID,
		ContentType: req.ContentType,
		ItemID:      itemID,
		ActionID:    actionID,
		InputData:   req.InputData,
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		call.IdempotencyKey = identity.IdempotencyKey(key, itemID, actionID)
	}
	retryable := e.retryTransient && (req.Action.Idempotent || call.IdempotencyKey != "")

	var (
		lastErr  error
		lastKind interfaces.ErrorKind
		attempts int
	)
	operation := func() error {
		attempts++
		attemptCtx, cancel := e.attemptContext(base)
		defer cancel()

		lastErr = e.backend.PerformAction(attemptCtx, call)
		if lastErr == nil {
			lastKind = ""
			return nil
		}
		lastKind = Classify(lastErr)
		if lastKind == interfaces.ErrorKindTransient && retryable {
			return lastErr
		}
		return backoff.Permanent(lastErr)
	}

	_ = backoff.Retry(operation, e.retryPolicy())

	if lastErr != nil {
		e.logger.Warn("executor.item.failed",
			"batch_id", batchID,
			"item_id", itemID,
			"action", actionID,
			"kind", lastKind,
			"attempts", attempts,
			"error", lastErr,
		)
	}
	return itemOutcome{err: lastErr, kind: lastKind, attempts: attempts}
}

func (e *Executor) attemptContext(base context.Context) (context.Context, context.CancelFunc) {
	if e.itemTimeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, e.itemTimeout)
}

// retryPolicy allows exactly one retry after the configured wait.
func (e *Executor) retryPolicy() backoff.BackOff {
	if e.retryBackoff <= 0 {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1)
	}
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(e.retryBackoff), 1)
}
