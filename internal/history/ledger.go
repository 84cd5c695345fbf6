package history

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-bulk/internal/catalog"
	"github.com/goliatone/go-bulk/internal/executor"
	"github.com/goliatone/go-bulk/internal/logging"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

const defaultCap = 50

var (
	// ErrUndoUnavailable is returned when the latest entry has no inverse
	// action or the ledger is empty.
	ErrUndoUnavailable = errors.New("history: undo unavailable")
	ErrRunnerRequired  = errors.New("history: runner is required")
)

// Runner executes batch requests. *executor.Executor satisfies it.
type Runner interface {
	Execute(ctx context.Context, req executor.BatchRequest, onProgress executor.ProgressFunc) (*executor.BatchResult, error)
}

// InverseResolver finds the inverse of an action. *catalog.Registry
// satisfies it.
type InverseResolver interface {
	InverseOf(contentType string, action catalog.ActionDescriptor) (*catalog.ActionDescriptor, bool)
}

// UndoPlan is retained for the most recent entry only.
type UndoPlan struct {
	ContentType string
	ItemIDs     []string
	Inverse     *catalog.ActionDescriptor
}

// Available reports whether the plan can be executed.
func (p *UndoPlan) Available() bool {
	return p != nil && p.Inverse != nil && len(p.ItemIDs) > 0
}

// NewUndoPlan builds the plan reversing result. Only attempted items are
// reversed. A nil inverse yields a plan that is not available.
func NewUndoPlan(result *executor.BatchResult, inverse *catalog.ActionDescriptor) *UndoPlan {
	if result == nil {
		return nil
	}
	plan := &UndoPlan{
		ContentType: result.ContentType,
		ItemIDs:     append([]string(nil), result.Attempted...),
	}
	if inverse != nil {
		copied := *inverse
		plan.Inverse = &copied
	}
	return plan
}

// Stats aggregates the retained entries.
type Stats struct {
	TotalActions        int `json:"total_actions"`
	TotalSuccessful     int `json:"total_successful"`
	TotalFailed         int `json:"total_failed"`
	TotalItemsProcessed int `json:"total_items_processed"`
}

// Ledger keeps batch results most-recent-first, evicting the oldest entry
// once the cap is reached. Entries are never edited; undo appends.
type Ledger struct {
	mu         sync.RWMutex
	entries    []executor.BatchResult
	plan       *UndoPlan
	cap        int
	runner     Runner
	resolver   InverseResolver
	onProgress executor.ProgressFunc
	logger     interfaces.Logger
}

type Option func(*Ledger)

// WithCap bounds the number of retained entries.
func WithCap(limit int) Option {
	return func(l *Ledger) {
		if limit > 0 {
			l.cap = limit
		}
	}
}

// WithInverseResolver enables undo plans for undo entries themselves.
func WithInverseResolver(resolver InverseResolver) Option {
	return func(l *Ledger) {
		l.resolver = resolver
	}
}

// WithProgressFunc forwards undo progress to the host.
func WithProgressFunc(fn executor.ProgressFunc) Option {
	return func(l *Ledger) {
		l.onProgress = fn
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLedger(runner Runner, opts ...Option) *Ledger {
	l := &Ledger{
		cap:    defaultCap,
		runner: runner,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record prepends result and replaces the undo plan. A nil plan leaves
// undo unavailable until the next record.
func (l *Ledger) Record(result *executor.BatchResult, plan *UndoPlan) {
	if result == nil {
		return
	}
	entry := cloneResult(*result)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]executor.BatchResult{entry}, l.entries...)
	if len(l.entries) > l.cap {
		evicted := len(l.entries) - l.cap
		l.entries = l.entries[:l.cap]
		l.logger.Debug("history.entry.evicted", "count", evicted)
	}
	l.plan = plan
}

// CanUndo reports whether UndoLast would run.
func (l *Ledger) CanUndo() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.plan.Available()
}

// Plan returns a copy of the current undo plan.
func (l *Ledger) Plan() (UndoPlan, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.plan == nil {
		return UndoPlan{}, false
	}
	plan := *l.plan
	plan.ItemIDs = append([]string(nil), l.plan.ItemIDs...)
	return plan, true
}

// UndoLast runs the inverse of the latest entry over the same items and
// records the outcome as a new entry.
func (l *Ledger) UndoLast(ctx context.Context) (*executor.BatchResult, error) {
	if l.runner == nil {
		return nil, ErrRunnerRequired
	}

	l.mu.RLock()
	plan := l.plan
	var latestID string
	if len(l.entries) > 0 {
		latestID = l.entries[0].ID
	}
	l.mu.RUnlock()

	if !plan.Available() || latestID == "" {
		return nil, ErrUndoUnavailable
	}

	req := executor.BatchRequest{
		ContentType: plan.ContentType,
		Action:      *plan.Inverse,
		ItemIDs:     append([]string(nil), plan.ItemIDs...),
		UndoOf:      latestID,
	}
	l.logger.Info("history.undo.start", "undo_of", latestID, "action", req.Action.ID, "items", len(req.ItemIDs))

	result, err := l.runner.Execute(ctx, req, l.onProgress)
	if err != nil {
		return nil, err
	}

	var next *UndoPlan
	if l.resolver != nil {
		if inverse, ok := l.resolver.InverseOf(plan.ContentType, *plan.Inverse); ok {
			next = NewUndoPlan(result, inverse)
		}
	}
	l.Record(result, next)
	l.logger.Info("history.undo.finish", "undo_of", latestID, "batch_id", result.ID, "status", result.Status)
	return result, nil
}

// Clear empties the ledger and forgets the undo plan.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.plan = nil
}

// Entries returns copies of the retained results, most recent first.
func (l *Ledger) Entries() []executor.BatchResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]executor.BatchResult, len(l.entries))
	for i, entry := range l.entries {
		out[i] = cloneResult(entry)
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Latest returns the most recent entry.
func (l *Ledger) Latest() (executor.BatchResult, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return executor.BatchResult{}, false
	}
	return cloneResult(l.entries[0]), true
}

// Stats is recomputed from the retained entries on every call.
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stats := Stats{TotalActions: len(l.entries)}
	for _, entry := range l.entries {
		stats.TotalSuccessful += entry.Successful
		stats.TotalFailed += entry.Failed
		stats.TotalItemsProcessed += entry.ItemCount
	}
	return stats
}

func cloneResult(result executor.BatchResult) executor.BatchResult {
	result.FailedItems = append([]executor.ItemFailure{}, result.FailedItems...)
	result.Attempted = append([]string(nil), result.Attempted...)
	return result
}
