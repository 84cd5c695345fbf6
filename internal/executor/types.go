package executor

import (
	"time"

	"github.com/goliatone/go-bulk/internal/catalog"
	"github.com/goliatone/go-bulk/internal/domain"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

// BatchRequest describes one confirmed execution of an action.
type BatchRequest struct {
	// BatchID is optional; the executor generates one when empty.
	BatchID     string
	ContentType string
	Action      catalog.ActionDescriptor
	ItemIDs     []string
	InputData   map[string]any
	// IdempotencyKey is a host supplied key. When present, per-item keys are
	// derived from it and transient failures become retryable even for
	// non-idempotent actions.
	IdempotencyKey string
	// UndoOf references the batch this request reverses.
	UndoOf string
}

// Progress is a snapshot of a running batch.
type Progress struct {
	Current int                `json:"current"`
	Total   int                `json:"total"`
	Status  domain.BatchStatus `json:"status"`
}

// ProgressFunc receives progress snapshots in increasing Current order.
type ProgressFunc func(Progress)

// ItemFailure records one failed item.
type ItemFailure struct {
	ItemID   string               `json:"item_id"`
	Kind     interfaces.ErrorKind `json:"kind"`
	Error    string               `json:"error"`
	Attempts int                  `json:"attempts"`
}

// BatchResult summarises a completed or cancelled batch. It is never
// mutated after Execute returns.
type BatchResult struct {
	ID          string             `json:"id"`
	ContentType string             `json:"content_type"`
	Action      string             `json:"action"`
	ItemCount   int                `json:"item_count"`
	Requested   int                `json:"requested"`
	Successful  int                `json:"successful"`
	Failed      int                `json:"failed"`
	FailedItems []ItemFailure      `json:"failed_items"`
	Cancelled   bool               `json:"cancelled"`
	Status      domain.BatchStatus `json:"status"`
	UndoOf      string             `json:"undo_of,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Duration    time.Duration      `json:"duration"`
	// Attempted lists the item ids that were dispatched, in request order.
	Attempted []string `json:"attempted"`
}

// SucceededIDs returns attempted ids that did not fail, in request order.
func (r BatchResult) SucceededIDs() []string {
	failed := make(map[string]struct{}, len(r.FailedItems))
	for _, failure := range r.FailedItems {
		failed[failure.ItemID] = struct{}{}
	}
	out := make([]string, 0, len(r.Attempted))
	for _, id := range r.Attempted {
		if _, ok := failed[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
