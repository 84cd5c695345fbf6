package memory

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-bulk/internal/catalog"
	"github.com/goliatone/go-bulk/internal/domain"
	"github.com/goliatone/go-bulk/internal/logging"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

// Email is a message accepted by the send_email action.
type Email struct {
	ContentType    string
	ItemID         string
	Subject        string
	Body           string
	Priority       string
	IdempotencyKey string
	SentAt         time.Time
}

type record struct {
	item     catalog.Item
	previous domain.Status
	category string
}

type fault struct {
	err       error
	remaining int
}

// Backend is an in-process content store that applies bulk actions.
type Backend struct {
	mu      sync.Mutex
	order   map[string][]string
	records map[string]map[string]*record
	faults  map[string]*fault
	outbox  []Email
	seen    map[string]struct{}
	calls   int
	latency time.Duration
	now     func() time.Time
	logger  interfaces.Logger
}

var _ interfaces.Backend = (*Backend)(nil)

type Option func(*Backend)

// WithLatency delays every call, honouring context cancellation.
func WithLatency(delay time.Duration) Option {
	return func(b *Backend) {
		if delay > 0 {
			b.latency = delay
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(b *Backend) {
		if clock != nil {
			b.now = clock
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func New(opts ...Option) *Backend {
	b := &Backend{
		order:   map[string][]string{},
		records: map[string]map[string]*record{},
		faults:  map[string]*fault{},
		seen:    map[string]struct{}{},
		now:     time.Now,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Seed stores items under contentType, replacing existing ids.
func (b *Backend) Seed(contentType string, items ...catalog.Item) {
	contentType = catalog.NormalizeContentType(contentType)
	b.mu.Lock()
	defer b.mu.Unlock()
	bucket, ok := b.records[contentType]
	if !ok {
		bucket = map[string]*record{}
		b.records[contentType] = bucket
	}
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		item.ID = id
		item.Status = domain.NormalizeStatus(string(item.Status))
		if item.Attributes != nil {
			item.Attributes = maps.Clone(item.Attributes)
		}
		if _, exists := bucket[id]; !exists {
			b.order[contentType] = append(b.order[contentType], id)
		}
		bucket[id] = &record{item: item}
	}
}

// Items returns the stored items of contentType in seed order.
func (b *Backend) Items(contentType string) []catalog.Item {
	contentType = catalog.NormalizeContentType(contentType)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]catalog.Item, 0, len(b.order[contentType]))
	for _, id := range b.order[contentType] {
		out = append(out, b.snapshotLocked(b.records[contentType][id]))
	}
	return out
}

// Get returns a single stored item.
func (b *Backend) Get(contentType, id string) (catalog.Item, bool) {
	contentType = catalog.NormalizeContentType(contentType)
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[contentType][id]
	if !ok {
		return catalog.Item{}, false
	}
	return b.snapshotLocked(rec), true
}

// InjectFault makes the next times calls for itemID fail with err. A
// non-positive times keeps the fault until ClearFaults.
func (b *Backend) InjectFault(itemID string, err error, times int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[itemID] = &fault{err: err, remaining: times}
}

func (b *Backend) ClearFaults() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = map[string]*fault{}
}

// Outbox returns the emails accepted so far.
func (b *Backend) Outbox() []Email {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Email(nil), b.outbox...)
}

// Calls counts PerformAction invocations, including failed ones.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// PerformAction applies one action to one item.
func (b *Backend) PerformAction(ctx context.Context, req interfaces.ActionRequest) error {
	if b.latency > 0 {
		timer := time.NewTimer(b.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++

	if err := b.takeFaultLocked(req.ItemID); err != nil {
		b.logger.Debug("backend.memory.fault", "item_id", req.ItemID, "error", err)
		return err
	}

	contentType := catalog.NormalizeContentType(req.ContentType)
	rec, ok := b.records[contentType][req.ItemID]
	if !ok {
		return fmt.Errorf("%w: %s/%s", interfaces.ErrItemNotFound, contentType, req.ItemID)
	}
	if err := b.applyLocked(contentType, rec, req); err != nil {
		return err
	}
	b.logger.Debug("backend.memory.applied", "item_id", req.ItemID, "action", req.ActionID, "status", rec.item.Status)
	return nil
}

func (b *Backend) takeFaultLocked(itemID string) error {
	f, ok := b.faults[itemID]
	if !ok {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			delete(b.faults, itemID)
		}
	}
	return f.err
}

func (b *Backend) applyLocked(contentType string, rec *record, req interfaces.ActionRequest) error {
	item := &rec.item
	action := catalog.ActionID(req.ActionID)

	if item.Status == domain.StatusDeleted && action != catalog.ActionDelete {
		return fmt.Errorf("%w: %s is deleted", interfaces.ErrItemConflict, item.ID)
	}

	switch action {
	case catalog.ActionPublish:
		item.Status = domain.StatusPublished
	case catalog.ActionUnpublish:
		if item.Status == domain.StatusPublished {
			item.Status = domain.StatusDraft
		}
	case catalog.ActionArchive:
		if item.Status != domain.StatusArchived {
			rec.previous = item.Status
			item.Status = domain.StatusArchived
		}
	case catalog.ActionRestore:
		if item.Status != domain.StatusArchived {
			return fmt.Errorf("%w: %s is not archived", interfaces.ErrItemConflict, item.ID)
		}
		item.Status = rec.previous
		if item.Status == "" {
			item.Status = domain.StatusDraft
		}
		rec.previous = ""
	case catalog.ActionFeature:
		item.Featured = true
	case catalog.ActionUnfeature:
		item.Featured = false
	case catalog.ActionDelete:
		item.Status = domain.StatusDeleted
	case catalog.ActionChangeCategory:
		category, _ := req.InputData["category"].(string)
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("%w: category is required", interfaces.ErrItemConflict)
		}
		rec.category = strings.TrimSpace(category)
	case catalog.ActionSendEmail:
		return b.sendLocked(contentType, item.ID, req)
	default:
		return fmt.Errorf("%w: action %q not supported", interfaces.ErrItemForbidden, req.ActionID)
	}
	return nil
}

func (b *Backend) sendLocked(contentType, itemID string, req interfaces.ActionRequest) error {
	if req.IdempotencyKey != "" {
		if _, dup := b.seen[req.IdempotencyKey]; dup {
			return nil
		}
		b.seen[req.IdempotencyKey] = struct{}{}
	}
	subject, _ := req.InputData["subject"].(string)
	body, _ := req.InputData["body"].(string)
	priority, _ := req.InputData["priority"].(string)
	b.outbox = append(b.outbox, Email{
		ContentType:    contentType,
		ItemID:         itemID,
		Subject:        subject,
		Body:           body,
		Priority:       priority,
		IdempotencyKey: req.IdempotencyKey,
		SentAt:         b.now(),
	})
	return nil
}

func (b *Backend) snapshotLocked(rec *record) catalog.Item {
	item := rec.item
	attributes := map[string]any{}
	if item.Attributes != nil {
		attributes = maps.Clone(item.Attributes)
	}
	if rec.category != "" {
		attributes["category"] = rec.category
	}
	item.Attributes = attributes
	return item
}
