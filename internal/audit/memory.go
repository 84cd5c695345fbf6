package audit

import (
	"context"
	"maps"
	"sync"

	"github.com/goliatone/go-bulk/pkg/interfaces"
)

// MemoryRecorder accumulates audit events in memory.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []interfaces.AuditEvent
	err    error
}

var _ interfaces.AuditRecorder = (*MemoryRecorder)(nil)

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record stores a copy of the event.
func (r *MemoryRecorder) Record(_ context.Context, event interfaces.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, cloneEvent(event))
	return nil
}

// Events returns a snapshot of recorded events.
func (r *MemoryRecorder) Events() []interfaces.AuditEvent {
	events, _ := r.List(context.Background())
	return events
}

// Fail makes subsequent Record calls return err.
func (r *MemoryRecorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *MemoryRecorder) List(context.Context) ([]interfaces.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interfaces.AuditEvent, len(r.events))
	for i, event := range r.events {
		out[i] = cloneEvent(event)
	}
	return out, nil
}

func (r *MemoryRecorder) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	return nil
}

func cloneEvent(event interfaces.AuditEvent) interfaces.AuditEvent {
	if event.Metadata != nil {
		event.Metadata = maps.Clone(event.Metadata)
	}
	return event
}
