package interfaces

import (
	"context"
	"time"
)

// AuditEvent captures one recorded batch for the audit trail.
type AuditEvent struct {
	BatchID     string
	ContentType string
	Action      string
	ItemCount   int
	Successful  int
	Failed      int
	Cancelled   bool
	UndoOf      string
	OccurredAt  time.Time
	Metadata    map[string]any
}

// AuditRecorder persists audit events. Recording is write-only from the
// engine's point of view; List and Clear exist for operators and tests.
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent) error
	List(ctx context.Context) ([]AuditEvent, error)
	Clear(ctx context.Context) error
}
