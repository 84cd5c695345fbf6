package audit

import (
	"github.com/goliatone/go-bulk/internal/executor"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

// EventFromResult converts a batch result into its audit event.
func EventFromResult(result executor.BatchResult) interfaces.AuditEvent {
	metadata := map[string]any{
		"status":      string(result.Status),
		"requested":   result.Requested,
		"duration_ms": result.Duration.Milliseconds(),
	}
	if len(result.FailedItems) > 0 {
		failed := make([]string, len(result.FailedItems))
		for i, failure := range result.FailedItems {
			failed[i] = failure.ItemID
		}
		metadata["failed_items"] = failed
	}
	return interfaces.AuditEvent{
		BatchID:     result.ID,
		ContentType: result.ContentType,
		Action:      result.Action,
		ItemCount:   result.ItemCount,
		Successful:  result.Successful,
		Failed:      result.Failed,
		Cancelled:   result.Cancelled,
		UndoOf:      result.UndoOf,
		OccurredAt:  result.Timestamp,
		Metadata:    metadata,
	}
}
