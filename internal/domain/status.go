package domain

import "strings"

// Status is the lifecycle state of a host content item. Actions move items
// between these states; applicability checks read them.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusScheduled Status = "scheduled"
	// StatusDeleted is terminal; only delete applies to a deleted item.
	StatusDeleted Status = "deleted"
)

// NormalizeStatus coerces arbitrary status strings into a known representation.
// Empty input maps to draft.
func NormalizeStatus(input string) Status {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return StatusDraft
	}
	return Status(trimmed)
}

// BatchStatus represents the lifecycle of a bulk batch execution.
type BatchStatus string

const (
	BatchStatusIdle       BatchStatus = "idle"
	BatchStatusRunning    BatchStatus = "running"
	BatchStatusCancelling BatchStatus = "cancelling"
	BatchStatusDone       BatchStatus = "done"
	BatchStatusFailed     BatchStatus = "failed"
)

// Terminal reports whether the status ends a batch.
func (s BatchStatus) Terminal() bool {
	return s == BatchStatusDone || s == BatchStatusFailed
}

// CanTransition reports whether a batch may move from s to next. Transitions
// only move forward; cancelling always resolves to done.
func (s BatchStatus) CanTransition(next BatchStatus) bool {
	switch s {
	case "", BatchStatusIdle:
		return next == BatchStatusRunning
	case BatchStatusRunning:
		return next == BatchStatusCancelling || next == BatchStatusDone || next == BatchStatusFailed
	case BatchStatusCancelling:
		return next == BatchStatusDone
	default:
		return false
	}
}
