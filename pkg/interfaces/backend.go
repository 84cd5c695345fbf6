package interfaces

import (
	"context"
	"errors"
)

// Sentinel errors backends return (directly or wrapped) so the executor can
// classify per-item failures.
var (
	ErrItemNotFound  = errors.New("backend: item not found")
	ErrItemForbidden = errors.New("backend: action forbidden for item")
	ErrItemConflict  = errors.New("backend: item state conflict")
	ErrTransient     = errors.New("backend: transient failure")
)

// ErrorKind classifies a single item failure.
type ErrorKind string

const (
	ErrorKindNotFound  ErrorKind = "not_found"
	ErrorKindForbidden ErrorKind = "forbidden"
	ErrorKindConflict  ErrorKind = "conflict"
	ErrorKindTransient ErrorKind = "transient"
	ErrorKindUnknown   ErrorKind = "unknown"
)

// ActionRequest is the payload of a single per-item backend call.
type ActionRequest struct {
	BatchID        string
	ContentType    string
	ItemID         string
	ActionID       string
	InputData      map[string]any
	IdempotencyKey string
}

// Backend performs one content action against one item. Implementations
// should return nil on success or an error wrapping one of the sentinel
// errors above; anything else is reported as ErrorKindUnknown.
type Backend interface {
	PerformAction(ctx context.Context, req ActionRequest) error
}

// BackendFunc adapts a function into a Backend.
type BackendFunc func(ctx context.Context, req ActionRequest) error

// PerformAction implements Backend.
func (f BackendFunc) PerformAction(ctx context.Context, req ActionRequest) error {
	return f(ctx, req)
}
