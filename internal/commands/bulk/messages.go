package bulkcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	executeBulkActionMessageType = "bulk.execute"
	undoBulkActionMessageType    = "bulk.undo"
	clearHistoryMessageType      = "bulk.history.clear"

	maxIdempotencyKeyLength = 255
)

// ExecuteBulkActionCommand runs an action over the current selection.
// ContentType is optional; when set it must match the controller.
type ExecuteBulkActionCommand struct {
	ContentType    string         `json:"content_type,omitempty"`
	ActionID       string         `json:"action_id"`
	InputData      map[string]any `json:"input_data,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

// Type implements command.Message.
func (ExecuteBulkActionCommand) Type() string { return executeBulkActionMessageType }

// Validate ensures the message names an action before reaching handlers.
func (m ExecuteBulkActionCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.ActionID) == "" {
		errs["action_id"] = validation.NewError("bulk.execute.action_id_required", "action_id is required")
	}
	if err := validation.Validate(m.IdempotencyKey, validation.Length(0, maxIdempotencyKeyLength)); err != nil {
		errs["idempotency_key"] = validation.NewError("bulk.execute.idempotency_key_invalid", "idempotency_key must be at most 255 characters")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UndoBulkActionCommand reverses the most recent batch.
type UndoBulkActionCommand struct {
	ContentType string `json:"content_type,omitempty"`
}

// Type implements command.Message.
func (UndoBulkActionCommand) Type() string { return undoBulkActionMessageType }

func (UndoBulkActionCommand) Validate() error { return nil }

// ClearHistoryCommand empties the batch history.
type ClearHistoryCommand struct {
	ContentType string `json:"content_type,omitempty"`
}

// Type implements command.Message.
func (ClearHistoryCommand) Type() string { return clearHistoryMessageType }

func (ClearHistoryCommand) Validate() error { return nil }
