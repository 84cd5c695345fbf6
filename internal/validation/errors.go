package validation

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const validationFailedCode = "BULK_VALIDATION_FAILED"

// ErrValidationFailed is the sentinel matched by Error.
var ErrValidationFailed = errors.New("validation: batch rejected")

// Error carries the full list of validation messages that blocked a batch.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	if e == nil || len(e.Messages) == 0 {
		return ErrValidationFailed.Error()
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(e.Messages, "; ")
}

func (e *Error) Unwrap() error {
	return ErrValidationFailed
}

// AsError converts a message list into a categorised error. Empty lists
// return nil.
func AsError(messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	copied := append([]string(nil), messages...)
	return goerrors.Wrap(&Error{Messages: copied}, goerrors.CategoryValidation, "bulk action validation failed").
		WithTextCode(validationFailedCode)
}

// Messages extracts validation messages from err, when present.
func Messages(err error) []string {
	var validationErr *Error
	if errors.As(err, &validationErr) && validationErr != nil {
		return append([]string(nil), validationErr.Messages...)
	}
	return nil
}
