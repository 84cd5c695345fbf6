package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	commandValidationCode   = "BULK_COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "BULK_COMMAND_CANCELED"
	commandContextTimeout   = "BULK_COMMAND_TIMEOUT"
	commandContextErrorCode = "BULK_COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "BULK_COMMAND_FAILED"
)

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "bulk command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "bulk command cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "bulk command deadline exceeded").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "bulk command context error").
			WithTextCode(commandContextErrorCode)
	}
}

// wrapExecuteError keeps errors already categorised downstream, such as
// validation failures raised by the controller.
func wrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrapContextError(err)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "bulk command failed").
		WithTextCode(commandExecuteFailed)
}
