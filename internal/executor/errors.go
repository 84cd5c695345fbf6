package executor

import (
	"context"
	"errors"
	"net"

	"github.com/goliatone/go-bulk/pkg/interfaces"
	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrBackendRequired = errors.New("executor: backend is required")
	ErrActionRequired  = errors.New("executor: action is required")
	ErrBatchInProgress = errors.New("executor: another batch is running")
)

const (
	executorMisuseCode = "BULK_EXECUTOR_MISUSE"
	executorBusyCode   = "BULK_EXECUTOR_BUSY"
)

func wrapMisuse(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "batch cannot start").
		WithTextCode(executorMisuseCode)
}

func wrapBusy(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryCommand, "batch cannot start").
		WithTextCode(executorBusyCode)
}

// Classify maps a backend error to its per-item kind.
func Classify(err error) interfaces.ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, interfaces.ErrItemNotFound):
		return interfaces.ErrorKindNotFound
	case errors.Is(err, interfaces.ErrItemForbidden):
		return interfaces.ErrorKindForbidden
	case errors.Is(err, interfaces.ErrItemConflict):
		return interfaces.ErrorKindConflict
	case errors.Is(err, interfaces.ErrTransient),
		errors.Is(err, context.DeadlineExceeded):
		return interfaces.ErrorKindTransient
	case goerrors.IsCategory(err, goerrors.CategoryNotFound):
		return interfaces.ErrorKindNotFound
	case goerrors.IsCategory(err, goerrors.CategoryAuthz):
		return interfaces.ErrorKindForbidden
	case goerrors.IsCategory(err, goerrors.CategoryConflict):
		return interfaces.ErrorKindConflict
	case goerrors.IsCategory(err, goerrors.CategoryExternal),
		goerrors.IsCategory(err, goerrors.CategoryRateLimit):
		return interfaces.ErrorKindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return interfaces.ErrorKindTransient
	}
	return interfaces.ErrorKindUnknown
}
