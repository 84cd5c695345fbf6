package controller

import (
	"github.com/goliatone/go-bulk/internal/catalog"
	"github.com/goliatone/go-bulk/internal/executor"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

type Option func(*Controller)

// WithCatalog replaces the default action catalog.
func WithCatalog(registry *catalog.Registry) Option {
	return func(c *Controller) {
		if registry != nil {
			c.catalog = registry
		}
	}
}

func WithMaxSelection(limit int) Option {
	return func(c *Controller) {
		if limit > 0 {
			c.maxSelection = limit
		}
	}
}

func WithHistoryCap(limit int) Option {
	return func(c *Controller) {
		if limit > 0 {
			c.historyCap = limit
		}
	}
}

// WithExecutorOptions forwards options to the batch executor.
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(c *Controller) {
		c.executorOpts = append(c.executorOpts, opts...)
	}
}

func WithAuditRecorder(recorder interfaces.AuditRecorder) Option {
	return func(c *Controller) {
		c.audit = recorder
	}
}

func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Controller) {
		c.loggerProvider = provider
	}
}

// WithItems sets the initial item list.
func WithItems(items []catalog.Item) Option {
	return func(c *Controller) {
		c.items = cloneItems(items)
	}
}

// OnActionComplete registers the callback invoked after each recorded batch,
// undo batches included.
func OnActionComplete(fn func(executor.BatchResult)) Option {
	return func(c *Controller) {
		c.onComplete = fn
	}
}

// OnProgress registers the progress callback for batches and undos.
func OnProgress(fn executor.ProgressFunc) Option {
	return func(c *Controller) {
		c.onProgress = fn
	}
}

// ExecuteOption tunes a single Execute call.
type ExecuteOption func(*executor.BatchRequest)

// WithIdempotencyKey attaches a host key; per-item keys derive from it.
func WithIdempotencyKey(key string) ExecuteOption {
	return func(req *executor.BatchRequest) {
		req.IdempotencyKey = key
	}
}
