package bulk

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-bulk/internal/audit"
	"github.com/goliatone/go-bulk/internal/backend/httpapi"
	"github.com/goliatone/go-bulk/internal/backend/memory"
	"github.com/goliatone/go-bulk/internal/catalog"
	bulkcmd "github.com/goliatone/go-bulk/internal/commands/bulk"
	"github.com/goliatone/go-bulk/internal/controller"
	"github.com/goliatone/go-bulk/internal/domain"
	"github.com/goliatone/go-bulk/internal/executor"
	"github.com/goliatone/go-bulk/internal/history"
	"github.com/goliatone/go-bulk/internal/logging"
	"github.com/goliatone/go-bulk/internal/logging/gologger"
	"github.com/goliatone/go-bulk/internal/runtimeconfig"
	"github.com/goliatone/go-bulk/internal/validation"
	"github.com/goliatone/go-bulk/pkg/interfaces"
	"github.com/uptrace/bun"
)

// Controller exports the per content type bulk action controller.
type Controller = controller.Controller

// ControllerOption exports controller options.
type ControllerOption = controller.Option

// ExecuteOption exports per-call execute options.
type ExecuteOption = controller.ExecuteOption

// Catalog exports the action registry.
type Catalog = catalog.Registry

type (
	ActionID         = catalog.ActionID
	ActionDescriptor = catalog.ActionDescriptor
	InputField       = catalog.InputField
	Item             = catalog.Item
	BatchResult      = executor.BatchResult
	ItemFailure      = executor.ItemFailure
	Progress         = executor.Progress
	Stats            = history.Stats
	CommandHandlers  = bulkcmd.HandlerSet
	CommandRegistry  = bulkcmd.CommandRegistry
	Status           = domain.Status
	BatchStatus      = domain.BatchStatus
	MemoryBackend    = memory.Backend
	HTTPBackend      = httpapi.Client
)

const (
	StatusDraft     = domain.StatusDraft
	StatusPublished = domain.StatusPublished
	StatusArchived  = domain.StatusArchived
	StatusScheduled = domain.StatusScheduled
	StatusDeleted   = domain.StatusDeleted

	ContentTypeEvent        = catalog.ContentTypeEvent
	ContentTypeSermon       = catalog.ContentTypeSermon
	ContentTypeAnnouncement = catalog.ContentTypeAnnouncement
	ContentTypePage         = catalog.ContentTypePage
	ContentTypeRSVP         = catalog.ContentTypeRSVP
	ContentTypeMember       = catalog.ContentTypeMember

	ActionPublish        = catalog.ActionPublish
	ActionUnpublish      = catalog.ActionUnpublish
	ActionArchive        = catalog.ActionArchive
	ActionRestore        = catalog.ActionRestore
	ActionFeature        = catalog.ActionFeature
	ActionUnfeature      = catalog.ActionUnfeature
	ActionDelete         = catalog.ActionDelete
	ActionChangeCategory = catalog.ActionChangeCategory
	ActionSendEmail      = catalog.ActionSendEmail
)

var (
	ErrUndoUnavailable   = history.ErrUndoUnavailable
	ErrValidationFailed  = validation.ErrValidationFailed
	ErrActionUnavailable = controller.ErrActionUnavailable
	ErrBackendRequired   = errors.New("bulk: backend is required")
)

// ValidationMessages extracts the validator messages from an Execute error.
func ValidationMessages(err error) []string {
	return validation.Messages(err)
}

// DefaultCatalog returns the built-in action catalog.
func DefaultCatalog() *Catalog {
	return catalog.Default()
}

// NewMemoryBackend returns the in-process backend used by the example and tests.
func NewMemoryBackend(opts ...memory.Option) *MemoryBackend {
	return memory.New(opts...)
}

// NewHTTPBackend returns a backend that forwards item actions to a remote
// content API rooted at baseURL.
func NewHTTPBackend(baseURL string, opts ...httpapi.Option) (*HTTPBackend, error) {
	return httpapi.New(baseURL, opts...)
}

// WithIdempotencyKey attaches a host idempotency key to one Execute call.
func WithIdempotencyKey(key string) ExecuteOption {
	return controller.WithIdempotencyKey(key)
}

// OnActionComplete registers the completion callback on a controller.
func OnActionComplete(fn func(BatchResult)) ControllerOption {
	return controller.OnActionComplete(fn)
}

// OnProgress registers the progress callback on a controller.
func OnProgress(fn func(Progress)) ControllerOption {
	return controller.OnProgress(fn)
}

// Command messages accepted by the handlers built in RegisterCommands.
type (
	ExecuteBulkActionCommand = bulkcmd.ExecuteBulkActionCommand
	UndoBulkActionCommand    = bulkcmd.UndoBulkActionCommand
	ClearHistoryCommand      = bulkcmd.ClearHistoryCommand
)

// Option overrides collaborators built from Config.
type Option func(*Module)

func WithBackend(backend interfaces.Backend) Option {
	return func(m *Module) {
		m.backend = backend
	}
}

func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(m *Module) {
		m.loggerProvider = provider
	}
}

func WithAuditRecorder(recorder interfaces.AuditRecorder) Option {
	return func(m *Module) {
		m.audit = recorder
	}
}

func WithCatalog(registry *Catalog) Option {
	return func(m *Module) {
		m.catalog = registry
	}
}

func WithClock(clock func() time.Time) Option {
	return func(m *Module) {
		m.clock = clock
	}
}

func WithIDGenerator(generator func() string) Option {
	return func(m *Module) {
		m.newID = generator
	}
}

// Module is the top level bulk runtime facade. It builds controllers that
// share configuration, backend, logging and audit sinks.
type Module struct {
	cfg            Config
	backend        interfaces.Backend
	loggerProvider interfaces.LoggerProvider
	audit          interfaces.AuditRecorder
	catalog        *Catalog
	clock          func() time.Time
	newID          func() string
	db             *bun.DB
}

// New validates cfg and wires the shared collaborators.
func New(cfg Config, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Module{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.backend == nil {
		return nil, ErrBackendRequired
	}
	if m.catalog == nil {
		m.catalog = catalog.Default()
	}
	if m.loggerProvider == nil && cfg.Features.Logger {
		provider, err := buildLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		m.loggerProvider = provider
	}

	if m.audit == nil && cfg.Features.Audit {
		if err := m.openAudit(context.Background()); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Controller builds a controller for contentType.
func (m *Module) Controller(contentType string, opts ...ControllerOption) (*Controller, error) {
	execOpts := []executor.Option{
		executor.WithConcurrency(m.cfg.Executor.Concurrency),
		executor.WithItemTimeout(m.cfg.Executor.ItemTimeout),
		executor.WithRetryBackoff(m.cfg.Executor.RetryBackoff),
		executor.WithRetryTransient(m.cfg.Executor.RetryTransient),
		executor.WithClock(m.clock),
		executor.WithIDGenerator(m.newID),
	}
	base := []ControllerOption{
		controller.WithCatalog(m.catalog),
		controller.WithMaxSelection(m.cfg.MaxSelection),
		controller.WithHistoryCap(m.cfg.HistoryCap),
		controller.WithLoggerProvider(m.loggerProvider),
		controller.WithExecutorOptions(execOpts...),
	}
	if m.audit != nil {
		base = append(base, controller.WithAuditRecorder(m.audit))
	}
	return controller.New(contentType, m.backend, append(base, opts...)...)
}

// RegisterCommands builds the go-command handlers for ctrl and registers
// them with reg when it is non-nil.
func (m *Module) RegisterCommands(reg CommandRegistry, ctrl *Controller) (*CommandHandlers, error) {
	if ctrl == nil {
		return nil, errors.New("bulk: controller is required")
	}
	return bulkcmd.RegisterBulkCommands(reg, ctrl, m.loggerProvider)
}

func (m *Module) Catalog() *Catalog {
	return m.catalog
}

// Audit returns the configured audit recorder, if any.
func (m *Module) Audit() interfaces.AuditRecorder {
	return m.audit
}

func (m *Module) LoggerProvider() interfaces.LoggerProvider {
	return m.loggerProvider
}

// Close releases the audit database opened from Config.
func (m *Module) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *Module) openAudit(ctx context.Context) error {
	driver := runtimeconfig.NormalizeDriver(m.cfg.Audit.Driver)
	if driver == "memory" {
		m.audit = audit.NewMemoryRecorder()
		return nil
	}
	driverName, err := audit.SQLDriverName(driver)
	if err != nil {
		return err
	}
	sqldb, err := sql.Open(driverName, strings.TrimSpace(m.cfg.Audit.DSN))
	if err != nil {
		return err
	}
	db, err := audit.NewDB(sqldb, driver)
	if err != nil {
		_ = sqldb.Close()
		return err
	}
	recorder := audit.NewBunRecorder(db)
	if err := recorder.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return err
	}
	m.db = db
	m.audit = recorder
	logging.AuditLogger(m.loggerProvider).Info("audit.store.ready", "driver", driver)
	return nil
}

func buildLoggerProvider(cfg LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "noop":
		return nil, nil
	}
	provider, err := gologger.NewProvider(gologger.FromLoggingConfig(cfg))
	if err != nil {
		return nil, err
	}
	return provider, nil
}
