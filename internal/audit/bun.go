package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-bulk/internal/runtimeconfig"
	"github.com/goliatone/go-bulk/pkg/interfaces"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var (
	ErrDatabaseRequired  = errors.New("audit: bun recorder requires a database")
	ErrUnsupportedDriver = errors.New("audit: unsupported sql driver")
	ErrBatchIDRequired   = errors.New("audit: batch id is required")
)

// NewDB wraps sqldb with the Bun dialect matching driver.
func NewDB(sqldb *sql.DB, driver string) (*bun.DB, error) {
	if sqldb == nil {
		return nil, ErrDatabaseRequired
	}
	switch runtimeconfig.NormalizeDriver(driver) {
	case "sqlite":
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres":
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// SQLDriverName maps a config driver to its database/sql registration name.
// The host must import the matching driver package.
func SQLDriverName(driver string) (string, error) {
	switch runtimeconfig.NormalizeDriver(driver) {
	case "sqlite":
		return "sqlite3", nil
	case "postgres":
		return "postgres", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// BunRecorder persists audit events in the bulk_audit_events table.
type BunRecorder struct {
	db *bun.DB
}

var _ interfaces.AuditRecorder = (*BunRecorder)(nil)

func NewBunRecorder(db *bun.DB) *BunRecorder {
	return &BunRecorder{db: db}
}

// EnsureSchema creates the audit table when missing.
func (r *BunRecorder) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return ErrDatabaseRequired
	}
	_, err := r.db.NewCreateTable().Model((*eventModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (r *BunRecorder) Record(ctx context.Context, event interfaces.AuditEvent) error {
	if r.db == nil {
		return ErrDatabaseRequired
	}
	if strings.TrimSpace(event.BatchID) == "" {
		return ErrBatchIDRequired
	}
	model := modelFromEvent(event)
	_, err := r.db.NewInsert().Model(&model).Exec(ctx)
	return err
}

// List returns events in recording order.
func (r *BunRecorder) List(ctx context.Context) ([]interfaces.AuditEvent, error) {
	if r.db == nil {
		return nil, ErrDatabaseRequired
	}
	var models []eventModel
	if err := r.db.NewSelect().Model(&models).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]interfaces.AuditEvent, len(models))
	for i := range models {
		out[i] = modelToEvent(&models[i])
	}
	return out, nil
}

func (r *BunRecorder) Clear(ctx context.Context) error {
	if r.db == nil {
		return ErrDatabaseRequired
	}
	_, err := r.db.NewDelete().Model((*eventModel)(nil)).Where("1 = 1").Exec(ctx)
	return err
}

type eventModel struct {
	bun.BaseModel `bun:"table:bulk_audit_events"`

	ID          int64          `bun:"id,pk,autoincrement"`
	BatchID     string         `bun:"batch_id,notnull"`
	ContentType string         `bun:"content_type"`
	Action      string         `bun:"action,notnull"`
	ItemCount   int            `bun:"item_count"`
	Successful  int            `bun:"successful"`
	Failed      int            `bun:"failed"`
	Cancelled   bool           `bun:"cancelled"`
	UndoOf      string         `bun:"undo_of"`
	OccurredAt  time.Time      `bun:"occurred_at"`
	Metadata    map[string]any `bun:"metadata,type:jsonb,nullzero"`
}

func modelFromEvent(event interfaces.AuditEvent) eventModel {
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return eventModel{
		BatchID:     event.BatchID,
		ContentType: event.ContentType,
		Action:      event.Action,
		ItemCount:   event.ItemCount,
		Successful:  event.Successful,
		Failed:      event.Failed,
		Cancelled:   event.Cancelled,
		UndoOf:      event.UndoOf,
		OccurredAt:  occurred.UTC(),
		Metadata:    cloneEvent(event).Metadata,
	}
}

func modelToEvent(model *eventModel) interfaces.AuditEvent {
	return interfaces.AuditEvent{
		BatchID:     model.BatchID,
		ContentType: model.ContentType,
		Action:      model.Action,
		ItemCount:   model.ItemCount,
		Successful:  model.Successful,
		Failed:      model.Failed,
		Cancelled:   model.Cancelled,
		UndoOf:      model.UndoOf,
		OccurredAt:  model.OccurredAt,
		Metadata:    model.Metadata,
	}
}
