package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-bulk"
	"github.com/goliatone/go-bulk/internal/backend/memory"
	"github.com/goliatone/go-bulk/pkg/interfaces"
	"github.com/goliatone/go-command/dispatcher"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	var (
		count   = flag.Int("items", 12, "number of sermons to seed")
		latency = flag.Duration("latency", 25*time.Millisecond, "simulated backend latency per item")
		format  = flag.String("log-format", "console", "go-logger format (json, console, pretty)")
	)
	flag.Parse()

	if err := run(context.Background(), *count, *latency, *format); err != nil {
		log.Fatalf("bulk example: %v", err)
	}
}

func run(ctx context.Context, count int, latency time.Duration, format string) error {
	dir, err := os.MkdirTemp("", "bulk-example")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	cfg := bulk.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Features.Audit = true
	cfg.Logging.Format = format
	cfg.Audit.Driver = "sqlite"
	cfg.Audit.DSN = "file:" + filepath.Join(dir, "audit.db")

	backend := bulk.NewMemoryBackend(memory.WithLatency(latency))
	items := make([]bulk.Item, count)
	for i := range items {
		items[i] = bulk.Item{ID: fmt.Sprintf("sermon-%02d", i+1), Status: bulk.StatusDraft}
	}
	backend.Seed(bulk.ContentTypeSermon, items...)
	// one flaky item recovers on retry, one keeps conflicting
	backend.InjectFault("sermon-02", interfaces.ErrTransient, 1)
	backend.InjectFault("sermon-03", interfaces.ErrItemConflict, 0)

	module, err := bulk.New(cfg, bulk.WithBackend(backend))
	if err != nil {
		return err
	}
	defer module.Close()

	ctrl, err := module.Controller(bulk.ContentTypeSermon,
		bulk.OnProgress(func(p bulk.Progress) {
			fmt.Printf("  progress %d/%d (%s)\n", p.Current, p.Total, p.Status)
		}),
		bulk.OnActionComplete(func(result bulk.BatchResult) {
			fmt.Printf("completed %s: %d ok, %d failed, cancelled=%v\n", result.Action, result.Successful, result.Failed, result.Cancelled)
		}),
	)
	if err != nil {
		return err
	}
	ctrl.SetItems(backend.Items(bulk.ContentTypeSermon))

	fmt.Println("available actions:")
	for _, action := range ctrl.AvailableActions() {
		fmt.Printf("  %-16s destructive=%v\n", action.ID, action.Destructive)
	}

	ctrl.ToggleSelectionMode()
	ctrl.SelectAll()
	if errs := ctrl.Validate(bulk.ActionChangeCategory, nil); len(errs) > 0 {
		fmt.Printf("change_category rejected: %v\n", errs)
	}

	result, err := ctrl.Execute(ctx, bulk.ActionPublish, nil, bulk.WithIdempotencyKey("example-publish"))
	if err != nil {
		return err
	}
	for _, failure := range result.FailedItems {
		fmt.Printf("  %s failed (%s): %s\n", failure.ItemID, failure.Kind, failure.Error)
	}

	undo, err := ctrl.Undo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("undo %s reversed %d items of %s\n", undo.ID, undo.Successful, undo.UndoOf)

	if err := runCancelled(ctx, ctrl); err != nil {
		return err
	}
	if err := runCommands(ctx, module, ctrl); err != nil {
		return err
	}

	stats := ctrl.Stats()
	fmt.Printf("history: %d actions, %d items processed, %d successful, %d failed\n",
		stats.TotalActions, stats.TotalItemsProcessed, stats.TotalSuccessful, stats.TotalFailed)

	events, err := module.Audit().List(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("audit trail holds %d events\n", len(events))
	return nil
}

func runCancelled(ctx context.Context, ctrl *bulk.Controller) error {
	ctrl.SelectAll()
	go func() {
		time.Sleep(50 * time.Millisecond)
		if ctrl.Cancel() {
			fmt.Println("cancel requested")
		}
	}()
	result, err := ctrl.Execute(ctx, bulk.ActionFeature, nil)
	if err != nil {
		return err
	}
	fmt.Printf("cancelled feature batch attempted %d of %d items\n", result.ItemCount, result.Requested)
	return nil
}

func runCommands(ctx context.Context, module *bulk.Module, ctrl *bulk.Controller) error {
	handlers, err := module.RegisterCommands(nil, ctrl)
	if err != nil {
		return err
	}
	subs := []interface{ Unsubscribe() }{
		dispatcher.SubscribeCommand(handlers.Execute),
		dispatcher.SubscribeCommand(handlers.Undo),
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	ctrl.SelectAll()
	if err := dispatcher.Dispatch(ctx, bulk.ExecuteBulkActionCommand{
		ContentType: bulk.ContentTypeSermon,
		ActionID:    string(bulk.ActionArchive),
	}); err != nil {
		return err
	}

	// delete has no inverse, so undo is refused
	ctrl.SelectAll()
	if err := dispatcher.Dispatch(ctx, bulk.ExecuteBulkActionCommand{ActionID: string(bulk.ActionDelete)}); err != nil {
		return err
	}
	err = dispatcher.Dispatch(ctx, bulk.UndoBulkActionCommand{})
	switch {
	case err == nil:
		return errors.New("undo after delete should be refused")
	case errors.Is(err, bulk.ErrUndoUnavailable):
		fmt.Println("undo unavailable after delete")
	default:
		fmt.Printf("undo refused: %v\n", err)
	}
	return nil
}
