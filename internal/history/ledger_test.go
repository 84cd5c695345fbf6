package history_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-bulk/internal/catalog"
	"github.com/goliatone/go-bulk/internal/executor"
	"github.com/goliatone/go-bulk/internal/history"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

type recordingBackend struct {
	calls []interfaces.ActionRequest
}

func (b *recordingBackend) PerformAction(_ context.Context, req interfaces.ActionRequest) error {
	b.calls = append(b.calls, req)
	return nil
}

func newLedger(t *testing.T, opts ...history.Option) (*history.Ledger, *executor.Executor, *recordingBackend) {
	t.Helper()
	backend := &recordingBackend{}
	// single worker keeps the recorded call slice race free
	exec := executor.NewExecutor(backend, executor.WithConcurrency(1))
	opts = append([]history.Option{history.WithInverseResolver(catalog.Default())}, opts...)
	return history.NewLedger(exec, opts...), exec, backend
}

func runAndRecord(t *testing.T, ledger *history.Ledger, exec *executor.Executor, action catalog.ActionDescriptor, ids ...string) *executor.BatchResult {
	t.Helper()
	result, err := exec.Execute(context.Background(), executor.BatchRequest{
		ContentType: catalog.ContentTypeEvent,
		Action:      action,
		ItemIDs:     ids,
	}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	inverse, _ := catalog.Default().InverseOf(catalog.ContentTypeEvent, action)
	ledger.Record(result, history.NewUndoPlan(result, inverse))
	return result
}

func TestUndoUnavailableWithoutInverse(t *testing.T) {
	ledger, exec, _ := newLedger(t)
	runAndRecord(t, ledger, exec, catalog.Delete(), "a", "b")

	if ledger.CanUndo() {
		t.Fatalf("expected undo to be unavailable for delete")
	}
	if _, err := ledger.UndoLast(context.Background()); !errors.Is(err, history.ErrUndoUnavailable) {
		t.Fatalf("expected ErrUndoUnavailable, got %v", err)
	}
	if ledger.Len() != 1 {
		t.Fatalf("expected ledger to keep 1 entry, got %d", ledger.Len())
	}
}

func TestUndoUnavailableOnEmptyLedger(t *testing.T) {
	ledger, _, _ := newLedger(t)
	if _, err := ledger.UndoLast(context.Background()); !errors.Is(err, history.ErrUndoUnavailable) {
		t.Fatalf("expected ErrUndoUnavailable, got %v", err)
	}
}

func TestUndoAppendsExactlyOneEntry(t *testing.T) {
	ledger, exec, backend := newLedger(t)
	original := runAndRecord(t, ledger, exec, catalog.Publish(), "a", "b", "c")

	if !ledger.CanUndo() {
		t.Fatalf("expected undo to be available after publish")
	}
	undo, err := ledger.UndoLast(context.Background())
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if ledger.Len() != 2 {
		t.Fatalf("expected 2 entries after undo, got %d", ledger.Len())
	}
	if undo.Action != string(catalog.ActionUnpublish) || undo.UndoOf != original.ID {
		t.Fatalf("unexpected undo result %+v", undo)
	}

	entries := ledger.Entries()
	if entries[0].ID != undo.ID || entries[1].ID != original.ID {
		t.Fatalf("expected most-recent-first ordering, got %s then %s", entries[0].ID, entries[1].ID)
	}

	undoCalls := backend.calls[3:]
	if len(undoCalls) != 3 {
		t.Fatalf("expected 3 undo calls, got %d", len(undoCalls))
	}
	for i, want := range []string{"a", "b", "c"} {
		if undoCalls[i].ItemID != want || undoCalls[i].ActionID != string(catalog.ActionUnpublish) {
			t.Fatalf("unexpected undo call %d: %+v", i, undoCalls[i])
		}
	}

	// unpublish declares publish as its inverse, so the undo can itself be undone
	if !ledger.CanUndo() {
		t.Fatalf("expected undo of undo to be available")
	}
}

func TestRecordEvictsOldestBeyondCap(t *testing.T) {
	ledger, exec, _ := newLedger(t, history.WithCap(3))
	var ids []string
	for i := 0; i < 5; i++ {
		result := runAndRecord(t, ledger, exec, catalog.Feature(), fmt.Sprintf("item-%d", i))
		ids = append(ids, result.ID)
	}
	entries := ledger.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ID != ids[4] || entries[2].ID != ids[2] {
		t.Fatalf("expected newest three retained, got %v", []string{entries[0].ID, entries[1].ID, entries[2].ID})
	}
}

func TestStatsRecomputedOnRead(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ledger.Record(&executor.BatchResult{ID: "1", ItemCount: 5, Successful: 4, Failed: 1}, nil)
	ledger.Record(&executor.BatchResult{ID: "2", ItemCount: 2, Successful: 2}, nil)

	stats := ledger.Stats()
	want := history.Stats{TotalActions: 2, TotalSuccessful: 6, TotalFailed: 1, TotalItemsProcessed: 7}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}

	ledger.Clear()
	if ledger.Stats() != (history.Stats{}) || ledger.CanUndo() {
		t.Fatalf("expected empty ledger after clear")
	}
	if _, ok := ledger.Latest(); ok {
		t.Fatalf("expected no latest entry after clear")
	}
}

func TestEntriesAreCopies(t *testing.T) {
	ledger, _, _ := newLedger(t)
	ledger.Record(&executor.BatchResult{
		ID:          "1",
		FailedItems: []executor.ItemFailure{{ItemID: "x", Kind: interfaces.ErrorKindConflict}},
	}, nil)

	entries := ledger.Entries()
	entries[0].FailedItems[0].ItemID = "mutated"

	latest, _ := ledger.Latest()
	if latest.FailedItems[0].ItemID != "x" {
		t.Fatalf("ledger entry was mutated through a returned copy")
	}
}

func TestUndoRequiresRunner(t *testing.T) {
	ledger := history.NewLedger(nil)
	if _, err := ledger.UndoLast(context.Background()); !errors.Is(err, history.ErrRunnerRequired) {
		t.Fatalf("expected ErrRunnerRequired, got %v", err)
	}
}
