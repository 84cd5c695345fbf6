package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-bulk/internal/catalog"
	"github.com/goliatone/go-bulk/internal/domain"
	"github.com/goliatone/go-bulk/pkg/interfaces"
)

type progressLog struct {
	mu      sync.Mutex
	entries []Progress
}

func (l *progressLog) record(p Progress) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, p)
}

func (l *progressLog) all() []Progress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Progress(nil), l.entries...)
}

func (l *progressLog) statuses() []domain.BatchStatus {
	var out []domain.BatchStatus
	for _, entry := range l.all() {
		if len(out) == 0 || out[len(out)-1] != entry.Status {
			out = append(out, entry.Status)
		}
	}
	return out
}

func itemIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("item-%d", i+1)
	}
	return ids
}

func publishRequest(ids []string) BatchRequest {
	return BatchRequest{
		ContentType: "event",
		Action:      catalog.Publish(),
		ItemIDs:     ids,
	}
}

func TestExecuteReportsPartialFailure(t *testing.T) {
	backend := interfaces.BackendFunc(func(ctx context.Context, req interfaces.ActionRequest) error {
		if req.ItemID == "item-3" {
			return fmt.Errorf("version mismatch: %w", interfaces.ErrItemConflict)
		}
		return nil
	})
	exec := NewExecutor(backend, WithConcurrency(2))
	log := &progressLog{}

	result, err := exec.Execute(context.Background(), publishRequest(itemIDs(5)), log.record)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Successful != 4 || result.Failed != 1 {
		t.Fatalf("expected 4 successful and 1 failed, got %d/%d", result.Successful, result.Failed)
	}
	if result.ItemCount != 5 || result.Requested != 5 {
		t.Fatalf("expected 5 attempted of 5, got %d of %d", result.ItemCount, result.Requested)
	}
	if len(result.FailedItems) != 1 || result.FailedItems[0].ItemID != "item-3" {
		t.Fatalf("expected item-3 to fail, got %+v", result.FailedItems)
	}
	if result.FailedItems[0].Kind != interfaces.ErrorKindConflict {
		t.Fatalf("expected conflict kind, got %s", result.FailedItems[0].Kind)
	}
	if result.Status != domain.BatchStatusDone {
		t.Fatalf("expected done, got %s", result.Status)
	}
	if result.Successful+result.Failed != result.ItemCount {
		t.Fatalf("counts do not add up: %+v", result)
	}

	entries := log.all()
	last := entries[len(entries)-1]
	if last.Current != 5 || last.Total != 5 || last.Status != domain.BatchStatusDone {
		t.Fatalf("unexpected final progress %+v", last)
	}
	if ids := result.SucceededIDs(); len(ids) != 4 {
		t.Fatalf("expected 4 succeeded ids, got %v", ids)
	}
}

func TestExecuteEmitsProgressInOrder(t *testing.T) {
	const n = 6
	// later items finish first
	backend := interfaces.BackendFunc(func(ctx context.Context, req interfaces.ActionRequest) error {
		var index int
		fmt.Sscanf(req.ItemID, "item-%d", &index)
		time.Sleep(time.Duration(n-index+1) * 5 * time.Millisecond)
		return nil
	})
	exec := NewExecutor(backend, WithConcurrency(n))
	log := &progressLog{}

	if _, err := exec.Execute(context.Background(), publishRequest(itemIDs(n)), log.record); err != nil {
		t.Fatalf("execute: %v", err)
	}

	assertCountsUpByOne(t, log.all(), n)
	statuses := log.statuses()
	if statuses[0] != domain.BatchStatusRunning || statuses[len(statuses)-1] != domain.BatchStatusDone {
		t.Fatalf("unexpected status sequence %v", statuses)
	}
}

func TestExecuteReleasesBufferedItemsOneAtATime(t *testing.T) {
	const n = 5
	// item-1 holds back every other completion
	backend := interfaces.BackendFunc(func(ctx context.Context, req interfaces.ActionRequest) error {
		if req.ItemID == "item-1" {
			time.Sleep(50 * time.Millisecond)
		}
		return nil
	})
	exec := NewExecutor(backend, WithConcurrency(n))
	log := &progressLog{}

	if _, err := exec.Execute(context.Background(), publishRequest(itemIDs(n)), log.record); err != nil {
		t.Fatalf("execute: %v", err)
	}
	assertCountsUpByOne(t, log.all(), n)
}

// assertCountsUpByOne checks that running callbacks report 0..n in order.
func assertCountsUpByOne(t *testing.T, entries []Progress, n int) {
	t.Helper()
	var currents []int
	for _, entry := range entries {
		if entry.Current > entry.Total {
			t.Fatalf("current exceeds total: %+v", entry)
		}
		if entry.Status == domain.BatchStatusRunning {
			currents = append(currents, entry.Current)
		}
	}
	if len(currents) != n+1 {
		t.Fatalf("expected %d running callbacks, got %v", n+1, currents)
	}
	for i, current := range currents {
		if current != i {
			t.Fatalf("expected current values 0..%d, got %v", n, currents)
		}
	}
	last := entries[len(entries)-1]
	if last.Current != n || last.Status != domain.BatchStatusDone {
		t.Fatalf("unexpected final progress %+v", last)
	}
}

func TestExecuteRespectsConcurrencyBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	backend := interfaces.BackendFunc(func(ctx context.Context, req interfaces.ActionRequest) error {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			seen := peak.Load()
			if current <= seen || peak.CompareAndSwap(seen, current) {
				break
			}
		}
		time.Sleep(3 * time.Millisecond)
		return nil
	})
	exec := NewExecutor(backend, WithConcurrency(3))

	result, err := exec.Execute(context.Background(), publishRequest(itemIDs(20)), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Successful != 20 {
		t.Fatalf("expected 20 successful, got %d", result.Successful)
	}
	if got := peak.Load(); got > 3 || got == 0 {
		t.Fatalf("expected peak concurrency between 1 and 3, got %d", got)
	}
}

func TestExecuteCancellationStopsNewDispatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	backend := interfaces.BackendFunc(func(itemCtx context.Context, req interfaces.ActionRequest) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		if itemCtx.Err() != nil {
			t.Errorf("in-flight item context should outlive batch cancellation")
		}
		return nil
	})
	exec := NewExecutor(backend, WithConcurrency(1))
	log := &progressLog{}

	result, err := exec.Execute(ctx, publishRequest(itemIDs(10)), log.record)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 backend calls, got %d", calls.Load())
	}
	if result.ItemCount != 3 || result.Requested != 10 {
		t.Fatalf("expected 3 attempted of 10, got %d of %d", result.ItemCount, result.Requested)
	}
	if !result.Cancelled || result.Status != domain.BatchStatusDone {
		t.Fatalf("expected cancelled done batch, got cancelled=%v status=%s", result.Cancelled, result.Status)
	}
	if result.Successful != 3 {
		t.Fatalf("expected in-flight items to count, got %d successful", result.Successful)
	}

	statuses := log.statuses()
	want := []domain.BatchStatus{domain.BatchStatusRunning, domain.BatchStatusCancelling, domain.BatchStatusDone}
	if len(statuses) != len(want) {
		t.Fatalf("expected statuses %v, got %v", want, statuses)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("expected statuses %v, got %v", want, statuses)
		}
	}
	final := log.all()[len(log.all())-1]
	if final.Total != 3 || final.Current != 3 {
		t.Fatalf("expected final progress adjusted to attempted count, got %+v", final)
	}
}

func TestExecuteCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := interfaces.BackendFunc(func(context.Context, interfaces.ActionRequest) error {
		t.Fatalf("backend should not be called")
		return nil
	})
	result, err := NewExecutor(backend).Execute(ctx, publishRequest(itemIDs(4)), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.ItemCount != 0 || !result.Cancelled || result.Status != domain.BatchStatusDone {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestExecuteRetriesTransientOnce(t *testing.T) {
	var calls atomic.Int32
	backend := interfaces.BackendFunc(func(ctx context.Context, req interfaces.ActionRequest) error {
		if calls.Add(1) == 1 {
			return interfaces.ErrTransient
		}
		return nil
	})
	exec := NewExecutor(backend, WithRetryBackoff(0))

	result, err := exec.Execute(context.Background(), publishRequest([]string{"a"}), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if calls.Load() != 2 || result.Successful != 1 {
		t.Fatalf("expected success after one retry, calls=%d result=%+v", calls.Load(), result)
	}
}

func TestExecuteGivesUpAfterSingleRetry(t *testing.T) {
	var calls atomic.Int32
	backend := interfaces.BackendFunc(func(ctx context.Context, req interfaces.ActionRequest) error {
		calls.Add(1)
		return fmt.Errorf("upstream 503: %w", interfaces.ErrTransient)
	})
	exec := NewExecutor(backend, WithRetryBackoff(time.Millisecond))

	result, err := exec.Execute(context.Background(), publishRequest([]string{"a"}), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
	if result.Status != domain.BatchStatusFailed {
		t.Fatalf("expected failed status when every item fails, got %s", result.Status)
	}
	failure := result.FailedItems[0]
	if failure.Kind != interfaces.ErrorKindTransient || failure.Attempts != 2 {
		t.Fatalf("unexpected failure %+v", failure)
	}
}

func TestExecuteDoesNotRetryNonTransient(t *testing.T) {
	var calls atomic.Int32
	backend := interfaces.BackendFunc(func(ctx context.Context, req interfaces.ActionRequest) error {
		calls.Add(1)
		return interfaces.ErrItemNotFound
	})
	result, err := NewExecutor(backend, WithRetryBackoff(0)).Execute(context.Background(), publishRequest([]string{"a"}), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if calls.Load() != 1 || result.FailedItems[0].Kind != interfaces.ErrorKindNotFound {
		t.Fatalf("expected one not_found attempt, calls=%d result=%+v", calls.Load(), result.FailedItems)
	}
}

func TestExecuteNonIdempotentRetryNeedsKey(t *testing.T) {
	var calls atomic.Int32
	var keys sync.Map
	backend := interfaces.BackendFunc(func(ctx context.Context, req interfaces.ActionRequest) error {
		n := calls.Add(1)
		keys.Store(n, req.IdempotencyKey)
		if n%2 == 1 {
			return interfaces.ErrTransient
		}
		return nil
	})
	exec := NewExecutor(backend, WithRetryBackoff(0))

	req := BatchRequest{ContentType: "event", Action: catalog.SendEmail(), ItemIDs: []string{"a"}}
	result, err := exec.Execute(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if calls.Load() != 1 || result.Failed != 1 {
		t.Fatalf("expected no retry without key, calls=%d", calls.Load())
	}

	calls.Store(0)
	req.IdempotencyKey = "host-key"
	result, err = exec.Execute(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if calls.Load() != 2 || result.Successful != 1 {
		t.Fatalf("expected retry with key, calls=%d result=%+v", calls.Load(), result)
	}
	first, _ := keys.Load(int32(1))
	second, _ := keys.Load(int32(2))
	if first == "" || first != second {
		t.Fatalf("expected stable idempotency key across attempts, got %v and %v", first, second)
	}
}

func TestExecuteItemTimeoutIsTransient(t *testing.T) {
	backend := interfaces.BackendFunc(func(ctx context.Context, req interfaces.ActionRequest) error {
		<-ctx.Done()
		return ctx.Err()
	})
	exec := NewExecutor(backend, WithItemTimeout(10*time.Millisecond), WithRetryTransient(false))

	result, err := exec.Execute(context.Background(), publishRequest([]string{"slow"}), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Failed != 1 || result.FailedItems[0].Kind != interfaces.ErrorKindTransient {
		t.Fatalf("expected transient timeout failure, got %+v", result.FailedItems)
	}
}

func TestExecuteStampsResult(t *testing.T) {
	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	exec := NewExecutor(
		interfaces.BackendFunc(func(context.Context, interfaces.ActionRequest) error { return nil }),
		WithClock(func() time.Time { return clock }),
		WithIDGenerator(func() string { return "batch-1" }),
	)
	result, err := exec.Execute(context.Background(), publishRequest([]string{"a"}), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.ID != "batch-1" || !result.Timestamp.Equal(clock) {
		t.Fatalf("unexpected stamp id=%s ts=%s", result.ID, result.Timestamp)
	}
	if got := exec.Progress(); got.Status != domain.BatchStatusDone || got.Current != 1 {
		t.Fatalf("unexpected progress after run %+v", got)
	}
}

func TestExecuteRejectsMisuse(t *testing.T) {
	if _, err := NewExecutor(nil).Execute(context.Background(), publishRequest([]string{"a"}), nil); !errors.Is(err, ErrBackendRequired) {
		t.Fatalf("expected ErrBackendRequired, got %v", err)
	}

	backend := interfaces.BackendFunc(func(context.Context, interfaces.ActionRequest) error { return nil })
	if _, err := NewExecutor(backend).Execute(context.Background(), BatchRequest{ItemIDs: []string{"a"}}, nil); !errors.Is(err, ErrActionRequired) {
		t.Fatalf("expected ErrActionRequired, got %v", err)
	}
}

func TestExecuteRejectsConcurrentBatch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	backend := interfaces.BackendFunc(func(ctx context.Context, req interfaces.ActionRequest) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})
	exec := NewExecutor(backend)

	done := make(chan error, 1)
	go func() {
		_, err := exec.Execute(context.Background(), publishRequest([]string{"a"}), nil)
		done <- err
	}()
	<-started

	if !exec.Running() {
		t.Fatalf("expected executor to report running")
	}
	if _, err := exec.Execute(context.Background(), publishRequest([]string{"b"}), nil); !errors.Is(err, ErrBatchInProgress) {
		t.Fatalf("expected ErrBatchInProgress, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first batch: %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want interfaces.ErrorKind
	}{
		{"not found", fmt.Errorf("lookup: %w", interfaces.ErrItemNotFound), interfaces.ErrorKindNotFound},
		{"forbidden", interfaces.ErrItemForbidden, interfaces.ErrorKindForbidden},
		{"conflict", interfaces.ErrItemConflict, interfaces.ErrorKindConflict},
		{"transient", interfaces.ErrTransient, interfaces.ErrorKindTransient},
		{"deadline", context.DeadlineExceeded, interfaces.ErrorKindTransient},
		{"unknown", errors.New("boom"), interfaces.ErrorKindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
	if Classify(nil) != "" {
		t.Fatalf("expected empty kind for nil error")
	}
}
