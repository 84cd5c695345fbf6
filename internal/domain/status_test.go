package domain

import "testing"

func TestBatchStatusTransitions(t *testing.T) {
	allowed := map[BatchStatus][]BatchStatus{
		BatchStatusIdle:       {BatchStatusRunning},
		BatchStatusRunning:    {BatchStatusCancelling, BatchStatusDone, BatchStatusFailed},
		BatchStatusCancelling: {BatchStatusDone},
	}
	all := []BatchStatus{BatchStatusIdle, BatchStatusRunning, BatchStatusCancelling, BatchStatusDone, BatchStatusFailed}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, candidate := range allowed[from] {
				if candidate == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Fatalf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestCancellingNeverResolvesToFailed(t *testing.T) {
	if BatchStatusCancelling.CanTransition(BatchStatusFailed) {
		t.Fatalf("cancelling must not resolve to failed")
	}
	if BatchStatusCancelling.CanTransition(BatchStatusIdle) {
		t.Fatalf("cancelling must not fall back to idle")
	}
}

func TestNormalizeStatus(t *testing.T) {
	if got := NormalizeStatus("  Published "); got != StatusPublished {
		t.Fatalf("expected published, got %q", got)
	}
	if got := NormalizeStatus(""); got != StatusDraft {
		t.Fatalf("expected draft default, got %q", got)
	}
	if !BatchStatusFailed.Terminal() || BatchStatusCancelling.Terminal() {
		t.Fatalf("unexpected terminal classification")
	}
}
