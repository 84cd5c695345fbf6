package identity

import "testing"

func TestIdempotencyKeyIsDeterministic(t *testing.T) {
	first := IdempotencyKey("batch-1", "item-1", "publish")
	second := IdempotencyKey("batch-1", "item-1", "publish")
	if first == "" || first != second {
		t.Fatalf("expected stable key, got %q and %q", first, second)
	}
}

func TestIdempotencyKeyVariesPerItemAndAction(t *testing.T) {
	base := IdempotencyKey("batch-1", "item-1", "publish")
	if base == IdempotencyKey("batch-1", "item-2", "publish") {
		t.Fatalf("expected different items to produce different keys")
	}
	if base == IdempotencyKey("batch-1", "item-1", "unpublish") {
		t.Fatalf("expected different actions to produce different keys")
	}
	if base == IdempotencyKey("batch-2", "item-1", "publish") {
		t.Fatalf("expected different batches to produce different keys")
	}
}

func TestIdempotencyKeyRequiresIdentifiers(t *testing.T) {
	if key := IdempotencyKey("", "item", "publish"); key != "" {
		t.Fatalf("expected empty key without batch id, got %q", key)
	}
	if key := IdempotencyKey("batch", " ", "publish"); key != "" {
		t.Fatalf("expected empty key without item id, got %q", key)
	}
}

func TestNewBatchIDIsUnique(t *testing.T) {
	if NewBatchID() == NewBatchID() {
		t.Fatalf("expected unique batch ids")
	}
}
