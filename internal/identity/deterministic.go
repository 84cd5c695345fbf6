package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents collisions (prefix by purpose).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// IdempotencyKey returns the key attached to one item request of a batch.
// Retries of the same request reuse the key so backends can deduplicate.
func IdempotencyKey(batchID, itemID, actionID string) string {
	batchID = strings.TrimSpace(batchID)
	itemID = strings.TrimSpace(itemID)
	if batchID == "" || itemID == "" {
		return ""
	}
	return UUID("go-bulk:item:" + batchID + ":" + itemID + ":" + strings.TrimSpace(actionID)).String()
}

// NewBatchID returns a random batch identifier.
func NewBatchID() string {
	return uuid.NewString()
}
