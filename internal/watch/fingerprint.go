package watch

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the stable content digest of a record. Identical
// content always yields an identical digest regardless of timestamps, which
// is what lets the detector tell real edits from timestamp-only churn.
func Fingerprint(r ChangeRecord) string {
	sum := sha256.Sum256([]byte(r.Content()))
	return hex.EncodeToString(sum[:])
}
