package watch

import (
	"notionwatch/internal/checkpoint"
)

// Qualifies decides whether record r needs a notification given the
// checkpoint from the previous run. Pure: no clock, no network, no state.
//
// A record qualifies iff its pending flag is set AND at least one of:
//   - no checkpoint exists yet (first run),
//   - it was modified after the last notified record,
//   - its content fingerprint differs from the last notified one.
//
// The pending flag is the authoritative intent signal; the timestamp and
// fingerprint comparisons only guard against re-notifying unchanged content
// when a flag is stuck set (e.g. a previous acknowledge failed).
//
// Note the deliberate sharp edge: the fingerprint guard compares against the
// *last notified* content only. A record whose content matches something
// notified two runs ago still qualifies if it differs from the most recent
// fingerprint. This is a single high-water mark, not a per-record dedup
// cache.
func Qualifies(cp checkpoint.Checkpoint, r ChangeRecord) bool {
	if !r.Pending {
		return false
	}
	if cp.IsZero() {
		return true
	}
	if r.ModifiedAt.After(cp.LastSeenAt) {
		return true
	}
	return Fingerprint(r) != cp.LastFingerprint
}

// Advance folds a successfully notified record into the candidate next
// checkpoint. The winner is the maximum ModifiedAt among notified records,
// paired with that record's fingerprint — independent of processing order.
func Advance(next checkpoint.Checkpoint, r ChangeRecord) checkpoint.Checkpoint {
	if !next.IsZero() && !r.ModifiedAt.After(next.LastSeenAt) {
		return next
	}
	return checkpoint.Checkpoint{
		LastSeenAt:      r.ModifiedAt.UTC(),
		LastFingerprint: Fingerprint(r),
	}
}
