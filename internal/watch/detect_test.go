package watch

import (
	"testing"
	"time"

	"notionwatch/internal/checkpoint"
)

var (
	t1 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 = time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	t3 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func rec(id string, pending bool, modified time.Time, content string) ChangeRecord {
	return ChangeRecord{
		ID:         id,
		Title:      content,
		ModifiedAt: modified,
		Pending:    pending,
		Location:   "https://notion.so/" + id,
	}
}

func TestFingerprintIgnoresTimestamp(t *testing.T) {
	t.Parallel()
	a := rec("a", true, t1, "same")
	b := rec("b", true, t3, "same")
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatal("identical content must fingerprint identically regardless of timestamps")
	}
	c := rec("c", true, t1, "different")
	if Fingerprint(a) == Fingerprint(c) {
		t.Fatal("different content must not collide")
	}
}

func TestQualifies(t *testing.T) {
	t.Parallel()

	notified := rec("x", true, t2, "y")
	cp := checkpoint.Checkpoint{LastSeenAt: t2, LastFingerprint: Fingerprint(notified)}

	tests := []struct {
		name string
		cp   checkpoint.Checkpoint
		r    ChangeRecord
		want bool
	}{
		{name: "first run, pending", cp: checkpoint.Checkpoint{}, r: rec("a", true, t1, "x"), want: true},
		{name: "not pending never qualifies", cp: checkpoint.Checkpoint{}, r: rec("a", false, t3, "x"), want: false},
		{name: "not pending even when newer than checkpoint", cp: cp, r: rec("a", false, t3, "brand new"), want: false},
		{name: "newer timestamp qualifies", cp: cp, r: rec("a", true, t3, "y"), want: true},
		{name: "same content, same timestamp suppressed", cp: cp, r: rec("x", true, t2, "y"), want: false},
		{name: "stale timestamp but new content qualifies", cp: cp, r: rec("a", true, t1, "z"), want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Qualifies(tt.cp, tt.r); got != tt.want {
				t.Fatalf("Qualifies = %v, want %v", got, tt.want)
			}
		})
	}
}

// A record whose timestamp advanced but whose content matches the last
// notified fingerprint must not re-qualify (re-save churn suppression).
func TestQualifiesFingerprintGuardOnResave(t *testing.T) {
	t.Parallel()
	r := rec("a", true, t3, "y")
	cp := checkpoint.Checkpoint{LastSeenAt: t2, LastFingerprint: Fingerprint(r)}
	// Timestamp advanced past the checkpoint, so the record still qualifies
	// via the time rule; the fingerprint guard only kicks in when the
	// timestamp did NOT advance.
	if !Qualifies(cp, r) {
		t.Fatal("advanced timestamp should qualify")
	}

	same := rec("a", true, t2, "y")
	if Qualifies(cp, same) {
		t.Fatal("unchanged content at the checkpoint timestamp must be suppressed")
	}
}

// The guard compares against the last notified content only: content that
// matches something notified in an *earlier* run still qualifies. This is a
// single high-water mark, not a per-record dedup cache.
func TestQualifiesGuardIsLastContentOnly(t *testing.T) {
	t.Parallel()
	// Previous run notified A("x") then B("y"); B won the checkpoint.
	b := rec("B", true, t2, "y")
	cp := checkpoint.Checkpoint{LastSeenAt: t2, LastFingerprint: Fingerprint(b)}

	// A's flag was never cleared (ack failed), content still "x", but
	// re-saved at the same time as the checkpoint: fingerprint differs
	// from the stored one, so A re-qualifies by design.
	a := rec("A", true, t2, "x")
	if !Qualifies(cp, a) {
		t.Fatal("content differing from the last notified fingerprint must re-qualify")
	}
}

// Re-running detection with the checkpoint produced by a previous run over
// the same (acknowledged) records yields an empty qualifying set.
func TestDetectionIdempotence(t *testing.T) {
	t.Parallel()
	records := []ChangeRecord{
		rec("A", true, t1, "x"),
		rec("B", true, t2, "y"),
	}

	next := checkpoint.Checkpoint{}
	for _, r := range records {
		if !Qualifies(checkpoint.Checkpoint{}, r) {
			t.Fatalf("record %s should qualify on first run", r.ID)
		}
		next = Advance(next, r)
	}

	// After the run the flags are cleared by acknowledgment.
	for _, r := range records {
		r.Pending = false
		if Qualifies(next, r) {
			t.Fatalf("record %s re-qualified against its own checkpoint", r.ID)
		}
	}
}

func TestAdvanceKeepsMaxModified(t *testing.T) {
	t.Parallel()
	a := rec("A", true, t2, "y")
	b := rec("B", true, t1, "x")

	// Order must not matter: the max ModifiedAt wins either way.
	got1 := Advance(Advance(checkpoint.Checkpoint{}, a), b)
	got2 := Advance(Advance(checkpoint.Checkpoint{}, b), a)

	want := checkpoint.Checkpoint{LastSeenAt: t2, LastFingerprint: Fingerprint(a)}
	if got1 != want || got2 != want {
		t.Fatalf("Advance order-dependent: %v vs %v, want %v", got1, got2, want)
	}
}
