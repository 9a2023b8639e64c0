package watch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"notionwatch/internal/checkpoint"
	"notionwatch/pkg/logx"
)

type fakeSource struct {
	records []ChangeRecord
	err     error
}

func (f *fakeSource) FetchPending(context.Context) ([]ChangeRecord, error) {
	return f.records, f.err
}

type fakeDispatcher struct {
	sent    []Notification
	failFor map[string]bool // keyed by title
}

func (f *fakeDispatcher) Send(_ context.Context, n Notification) error {
	if f.failFor[n.Title] {
		return fmt.Errorf("%w after 3 attempts", ErrDeliveryExhausted)
	}
	f.sent = append(f.sent, n)
	return nil
}

type fakeAcker struct {
	acked   []string
	failFor map[string]bool
}

func (f *fakeAcker) Acknowledge(_ context.Context, id string) error {
	if f.failFor[id] {
		return errors.New("patch failed")
	}
	f.acked = append(f.acked, id)
	return nil
}

type fakeCheckpoints struct {
	current checkpoint.Checkpoint
	saved   []checkpoint.Checkpoint
	saveErr error
}

func (f *fakeCheckpoints) Load(context.Context) checkpoint.Checkpoint { return f.current }
func (f *fakeCheckpoints) Save(_ context.Context, cp checkpoint.Checkpoint) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, cp)
	f.current = cp
	return nil
}

type fakeSweeper struct {
	calls   int
	deleted int
}

func (f *fakeSweeper) Cleanup(context.Context) (int, error) {
	f.calls++
	return f.deleted, nil
}

func newTestRunner(src *fakeSource, d *fakeDispatcher, a *fakeAcker, cs *fakeCheckpoints, sw Sweeper) *Runner {
	return NewRunner(src, d, a, cs, sw, logx.Nop())
}

func TestRunNotifiesAllQualifying(t *testing.T) {
	t.Parallel()
	recA := rec("A", true, t1, "x")
	recB := rec("B", true, t2, "y")

	src := &fakeSource{records: []ChangeRecord{recA, recB}}
	d := &fakeDispatcher{}
	a := &fakeAcker{}
	cs := &fakeCheckpoints{}
	sw := &fakeSweeper{deleted: 3}

	res, err := newTestRunner(src, d, a, cs, sw).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Notified != 2 || len(d.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", res.Notified)
	}
	if len(a.acked) != 2 {
		t.Fatalf("expected 2 acknowledgments, got %v", a.acked)
	}
	if len(cs.saved) != 1 {
		t.Fatalf("expected exactly one checkpoint save, got %d", len(cs.saved))
	}
	want := checkpoint.Checkpoint{LastSeenAt: t2, LastFingerprint: Fingerprint(recB)}
	if cs.saved[0] != want {
		t.Fatalf("checkpoint = %v, want %v", cs.saved[0], want)
	}
	if sw.calls != 1 || res.SweepDeleted != 3 {
		t.Fatalf("sweeper not invoked as expected: calls=%d deleted=%d", sw.calls, res.SweepDeleted)
	}
}

func TestRunDeliveryFailureDoesNotAbort(t *testing.T) {
	t.Parallel()
	recA := rec("A", true, t2, "x") // newest, will fail
	recB := rec("B", true, t1, "y")

	src := &fakeSource{records: []ChangeRecord{recA, recB}}
	d := &fakeDispatcher{failFor: map[string]bool{"x": true}}
	a := &fakeAcker{}
	cs := &fakeCheckpoints{}

	res, err := newTestRunner(src, d, a, cs, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed != 1 || res.Notified != 1 {
		t.Fatalf("failed=%d notified=%d, want 1/1", res.Failed, res.Notified)
	}
	if len(a.acked) != 1 || a.acked[0] != "B" {
		t.Fatalf("only B should be acknowledged, got %v", a.acked)
	}
	// The checkpoint advances only over what was actually delivered: the
	// failed record A (the newer one) must not drag the high-water mark up,
	// or A would never be re-notified.
	want := checkpoint.Checkpoint{LastSeenAt: t1, LastFingerprint: Fingerprint(recB)}
	if len(cs.saved) != 1 || cs.saved[0] != want {
		t.Fatalf("checkpoint = %v, want %v", cs.saved, want)
	}
}

func TestRunAckFailureIsNonFatal(t *testing.T) {
	t.Parallel()
	recA := rec("A", true, t1, "x")

	src := &fakeSource{records: []ChangeRecord{recA}}
	d := &fakeDispatcher{}
	a := &fakeAcker{failFor: map[string]bool{"A": true}}
	cs := &fakeCheckpoints{}

	res, err := newTestRunner(src, d, a, cs, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.AckFailed != 1 || res.Notified != 1 {
		t.Fatalf("ack_failed=%d notified=%d, want 1/1", res.AckFailed, res.Notified)
	}
	if len(cs.saved) != 1 {
		t.Fatal("checkpoint should still be saved after an ack failure")
	}
}

func TestRunFetchFailureAborts(t *testing.T) {
	t.Parallel()
	src := &fakeSource{err: errors.New("boom")}
	d := &fakeDispatcher{}
	cs := &fakeCheckpoints{}

	_, err := newTestRunner(src, d, &fakeAcker{}, cs, nil).Run(context.Background())
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("want ErrFetch, got %v", err)
	}
	if len(d.sent) != 0 || len(cs.saved) != 0 {
		t.Fatal("nothing may be notified or saved after a fetch failure")
	}
}

func TestRunCheckpointSaveFailureIsRunError(t *testing.T) {
	t.Parallel()
	src := &fakeSource{records: []ChangeRecord{rec("A", true, t1, "x")}}
	cs := &fakeCheckpoints{saveErr: errors.New("store down")}

	_, err := newTestRunner(src, &fakeDispatcher{}, &fakeAcker{}, cs, nil).Run(context.Background())
	if !errors.Is(err, ErrCheckpointSave) {
		t.Fatalf("want ErrCheckpointSave, got %v", err)
	}
}

func TestRunNothingQualifyingSkipsSave(t *testing.T) {
	t.Parallel()
	notified := rec("A", true, t2, "y")
	cp := checkpoint.Checkpoint{LastSeenAt: t2, LastFingerprint: Fingerprint(notified)}

	src := &fakeSource{records: []ChangeRecord{rec("A", false, t2, "y")}}
	cs := &fakeCheckpoints{current: cp}

	res, err := newTestRunner(src, &fakeDispatcher{}, &fakeAcker{}, cs, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Saved || len(cs.saved) != 0 {
		t.Fatal("no save expected when nothing was notified")
	}
	if res.Checkpoint != cp {
		t.Fatalf("result checkpoint = %v, want loaded %v", res.Checkpoint, cp)
	}
}

func TestRunSecondRunOverOwnCheckpointIsQuiet(t *testing.T) {
	t.Parallel()
	recA := rec("A", true, t1, "x")
	recB := rec("B", true, t2, "y")
	src := &fakeSource{records: []ChangeRecord{recA, recB}}
	cs := &fakeCheckpoints{}
	d := &fakeDispatcher{}
	a := &fakeAcker{}
	r := newTestRunner(src, d, a, cs, nil)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Acknowledgment cleared the flags; same records come back clean.
	src.records = []ChangeRecord{
		rec("A", false, t1, "x"),
		rec("B", false, t2, "y"),
	}
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Qualified != 0 || res.Notified != 0 {
		t.Fatalf("second run must be quiet, got qualified=%d", res.Qualified)
	}
	if len(cs.saved) != 1 {
		t.Fatalf("second run must not rewrite the checkpoint, saves=%d", len(cs.saved))
	}
}
