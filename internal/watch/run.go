package watch

import (
	"context"
	"fmt"
	"time"

	"notionwatch/internal/checkpoint"
	"notionwatch/pkg/logx"
)

// Notification is the payload handed to a dispatcher for one record.
type Notification struct {
	Title    string
	Detail   string
	Location string
}

// Source yields the candidate records for one run, fully materialized and in
// store order. The backlog is operator-bounded, so no streaming is needed.
type Source interface {
	FetchPending(ctx context.Context) ([]ChangeRecord, error)
}

// Dispatcher delivers one notification, retrying internally. It returns
// ErrDeliveryExhausted (wrapped) once its attempt budget is spent.
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// Acknowledger clears the pending flag on a source record after a successful
// delivery. Idempotent on the store side.
type Acknowledger interface {
	Acknowledge(ctx context.Context, recordID string) error
}

// CheckpointStore persists the run high-water mark.
type CheckpointStore interface {
	Load(ctx context.Context) checkpoint.Checkpoint
	Save(ctx context.Context, cp checkpoint.Checkpoint) error
}

// Sweeper bounds growth of historical execution artifacts. Advisory only.
type Sweeper interface {
	Cleanup(ctx context.Context) (deleted int, err error)
}

// Result summarizes one run for logging and the run journal.
type Result struct {
	StartedAt    time.Time
	Fetched      int
	Qualified    int
	Notified     int
	Failed       int // deliveries that exhausted their retry budget
	AckFailed    int
	SweepDeleted int
	Checkpoint   checkpoint.Checkpoint // as persisted (or as loaded, if nothing advanced)
	Saved        bool
}

// Runner sequences one watch invocation: load checkpoint, fetch candidates,
// detect, dispatch, acknowledge, persist checkpoint, sweep.
//
// Everything is strictly sequential and blocking; the only suspension points
// are the dispatcher's backoff sleeps. Cross-process overlap is an accepted
// hazard (see the checkpoint store's regression guard), narrowed by clearing
// the pending flag as soon as each delivery succeeds.
type Runner struct {
	source      Source
	dispatcher  Dispatcher
	acker       Acknowledger
	checkpoints CheckpointStore
	sweeper     Sweeper // optional
	log         logx.Logger
}

func NewRunner(src Source, d Dispatcher, a Acknowledger, cs CheckpointStore, sw Sweeper, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{
		source:      src,
		dispatcher:  d,
		acker:       a,
		checkpoints: cs,
		sweeper:     sw,
		log:         log,
	}
}

// Run executes one full invocation. The returned Result is valid even when
// err is non-nil (it reflects how far the run got).
//
// Error policy: a fetch failure aborts before any notification; a checkpoint
// save failure is surfaced as a run error after deliveries; individual
// delivery and acknowledge failures are logged and never abort the rest of
// the run.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	res := Result{StartedAt: time.Now().UTC()}

	cp := r.checkpoints.Load(ctx)
	res.Checkpoint = cp
	r.log.Debug("checkpoint loaded", logx.String("checkpoint", cp.String()))

	records, err := r.source.FetchPending(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	res.Fetched = len(records)

	next := cp
	for _, rec := range records {
		if !Qualifies(cp, rec) {
			continue
		}
		res.Qualified++

		n := Notification{Title: rec.Title, Detail: rec.Detail, Location: rec.Location}
		if err := r.dispatcher.Send(ctx, n); err != nil {
			// Exhausted deliveries are per-record fatal only: the record
			// keeps its pending flag and will be retried next run.
			res.Failed++
			r.log.Error("notification delivery failed",
				logx.String("record_id", rec.ID),
				logx.String("title", rec.Title),
				logx.Err(err))
			continue
		}
		res.Notified++
		r.log.Info("notified",
			logx.String("record_id", rec.ID),
			logx.String("title", rec.Title),
			logx.Time("modified_at", rec.ModifiedAt))

		// Best-effort: a failed acknowledge means a duplicate notification
		// next run, which the at-least-once policy prefers over a lost one.
		if err := r.acker.Acknowledge(ctx, rec.ID); err != nil {
			res.AckFailed++
			r.log.Warn("acknowledge failed", logx.String("record_id", rec.ID), logx.Err(err))
		}

		next = Advance(next, rec)
	}

	if res.Notified > 0 && next != cp {
		if err := r.checkpoints.Save(ctx, next); err != nil {
			res.Checkpoint = next
			return res, fmt.Errorf("%w: %v", ErrCheckpointSave, err)
		}
		res.Checkpoint = next
		res.Saved = true
		r.log.Info("checkpoint saved", logx.String("checkpoint", next.String()))
	}

	if r.sweeper != nil {
		deleted, err := r.sweeper.Cleanup(ctx)
		if err != nil {
			r.log.Warn("retention sweep failed", logx.Err(err))
		}
		res.SweepDeleted = deleted
	}

	return res, nil
}
