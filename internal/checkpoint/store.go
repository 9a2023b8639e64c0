package checkpoint

import (
	"context"
	"fmt"

	"notionwatch/pkg/logx"
)

// Entry is one raw record in the external checkpoint log.
type Entry struct {
	ID   int64
	Body string
}

// Log is the minimal append/replace surface the checkpoint lives on.
// The backing store (GitHub issue comments in production) has no atomic
// update, so "replace" is modelled as delete-old-then-append-new.
type Log interface {
	// ListEntries returns entries ordered oldest to newest.
	ListEntries(ctx context.Context) ([]Entry, error)
	Append(ctx context.Context, body string) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Store reads and writes the single logical checkpoint through a Log.
//
// The log may physically hold many entries (stale checkpoints, unrelated
// garbage, half-finished replacements from a crashed run). Only the newest
// parseable entry counts; everything older is treated as superseded.
type Store struct {
	log Log
	l   logx.Logger
}

func NewStore(log Log, l logx.Logger) *Store {
	if l.IsZero() {
		l = logx.Nop()
	}
	return &Store{log: log, l: l}
}

// Load returns the current checkpoint, or the zero checkpoint when the log
// is empty, unreadable, or holds no parseable entry. Read failures degrade
// rather than abort: a lost checkpoint means duplicate notifications, which
// the at-least-once policy prefers over silently skipping changes.
func (s *Store) Load(ctx context.Context) Checkpoint {
	entries, err := s.log.ListEntries(ctx)
	if err != nil {
		s.l.Warn("checkpoint load failed, starting from empty", logx.Err(err))
		return Checkpoint{}
	}
	cp, _, ok := newestParseable(entries, s.l)
	if !ok {
		return Checkpoint{}
	}
	return cp
}

// Save persists next as the new checkpoint, superseding all existing
// parseable entries (delete-then-append; a crash in between leaves no
// checkpoint, which Load tolerates).
//
// Save never regresses the stored high-water mark: if the log already holds
// a checkpoint newer than next (typically an overlapping run that finished
// first), the stored one is kept and Save is a logged no-op.
func (s *Store) Save(ctx context.Context, next Checkpoint) error {
	entries, err := s.log.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("checkpoint save: list: %w", err)
	}

	stored, _, ok := newestParseable(entries, logx.Nop())
	if ok && stored.LastSeenAt.After(next.LastSeenAt) {
		s.l.Warn("stored checkpoint is newer, keeping it",
			logx.Time("stored", stored.LastSeenAt),
			logx.Time("candidate", next.LastSeenAt))
		return nil
	}

	// Delete superseded entries first. Garbage that never parsed is left
	// alone; it is ignored on load anyway and may not be ours to remove.
	for _, e := range entries {
		if _, err := Decode(e.Body); err != nil {
			continue
		}
		if err := s.log.Delete(ctx, e.ID); err != nil {
			return fmt.Errorf("checkpoint save: delete stale entry %d: %w", e.ID, err)
		}
	}

	if _, err := s.log.Append(ctx, next.Encode()); err != nil {
		return fmt.Errorf("checkpoint save: append: %w", err)
	}
	return nil
}

func newestParseable(entries []Entry, l logx.Logger) (Checkpoint, int64, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		cp, err := Decode(entries[i].Body)
		if err != nil {
			l.Debug("skipping unparseable checkpoint entry",
				logx.Int64("entry_id", entries[i].ID), logx.Err(err))
			continue
		}
		return cp, entries[i].ID, true
	}
	return Checkpoint{}, 0, false
}
