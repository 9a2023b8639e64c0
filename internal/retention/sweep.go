// Package retention bounds the number of retained historical execution
// records. It is advisory housekeeping: failures are logged and never affect
// run correctness.
package retention

import (
	"context"
	"fmt"
	"sort"

	"notionwatch/internal/ghlog"
	"notionwatch/pkg/logx"
)

const defaultKeepLatest = 10

// History is the read/delete surface over historical execution records.
// The sweeper never creates them; the orchestration platform owns that.
type History interface {
	ListRuns(ctx context.Context) ([]ghlog.Run, error)
	DeleteRun(ctx context.Context, id int64) error
}

type Config struct {
	KeepLatest int // most recent runs to keep; 0 means default
}

// Sweeper deletes all but the most recent KeepLatest execution records.
type Sweeper struct {
	cfg     Config
	history History
	log     logx.Logger
}

func NewSweeper(cfg Config, h History, log logx.Logger) *Sweeper {
	if cfg.KeepLatest <= 0 {
		cfg.KeepLatest = defaultKeepLatest
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Sweeper{cfg: cfg, history: h, log: log}
}

// Cleanup lists runs newest-first and deletes everything beyond position
// KeepLatest. Individual delete failures are logged and skipped; the sweep
// continues over the remaining entries. Only a list failure is returned.
func (s *Sweeper) Cleanup(ctx context.Context) (int, error) {
	runs, err := s.history.ListRuns(ctx)
	if err != nil {
		return 0, fmt.Errorf("retention: %w", err)
	}

	// The API already orders newest-first; re-sort anyway so the "oldest
	// beyond N" contract survives a backend that doesn't.
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if len(runs) <= s.cfg.KeepLatest {
		return 0, nil
	}

	deleted := 0
	for _, r := range runs[s.cfg.KeepLatest:] {
		if err := s.history.DeleteRun(ctx, r.ID); err != nil {
			s.log.Warn("failed to delete old run, skipping",
				logx.Int64("run_id", r.ID), logx.Err(err))
			continue
		}
		deleted++
	}
	s.log.Debug("retention sweep done",
		logx.Int("kept", s.cfg.KeepLatest), logx.Int("deleted", deleted))
	return deleted, nil
}
