package journal

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("journal disabled")

// Config configures the local run journal.
//
// Driver values:
//   - "file": dependency-free jsonl append log
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", the journal is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RunEntry records one completed (or failed) watch run.
// Keep it compact and schema-stable.
type RunEntry struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	Fetched      int       `json:"fetched"`
	Qualified    int       `json:"qualified"`
	Notified     int       `json:"notified"`
	Failed       int       `json:"failed"`
	AckFailed    int       `json:"ack_failed,omitempty"`
	SweepDeleted int       `json:"sweep_deleted,omitempty"`
	Checkpoint   string    `json:"checkpoint,omitempty"`
	Error        string    `json:"error,omitempty"`
	TookMS       int64     `json:"took_ms"`
}
