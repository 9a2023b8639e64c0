package journal

import (
	"context"
	"errors"
	"strings"

	"notionwatch/pkg/logx"
)

// Store is the minimal persistence API for the run journal.
type Store interface {
	AppendRun(ctx context.Context, e RunEntry) error
	Close() error
}

// Open initializes the configured journal store.
// It returns (nil, nil) if the journal is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown journal driver: " + driver)
	}
}
