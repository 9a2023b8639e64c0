package config

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"notionwatch/pkg/logx"
)

// Watch monitors the config file and invokes onChange with each valid
// re-parse (env overrides applied, redundant rewrites skipped). Invalid
// edits are logged and ignored; the previous config stays in effect.
//
// Blocks until ctx is done. Used only in daemon mode.
func Watch(ctx context.Context, path string, log logx.Logger, onChange func(*Config)) error {
	if log.IsZero() {
		log = logx.Nop()
	}
	dir := filepath.Dir(path)
	file := filepath.Base(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Debug("config watcher started", logx.String("dir", dir), logx.String("file", file))

	var (
		timerMu  sync.Mutex
		timer    *time.Timer
		lastHash uint64
	)
	// Debounce to avoid reacting to partial editor writes.
	reload := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			cfg, err := Load(path)
			if err != nil {
				log.Warn("config reload failed, keeping previous", logx.String("path", path), logx.Err(err))
				return
			}
			h := hashConfig(cfg)
			timerMu.Lock()
			unchanged := h != 0 && h == lastHash
			if !unchanged {
				lastHash = h
			}
			timerMu.Unlock()
			if unchanged {
				log.Debug("config unchanged; skipping reload")
				return
			}
			onChange(cfg)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Compare by basename: robust across absolute/relative paths.
			if strings.EqualFold(filepath.Base(ev.Name), file) {
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) != 0 {
					reload()
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				log.Warn("config watch error", logx.Err(err))
			}
		}
	}
}

func hashConfig(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
