package app

import (
	"context"
	"fmt"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"notionwatch/internal/config"
	"notionwatch/pkg/logx"
)

// RunDaemon runs the watcher on the configured cron schedule until ctx is
// done. The config file is watched for edits; valid changes are rebuilt and
// applied between runs (a changed schedule restarts the cron entry).
//
// A tick that fires while a run is still in flight is skipped: overlapping
// runs in one process would only widen the duplicate-notification window.
func (a *App) RunDaemon(ctx context.Context) error {
	spec := a.Schedule()
	if spec == "" {
		return fmt.Errorf("daemon mode requires a schedule in the config")
	}

	// systemd integration is best-effort; SdNotify is a no-op outside units.
	_, _ = sd.SdNotify(false, sd.SdNotifyReady)
	defer func() { _, _ = sd.SdNotify(false, sd.SdNotifyStopping) }()

	// Config hot reload.
	go func() {
		err := config.Watch(ctx, a.cfgPath, a.log.With(logx.String("comp", "config")), func(cfg *config.Config) {
			if err := a.apply(cfg); err != nil {
				a.log.Warn("config reload rejected", logx.Err(err))
				return
			}
			a.log.Info("config reloaded")
			a.restartCron(ctx, cfg.Schedule, cfg.Timezone)
		})
		if err != nil && ctx.Err() == nil {
			a.log.Warn("config watcher stopped", logx.Err(err))
		}
	}()

	a.mu.Lock()
	tz := a.cfg.Timezone
	a.mu.Unlock()
	if err := a.startCron(ctx, spec, tz); err != nil {
		return err
	}

	<-ctx.Done()
	a.stopCron()
	return nil
}

func (a *App) startCron(ctx context.Context, spec, tz string) error {
	loc := time.Local
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("timezone %q: %w", tz, err)
		}
		loc = l
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		if err := a.RunOnce(ctx); err != nil {
			// Logged inside RunOnce; a failing tick never stops the daemon.
			_ = err
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()

	a.mu.Lock()
	a.cron = c
	a.mu.Unlock()
	a.log.Info("scheduler started", logx.String("schedule", spec), logx.String("tz", loc.String()))
	return nil
}

func (a *App) restartCron(ctx context.Context, spec, tz string) {
	a.stopCron()
	if spec == "" {
		a.log.Warn("schedule removed from config; daemon idle until restored")
		return
	}
	if err := a.startCron(ctx, spec, tz); err != nil {
		a.log.Warn("failed to restart scheduler", logx.Err(err))
	}
}

func (a *App) stopCron() {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.mu.Unlock()
	if c != nil {
		// Stop returns a ctx that completes when running jobs finish.
		<-c.Stop().Done()
	}
}
