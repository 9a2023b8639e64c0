package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"notionwatch/internal/checkpoint"
	"notionwatch/internal/config"
	"notionwatch/internal/ghlog"
	"notionwatch/internal/journal"
	"notionwatch/internal/notify"
	"notionwatch/internal/notion"
	"notionwatch/internal/retention"
	"notionwatch/internal/watch"
	"notionwatch/pkg/logx"
)

// App wires configuration into a runnable watcher. It owns the logging
// service, the run journal, and the assembled watch.Runner, and supports
// swapping all three when the config file changes in daemon mode.
type App struct {
	cfgPath string

	logSvc *logx.Service
	log    logx.Logger

	mu      sync.Mutex
	cfg     *config.Config
	runner  *watch.Runner
	journal journal.Store
	cron    *cron.Cron

	// running guards against overlapping in-process runs (daemon ticks).
	running bool
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})

	a := &App{cfgPath: cfgPath, logSvc: logSvc, log: log}
	if err := a.apply(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

// apply builds adapters from cfg and installs them. Called at startup and on
// config reload; a failed build leaves the previous wiring in place.
func (a *App) apply(cfg *config.Config) error {
	runner, jstore, err := a.build(cfg)
	if err != nil {
		return err
	}

	a.mu.Lock()
	old := a.journal
	a.cfg = cfg
	a.runner = runner
	a.journal = jstore
	a.mu.Unlock()

	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})

	if old != nil && old != jstore {
		_ = old.Close()
	}
	return nil
}

func (a *App) build(cfg *config.Config) (*watch.Runner, journal.Store, error) {
	notionTimeout, err := config.ParseDurationField("notion.timeout", cfg.Notion.Timeout)
	if err != nil {
		return nil, nil, err
	}
	src, err := notion.New(notion.Config{
		Token:           cfg.Notion.Token,
		DatabaseID:      cfg.Notion.DatabaseID,
		PendingProperty: cfg.Notion.PendingProperty,
		TitleProperty:   cfg.Notion.TitleProperty,
		DetailProperty:  cfg.Notion.DetailProperty,
		PageSize:        cfg.Notion.PageSize,
		Timeout:         notionTimeout,
	}, a.log.With(logx.String("comp", "notion")))
	if err != nil {
		return nil, nil, fmt.Errorf("notion: %w", err)
	}

	ghTimeout, err := config.ParseDurationField("github.timeout", cfg.GitHub.Timeout)
	if err != nil {
		return nil, nil, err
	}
	gh, err := ghlog.New(ghlog.Config{
		Token:       cfg.GitHub.Token,
		Repo:        cfg.GitHub.Repo,
		IssueNumber: cfg.GitHub.IssueNumber,
		Timeout:     ghTimeout,
	}, a.log.With(logx.String("comp", "github")))
	if err != nil {
		return nil, nil, fmt.Errorf("github: %w", err)
	}
	cpStore := checkpoint.NewStore(gh, a.log.With(logx.String("comp", "checkpoint")))

	dispatcher, err := a.buildDispatcher(cfg)
	if err != nil {
		return nil, nil, err
	}

	var sweeper watch.Sweeper
	if cfg.Retention.Enabled {
		sweeper = retention.NewSweeper(
			retention.Config{KeepLatest: cfg.Retention.KeepLatest},
			gh,
			a.log.With(logx.String("comp", "retention")),
		)
	}

	var jstore journal.Store
	if cfg.Journal != nil {
		busy, err := config.ParseDurationField("journal.busy_timeout", cfg.Journal.BusyTimeout)
		if err != nil {
			return nil, nil, err
		}
		jstore, err = journal.Open(journal.Config{
			Driver:      cfg.Journal.Driver,
			Path:        cfg.Journal.Path,
			BusyTimeout: busy,
		}, a.log.With(logx.String("comp", "journal")))
		if err != nil {
			return nil, nil, fmt.Errorf("journal: %w", err)
		}
	}

	runner := watch.NewRunner(src, dispatcher, src, cpStore, sweeper, a.log.With(logx.String("comp", "watch")))
	return runner, jstore, nil
}

func (a *App) buildDispatcher(cfg *config.Config) (*notify.Dispatcher, error) {
	retryBase, err := config.ParseDurationField("notify.retry_base", cfg.Notify.RetryBase)
	if err != nil {
		return nil, err
	}
	retryMax, err := config.ParseDurationField("notify.retry_max_delay", cfg.Notify.RetryMaxDelay)
	if err != nil {
		return nil, err
	}
	callTimeout, err := config.ParseDurationField("notify.call_timeout", cfg.Notify.CallTimeout)
	if err != nil {
		return nil, err
	}

	var ep notify.Endpoint
	switch cfg.Notify.Channel {
	case "", "webhook":
		ep, err = notify.NewWebhook(notify.WebhookConfig{URL: cfg.Notify.WebhookURL, Timeout: callTimeout})
	case "telegram":
		ep, err = notify.NewTelegram(notify.TelegramConfig{
			Token:  cfg.Notify.TelegramToken,
			ChatID: cfg.Notify.TelegramChatID,
		})
	default:
		err = fmt.Errorf("unknown notify channel %q", cfg.Notify.Channel)
	}
	if err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}

	return notify.NewDispatcher(notify.Config{
		MaxAttempts:   cfg.Notify.MaxAttempts,
		RetryBase:     retryBase,
		RetryMaxDelay: retryMax,
		RatePerSec:    cfg.Notify.RatePerSec,
		CallTimeout:   callTimeout,
	}, ep, a.log.With(logx.String("comp", "notify"))), nil
}

// RunOnce executes one watch invocation and journals the outcome.
func (a *App) RunOnce(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		a.log.Warn("skipping tick, previous run still in flight")
		return errors.New("run already in progress")
	}
	a.running = true
	runner := a.runner
	jstore := a.journal
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	res, runErr := runner.Run(ctx)

	a.log.Info("run finished",
		logx.Int("fetched", res.Fetched),
		logx.Int("qualified", res.Qualified),
		logx.Int("notified", res.Notified),
		logx.Int("failed", res.Failed),
		logx.Bool("checkpoint_saved", res.Saved),
		logx.Err(runErr))

	if jstore != nil {
		entry := journal.RunEntry{
			ID:           uuid.NewString(),
			StartedAt:    res.StartedAt,
			Fetched:      res.Fetched,
			Qualified:    res.Qualified,
			Notified:     res.Notified,
			Failed:       res.Failed,
			AckFailed:    res.AckFailed,
			SweepDeleted: res.SweepDeleted,
			TookMS:       time.Since(res.StartedAt).Milliseconds(),
		}
		if !res.Checkpoint.IsZero() {
			entry.Checkpoint = res.Checkpoint.Encode()
		}
		if runErr != nil {
			entry.Error = runErr.Error()
		}
		jctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := jstore.AppendRun(jctx, entry); err != nil {
			a.log.Warn("journal append failed", logx.Err(err))
		}
		cancel()
	}

	return runErr
}

// Schedule returns the currently configured cron spec ("" = one-shot).
func (a *App) Schedule() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Schedule
}

func (a *App) Close() error {
	a.mu.Lock()
	jstore := a.journal
	a.journal = nil
	a.mu.Unlock()
	if jstore != nil {
		_ = jstore.Close()
	}
	return a.logSvc.Close()
}

func (a *App) Logger() logx.Logger { return a.log }
