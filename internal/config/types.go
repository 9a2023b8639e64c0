package config

// Config is the on-disk configuration. All durations are Go duration
// strings (e.g. "500ms", "10s", "1m").
//
// Secrets (tokens, webhook URL) may be omitted from the file and supplied
// via environment variables instead; Load applies the overrides once, and
// the resulting values are passed explicitly into each adapter constructor.
type Config struct {
	Notion    NotionConfig    `json:"notion"`
	GitHub    GitHubConfig    `json:"github"`
	Notify    NotifyConfig    `json:"notify"`
	Retention RetentionConfig `json:"retention,omitempty"`
	Journal   *JournalConfig  `json:"journal,omitempty"`
	Logging   LoggingConfig   `json:"logging"`

	// Schedule enables daemon mode: a cron spec (e.g. "*/5 * * * *") or
	// "@every <duration>". Empty means run once and exit.
	Schedule string `json:"schedule,omitempty"`

	// Timezone for cron evaluation (IANA name). Empty means local time.
	Timezone string `json:"timezone,omitempty"`
}

// NotionConfig points at the watched database.
//
// Env overrides: NOTION_TOKEN, NOTION_DATABASE_ID.
type NotionConfig struct {
	Token           string `json:"token,omitempty"`
	DatabaseID      string `json:"database_id,omitempty"`
	PendingProperty string `json:"pending_property,omitempty"`
	TitleProperty   string `json:"title_property,omitempty"`
	DetailProperty  string `json:"detail_property,omitempty"`
	PageSize        int    `json:"page_size,omitempty"`
	Timeout         string `json:"timeout,omitempty"`
}

// GitHubConfig points at the repo holding the checkpoint issue and the
// workflow run history.
//
// Env overrides: GH_PAT (token), REPO (owner/name).
type GitHubConfig struct {
	Token       string `json:"token,omitempty"`
	Repo        string `json:"repo,omitempty"`
	IssueNumber int    `json:"issue_number"`
	Timeout     string `json:"timeout,omitempty"`
}

// NotifyConfig selects and tunes the notification endpoint.
//
// Env overrides: DISCORD_WEBHOOK_URL, TELEGRAM_TOKEN, TELEGRAM_CHAT_ID.
type NotifyConfig struct {
	// Channel is "webhook" (default) or "telegram".
	Channel string `json:"channel,omitempty"`

	WebhookURL string `json:"webhook_url,omitempty"`

	TelegramToken  string `json:"telegram_token,omitempty"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`

	MaxAttempts   int    `json:"max_attempts,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	CallTimeout   string `json:"call_timeout,omitempty"`
}

// RetentionConfig bounds the kept workflow run history.
type RetentionConfig struct {
	Enabled    bool `json:"enabled"`
	KeepLatest int  `json:"keep_latest,omitempty"`
}

// JournalConfig controls the optional local run journal.
//
// Example:
//
//	"journal": { "driver": "file", "path": "./notionwatch_runs.jsonl" }
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}
