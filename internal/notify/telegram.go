package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"notionwatch/internal/watch"
)

// TelegramConfig configures the Telegram notification endpoint.
type TelegramConfig struct {
	Token  string
	ChatID int64
	// Offline skips the getMe probe on startup; used by tests.
	Offline bool
}

// Telegram delivers notifications to a single chat through the Bot API.
// Flood-wait responses are surfaced as RateLimitedError so the dispatcher
// honors Telegram's requested pause instead of its own backoff.
type Telegram struct {
	bot    *tele.Bot
	chatID int64
}

func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Offline: cfg.Offline,
	})
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: cfg.ChatID}, nil
}

func (t *Telegram) Post(ctx context.Context, n watch.Notification) error {
	// telebot has no context plumbing on Send; honor cancellation up front
	// and rely on its HTTP client timeout for the call itself.
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := t.bot.Send(tele.ChatID(t.chatID), renderText(n), &tele.SendOptions{
		DisableWebPagePreview: true,
	})
	if err == nil {
		return nil
	}

	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return &RateLimitedError{RetryAfter: time.Duration(flood.RetryAfter) * time.Second}
	}
	return err
}
