package notify

import (
	"context"
	"testing"

	"notionwatch/internal/watch"
)

func TestNewTelegramValidates(t *testing.T) {
	t.Parallel()
	if _, err := NewTelegram(TelegramConfig{ChatID: 1, Offline: true}); err == nil {
		t.Fatal("empty token must be rejected")
	}
	if _, err := NewTelegram(TelegramConfig{Token: "123:abc", Offline: true}); err == nil {
		t.Fatal("zero chat id must be rejected")
	}
	if _, err := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: 1, Offline: true}); err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
}

func TestTelegramPostHonorsCancelledContext(t *testing.T) {
	t.Parallel()
	tg, err := NewTelegram(TelegramConfig{Token: "123:abc", ChatID: 1, Offline: true})
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tg.Post(ctx, watch.Notification{Title: "t"}); err != context.Canceled {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
