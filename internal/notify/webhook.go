package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"notionwatch/internal/watch"
)

// WebhookConfig configures the Discord-style webhook endpoint.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration // transport timeout; 0 means default
}

// Webhook posts notifications as JSON to a Discord-compatible webhook URL.
type Webhook struct {
	url  string
	http *http.Client
}

func NewWebhook(cfg WebhookConfig) (*Webhook, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("webhook url is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{url: cfg.URL, http: &http.Client{Timeout: timeout}}, nil
}

func (w *Webhook) Post(ctx context.Context, n watch.Notification) error {
	body, err := json.Marshal(map[string]string{"content": renderText(n)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitedError{RetryAfter: webhookRetryAfter(resp)}
	}
	return fmt.Errorf("webhook post: unexpected status %d", resp.StatusCode)
}

// webhookRetryAfter extracts the pause a 429 asked for: the Retry-After
// header (integer seconds) wins, then Discord's JSON body field (fractional
// seconds). Falls back to one second if neither parses.
func webhookRetryAfter(resp *http.Response) time.Duration {
	if h := resp.Header.Get("Retry-After"); h != "" {
		if secs, err := strconv.ParseFloat(strings.TrimSpace(h), 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var b struct {
			RetryAfter float64 `json:"retry_after"`
		}
		if json.Unmarshal(raw, &b) == nil && b.RetryAfter > 0 {
			return time.Duration(b.RetryAfter * float64(time.Second))
		}
	}
	return time.Second
}

// renderText formats the webhook message. Mirrors the layout operators
// already receive: headline, bold title, optional detail, link.
func renderText(n watch.Notification) string {
	var b strings.Builder
	b.WriteString("📢 Notion page updated!\n")
	b.WriteString("**")
	b.WriteString(n.Title)
	b.WriteString("**")
	if strings.TrimSpace(n.Detail) != "" {
		b.WriteString("\n")
		b.WriteString(n.Detail)
	}
	if n.Location != "" {
		b.WriteString("\n🔗 ")
		b.WriteString(n.Location)
	}
	return b.String()
}
