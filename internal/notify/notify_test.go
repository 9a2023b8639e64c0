package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"notionwatch/internal/watch"
	"notionwatch/pkg/logx"
)

type scriptedEndpoint struct {
	calls int
	// errs[i] is returned for attempt i+1; nil means success.
	errs []error
}

func (s *scriptedEndpoint) Post(context.Context, watch.Notification) error {
	s.calls++
	if s.calls <= len(s.errs) {
		return s.errs[s.calls-1]
	}
	return nil
}

func newTestDispatcher(t *testing.T, ep Endpoint, maxAttempts int) (*Dispatcher, *[]time.Duration) {
	t.Helper()
	d := NewDispatcher(Config{
		MaxAttempts: maxAttempts,
		RatePerSec:  1000, // keep the limiter out of the way
	}, ep, logx.Nop())

	var slept []time.Duration
	d.sleep = func(_ context.Context, dur time.Duration) error {
		slept = append(slept, dur)
		return nil
	}
	return d, &slept
}

func TestSendSucceedsAfterTransientFailure(t *testing.T) {
	t.Parallel()
	ep := &scriptedEndpoint{errs: []error{errors.New("503")}}
	d, slept := newTestDispatcher(t, ep, 3)

	if err := d.Send(context.Background(), watch.Notification{Title: "t"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ep.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", ep.calls)
	}
	if len(*slept) != 1 {
		t.Fatalf("expected one backoff sleep, got %v", *slept)
	}
}

func TestSendHonorsRetryAfterExactly(t *testing.T) {
	t.Parallel()
	ra := 7 * time.Second
	ep := &scriptedEndpoint{errs: []error{&RateLimitedError{RetryAfter: ra}}}
	d, slept := newTestDispatcher(t, ep, 3)

	if err := d.Send(context.Background(), watch.Notification{Title: "t"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(*slept) != 1 || (*slept)[0] != ra {
		t.Fatalf("rate-limit pause must be exactly %v, got %v", ra, *slept)
	}
}

func TestSendExhaustsAttempts(t *testing.T) {
	t.Parallel()
	ep := &scriptedEndpoint{errs: []error{
		errors.New("500"), errors.New("500"), errors.New("500"), errors.New("500"),
	}}
	d, _ := newTestDispatcher(t, ep, 3)

	err := d.Send(context.Background(), watch.Notification{Title: "t"})
	if !errors.Is(err, watch.ErrDeliveryExhausted) {
		t.Fatalf("want ErrDeliveryExhausted, got %v", err)
	}
	if ep.calls != 3 {
		t.Fatalf("no attempts may happen beyond the budget: got %d", ep.calls)
	}
}

func TestSendStopsOnCancelledContext(t *testing.T) {
	t.Parallel()
	ep := &scriptedEndpoint{errs: []error{errors.New("500"), errors.New("500")}}
	d, _ := newTestDispatcher(t, ep, 3)
	d.sleep = func(ctx context.Context, _ time.Duration) error { return context.Canceled }

	err := d.Send(context.Background(), watch.Notification{Title: "t"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if ep.calls != 1 {
		t.Fatalf("no further attempts after cancellation, got %d", ep.calls)
	}
}

func TestRetryDelayIsBoundedAndGrows(t *testing.T) {
	t.Parallel()
	cfg := Config{RetryBase: 100 * time.Millisecond, RetryMaxDelay: 1 * time.Second}.withDefaults()
	for attempt := 1; attempt <= 10; attempt++ {
		d := retryDelay(cfg, attempt)
		if d < 0 || d > cfg.RetryMaxDelay {
			t.Fatalf("attempt %d: delay %v out of bounds", attempt, d)
		}
	}
}
