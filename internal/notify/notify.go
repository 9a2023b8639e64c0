package notify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"notionwatch/internal/watch"
	"notionwatch/pkg/logx"
)

// Config controls delivery retries and throttling.
type Config struct {
	MaxAttempts   int           // total attempts per message, >= 1
	RetryBase     time.Duration // first backoff delay
	RetryMaxDelay time.Duration // backoff cap
	RatePerSec    int           // token bucket for outgoing posts
	CallTimeout   time.Duration // per-attempt network budget
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 10 * time.Second
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 1
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	return c
}

// Dispatcher delivers notifications through an Endpoint with a bounded retry
// loop. Explicit rate-limit responses sleep exactly the duration the service
// supplied; any other failure sleeps an exponentially increasing, jittered
// delay. After MaxAttempts the send fails with watch.ErrDeliveryExhausted.
type Dispatcher struct {
	cfg Config
	ep  Endpoint
	lim *rate.Limiter
	log logx.Logger

	// sleep is swapped out in tests to avoid real timers.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(cfg Config, ep Endpoint, log logx.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{
		cfg: cfg,
		ep:  ep,
		// Burst = rate per sec, so short spikes don't block too hard.
		lim:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		log:   log,
		sleep: sleepCtx,
	}
}

// Send implements watch.Dispatcher.
func (d *Dispatcher) Send(ctx context.Context, n watch.Notification) error {
	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if err := d.lim.Wait(ctx); err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
		err := d.ep.Post(callCtx, n)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		var rl *RateLimitedError
		limited := errors.As(err, &rl)
		d.log.Debug("notification post failed",
			logx.Err(err),
			logx.Int("attempt", attempt),
			logx.Int("max", d.cfg.MaxAttempts),
			logx.Bool("rate_limited", limited))

		if attempt >= d.cfg.MaxAttempts {
			break
		}

		// Rate-limit pauses honor the service verbatim and skip the backoff
		// curve; everything else backs off exponentially with jitter.
		delay := retryDelay(d.cfg, attempt)
		if limited {
			delay = rl.RetryAfter
		}
		if delay <= 0 {
			continue
		}
		if err := d.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", watch.ErrDeliveryExhausted, d.cfg.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func retryDelay(cfg Config, attempt int) time.Duration {
	// attempt starts at 1 (first attempt), delay is for the NEXT attempt.
	base := cfg.RetryBase
	maxD := cfg.RetryMaxDelay

	// Exponential backoff: base * 2^(attempt-1)
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxD {
			d = maxD
			break
		}
	}
	// Jitter 0.7..1.3
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	j := 0.7 + rng.Float64()*0.6
	d = time.Duration(float64(d) * j)
	if d < 0 {
		return 0
	}
	if d > maxD {
		d = maxD
	}
	return d
}
