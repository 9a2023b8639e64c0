package notify

import (
	"context"
	"fmt"
	"time"

	"notionwatch/internal/watch"
)

// Endpoint posts one rendered notification to a messaging service.
// Implementations make exactly one network call per Post.
type Endpoint interface {
	Post(ctx context.Context, n watch.Notification) error
}

// RateLimitedError signals an explicit rate-limit response (HTTP 429 or a
// Telegram flood wait). RetryAfter is the exact pause the service asked for;
// the dispatcher honors it instead of its own backoff curve.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
