// Package notify delivers change notifications to an external messaging
// endpoint with bounded, rate-limit-aware retries.
//
// The Dispatcher owns the retry policy (attempt budget, exponential backoff,
// honoring explicit Retry-After pauses) and a token-bucket rate limit; the
// Endpoint implementations (Discord-style webhook, Telegram) each make
// exactly one network call per attempt and translate their service's
// throttling signal into RateLimitedError.
package notify
