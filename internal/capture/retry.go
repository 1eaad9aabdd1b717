package capture

import (
	"math"
	"strings"
	"time"

	"unitcam/internal/config"
)

// Backoff selects how the retry delay grows.
type Backoff string

const (
	BackoffFixed       Backoff = config.BackoffFixed
	BackoffExponential Backoff = config.BackoffExponential
)

const (
	defaultRetryDelay    = 5 * time.Second
	defaultMaxRetryDelay = time.Minute
)

// RetryPolicy decides whether and when a failed or empty cycle is retried.
// MaxAttempts of zero retries without limit. Exponential delays are capped at
// MaxDelay, or one minute when MaxDelay is unset.
type RetryPolicy struct {
	Delay       time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	Backoff     Backoff
}

// DefaultRetryPolicy retries every five seconds until a value is captured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delay: defaultRetryDelay, Backoff: BackoffFixed}
}

// PolicyFromConfig builds the policy described by the [capture] section.
func PolicyFromConfig(cfg *config.Config) RetryPolicy {
	if cfg == nil {
		return DefaultRetryPolicy()
	}
	return RetryPolicy{
		Delay:       cfg.RetryDelay(),
		MaxDelay:    cfg.RetryMaxDelay(),
		MaxAttempts: cfg.Capture.RetryMaxAttempts,
		Backoff:     Backoff(strings.ToLower(strings.TrimSpace(cfg.Capture.RetryBackoff))),
	}
}

// Next returns the delay before retry number attempt (1-based). ok is false
// once MaxAttempts retries have been used.
func (p RetryPolicy) Next(attempt int) (delay time.Duration, ok bool) {
	if attempt < 1 {
		attempt = 1
	}
	if p.MaxAttempts > 0 && attempt > p.MaxAttempts {
		return 0, false
	}
	base := p.Delay
	if base <= 0 {
		base = defaultRetryDelay
	}
	if p.Backoff != BackoffExponential {
		return base, true
	}
	limit := p.MaxDelay
	if limit <= 0 {
		limit = max(defaultMaxRetryDelay, base)
	}
	delay = base
	for i := 1; i < attempt && delay < limit && delay <= math.MaxInt64/2; i++ {
		delay *= 2
	}
	return min(delay, limit), true
}
