// Package resilience provides the retry policy used for geocoding provider calls.
package resilience

import (
	"context"
	"time"
)

// Retry defaults.
const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 2 * time.Second
)

// RetryConfig controls retry behavior. Attempts are spaced by a constant
// Delay; there is no growth and no jitter.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (including the first try).
	// A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// Delay is the wait between attempts. Zero retries immediately.
	Delay time.Duration

	// ShouldRetry optionally overrides the default transient-error check.
	// If nil, IsTransient is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with the attempt that just
	// failed (1-based) and its error.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns three attempts two seconds apart.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
	}
}

// FixedRetryConfig returns a constant-delay policy. A non-positive
// maxAttempts falls back to the default; a negative delay is treated as zero.
func FixedRetryConfig(maxAttempts int, delay time.Duration) RetryConfig {
	return applyDefaults(RetryConfig{MaxAttempts: maxAttempts, Delay: delay})
}

// DoVal executes fn and retries errors deemed transient (via ShouldRetry or
// IsTransient), sleeping between attempts on the calling goroutine. A
// non-retryable error is returned immediately. When the budget is spent the
// last error is returned. Context cancellation stops retries immediately.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = applyDefaults(cfg)

	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetry(lastErr) {
			return zero, lastErr
		}

		// Don't sleep after the last attempt.
		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}

		if err := sleep(ctx, cfg.Delay); err != nil {
			return zero, lastErr
		}
	}

	return zero, lastErr
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return cfg
}
