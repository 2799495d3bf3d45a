// Package retry retries an operation with exponential backoff.
//
// The backoff before attempt n (n >= 1) is InitialBackoff * 2^(n-1), capped
// at MaxBackoff, plus a jitter share that grows with n. Cancelling the
// context ends the loop during a backoff.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config defines the retry behavior. MaxRetries and InitialBackoff must be
// positive.
type Config struct {
	// MaxRetries is the total number of attempts.
	MaxRetries int

	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps each wait. Zero means no cap.
	MaxBackoff time.Duration

	// Jitter is the fraction of the backoff added on the last attempt
	// (0.0 to 1.0). Earlier attempts get proportionally less.
	Jitter float64
}

// ShouldRetryFunc reports whether err is worth another attempt.
// A nil ShouldRetryFunc retries every error.
type ShouldRetryFunc func(error) bool

// Do calls fn until it succeeds, shouldRetry rejects its error or
// cfg.MaxRetries attempts have been made. The error after the last attempt
// wraps fn's last error.
func Do(ctx context.Context, cfg Config, fn func() error, shouldRetry ShouldRetryFunc) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(calculateBackoff(cfg, attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

// calculateBackoff returns the wait before the given attempt.
func calculateBackoff(cfg Config, attempt int) time.Duration {
	multiplier := math.Pow(2, float64(attempt-1))
	backoff := time.Duration(multiplier * float64(cfg.InitialBackoff))

	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}

	if cfg.Jitter > 0 {
		jitterAmount := float64(backoff) * cfg.Jitter * float64(attempt) / float64(cfg.MaxRetries)
		backoff += time.Duration(jitterAmount)
	}

	return backoff
}
