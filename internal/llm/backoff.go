package llm

import (
	"context"
	"math/rand"
	"time"
)

// retryConfig mirrors the teacher pack's pkg/retry.Config shape, pinned
// to the spec's backoff parameters: base 1s, factor 2, +/-25% jitter,
// capped at 60s, 3 retries (4 attempts total).
type retryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		MaxAttempts:  4,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.25,
	}
}

// doWithRetry runs fn, retrying while shouldRetry(err) is true, up to
// cfg.MaxAttempts attempts, honoring ctx cancellation between attempts
// (never mid-call — the caller's fn owns its own ctx-aware call).
func doWithRetry(ctx context.Context, cfg retryConfig, shouldRetry func(error) bool, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}
		if attempt >= cfg.MaxAttempts {
			return err
		}

		actualDelay := delay
		if cfg.Jitter > 0 {
			jitterFactor := 1.0 + (rand.Float64()*2.0-1.0)*cfg.Jitter
			actualDelay = time.Duration(float64(actualDelay) * jitterFactor)
		}
		if actualDelay > cfg.MaxDelay {
			actualDelay = cfg.MaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(actualDelay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}
