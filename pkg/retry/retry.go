// Package retry wraps exponential backoff for connecting to backing services at startup.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	MaxTotalTimeout time.Duration
}

// DefaultConfig returns a default retry configuration with 1 minute max timeout
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 60 * time.Second,
	}
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do executes fn with exponential backoff until it succeeds, returns a permanent error,
// or the attempts or total timeout run out
func Do(ctx context.Context, cfg Config, fn func() error) error {
	return DoWithLog(ctx, cfg, "", fn, nil)
}

// DoWithLog is Do with a callback invoked after each failed attempt that will be retried
func DoWithLog(ctx context.Context, cfg Config, serviceName string, fn func() error, logFn func(attempt int, err error, nextDelay time.Duration)) error {
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}

	attempt := 0
	var lastErr error
	operation := func() error {
		attempt++
		lastErr = fn()
		return lastErr
	}
	notify := func(err error, next time.Duration) {
		if logFn != nil {
			logFn(attempt, err, next)
		}
	}

	err := backoff.RetryNotify(operation, newBackOff(ctx, cfg), notify)
	if err == nil {
		return nil
	}

	prefix := ""
	if serviceName != "" {
		prefix = serviceName + ": "
	}
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		if lastErr != nil && !errors.Is(lastErr, err) {
			return fmt.Errorf("%sretry aborted after %d attempts: %w (last error: %v)", prefix, attempt, err, lastErr)
		}
		return fmt.Errorf("%sretry aborted: %w", prefix, err)
	case attempt >= cfg.MaxAttempts:
		return fmt.Errorf("%smax retry attempts (%d) exceeded: %w", prefix, cfg.MaxAttempts, err)
	default:
		return err
	}
}

// WaitReady runs probe, each call bounded by probeTimeout, until the service answers
func WaitReady(ctx context.Context, cfg Config, service string, probeTimeout time.Duration, probe func(context.Context) error) error {
	return DoWithLog(ctx, cfg, service,
		func() error {
			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()
			return probe(probeCtx)
		},
		func(attempt int, err error, next time.Duration) {
			log.Warn().Err(err).Str("service", service).Int("attempt", attempt).Dur("retry_in", next).Msg("Backing service not ready")
		},
	)
}

func newBackOff(ctx context.Context, cfg Config) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.MaxInterval = cfg.MaxDelay
	b.Multiplier = cfg.BackoffFactor
	b.RandomizationFactor = 0
	// the context deadline bounds total time
	b.MaxElapsedTime = 0

	var bo backoff.BackOff = b
	if cfg.MaxAttempts > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(cfg.MaxAttempts-1))
	}
	return backoff.WithContext(bo, ctx)
}
