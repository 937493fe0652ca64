// Package retry bounds backend calls with a hard timeout and exponential
// backoff retries.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// TimeoutError is returned when an operation does not finish in time.
type TimeoutError struct {
	Message string
	After   time.Duration
}

func (e *TimeoutError) Error() string { return e.Message }

// Timeout and Temporary let TimeoutError satisfy net.Error.
func (e *TimeoutError) Timeout() bool   { return true }
func (e *TimeoutError) Temporary() bool { return true }

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// WithTimeout runs op and stops waiting for it after d. op receives a
// context that expires with the timer; an op that ignores it keeps running
// in the background and its result is dropped.
func WithTimeout[T any](ctx context.Context, d time.Duration, message string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	opCtx, cancel := context.WithTimeout(ctx, d)

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer cancel()
		v, err := op(opCtx)
		done <- result{v, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	timedOut := func() error {
		return &TimeoutError{Message: message, After: d}
	}

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, timedOut()
		}
		return r.v, r.err
	case <-timer.C:
		return zero, timedOut()
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Config bounds a retried operation.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// Notify is called before each retry wait. Optional.
	Notify func(attempt int, err error, wait time.Duration)
}

// DefaultConfig is three retries starting at one second, capped at ten.
var DefaultConfig = Config{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	MaxDelay:   10 * time.Second,
}

func (c Config) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.BaseDelay
	b.MaxInterval = c.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// WithRetry runs op up to cfg.MaxRetries+1 times, each attempt bounded by
// perAttempt. Any error triggers a retry; the last error is returned once
// retries run out.
func WithRetry[T any](ctx context.Context, cfg Config, perAttempt time.Duration, message string, op func(context.Context) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		return WithTimeout(ctx, perAttempt, message, op)
	}
	notify := func(err error, wait time.Duration) {
		if cfg.Notify != nil {
			cfg.Notify(attempt, err, wait)
		}
	}
	return backoff.RetryNotifyWithData(operation, cfg.backOff(ctx), notify)
}
