// Package retry re-runs fallible operations with exponential or constant backoff.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = time.Second

	maxShift = 16
)

// Options configures Do. Zero values select the defaults.
type Options struct {
	Attempts int           // total tries including the first; default 3
	Delay    time.Duration // base delay; default 1s
	// ConstantDelay disables exponential backoff (delay * 2^(attempt-1)).
	ConstantDelay bool
	// RetryIf decides whether an error is worth another attempt; default IsTransient.
	RetryIf func(error) bool
	// OnRetry is called before each wait with the upcoming attempt number.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Do calls op until it succeeds, attempts run out, or RetryIf rejects the error.
// The error of the last attempt is returned unchanged. Waits end early when ctx is done.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	retryIf := opts.RetryIf
	if retryIf == nil {
		retryIf = IsTransient
	}

	var lastErr error
	operation := func() (T, error) {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !retryIf(err) || ctx.Err() != nil {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	attempt := 1
	notify := func(err error, wait time.Duration) {
		attempt++
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, wait, err)
		}
		slog.Debug("retry: waiting", "next", attempt, "wait", wait, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy(delay, opts.ConstantDelay), uint64(attempts-1)), ctx)
	v, err := backoff.RetryNotifyWithData[T](operation, b, notify)
	if err != nil {
		var zero T
		// a cancelled wait surfaces ctx.Err(); callers get the last attempt's error
		return zero, lastErr
	}
	return v, nil
}

func policy(delay time.Duration, constant bool) backoff.BackOff {
	if constant {
		return backoff.NewConstantBackOff(delay)
	}
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(delay),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(Backoff(delay, maxShift+1, true)),
		backoff.WithMaxElapsedTime(0),
	)
}

// Backoff returns the wait after the given failed attempt (1-based).
func Backoff(delay time.Duration, attempt int, exponential bool) time.Duration {
	if !exponential || attempt <= 1 {
		return delay
	}
	shift := min(attempt-1, maxShift)
	return delay << shift
}

// StatusCoder is implemented by errors that carry an HTTP response status.
// A status of 0 means no response was received.
type StatusCoder interface {
	HTTPStatus() int
}

// IsTransient is the default retry policy: network failures (no response)
// and HTTP 5xx are retried; 4xx, redirects and unclassified errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var sc StatusCoder
	if !errors.As(err, &sc) {
		return false
	}
	status := sc.HTTPStatus()
	return status == 0 || status >= 500
}
