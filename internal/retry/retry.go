// Package retry re-runs store writes that fail transiently.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
)

// Policy bounds how an operation is retried. MaxAttempts counts every call,
// including the first.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration

	// Retryable filters errors worth another attempt. Nil retries everything.
	Retryable func(error) bool

	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(attempt int, err error)

	Logger *slog.Logger
}

// DefaultPolicy returns three attempts one second apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// Do runs op until it succeeds, returns a non-retryable error, or MaxAttempts
// is reached. The error from the last attempt is returned unchanged. Sleeps
// happen only between attempts.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	attempt := 0
	wrapped := func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		if attempt < p.MaxAttempts {
			if p.OnRetry != nil {
				p.OnRetry(attempt, err)
			}
			if p.Logger != nil {
				p.Logger.Warn("store operation failed, retrying",
					"attempt", attempt,
					"max_attempts", p.MaxAttempts,
					"delay", p.Delay,
					"error", err,
				)
			}
		}
		return v, err
	}

	v, err := backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return v, permanent.Err
	}
	return v, err
}
