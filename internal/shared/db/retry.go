package db

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often a transient failure is retried. MaxRetries
// counts retries after the first attempt.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy is used when a service is built without explicit tuning.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  50 * time.Millisecond,
	MaxDelay:   time.Second,
}

// Retry runs fn until it succeeds, fails with an error retryable rejects,
// the policy is exhausted or ctx is done. The error of the last attempt is
// returned unchanged so callers can classify it.
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func(attempt int) error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.BaseDelay
	if policy.MaxDelay > 0 {
		exp.MaxInterval = policy.MaxDelay
	}
	exp.MaxElapsedTime = 0

	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(maxRetries)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
