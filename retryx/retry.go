package retryx

import (
	"time"

	"github.com/cenkalti/backoff"
)

const (
	DefaultInterval       = 500 * time.Millisecond
	DefaultMaxInterval    = 2 * time.Second
	DefaultMaxElapsedTime = 5 * time.Second
	DefaultMaxRetries     = 3
)

// ConstantRetry calls fn until it succeeds, waiting the same interval between attempts.
// Errors wrapped with backoff.Permanent stop the retries.
func ConstantRetry(fn func() error, opts ...RetryOption) error {
	o := newRetryOptions(opts)

	bo := backoff.NewConstantBackOff(o.intervalOr(DefaultInterval))
	bo.Reset()

	return retry(fn, bo, o)
}

// ExponentialRetry calls fn until it succeeds, doubling the wait between attempts up to the max interval.
// It gives up after the max elapsed time, the retry count or once the context is done, whichever comes first.
func ExponentialRetry(fn func() error, opts ...RetryOption) error {
	o := newRetryOptions(opts)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.intervalOr(DefaultInterval)
	bo.MaxInterval = DefaultMaxInterval
	if o.maxInterval > 0 {
		bo.MaxInterval = o.maxInterval
	}
	bo.MaxElapsedTime = DefaultMaxElapsedTime
	if o.maxElapsedTime > 0 {
		bo.MaxElapsedTime = o.maxElapsedTime
	}
	bo.Reset()

	return retry(fn, bo, o)
}

func retry(fn func() error, bo backoff.BackOff, o *retryOptions) error {
	maxAttempts := DefaultMaxRetries
	if o.retryCount > 0 {
		maxAttempts = o.retryCount
	}

	if o.ctx != nil {
		bo = backoff.WithContext(bo, o.ctx)
	}

	attempts := 0
	return backoff.RetryNotify(func() error {
		err := fn()
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= maxAttempts {
			return backoff.Permanent(err)
		}
		return err
	}, bo, o.notify)
}
