package retryx

import (
	"context"
	"time"
)

type retryOptions struct {
	ctx             context.Context
	retryCount      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	notify          func(err error, next time.Duration)
}

type RetryOption func(*retryOptions)

func WithRetryCount(count int) RetryOption {
	return func(ro *retryOptions) {
		ro.retryCount = count
	}
}

func WithInterval(interval time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.initialInterval = interval
	}
}

func WithMaxInterval(interval time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.maxInterval = interval
	}
}

func WithMaxElapsedTime(elapsed time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.maxElapsedTime = elapsed
	}
}

// WithContext stops retrying as soon as ctx is done.
func WithContext(ctx context.Context) RetryOption {
	return func(ro *retryOptions) {
		ro.ctx = ctx
	}
}

// WithNotify registers a callback invoked after every failed attempt that will be retried.
func WithNotify(notify func(err error, next time.Duration)) RetryOption {
	return func(ro *retryOptions) {
		ro.notify = notify
	}
}

func newRetryOptions(opts []RetryOption) *retryOptions {
	o := &retryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *retryOptions) intervalOr(fallback time.Duration) time.Duration {
	if o.initialInterval > 0 {
		return o.initialInterval
	}
	return fallback
}
