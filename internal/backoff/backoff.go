// Package backoff wraps cenkalti/backoff with the retry policies used for
// best-effort broker publishes.
package backoff

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// Config adjusts the retry policy built by Retry
type Config func(b backoff.BackOff) backoff.BackOff

// Permanent marks an error as not worth retrying
var Permanent = backoff.Permanent

// Exponential returns a config that starts the policy from
// backoff.NewExponentialBackOff
func Exponential() Config {
	return func(_ backoff.BackOff) backoff.BackOff {
		return backoff.NewExponentialBackOff()
	}
}

// MaxRetry returns a config that caps the number of retries
func MaxRetry(n uint64) Config {
	return func(b backoff.BackOff) backoff.BackOff {
		return backoff.WithMaxRetries(b, n)
	}
}

// Retry runs f under the configured policy until it succeeds, returns a
// Permanent error, exhausts its retries or the context is cancelled. Without
// a config it retries with the exponential policy.
func Retry(ctx context.Context, f func() error, config ...Config) error {
	var b backoff.BackOff
	for _, conf := range config {
		b = conf(b)
	}
	if len(config) == 0 {
		b = Exponential()(b)
	}
	return backoff.Retry(f, backoff.WithContext(b, ctx))
}
