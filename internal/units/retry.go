package units

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultRetryDelay = 250 * time.Millisecond

// RetryPolicy configures upstream retries. Attempts counts the first call,
// so Attempts=3 allows two retries.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// NewBackOff returns the doubling, jitter-free schedule for p, stopped early
// when ctx is done.
func (p RetryPolicy) NewBackOff(ctx context.Context) backoff.BackOffContext {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	if exp.InitialInterval <= 0 {
		exp.InitialInterval = defaultRetryDelay
	}
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	if p.MaxDelay > 0 {
		exp.MaxInterval = p.MaxDelay
	}
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}
