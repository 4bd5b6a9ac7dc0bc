package db

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a transaction is replayed after lock contention.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	// OnRetry is called before each replay with the attempt that failed.
	OnRetry func(attempt int, err error)
}

// Run executes fn until it succeeds, fails with a non contention error, or the
// attempts are exhausted. Backoff grows linearly with the attempt number.
func (p RetryPolicy) Run(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !IsLockContention(err) || attempt == attempts {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if p.Backoff > 0 {
			timer := time.NewTimer(time.Duration(attempt) * p.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return err
}
