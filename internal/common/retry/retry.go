// Package retry implements a bounded retry loop shared by the outbound calls
// that are safe to repeat.
package retry

import (
	"context"
	"time"
)

// Policy describes how an operation is retried. The zero value performs a
// single attempt.
type Policy struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
	// Retryable decides whether a failed attempt should be repeated. A nil
	// predicate retries every error.
	Retryable func(error) bool
}

// Do runs op until it succeeds, the policy's attempts are spent, the error is
// not retryable, or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
	}
	return err
}
