package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// maxConflictAttempts bounds the optimistic retry loop: after this many
	// version conflicts the operation fails with ErrConcurrencyExhausted
	// instead of spinning.
	maxConflictAttempts = 3

	// maxIBANAttempts bounds retries when a freshly generated IBAN collides
	// with an existing row.
	maxIBANAttempts = 3
)

// conflictBackoff returns the pause schedule used between optimistic
// retry attempts.
func conflictBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 0

	return b
}

// pause sleeps for the next backoff interval, or returns early when the
// context is cancelled.
func pause(ctx context.Context, b backoff.BackOff) error {
	d := b.NextBackOff()
	if d == backoff.Stop {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
