package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slot-booking/internal/data/repository"
)

type retryPolicy struct {
	retries int
	backoff time.Duration
}

// withLockRetry reruns fn while it fails with repository.ErrLockNotAvailable, waiting
// backoff*attempt between runs. Once retries are exhausted the error is reported as ErrLockTimeout.
func withLockRetry(ctx context.Context, p retryPolicy, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, repository.ErrLockNotAvailable) {
			return err
		}
		if attempt > p.retries {
			return fmt.Errorf("%w after %d attempts: %w", ErrLockTimeout, attempt, err)
		}

		t := time.NewTimer(p.backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
