package engagementservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sushihentaime/inkwell/internal/common"
	"golang.org/x/exp/rand"
)

const retryBaseDelay = 10 * time.Millisecond

// retryable reports whether a failed attempt lost a race and can be run again.
func retryable(err error) bool {
	return errors.Is(err, errConflict) || common.RetryableTxError(err)
}

// backoff returns the delay before retry number attempt (0 based), exponential with jitter.
func backoff(attempt int) time.Duration {
	d := retryBaseDelay << uint(attempt)
	return d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
}

// retryTx runs fn until it succeeds, fails with a non retryable error, or maxRetries retries are used up.
// onRetry is called before each retry.
func retryTx(ctx context.Context, maxRetries int, onRetry func(attempt int, err error), fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !retryable(err) {
			return err
		}

		if attempt >= maxRetries {
			break
		}

		if onRetry != nil {
			onRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}

	return fmt.Errorf("transaction failed after %d retries: %w", maxRetries, err)
}
