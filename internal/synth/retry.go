package synth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds the exponential backoff around one synthesis call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy waits 3s then 6s between the three attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 3 * time.Second}
}

// WithRetry runs op with exponential backoff. Non-retryable vendor
// errors (bad credentials) fail fast; transient, quota, and
// empty-response failures are attempted again. After exhaustion the
// last error is returned tagged with the batch index so the caller can
// report which batch sank the job.
func WithRetry(ctx context.Context, policy RetryPolicy, batchIndex int, op func(context.Context) (Result, error)) (Result, error) {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = policy.BaseDelay * 8

	res, err := backoff.Retry(ctx, func() (Result, error) {
		r, err := op(ctx)
		if err != nil {
			var ve *VendorError
			if errors.As(err, &ve) && !ve.Retryable() {
				return Result{}, backoff.Permanent(err)
			}
			return Result{}, err
		}
		return r, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(policy.MaxAttempts)))
	if err != nil {
		return Result{}, fmt.Errorf("batch %d: %w", batchIndex, err)
	}
	return res, nil
}
