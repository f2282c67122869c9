package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry policy defaults for the semantic service. The strategy yields zero
// candidates once the attempt budget is exhausted, so the cap stays small.
const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultCallTimeout     = 30 * time.Second
)

// RetryOptions configure the retry decorator.
type RetryOptions struct {
	// MaxAttempts is the total number of tries, including the first.
	// Zero uses DefaultMaxAttempts.
	MaxAttempts int
	// InitialInterval seeds the exponential backoff. Zero uses
	// DefaultInitialInterval.
	InitialInterval time.Duration
	// CallTimeout bounds each individual attempt. Zero uses
	// DefaultCallTimeout.
	CallTimeout time.Duration
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}

	if o.InitialInterval <= 0 {
		o.InitialInterval = DefaultInitialInterval
	}

	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}

	return o
}

// WithRetry wraps a Proposer with per-call timeouts and exponential backoff
// on transient failures. Malformed responses are not retried: the service
// answered, it just answered badly. Cancellation stops further attempts.
func WithRetry(inner Proposer, opts RetryOptions) Proposer {
	opts = opts.withDefaults()

	return ProposerFunc(func(ctx context.Context, batch Batch) (Proposal, error) {
		var proposal Proposal

		operation := func() error {
			attemptCtx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
			defer cancel()

			result, err := inner.ProposeGroups(attemptCtx, batch)
			if err != nil {
				if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrEmptyBatch) {
					return backoff.Permanent(err)
				}

				return err
			}

			proposal = result

			return nil
		}

		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = opts.InitialInterval

		// MaxAttempts includes the first try; WithMaxRetries counts retries.
		bounded := backoff.WithMaxRetries(policy, uint64(opts.MaxAttempts-1))

		err := backoff.Retry(operation, backoff.WithContext(bounded, ctx))
		if err != nil {
			return Proposal{}, err
		}

		return proposal, nil
	})
}
