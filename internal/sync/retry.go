package sync

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/colonyops/relay/internal/core/logging"
)

// Retrier wraps a network operation with bounded exponential backoff. The
// delay before attempt i (0-indexed, i >= 1) is baseDelay * 2^(i-1). After
// the final attempt's failure the last error is surfaced to the caller, which
// routes the operation to the offline outbox rather than propagating further.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	metrics     *Metrics
	log         zerolog.Logger
}

// NewRetrier creates a retrier. maxAttempts below 1 is treated as 1.
func NewRetrier(maxAttempts int, baseDelay time.Duration, metrics *Metrics) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		metrics:     metrics,
		log:         logging.Component("retry"),
	}
}

// Do runs op up to maxAttempts times. Every retry increments the process-wide
// retry counter; that counter is observability only.
func (r *Retrier) Do(ctx context.Context, name string, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.baseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = 5 * time.Minute
	b.MaxElapsedTime = 0 // attempts are bounded by count, not wall clock

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.maxAttempts-1)), ctx)

	return backoff.RetryNotify(
		func() error { return op(ctx) },
		policy,
		func(err error, next time.Duration) {
			r.metrics.Retries.Inc()
			r.log.Debug().Err(err).Str("op", name).Dur("backoff", next).Msg("attempt failed, retrying")
		},
	)
}
