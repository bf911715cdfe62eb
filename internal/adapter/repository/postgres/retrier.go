package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SQLSTATE codes a batch upsert can hit when two saves for the same period race.
const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
)

// Retrier re-runs a whole ledger transaction when Postgres aborts it for
// concurrency reasons. Any other error is returned on the first attempt.
type Retrier struct {
	attempts uint64 // retries after the first try
	initial  time.Duration
	ceiling  time.Duration
	budget   time.Duration
	logger   zerolog.Logger
}

// RetrierOption customises a Retrier.
type RetrierOption func(*Retrier)

func WithRetryLogger(logger zerolog.Logger) RetrierOption {
	return func(r *Retrier) { r.logger = logger }
}

// WithRetryBackoff overrides the retry count and interval bounds.
func WithRetryBackoff(attempts uint64, initial, ceiling, budget time.Duration) RetrierOption {
	return func(r *Retrier) {
		r.attempts = attempts
		r.initial = initial
		r.ceiling = ceiling
		r.budget = budget
	}
}

func NewRetrier(opts ...RetrierOption) *Retrier {
	r := &Retrier{
		attempts: 3,
		initial:  50 * time.Millisecond,
		ceiling:  time.Second,
		budget:   10 * time.Second,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initial
	policy.MaxInterval = r.ceiling
	policy.MaxElapsedTime = r.budget

	attempt := 0
	notify := func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("ledger transaction aborted by postgres, retrying")
	}

	return backoff.RetryNotify(func() error {
		attempt++
		err := operation()
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, r.attempts), ctx), notify)
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrSerializationFailure, pgErrDeadlock, pgErrLockNotAvailable:
		return true
	default:
		return false
	}
}
