package usecase

import "time"

// Sheet timing.
const (
	// DefaultQuietPeriod is the pause after the last edit before an automatic save.
	DefaultQuietPeriod = 1500 * time.Millisecond
	DefaultSaveTimeout = 10 * time.Second
)

// Persistence API limits.
const (
	// DefaultTransactionTimeout bounds one ledger write, outbox insert included.
	DefaultTransactionTimeout = 10 * time.Second
	// IdempotencyKeyTTL is how long a replayable response is kept.
	IdempotencyKeyTTL = 24 * time.Hour
)
