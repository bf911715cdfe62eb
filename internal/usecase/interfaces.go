package usecase

import (
	"context"
	"time"

	"github.com/cashclarity/ledgersync/internal/domain"
)

// EntryGateway is the remote persistence of ledger entries as seen by the
// editing client.
type EntryGateway interface {
	// UpsertEntries inserts or updates all records by id in one request.
	UpsertEntries(ctx context.Context, periodID string, records []domain.EntryRecord) error
	// DeleteEntry removes a previously persisted entry.
	DeleteEntry(ctx context.Context, id string) error
}

// PeriodOverrideGateway persists period-level overrides for the editing client.
type PeriodOverrideGateway interface {
	UpsertPeriodOverrides(ctx context.Context, periodID string, overrides domain.PeriodOverrides) error
}

// Notifier shows user-facing success and failure messages.
type Notifier interface {
	Success(msg string)
	Failure(msg string, err error)
}

// Refresher lets the presentation layer recompute server-derived aggregates.
type Refresher interface {
	Refresh(ctx context.Context)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	UpsertBatch(ctx context.Context, tx Transaction, records []domain.EntryRecord) error
	Delete(ctx context.Context, tx Transaction, id string) error
	ListByPeriod(ctx context.Context, periodID string) ([]domain.EntryRecord, error)
}

// PeriodOverrideRepository defines data access for period overrides.
type PeriodOverrideRepository interface {
	Upsert(ctx context.Context, tx Transaction, periodID string, overrides domain.PeriodOverrides) error
	// Get returns domain.PeriodOverrides{} when the period has no overrides yet.
	Get(ctx context.Context, periodID string) (domain.PeriodOverrides, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}
