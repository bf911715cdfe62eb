package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cashclarity/ledgersync/internal/domain"
	"github.com/cashclarity/ledgersync/internal/infrastructure/metrics"
)

// LedgerUseCase is the server side of the sheet: it persists entry batches,
// deletions and period overrides, and emits an outbox event for each write.
type LedgerUseCase struct {
	txManager    TransactionManager
	entryRepo    EntryRepository
	overrideRepo PeriodOverrideRepository
	outboxRepo   OutboxRepository
	retrier      Retrier
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase. retrier and metrics may be nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	entryRepo EntryRepository,
	overrideRepo PeriodOverrideRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:    txManager,
		entryRepo:    entryRepo,
		overrideRepo: overrideRepo,
		outboxRepo:   outboxRepo,
		retrier:      retrier,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// UpsertEntries inserts or updates every record by id in one transaction.
func (uc *LedgerUseCase) UpsertEntries(ctx context.Context, periodID string, records []domain.EntryRecord) error {
	if err := domain.ValidatePeriodID(periodID); err != nil {
		return err
	}

	if len(records) > domain.MaxBatchSize {
		return fmt.Errorf("%w: %d records, max %d", domain.ErrBatchTooLarge, len(records), domain.MaxBatchSize)
	}

	ids := make([]string, len(records))
	for i, r := range records {
		if err := domain.ValidateEntryRecord(r, periodID); err != nil {
			return err
		}
		ids[i] = r.ID
	}

	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	err := uc.inTransaction(ctx, func(txCtx context.Context, tx Transaction) error {
		if err := uc.entryRepo.UpsertBatch(txCtx, tx, records); err != nil {
			return err
		}

		return uc.emit(txCtx, tx, periodID, domain.AggregateTypePeriod, domain.EventTypeEntriesUpserted, map[string]any{
			"period_id": periodID,
			"entry_ids": ids,
		})
	})
	uc.metrics.ObserveOperation("upsert_entries", err, time.Since(start))

	return err
}

// DeleteEntry removes a persisted entry. It returns domain.ErrEntryNotFound
// when no entry has that id.
func (uc *LedgerUseCase) DeleteEntry(ctx context.Context, id string) error {
	if err := domain.ValidateEntryID(id); err != nil {
		return err
	}

	start := time.Now()
	err := uc.inTransaction(ctx, func(txCtx context.Context, tx Transaction) error {
		if err := uc.entryRepo.Delete(txCtx, tx, id); err != nil {
			return err
		}

		return uc.emit(txCtx, tx, id, domain.AggregateTypeEntry, domain.EventTypeEntryDeleted, map[string]any{
			"entry_id": id,
		})
	})
	uc.metrics.ObserveOperation("delete_entry", err, time.Since(start))

	return err
}

// UpsertPeriodOverrides replaces the overrides of a period.
func (uc *LedgerUseCase) UpsertPeriodOverrides(ctx context.Context, periodID string, overrides domain.PeriodOverrides) error {
	if err := domain.ValidatePeriodID(periodID); err != nil {
		return err
	}

	payload := map[string]any{
		"period_id":                periodID,
		"opening_balance_override": nil,
		"dividends_released":       overrides.DividendsReleased,
		"closing_balance_override": nil,
	}
	if overrides.OpeningBalanceOverride != nil {
		payload["opening_balance_override"] = overrides.OpeningBalanceOverride.String()
	}
	if overrides.ClosingBalanceOverride != nil {
		payload["closing_balance_override"] = overrides.ClosingBalanceOverride.String()
	}

	start := time.Now()
	err := uc.inTransaction(ctx, func(txCtx context.Context, tx Transaction) error {
		if err := uc.overrideRepo.Upsert(txCtx, tx, periodID, overrides); err != nil {
			return err
		}

		return uc.emit(txCtx, tx, periodID, domain.AggregateTypePeriod, domain.EventTypeOverridesUpserted, payload)
	})
	uc.metrics.ObserveOperation("upsert_overrides", err, time.Since(start))

	return err
}

// ListEntries returns the persisted entries of a period.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, periodID string) ([]domain.EntryRecord, error) {
	if err := domain.ValidatePeriodID(periodID); err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := uc.entryRepo.ListByPeriod(ctx, periodID)
	uc.metrics.ObserveOperation("list_entries", err, time.Since(start))

	return records, err
}

// GetPeriodOverrides returns the overrides of a period, empty when none were saved.
func (uc *LedgerUseCase) GetPeriodOverrides(ctx context.Context, periodID string) (domain.PeriodOverrides, error) {
	if err := domain.ValidatePeriodID(periodID); err != nil {
		return domain.PeriodOverrides{}, err
	}

	start := time.Now()
	overrides, err := uc.overrideRepo.Get(ctx, periodID)
	uc.metrics.ObserveOperation("get_overrides", err, time.Since(start))

	return overrides, err
}

// inTransaction runs fn in a fresh transaction, retried as a whole on
// transient storage errors.
func (uc *LedgerUseCase) inTransaction(ctx context.Context, fn func(context.Context, Transaction) error) error {
	run := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if uc.retrier == nil {
		return run()
	}

	return uc.retrier.Retry(ctx, run)
}

func (uc *LedgerUseCase) emit(ctx context.Context, tx Transaction, aggregateID, aggregateType, eventType string, payload map[string]any) error {
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		Published:     false,
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}
