package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cashclarity/ledgersync/internal/domain"
	"github.com/cashclarity/ledgersync/internal/infrastructure/postgres/generated"
	"github.com/cashclarity/ledgersync/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository. db is usually a *pgxpool.Pool.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{
		queries: generated.New(db),
	}
}

// UpsertBatch inserts or updates every record by id within a transaction.
// An id that already exists in another period fails the whole batch.
func (r *EntryRepository) UpsertBatch(ctx context.Context, tx usecase.Transaction, records []domain.EntryRecord) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, rec := range records {
		affected, err := queries.UpsertLedgerEntry(ctx, generated.UpsertLedgerEntryParams{
			ID:          rec.ID,
			WorkspaceID: rec.WorkspaceID,
			PeriodID:    rec.PeriodID,
			Direction:   string(rec.Direction),
			CategoryID:  rec.CategoryID,
			Description: rec.Description,
			Amount:      decimalToNumeric(rec.Amount),
			CreatedAt:   timeToPgTimestamptz(now),
		})
		if err != nil {
			return fmt.Errorf("upsert entry %s: %w", rec.ID, err)
		}

		if affected == 0 {
			return fmt.Errorf("%w: entry %s exists in another period", domain.ErrPeriodMismatch, rec.ID)
		}
	}

	return nil
}

// Delete removes an entry within a transaction.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	affected, err := queries.DeleteLedgerEntry(ctx, id)
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// ListByPeriod returns the entries of a period in creation order.
func (r *EntryRepository) ListByPeriod(ctx context.Context, periodID string) ([]domain.EntryRecord, error) {
	rows, err := r.queries.ListLedgerEntriesByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	records := make([]domain.EntryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, rowToEntryRecord(row))
	}

	return records, nil
}

func rowToEntryRecord(row generated.LedgerEntry) domain.EntryRecord {
	return domain.EntryRecord{
		ID:          row.ID,
		WorkspaceID: row.WorkspaceID,
		PeriodID:    row.PeriodID,
		Direction:   domain.Direction(row.Direction),
		CategoryID:  row.CategoryID,
		Description: row.Description,
		Amount:      numericToDecimal(row.Amount),
	}
}
