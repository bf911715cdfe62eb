package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cashclarity/ledgersync/internal/domain"
	"github.com/cashclarity/ledgersync/internal/infrastructure/postgres/generated"
	"github.com/cashclarity/ledgersync/internal/usecase"
)

// PeriodOverrideRepository implements usecase.PeriodOverrideRepository.
type PeriodOverrideRepository struct {
	queries *generated.Queries
}

// NewPeriodOverrideRepository creates a new PeriodOverrideRepository.
func NewPeriodOverrideRepository(db generated.DBTX) *PeriodOverrideRepository {
	return &PeriodOverrideRepository{
		queries: generated.New(db),
	}
}

// Upsert replaces the overrides of a period within a transaction.
func (r *PeriodOverrideRepository) Upsert(ctx context.Context, tx usecase.Transaction, periodID string, overrides domain.PeriodOverrides) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	return queries.UpsertPeriodOverride(ctx, generated.UpsertPeriodOverrideParams{
		PeriodID:               periodID,
		OpeningBalanceOverride: optionalToNumeric(overrides.OpeningBalanceOverride),
		DividendsReleased:      overrides.DividendsReleased,
		ClosingBalanceOverride: optionalToNumeric(overrides.ClosingBalanceOverride),
		UpdatedAt:              timeToPgTimestamptz(time.Now().UTC()),
	})
}

// Get returns the overrides of a period. A period without a row has no overrides.
func (r *PeriodOverrideRepository) Get(ctx context.Context, periodID string) (domain.PeriodOverrides, error) {
	row, err := r.queries.GetPeriodOverride(ctx, periodID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PeriodOverrides{}, nil
		}
		return domain.PeriodOverrides{}, err
	}

	return domain.PeriodOverrides{
		OpeningBalanceOverride: numericToOptional(row.OpeningBalanceOverride),
		DividendsReleased:      row.DividendsReleased,
		ClosingBalanceOverride: numericToOptional(row.ClosingBalanceOverride),
	}, nil
}
