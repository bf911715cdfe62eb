package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getPeriodOverride = `-- name: GetPeriodOverride :one
SELECT period_id, opening_balance_override, dividends_released, closing_balance_override, updated_at FROM period_overrides
WHERE period_id = $1
`

func (q *Queries) GetPeriodOverride(ctx context.Context, periodID string) (PeriodOverride, error) {
	row := q.db.QueryRow(ctx, getPeriodOverride, periodID)
	var i PeriodOverride
	err := row.Scan(
		&i.PeriodID,
		&i.OpeningBalanceOverride,
		&i.DividendsReleased,
		&i.ClosingBalanceOverride,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertPeriodOverride = `-- name: UpsertPeriodOverride :exec
INSERT INTO period_overrides (period_id, opening_balance_override, dividends_released, closing_balance_override, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (period_id) DO UPDATE SET
    opening_balance_override = EXCLUDED.opening_balance_override,
    dividends_released = EXCLUDED.dividends_released,
    closing_balance_override = EXCLUDED.closing_balance_override,
    updated_at = EXCLUDED.updated_at
`

type UpsertPeriodOverrideParams struct {
	PeriodID               string             `json:"period_id"`
	OpeningBalanceOverride pgtype.Numeric     `json:"opening_balance_override"`
	DividendsReleased      bool               `json:"dividends_released"`
	ClosingBalanceOverride pgtype.Numeric     `json:"closing_balance_override"`
	UpdatedAt              pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpsertPeriodOverride(ctx context.Context, arg UpsertPeriodOverrideParams) error {
	_, err := q.db.Exec(ctx, upsertPeriodOverride,
		arg.PeriodID,
		arg.OpeningBalanceOverride,
		arg.DividendsReleased,
		arg.ClosingBalanceOverride,
		arg.UpdatedAt,
	)
	return err
}
