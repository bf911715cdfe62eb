package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const deleteLedgerEntry = `-- name: DeleteLedgerEntry :execrows
DELETE FROM ledger_entries WHERE id = $1
`

func (q *Queries) DeleteLedgerEntry(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteLedgerEntry, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listLedgerEntriesByPeriod = `-- name: ListLedgerEntriesByPeriod :many
SELECT id, workspace_id, period_id, direction, category_id, description, amount, created_at, updated_at FROM ledger_entries
WHERE period_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListLedgerEntriesByPeriod(ctx context.Context, periodID string) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntriesByPeriod, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.WorkspaceID,
			&i.PeriodID,
			&i.Direction,
			&i.CategoryID,
			&i.Description,
			&i.Amount,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertLedgerEntry = `-- name: UpsertLedgerEntry :execrows
INSERT INTO ledger_entries (id, workspace_id, period_id, direction, category_id, description, amount, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (id) DO UPDATE SET
    direction = EXCLUDED.direction,
    category_id = EXCLUDED.category_id,
    description = EXCLUDED.description,
    amount = EXCLUDED.amount,
    updated_at = EXCLUDED.updated_at
WHERE ledger_entries.period_id = EXCLUDED.period_id
`

type UpsertLedgerEntryParams struct {
	ID          string             `json:"id"`
	WorkspaceID string             `json:"workspace_id"`
	PeriodID    string             `json:"period_id"`
	Direction   string             `json:"direction"`
	CategoryID  string             `json:"category_id"`
	Description string             `json:"description"`
	Amount      pgtype.Numeric     `json:"amount"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) UpsertLedgerEntry(ctx context.Context, arg UpsertLedgerEntryParams) (int64, error) {
	result, err := q.db.Exec(ctx, upsertLedgerEntry,
		arg.ID,
		arg.WorkspaceID,
		arg.PeriodID,
		arg.Direction,
		arg.CategoryID,
		arg.Description,
		arg.Amount,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
