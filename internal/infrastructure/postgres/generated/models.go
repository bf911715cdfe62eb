package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type LedgerEntry struct {
	ID          string             `json:"id"`
	WorkspaceID string             `json:"workspace_id"`
	PeriodID    string             `json:"period_id"`
	Direction   string             `json:"direction"`
	CategoryID  string             `json:"category_id"`
	Description string             `json:"description"`
	Amount      pgtype.Numeric     `json:"amount"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}

type PeriodOverride struct {
	PeriodID               string             `json:"period_id"`
	OpeningBalanceOverride pgtype.Numeric     `json:"opening_balance_override"`
	DividendsReleased      bool               `json:"dividends_released"`
	ClosingBalanceOverride pgtype.Numeric     `json:"closing_balance_override"`
	UpdatedAt              pgtype.Timestamptz `json:"updated_at"`
}
