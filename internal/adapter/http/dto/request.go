package dto

import (
	"github.com/shopspring/decimal"

	"github.com/cashclarity/ledgersync/internal/domain"
)

// EntryItem is one row in a batch upsert request.
type EntryItem struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspace_id"`
	Direction   string          `json:"direction"`
	CategoryID  string          `json:"category_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// BatchUpsertEntriesRequest represents a request to create or update entries of one period.
type BatchUpsertEntriesRequest struct {
	Entries []EntryItem `json:"entries"`
}

// ToRecords converts the request into entry records of periodID.
func (r *BatchUpsertEntriesRequest) ToRecords(periodID string) []domain.EntryRecord {
	records := make([]domain.EntryRecord, len(r.Entries))
	for i, item := range r.Entries {
		records[i] = domain.EntryRecord{
			ID:          item.ID,
			WorkspaceID: item.WorkspaceID,
			PeriodID:    periodID,
			Direction:   domain.Direction(item.Direction),
			CategoryID:  item.CategoryID,
			Description: item.Description,
			Amount:      item.Amount,
		}
	}
	return records
}

// BatchUpsertEntriesRequestFromRecords builds the request body for records.
func BatchUpsertEntriesRequestFromRecords(records []domain.EntryRecord) BatchUpsertEntriesRequest {
	req := BatchUpsertEntriesRequest{Entries: make([]EntryItem, len(records))}
	for i, rec := range records {
		req.Entries[i] = EntryItem{
			ID:          rec.ID,
			WorkspaceID: rec.WorkspaceID,
			Direction:   string(rec.Direction),
			CategoryID:  rec.CategoryID,
			Description: rec.Description,
			Amount:      rec.Amount,
		}
	}
	return req
}

// PeriodOverridesRequest represents the override record of a period.
// A null balance means no override.
type PeriodOverridesRequest struct {
	OpeningBalanceOverride *decimal.Decimal `json:"opening_balance_override"`
	DividendsReleased      bool             `json:"dividends_released"`
	ClosingBalanceOverride *decimal.Decimal `json:"closing_balance_override"`
}

// ToDomain converts the request into domain overrides.
func (r *PeriodOverridesRequest) ToDomain() domain.PeriodOverrides {
	return domain.PeriodOverrides{
		OpeningBalanceOverride: r.OpeningBalanceOverride,
		DividendsReleased:      r.DividendsReleased,
		ClosingBalanceOverride: r.ClosingBalanceOverride,
	}
}
