package dto

import (
	"github.com/shopspring/decimal"

	"github.com/cashclarity/ledgersync/internal/domain"
)

// EntryResponse represents a stored entry in API responses.
type EntryResponse struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	PeriodID    string `json:"period_id"`
	Direction   string `json:"direction"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// EntryFromDomain converts a domain record to a response.
func EntryFromDomain(r domain.EntryRecord) EntryResponse {
	return EntryResponse{
		ID:          r.ID,
		WorkspaceID: r.WorkspaceID,
		PeriodID:    r.PeriodID,
		Direction:   string(r.Direction),
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Amount:      r.Amount.String(),
	}
}

// ToDomain converts the response back into a record.
func (e EntryResponse) ToDomain() (domain.EntryRecord, error) {
	amount, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return domain.EntryRecord{}, err
	}

	return domain.EntryRecord{
		ID:          e.ID,
		WorkspaceID: e.WorkspaceID,
		PeriodID:    e.PeriodID,
		Direction:   domain.Direction(e.Direction),
		CategoryID:  e.CategoryID,
		Description: e.Description,
		Amount:      amount,
	}, nil
}

// ListEntriesResponse wraps the entries of a period.
type ListEntriesResponse struct {
	PeriodID string          `json:"period_id"`
	Entries  []EntryResponse `json:"entries"`
}

// EntriesFromDomain converts records to a list response.
func EntriesFromDomain(periodID string, records []domain.EntryRecord) ListEntriesResponse {
	resp := ListEntriesResponse{PeriodID: periodID, Entries: make([]EntryResponse, len(records))}
	for i, r := range records {
		resp.Entries[i] = EntryFromDomain(r)
	}
	return resp
}

// BatchUpsertEntriesResponse reports how many entries were saved.
type BatchUpsertEntriesResponse struct {
	PeriodID string `json:"period_id"`
	Saved    int    `json:"saved"`
}

// PeriodOverridesResponse represents the stored overrides of a period.
type PeriodOverridesResponse struct {
	PeriodID               string  `json:"period_id"`
	OpeningBalanceOverride *string `json:"opening_balance_override"`
	DividendsReleased      bool    `json:"dividends_released"`
	ClosingBalanceOverride *string `json:"closing_balance_override"`
}

// PeriodOverridesFromDomain converts domain overrides to a response.
func PeriodOverridesFromDomain(periodID string, o domain.PeriodOverrides) PeriodOverridesResponse {
	return PeriodOverridesResponse{
		PeriodID:               periodID,
		OpeningBalanceOverride: decimalString(o.OpeningBalanceOverride),
		DividendsReleased:      o.DividendsReleased,
		ClosingBalanceOverride: decimalString(o.ClosingBalanceOverride),
	}
}

// ToDomain converts the response back into domain overrides.
func (p PeriodOverridesResponse) ToDomain() (domain.PeriodOverrides, error) {
	opening, err := parseDecimal(p.OpeningBalanceOverride)
	if err != nil {
		return domain.PeriodOverrides{}, err
	}

	closing, err := parseDecimal(p.ClosingBalanceOverride)
	if err != nil {
		return domain.PeriodOverrides{}, err
	}

	return domain.PeriodOverrides{
		OpeningBalanceOverride: opening,
		DividendsReleased:      p.DividendsReleased,
		ClosingBalanceOverride: closing,
	}, nil
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
