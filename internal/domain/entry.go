package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Direction tells whether an entry brings money in or takes it out.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// ParseDirection validates a direction string.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionIncome, DirectionExpense:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// EntryField names an editable column of an entry row.
type EntryField string

const (
	FieldDescription EntryField = "description"
	FieldAmount      EntryField = "amount"
	FieldCategoryID  EntryField = "category_id"
)

// ParseEntryField validates a field name.
func ParseEntryField(s string) (EntryField, error) {
	switch f := EntryField(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldDescription, FieldAmount, FieldCategoryID:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
	}
}

// Entry is one row of the editable ledger table as the client sees it.
//
// IsNew stays true until the first successful save that includes the entry.
// IsEdited marks a persisted entry with local changes the server has not
// confirmed yet.
type Entry struct {
	ID          string
	Direction   Direction
	CategoryID  string
	Description string
	Amount      decimal.Decimal
	IsNew       bool
	IsEdited    bool
}

// NeedsSave reports whether the entry belongs in the next upsert batch.
// New entries without a description are placeholders and never qualify.
func (e Entry) NeedsSave() bool {
	if e.IsNew {
		return e.Description != ""
	}
	return e.IsEdited
}

// Record converts the entry into its persisted shape.
func (e Entry) Record(workspaceID, periodID string) EntryRecord {
	return EntryRecord{
		ID:          e.ID,
		WorkspaceID: workspaceID,
		PeriodID:    periodID,
		Direction:   e.Direction,
		CategoryID:  e.CategoryID,
		Description: e.Description,
		Amount:      e.Amount,
	}
}

// EntryRecord is a ledger entry as stored by the persistence layer.
type EntryRecord struct {
	ID          string
	WorkspaceID string
	PeriodID    string
	Direction   Direction
	CategoryID  string
	Description string
	Amount      decimal.Decimal
}

// Entry converts a stored record back into a clean (already persisted) row.
func (r EntryRecord) Entry() Entry {
	return Entry{
		ID:          r.ID,
		Direction:   r.Direction,
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Amount:      r.Amount,
	}
}

// Category groups entries of one direction.
type Category struct {
	ID        string
	Name      string
	Direction Direction
}
