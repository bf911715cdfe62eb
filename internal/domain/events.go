package domain

import "time"

// Outbox event types. Every ledger write emits exactly one of these in the
// same transaction.
const (
	EventTypeEntriesUpserted   = "period.entries_upserted"
	EventTypeEntryDeleted      = "period.entry_deleted"
	EventTypeOverridesUpserted = "period.overrides_upserted"
)

// Aggregate types
const (
	AggregateTypePeriod = "period"
	AggregateTypeEntry  = "entry"
)

// OutboxEvent is a pending notification about a ledger change.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
