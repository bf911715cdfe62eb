package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cashclarity/ledgersync/internal/domain"
	"github.com/cashclarity/ledgersync/internal/infrastructure/postgres/generated"
	"github.com/cashclarity/ledgersync/internal/usecase"
)

// maxOutboxBatch caps a single relay poll.
const maxOutboxBatch = 500

// OutboxRepository stores ledger change events next to the writes that
// produced them, for the relay to publish later.
type OutboxRepository struct {
	queries *generated.Queries
}

func NewOutboxRepository(db generated.DBTX) *OutboxRepository {
	return &OutboxRepository{queries: generated.New(db)}
}

// Create records event inside tx. It becomes visible to the relay only when tx commits.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	payload := []byte("{}")
	if len(event.Payload) > 0 {
		if payload, err = json.Marshal(event.Payload); err != nil {
			return fmt.Errorf("encode %s payload: %w", event.EventType, err)
		}
	}

	if _, err := queries.CreateOutboxEvent(ctx, generated.CreateOutboxEventParams{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       payload,
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
		Published:     event.Published,
	}); err != nil {
		return fmt.Errorf("insert outbox event %s: %w", event.ID, err)
	}

	return nil
}

// GetUnpublished returns up to limit pending events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if limit <= 0 || limit > maxOutboxBatch {
		limit = maxOutboxBatch
	}

	rows, err := r.queries.GetUnpublishedEvents(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list unpublished events: %w", err)
	}

	events := make([]*domain.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		event, err := outboxEventFromRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	err := r.queries.MarkEventPublished(ctx, generated.MarkEventPublishedParams{
		ID:          id,
		PublishedAt: timeToPgTimestamptz(publishedAt),
	})
	if err != nil {
		return fmt.Errorf("mark event %s published: %w", id, err)
	}
	return nil
}

func outboxEventFromRow(row generated.OutboxEvent) (*domain.OutboxEvent, error) {
	event := &domain.OutboxEvent{
		ID:            row.ID,
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		EventType:     row.EventType,
		CreatedAt:     row.CreatedAt.Time,
		Published:     row.Published,
	}

	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &event.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of event %s: %w", row.ID, err)
		}
	}

	if row.PublishedAt.Valid {
		at := row.PublishedAt.Time
		event.PublishedAt = &at
	}

	return event, nil
}
