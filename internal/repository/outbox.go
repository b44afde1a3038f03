package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
)

const (
	queryInsertOutbox = `INSERT INTO outbox_events (id, aggregate_id, event_type, payload) VALUES ($1, $2, $3, $4)`

	queryFetchUnpublished = `SELECT id, aggregate_id, event_type, payload FROM outbox_events
		WHERE published_at IS NULL ORDER BY created_at LIMIT $1`

	queryMarkPublished = `UPDATE outbox_events SET published_at = now() WHERE id = $1`
)

// appendOutbox records an order event in the caller's transaction.
func appendOutbox(ctx context.Context, q dbtx, eventType, aggregateID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	if _, err := q.ExecContext(ctx, queryInsertOutbox, uuid.New(), aggregateID, eventType, body); err != nil {
		return fmt.Errorf("insert outbox event %s: %w", eventType, err)
	}
	return nil
}

func (r *Repository) FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, queryFetchUnpublished, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox events: %w", err)
	}
	defer rows.Close()

	var out []domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) MarkPublished(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, queryMarkPublished, id); err != nil {
		return fmt.Errorf("mark outbox event %s published: %w", id, err)
	}
	return nil
}
