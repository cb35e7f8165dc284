package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"pixcards/internal/domain"
)

// OutboxRepo stores events written alongside ledger changes until the relay publishes them.
type OutboxRepo struct{ db *sqlx.DB }

func NewOutboxRepo(db *sqlx.DB) *OutboxRepo { return &OutboxRepo{db: db} }

func (r *OutboxRepo) Add(ctx context.Context, topic, key, eventType string, payload []byte) error {
	_, err := execx(ctx, r.db, `
		INSERT INTO outbox_events(topic, event_key, event_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, topic, key, eventType, string(payload), NowStamp())
	return err
}

// Pending returns unpublished events in insertion order.
func (r *OutboxRepo) Pending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.OutboxEvent{}
	err := selectx(ctx, r.db, &out, `
		SELECT id, topic, event_key, event_type, payload, attempts,
		       COALESCE(last_error, '') AS last_error, created_at, COALESCE(published_at, '') AS published_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT ?
	`, limit)
	return out, err
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	_, err := execx(ctx, r.db, `UPDATE outbox_events SET published_at = ? WHERE id = ?`, NowStamp(), id)
	return err
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := execx(ctx, r.db, `
		UPDATE outbox_events SET attempts = attempts + 1, last_error = ? WHERE id = ?
	`, reason, id)
	return err
}

// ByKey lists every event for an aggregate, oldest first.
func (r *OutboxRepo) ByKey(ctx context.Context, key string) ([]domain.OutboxEvent, error) {
	out := []domain.OutboxEvent{}
	err := selectx(ctx, r.db, &out, `
		SELECT id, topic, event_key, event_type, payload, attempts,
		       COALESCE(last_error, '') AS last_error, created_at, COALESCE(published_at, '') AS published_at
		FROM outbox_events
		WHERE event_key = ?
		ORDER BY id
	`, key)
	return out, err
}
