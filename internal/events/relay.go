package events

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pixcards/internal/domain"
	"pixcards/internal/metrics"
)

type Outbox interface {
	Pending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// Relay drains the outbox into a Publisher.
type Relay struct {
	outbox    Outbox
	pub       Publisher
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

func NewRelay(outbox Outbox, pub Publisher, interval time.Duration, logger *zap.Logger) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{outbox: outbox, pub: pub, logger: logger, interval: interval, batchSize: 50}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("Starting outbox relay", zap.Duration("interval", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopping")
			return
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("Error processing outbox batch", zap.Error(err))
			}
		}
	}
}

// Flush publishes one batch in id order and returns how many events went out. It stops at
// the first failure so events for the same order are never delivered out of order.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	pending, err := r.outbox.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending events: %w", err)
	}
	sent := 0
	for _, ev := range pending {
		msg := Message{Topic: ev.Topic, Key: ev.EventKey, Type: ev.EventType, Value: ev.Payload}
		if err := r.pub.Publish(ctx, msg); err != nil {
			metrics.OutboxFailed.Inc()
			if markErr := r.outbox.MarkFailed(ctx, ev.ID, err.Error()); markErr != nil {
				r.logger.Error("outbox relay mark failed", zap.Int64("id", ev.ID), zap.Error(markErr))
			}
			return sent, fmt.Errorf("publish event %d: %w", ev.ID, err)
		}
		if err := r.outbox.MarkPublished(ctx, ev.ID); err != nil {
			return sent, fmt.Errorf("mark event %d published: %w", ev.ID, err)
		}
		metrics.OutboxPublished.Inc()
		sent++
		r.logger.Debug("outbox event published", zap.Int64("id", ev.ID), zap.String("type", ev.EventType))
	}
	return sent, nil
}
