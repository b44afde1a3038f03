package publisher

import (
	"context"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type OutboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
}

// MessageWriter is the part of *kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller relays order events committed to the outbox table to Kafka.
// Delivery is at least once; consumers dedupe on the event_id header.
type OutboxPoller struct {
	tick      time.Duration
	batchSize int
	store     OutboxStore
	writer    MessageWriter
	metrics   *metrics.Metrics
}

func NewOutboxPoller(store OutboxStore, m *metrics.Metrics, topic string, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return newOutboxPoller(store, w, m)
}

func newOutboxPoller(store OutboxStore, w MessageWriter, m *metrics.Metrics) *OutboxPoller {
	if m == nil {
		m = metrics.NewNop()
	}
	return &OutboxPoller{
		tick:      time.Second,
		batchSize: 100,
		store:     store,
		writer:    w,
		metrics:   m,
	}
}

// Run polls until ctx is cancelled, then closes the writer.
func (p *OutboxPoller) Run(ctx context.Context) {
	log := logger.FromContext(ctx).With(zap.String("component", "outbox_poller"))
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	defer func() {
		if err := p.writer.Close(); err != nil {
			log.Warn("outbox_writer_close_failed", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx, log)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context, log *zap.Logger) {
	events, err := p.store.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		log.Error("outbox_fetch_failed", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.metrics.OutboxPublished.WithLabelValues("failed").Inc()
			log.Error("outbox_publish_failed", zap.String("event_id", event.ID), zap.Error(err))
			// keep order per aggregate: later events wait for the next tick
			return
		}
		if err := p.store.MarkPublished(ctx, event.ID); err != nil {
			log.Error("outbox_mark_failed", zap.String("event_id", event.ID), zap.Error(err))
			return
		}
		p.metrics.OutboxPublished.WithLabelValues("published").Inc()
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event domain.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps one order's events on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
