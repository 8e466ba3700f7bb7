package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wagerhub/platform/internal/metrics"
	"github.com/wagerhub/platform/internal/repository"
)

// TopicPrefix namespaces every published topic, e.g. "wagerhub.payout.due".
const TopicPrefix = "wagerhub."

// OutboxPoller drains the event_outbox table into Kafka. Events commit with
// the state change that produced them, so the broker sees every change at
// least once even across crashes.
type OutboxPoller struct {
	pool      *pgxpool.Pool
	outbox    repository.OutboxRepository
	producer  *KafkaProducer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates an outbox poller.
func NewOutboxPoller(pool *pgxpool.Pool, outbox repository.OutboxRepository, producer *KafkaProducer, interval time.Duration, logger *slog.Logger) *OutboxPoller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &OutboxPoller{
		pool:      pool,
		outbox:    outbox,
		producer:  producer,
		logger:    logger,
		interval:  interval,
		batchSize: 100,
	}
}

// Start begins polling in a goroutine. Stops when ctx is cancelled.
func (p *OutboxPoller) Start(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("outbox poller stopped")
				return
			case <-ticker.C:
				if err := p.poll(ctx); err != nil {
					p.logger.Error("outbox poll error", "error", err)
				}
			}
		}
	}()
}

func (p *OutboxPoller) poll(ctx context.Context) error {
	rows, err := p.outbox.FetchUnpublished(ctx, p.pool, p.batchSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	var published []int64
	for _, row := range rows {
		topic := TopicPrefix + string(row.EventType)
		key := []byte(row.PartitionKey)

		msg, _ := json.Marshal(map[string]interface{}{
			"event_id":       row.EventID,
			"aggregate_type": row.AggregateType,
			"aggregate_id":   row.AggregateID,
			"event_type":     row.EventType,
			"payload":        row.Payload,
			"occurred_at":    row.OccurredAt,
		})

		if err := p.producer.Publish(ctx, topic, key, msg); err != nil {
			p.logger.Error("kafka publish failed", "event_id", row.EventID, "error", err)
			// Stop at the first failure so commit order is preserved.
			break
		}
		published = append(published, row.SeqID)
		metrics.OutboxPublished.WithLabelValues(string(row.EventType)).Inc()
	}

	if err := p.outbox.MarkPublished(ctx, p.pool, published); err != nil {
		return err
	}
	if len(published) > 0 {
		p.logger.Debug("outbox poll complete", "published", len(published))
	}
	return nil
}
