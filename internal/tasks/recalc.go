package tasks

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// RecalcHandler recomputes and publishes odds for one market.
type RecalcHandler func(ctx context.Context, marketID uuid.UUID) error

// RecalcQueue serializes odds recalculations behind bet placement. Tasks are
// processed strictly in enqueue order by a single worker, so quotes for a
// market never interleave out of order.
type RecalcQueue struct {
	tasks   chan uuid.UUID
	handler RecalcHandler
	logger  *slog.Logger
}

// NewRecalcQueue creates a queue with the given buffer capacity.
func NewRecalcQueue(capacity int, handler RecalcHandler, logger *slog.Logger) *RecalcQueue {
	if capacity <= 0 {
		capacity = 256
	}
	return &RecalcQueue{
		tasks:   make(chan uuid.UUID, capacity),
		handler: handler,
		logger:  logger,
	}
}

// Start runs the worker until ctx is cancelled. A failed task is logged and
// dropped; the next bet on that market enqueues a fresh recalculation.
func (q *RecalcQueue) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case marketID := <-q.tasks:
				if err := q.handler(ctx, marketID); err != nil {
					q.logger.Error("odds recalculation failed",
						"market_id", marketID, "error", err)
				}
			}
		}
	}()
}

// Enqueue schedules a recalculation. Returns false when the queue is full;
// the market's odds simply refresh on the next successful enqueue.
func (q *RecalcQueue) Enqueue(marketID uuid.UUID) bool {
	select {
	case q.tasks <- marketID:
		return true
	default:
		q.logger.Warn("recalc queue full, dropping task", "market_id", marketID)
		return false
	}
}
