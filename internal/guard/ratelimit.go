package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wagerhub/platform/internal/domain"
)

// RateLimiter caps bet submissions per player over a fixed window. It fails
// open: a broken Redis must never block betting, only stop throttling it.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewRateLimiter creates a fixed-window limiter. client may be nil, which
// disables limiting entirely.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window, logger: logger}
}

// Check counts this attempt against the player's window.
func (r *RateLimiter) Check(ctx context.Context, playerID string) domain.GuardResult {
	if r.client == nil || r.limit <= 0 {
		return domain.GuardResult{Allowed: true, Guard: "rate_limit"}
	}

	key := fmt.Sprintf("ratelimit:bets:%s:%d", playerID, time.Now().Unix()/int64(r.window.Seconds()))

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("rate limiter unavailable, allowing request", "error", err)
		return domain.GuardResult{Allowed: true, Guard: "rate_limit"}
	}

	if incr.Val() > int64(r.limit) {
		return domain.GuardResult{
			Allowed: false,
			Guard:   "rate_limit",
			Reason:  fmt.Sprintf("more than %d bets in %s", r.limit, r.window),
		}
	}
	return domain.GuardResult{Allowed: true, Guard: "rate_limit"}
}
