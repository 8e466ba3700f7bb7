package guard

import (
	"context"
	"sync"
	"time"
)

// IdempotencyStore remembers request keys so a retried submission with the
// same Idempotency-Key header is rejected instead of double-placed.
type IdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewIdempotencyStore creates a store with the given key lifetime.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// Claim records the key. Returns false when the key was already claimed
// within its lifetime. An empty key always claims successfully.
func (s *IdempotencyStore) Claim(key string) bool {
	if key == "" {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if at, ok := s.seen[key]; ok && now.Sub(at) < s.ttl {
		return false
	}
	s.seen[key] = now
	return true
}

// Sweep drops expired keys. Run periodically from a background goroutine.
func (s *IdempotencyStore) Sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			cutoff := time.Now().Add(-s.ttl)
			for k, at := range s.seen {
				if at.Before(cutoff) {
					delete(s.seen, k)
				}
			}
			s.mu.Unlock()
		}
	}
}
