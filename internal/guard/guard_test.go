package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdempotencyClaimOncePerKey(t *testing.T) {
	s := NewIdempotencyStore(time.Minute)

	assert.True(t, s.Claim("req-1"))
	assert.False(t, s.Claim("req-1"))
	assert.True(t, s.Claim("req-2"))
}

func TestIdempotencyEmptyKeyAlwaysClaims(t *testing.T) {
	s := NewIdempotencyStore(time.Minute)

	assert.True(t, s.Claim(""))
	assert.True(t, s.Claim(""))
}

func TestIdempotencyExpiredKeyReclaims(t *testing.T) {
	s := NewIdempotencyStore(10 * time.Millisecond)

	assert.True(t, s.Claim("req-1"))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, s.Claim("req-1"))
}

func TestRateLimiterNilClientAllows(t *testing.T) {
	r := NewRateLimiter(nil, 5, time.Minute, nil)

	res := r.Check(context.Background(), "player-1")
	assert.True(t, res.Allowed)
}
