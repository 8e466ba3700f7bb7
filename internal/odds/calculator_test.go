package odds

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagerhub/platform/internal/domain"
)

func TestNetPool(t *testing.T) {
	// pool 1000.00, no seed, 5% fee -> 950.00
	assert.InDelta(t, 95000, NetPool(100000, 0, 0.05), 0.001)
	// seed is added before the fee
	assert.InDelta(t, 114000, NetPool(100000, 20000, 0.05), 0.001)
	// zero fee keeps the full pool
	assert.InDelta(t, 100000, NetPool(100000, 0, 0), 0.001)
}

func TestCompute_Parimutuel(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := Snapshot{Type: domain.MarketParimutuel, TotalPoolMinor: 100000, Fee: 0.05}
	quotes := Compute(s, []OutcomeState{
		{ID: a, TotalBetsMinor: 40000},
		{ID: b, TotalBetsMinor: 60000},
	})
	require.Len(t, quotes, 2)
	// netPool 95000 / 40000 = 2.375
	assert.InDelta(t, 2.375, quotes[0].Odds, 1e-9)
	assert.False(t, quotes[0].NoBets)
	// 95000 / 60000 would be 1.5833...
	assert.InDelta(t, 95000.0/60000.0, quotes[1].Odds, 1e-9)
}

func TestCompute_ParimutuelNoBetsYet(t *testing.T) {
	a := uuid.New()
	s := Snapshot{Type: domain.MarketParimutuel, TotalPoolMinor: 50000, Fee: 0.05}
	quotes := Compute(s, []OutcomeState{{ID: a, TotalBetsMinor: 0}})
	require.Len(t, quotes, 1)
	assert.Equal(t, Floor, quotes[0].Odds)
	assert.True(t, quotes[0].NoBets)
}

func TestCompute_ParimutuelFloorClamp(t *testing.T) {
	// One outcome holds almost the whole pool: raw odds fall below 1.0
	// after the fee and must be clamped.
	a := uuid.New()
	s := Snapshot{Type: domain.MarketParimutuel, TotalPoolMinor: 100000, Fee: 0.10}
	quotes := Compute(s, []OutcomeState{{ID: a, TotalBetsMinor: 95000}})
	assert.Equal(t, Floor, quotes[0].Odds)
}

func TestCompute_Weighted(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := Snapshot{Type: domain.MarketWeighted}
	quotes := Compute(s, []OutcomeState{
		{ID: a, Weight: 3.5},
		{ID: b, Weight: 0}, // unset weight defaults to 1.0
	})
	assert.Equal(t, 3.5, quotes[0].Odds)
	assert.Equal(t, 1.0, quotes[1].Odds)
}

func TestCompute_Binary(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := Snapshot{Type: domain.MarketBinary, TotalPoolMinor: 999999}
	quotes := Compute(s, []OutcomeState{{ID: a, TotalBetsMinor: 1}, {ID: b, TotalBetsMinor: 999998}})
	// Even money on both sides regardless of pool state.
	assert.Equal(t, 2.0, quotes[0].Odds)
	assert.Equal(t, 2.0, quotes[1].Odds)
}

func TestCompute_Score(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := Snapshot{Type: domain.MarketScore, TotalPoolMinor: 30000}
	quotes := Compute(s, []OutcomeState{
		{ID: a, TotalBetsMinor: 10000},
		{ID: b, TotalBetsMinor: 0},
	})
	assert.InDelta(t, 3.0, quotes[0].Odds, 1e-9)
	// Empty outcome divides by max(bets, 1).
	assert.InDelta(t, 30000.0, quotes[1].Odds, 1e-9)
	assert.True(t, quotes[1].NoBets)
}

func TestCompute_FloorHoldsEverywhere(t *testing.T) {
	types := []domain.MarketType{domain.MarketParimutuel, domain.MarketWeighted, domain.MarketBinary, domain.MarketScore}
	pools := []int64{0, 1, 100, 100000}
	stakes := []int64{0, 1, 99999, 100000}

	for _, typ := range types {
		for _, pool := range pools {
			for _, staked := range stakes {
				if staked > pool {
					continue
				}
				s := Snapshot{Type: typ, TotalPoolMinor: pool, Fee: 0.08}
				quotes := Compute(s, []OutcomeState{{ID: uuid.New(), Weight: 1.0, TotalBetsMinor: staked}})
				assert.GreaterOrEqual(t, quotes[0].Odds, Floor,
					"type=%s pool=%d staked=%d", typ, pool, staked)
			}
		}
	}
}

func TestFor_MatchesCompute(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := Snapshot{Type: domain.MarketParimutuel, TotalPoolMinor: 100000, Fee: 0.05}
	states := []OutcomeState{
		{ID: a, TotalBetsMinor: 40000},
		{ID: b, TotalBetsMinor: 60000},
	}

	all := Compute(s, states)
	single, ok := For(s, states, b)
	require.True(t, ok)
	assert.Equal(t, all[1], single)

	_, ok = For(s, states, uuid.New())
	assert.False(t, ok)
}
