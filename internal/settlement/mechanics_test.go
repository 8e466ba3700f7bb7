package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stake(outcomeID uuid.UUID, amount int64) Stake {
	return Stake{BetID: uuid.New(), PlayerID: uuid.New(), OutcomeID: outcomeID, AmountMinor: amount}
}

func totalPaid(payouts []Payout) int64 {
	var sum int64
	for _, p := range payouts {
		sum += p.AmountMinor
	}
	return sum
}

func TestParimutuelProportionalSplit(t *testing.T) {
	winner := uuid.New()
	loser := uuid.New()

	// Pool 100000, 5% fee: net 95000 split 1:2:1 across winning stakes.
	m := Parimutuel{
		NetPoolMinor:     95_000,
		WinningOutcomeID: winner,
		Bets: []Stake{
			stake(winner, 10_000),
			stake(winner, 20_000),
			stake(winner, 10_000),
			stake(loser, 60_000),
		},
	}

	payouts := m.Payouts()
	require.Len(t, payouts, 3)
	assert.Equal(t, int64(23_750), payouts[0].AmountMinor)
	assert.Equal(t, int64(47_500), payouts[1].AmountMinor)
	assert.Equal(t, int64(23_750), payouts[2].AmountMinor)
	assert.Equal(t, int64(95_000), totalPaid(payouts))
}

func TestParimutuelNeverOverdrawsPool(t *testing.T) {
	winner := uuid.New()

	// Amounts chosen so shares do not divide evenly; flooring keeps the sum
	// at or under the net pool.
	m := Parimutuel{
		NetPoolMinor:     10_000,
		WinningOutcomeID: winner,
		Bets: []Stake{
			stake(winner, 333),
			stake(winner, 667),
			stake(winner, 1_001),
		},
	}

	paid := totalPaid(m.Payouts())
	assert.LessOrEqual(t, paid, int64(10_000))
	assert.Greater(t, paid, int64(9_990))
}

func TestParimutuelZeroWinningPool(t *testing.T) {
	winner := uuid.New()
	loser := uuid.New()

	m := Parimutuel{
		NetPoolMinor:     95_000,
		WinningOutcomeID: winner,
		Bets:             []Stake{stake(loser, 100_000)},
	}

	assert.Nil(t, m.Payouts())
}

func TestWeightedRescalesToNetPool(t *testing.T) {
	winner := uuid.New()
	loser := uuid.New()

	m := Weighted{
		NetPoolMinor:     95_000,
		WinningOutcomeID: winner,
		WinningWeight:    3.5,
		Bets: []Stake{
			stake(winner, 10_000),
			stake(winner, 30_000),
			stake(loser, 60_000),
		},
	}

	payouts := m.Payouts()
	require.Len(t, payouts, 2)
	// Weight cancels in the rescale with one winning outcome: payouts are
	// stake-proportional and sum to the net pool.
	assert.Equal(t, int64(23_750), payouts[0].AmountMinor)
	assert.Equal(t, int64(71_250), payouts[1].AmountMinor)
	assert.Equal(t, int64(95_000), totalPaid(payouts))
}

func TestWeightedDefaultWeight(t *testing.T) {
	winner := uuid.New()

	m := Weighted{
		NetPoolMinor:     1_000,
		WinningOutcomeID: winner,
		WinningWeight:    0,
		Bets:             []Stake{stake(winner, 500)},
	}

	payouts := m.Payouts()
	require.Len(t, payouts, 1)
	assert.Equal(t, int64(1_000), payouts[0].AmountMinor)
}

func TestBinaryPaysLockedMultiplier(t *testing.T) {
	winner := uuid.New()
	loser := uuid.New()

	m := Binary{
		WinningOutcomeID: winner,
		WinningWeight:    2.0,
		Bets: []Stake{
			stake(winner, 5_000),
			stake(loser, 5_000),
		},
	}

	payouts := m.Payouts()
	require.Len(t, payouts, 1)
	assert.Equal(t, int64(10_000), payouts[0].AmountMinor)
}

func TestScoreClosestPredictionEarnsLargestShare(t *testing.T) {
	exact := uuid.New()
	near := uuid.New()
	far := uuid.New()

	m := Score{
		NetPoolMinor: 95_000,
		ActualScore:  50,
		Predictions:  map[uuid.UUID]float64{exact: 50, near: 45, far: 60},
		Bets: []Stake{
			stake(exact, 1_000),
			stake(near, 50_000),
			stake(far, 1_000),
		},
	}

	payouts := m.Payouts()
	require.Len(t, payouts, 3)

	byOutcome := make(map[uuid.UUID]int64)
	for i, b := range m.Bets {
		byOutcome[b.OutcomeID] = payouts[i].AmountMinor
	}

	// Accuracy weights: 1, 1/6, 1/11 — independent of stake size, so the
	// exact hit with the smallest stake takes the biggest share.
	assert.Greater(t, byOutcome[exact], byOutcome[near])
	assert.Greater(t, byOutcome[near], byOutcome[far])
	assert.LessOrEqual(t, totalPaid(payouts), int64(95_000))
}

func TestScoreAccuracy(t *testing.T) {
	m := Score{ActualScore: 50}

	assert.InDelta(t, 1.0, m.Accuracy(50), 1e-9)
	assert.InDelta(t, 0.5, m.Accuracy(49), 1e-9)
	assert.InDelta(t, 0.5, m.Accuracy(51), 1e-9)
	assert.InDelta(t, 1.0/11, m.Accuracy(60), 1e-9)
}

func TestScoreNoPredictionsNoPayouts(t *testing.T) {
	m := Score{
		NetPoolMinor: 1_000,
		ActualScore:  10,
		Predictions:  map[uuid.UUID]float64{},
		Bets:         []Stake{stake(uuid.New(), 500)},
	}

	assert.Nil(t, m.Payouts())
}
