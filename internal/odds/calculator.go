// Package odds computes per-outcome quoted odds for a market snapshot.
//
// The computation is pure: the display surface and placement-time locking
// call the same function and can never disagree.
package odds

import (
	"github.com/google/uuid"
	"github.com/wagerhub/platform/internal/domain"
)

// Floor is the minimum quotable odds. Nothing below evens is ever quoted.
const Floor = 1.0

// Snapshot is the slice of market state the calculator needs.
type Snapshot struct {
	Type           domain.MarketType
	TotalPoolMinor int64
	PreSeedMinor   int64
	Fee            float64
}

// OutcomeState is the slice of outcome state the calculator needs.
type OutcomeState struct {
	ID             uuid.UUID
	Weight         float64
	TotalBetsMinor int64
}

// Quote is the current odds for one outcome. NoBets flags a parimutuel
// outcome with an empty pool, which quotes at the floor ("no odds yet").
type Quote struct {
	OutcomeID uuid.UUID `json:"outcome_id"`
	Odds      float64   `json:"odds"`
	NoBets    bool      `json:"no_bets,omitempty"`
}

// NetPool returns the amount available for payout: total wagered plus the
// house seed, minus the bookmaking fee.
func NetPool(totalPoolMinor, preSeedMinor int64, fee float64) float64 {
	return float64(totalPoolMinor+preSeedMinor) * (1 - fee)
}

// SnapshotOf adapts a loaded market to the calculator input.
func SnapshotOf(m *domain.Market) Snapshot {
	return Snapshot{
		Type:           m.Type,
		TotalPoolMinor: m.TotalPool,
		PreSeedMinor:   m.PoolPreSeed,
		Fee:            m.BookmakingFee,
	}
}

// StatesOf adapts loaded outcomes to the calculator input.
func StatesOf(outcomes []domain.Outcome) []OutcomeState {
	states := make([]OutcomeState, len(outcomes))
	for i, o := range outcomes {
		states[i] = OutcomeState{ID: o.ID, Weight: o.Weight, TotalBetsMinor: o.TotalBets}
	}
	return states
}

// Compute returns the current odds for every outcome. All quotes are
// floor-clamped to 1.0.
func Compute(s Snapshot, outcomes []OutcomeState) []Quote {
	quotes := make([]Quote, len(outcomes))
	for i, o := range outcomes {
		quotes[i] = quoteOutcome(s, o)
	}
	return quotes
}

// For returns the quote for a single outcome of the snapshot.
func For(s Snapshot, outcomes []OutcomeState, outcomeID uuid.UUID) (Quote, bool) {
	for _, o := range outcomes {
		if o.ID == outcomeID {
			return quoteOutcome(s, o), true
		}
	}
	return Quote{}, false
}

func quoteOutcome(s Snapshot, o OutcomeState) Quote {
	switch s.Type {
	case domain.MarketParimutuel:
		if o.TotalBetsMinor <= 0 {
			return Quote{OutcomeID: o.ID, Odds: Floor, NoBets: true}
		}
		net := NetPool(s.TotalPoolMinor, s.PreSeedMinor, s.Fee)
		return Quote{OutcomeID: o.ID, Odds: clamp(net / float64(o.TotalBetsMinor))}

	case domain.MarketWeighted:
		w := o.Weight
		if w == 0 {
			w = 1.0
		}
		return Quote{OutcomeID: o.ID, Odds: clamp(w)}

	case domain.MarketBinary:
		return Quote{OutcomeID: o.ID, Odds: domain.BinaryOdds}

	case domain.MarketScore:
		// Relative-scarcity heuristic for display; never used for settlement.
		staked := o.TotalBetsMinor
		if staked < 1 {
			staked = 1
		}
		return Quote{OutcomeID: o.ID, Odds: clamp(float64(s.TotalPoolMinor) / float64(staked)), NoBets: o.TotalBetsMinor == 0}
	}
	return Quote{OutcomeID: o.ID, Odds: Floor}
}

func clamp(odds float64) float64 {
	if odds < Floor {
		return Floor
	}
	return odds
}
