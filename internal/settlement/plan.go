package settlement

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/odds"
)

// Plan is a fully computed settlement: which bets win, what each is owed,
// and what flips to lost. Building a plan has no side effects; the engine
// persists it in one transaction and Preview returns it as-is.
type Plan struct {
	MarketID         uuid.UUID `json:"market_id"`
	WinningOutcomeID uuid.UUID `json:"winning_outcome_id"`
	NetPoolMinor     float64   `json:"net_pool_minor"`
	Payouts          []Payout  `json:"payouts"`
	TotalPaidMinor   int64     `json:"total_paid_minor"`
	// LosingBetIDs are the settleable bets owed nothing.
	LosingBetIDs []uuid.UUID `json:"losing_bet_ids"`
}

// BuildPlan dispatches on the market type and computes payouts for every
// settleable (pending or confirmed) bet.
func BuildPlan(m *domain.Market, outcomes []domain.Outcome, bets []domain.Bet, winningOutcomeID uuid.UUID, data *domain.SettlementData) (*Plan, error) {
	winner := findOutcome(outcomes, winningOutcomeID)
	if winner == nil {
		return nil, domain.ErrInvalidOutcome(winningOutcomeID.String(), m.ID.String())
	}

	stakes := make([]Stake, 0, len(bets))
	for _, b := range bets {
		if b.Status.Terminal() {
			continue
		}
		stakes = append(stakes, Stake{
			BetID:       b.ID,
			PlayerID:    b.PlayerID,
			OutcomeID:   b.OutcomeID,
			AmountMinor: b.AmountMinor,
		})
	}

	mechanic, err := buildMechanic(m, outcomes, winner, stakes, data)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		MarketID:         m.ID,
		WinningOutcomeID: winningOutcomeID,
		NetPoolMinor:     odds.NetPool(m.TotalPool, m.PoolPreSeed, m.BookmakingFee),
		Payouts:          mechanic.Payouts(),
	}

	paid := make(map[uuid.UUID]bool, len(plan.Payouts))
	for _, p := range plan.Payouts {
		plan.TotalPaidMinor += p.AmountMinor
		paid[p.BetID] = true
	}
	for _, s := range stakes {
		if !paid[s.BetID] {
			plan.LosingBetIDs = append(plan.LosingBetIDs, s.BetID)
		}
	}
	return plan, nil
}

func buildMechanic(m *domain.Market, outcomes []domain.Outcome, winner *domain.Outcome, stakes []Stake, data *domain.SettlementData) (Mechanic, error) {
	net := odds.NetPool(m.TotalPool, m.PoolPreSeed, m.BookmakingFee)

	switch m.Type {
	case domain.MarketParimutuel:
		return Parimutuel{NetPoolMinor: net, WinningOutcomeID: winner.ID, Bets: stakes}, nil

	case domain.MarketWeighted:
		return Weighted{NetPoolMinor: net, WinningOutcomeID: winner.ID, WinningWeight: winner.Weight, Bets: stakes}, nil

	case domain.MarketBinary:
		return Binary{WinningOutcomeID: winner.ID, WinningWeight: winner.Weight, Bets: stakes}, nil

	case domain.MarketScore:
		if data == nil || data.ActualScore == nil {
			return nil, domain.ErrValidation("score market settlement requires actual_score")
		}
		predictions := make(map[uuid.UUID]float64, len(outcomes))
		for _, o := range outcomes {
			predicted, err := domain.ParsePredictedScore(o.Label)
			if err != nil {
				return nil, domain.ErrValidation(fmt.Sprintf("outcome %s: %v", o.ID, err))
			}
			predictions[o.ID] = predicted
		}
		return Score{NetPoolMinor: net, ActualScore: *data.ActualScore, Predictions: predictions, Bets: stakes}, nil
	}
	return nil, domain.ErrValidation(fmt.Sprintf("unknown market type %q", m.Type))
}

func findOutcome(outcomes []domain.Outcome, id uuid.UUID) *domain.Outcome {
	for i := range outcomes {
		if outcomes[i].ID == id {
			return &outcomes[i]
		}
	}
	return nil
}
