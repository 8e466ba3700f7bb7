package settlement

import (
	"math"

	"github.com/google/uuid"
)

// Stake is the slice of a bet the payout algorithms care about.
type Stake struct {
	BetID       uuid.UUID
	PlayerID    uuid.UUID
	OutcomeID   uuid.UUID
	AmountMinor int64
}

// Payout is one computed obligation. Only bets owed more than zero appear.
type Payout struct {
	BetID       uuid.UUID `json:"bet_id"`
	PlayerID    uuid.UUID `json:"recipient_user_id"`
	AmountMinor int64     `json:"payout_amount_minor"`
}

// Mechanic is one of the four payout algorithms. Each variant carries
// exactly the fields its algorithm needs, so a market can never be settled
// with fields that belong to a different mechanic.
type Mechanic interface {
	Payouts() []Payout
}

// Parimutuel splits the net pool across winning bets in proportion to stake.
// A zero winning pool computes no payouts; the pool is retained.
type Parimutuel struct {
	NetPoolMinor     float64
	WinningOutcomeID uuid.UUID
	Bets             []Stake
}

func (m Parimutuel) Payouts() []Payout {
	var winningPool int64
	for _, b := range m.Bets {
		if b.OutcomeID == m.WinningOutcomeID {
			winningPool += b.AmountMinor
		}
	}
	if winningPool == 0 {
		return nil
	}

	var payouts []Payout
	for _, b := range m.Bets {
		if b.OutcomeID != m.WinningOutcomeID {
			continue
		}
		amount := int64(math.Floor(float64(b.AmountMinor) / float64(winningPool) * m.NetPoolMinor))
		payouts = append(payouts, Payout{BetID: b.BetID, PlayerID: b.PlayerID, AmountMinor: amount})
	}
	return payouts
}

// Weighted pays each winning bet its claim (stake times the outcome weight)
// rescaled so the sum of payouts equals the net pool. Claims exceeding the
// pool shrink proportionally instead of overdrawing it.
type Weighted struct {
	NetPoolMinor     float64
	WinningOutcomeID uuid.UUID
	WinningWeight    float64
	Bets             []Stake
}

func (m Weighted) Payouts() []Payout {
	weight := m.WinningWeight
	if weight == 0 {
		weight = 1.0
	}

	var totalClaims float64
	for _, b := range m.Bets {
		if b.OutcomeID == m.WinningOutcomeID {
			totalClaims += float64(b.AmountMinor) * weight
		}
	}
	if totalClaims == 0 {
		return nil
	}

	var payouts []Payout
	for _, b := range m.Bets {
		if b.OutcomeID != m.WinningOutcomeID {
			continue
		}
		claim := float64(b.AmountMinor) * weight
		amount := int64(math.Floor(claim / totalClaims * m.NetPoolMinor))
		payouts = append(payouts, Payout{BetID: b.BetID, PlayerID: b.PlayerID, AmountMinor: amount})
	}
	return payouts
}

// Binary pays stake times the locked fixed multiplier with no pool rescale;
// the operator is assumed to have sized the book.
type Binary struct {
	WinningOutcomeID uuid.UUID
	WinningWeight    float64
	Bets             []Stake
}

func (m Binary) Payouts() []Payout {
	weight := m.WinningWeight
	if weight == 0 {
		weight = 1.0
	}

	var payouts []Payout
	for _, b := range m.Bets {
		if b.OutcomeID != m.WinningOutcomeID {
			continue
		}
		amount := int64(math.Floor(float64(b.AmountMinor) * weight))
		payouts = append(payouts, Payout{BetID: b.BetID, PlayerID: b.PlayerID, AmountMinor: amount})
	}
	return payouts
}

// Score pays every bet across all outcomes in proportion to how close its
// outcome's predicted score landed to the actual score. There is no single
// win/lose outcome.
type Score struct {
	NetPoolMinor float64
	ActualScore  float64
	// Predictions maps each outcome to the numeric score parsed from its label.
	Predictions map[uuid.UUID]float64
	Bets        []Stake
}

// Accuracy is the closeness weight for one prediction: 1 at an exact hit,
// decaying with absolute distance.
func (m Score) Accuracy(predicted float64) float64 {
	return 1 / (math.Abs(predicted-m.ActualScore) + 1)
}

func (m Score) Payouts() []Payout {
	// Accuracy is per bet and deliberately independent of stake size: a
	// closer prediction earns a larger share of the pool, full stop.
	var totalAccuracy float64
	for _, b := range m.Bets {
		predicted, ok := m.Predictions[b.OutcomeID]
		if !ok {
			continue
		}
		totalAccuracy += m.Accuracy(predicted)
	}
	if totalAccuracy == 0 {
		return nil
	}

	var payouts []Payout
	for _, b := range m.Bets {
		predicted, ok := m.Predictions[b.OutcomeID]
		if !ok {
			continue
		}
		share := m.Accuracy(predicted) / totalAccuracy
		amount := int64(math.Floor(share * m.NetPoolMinor))
		if amount <= 0 {
			continue
		}
		payouts = append(payouts, Payout{BetID: b.BetID, PlayerID: b.PlayerID, AmountMinor: amount})
	}
	return payouts
}
