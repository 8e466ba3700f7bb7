package domain

import (
	"time"

	"github.com/google/uuid"
)

// BetStatus tracks the lifecycle of a bet. Won and lost are terminal and
// immutable once set.
type BetStatus string

const (
	BetPending   BetStatus = "pending"
	BetConfirmed BetStatus = "confirmed"
	BetWon       BetStatus = "won"
	BetLost      BetStatus = "lost"
)

// Terminal reports whether the status is a settled end state.
func (s BetStatus) Terminal() bool {
	return s == BetWon || s == BetLost
}

// Bet is a wager on one outcome of one market.
//
// OddsAtPlacement is locked at creation and never changes. PayoutAmountMinor
// is non-nil iff the bet is in a terminal status.
type Bet struct {
	ID                uuid.UUID  `json:"id"`
	MarketID          uuid.UUID  `json:"market_id"`
	OutcomeID         uuid.UUID  `json:"outcome_id"`
	PlayerID          uuid.UUID  `json:"player_id"`
	AmountMinor       int64      `json:"amount_minor"`
	Token             string     `json:"token"`
	Status            BetStatus  `json:"status"`
	OddsAtPlacement   float64    `json:"odds_at_placement"`
	PayoutAmountMinor *int64     `json:"payout_amount_minor,omitempty"`
	BookingCode       string     `json:"booking_code"`
	PlacedAt          time.Time  `json:"placed_at"`
	SettledAt         *time.Time `json:"settled_at,omitempty"`
}

// GuardResult is the outcome of an intake guard check (rate limit, idempotency).
type GuardResult struct {
	Allowed bool
	Reason  string
	Guard   string
}
