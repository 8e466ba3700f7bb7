package domain

import (
	"time"

	"github.com/google/uuid"
)

// MarketType selects the odds/payout mechanic for a market.
type MarketType string

const (
	MarketParimutuel MarketType = "parimutuel"
	MarketWeighted   MarketType = "weighted"
	MarketBinary     MarketType = "binary"
	MarketScore      MarketType = "score"
)

// Valid reports whether t is one of the four supported mechanics.
func (t MarketType) Valid() bool {
	switch t {
	case MarketParimutuel, MarketWeighted, MarketBinary, MarketScore:
		return true
	}
	return false
}

// MarketStatus tracks the betting lifecycle of a market.
type MarketStatus string

const (
	MarketOpen      MarketStatus = "open"
	MarketPaused    MarketStatus = "paused"
	MarketSettled   MarketStatus = "settled"
	MarketCancelled MarketStatus = "cancelled"
)

// ResolutionStatus tracks the outcome-proposal lifecycle, orthogonal to MarketStatus.
type ResolutionStatus string

const (
	ResolutionNone     ResolutionStatus = "none"
	ResolutionProposed ResolutionStatus = "proposed"
	ResolutionApproved ResolutionStatus = "approved"
	ResolutionRejected ResolutionStatus = "rejected"
)

// BinaryOdds is the even-money multiplier quoted on both sides of a binary market.
const BinaryOdds = 2.0

// Market is a betting market attached to a tournament.
//
// Invariants: TotalPool equals the sum of Outcome.TotalBets across its outcomes
// at all times; WinningOutcomeID is set at most once, on the flip to settled.
type Market struct {
	ID               uuid.UUID        `json:"id"`
	TournamentID     uuid.UUID        `json:"tournament_id"`
	HostID           uuid.UUID        `json:"host_id"`
	Title            string           `json:"title"`
	Type             MarketType       `json:"type"`
	Status           MarketStatus     `json:"status"`
	ResolutionStatus ResolutionStatus `json:"resolution_status"`
	Token            string           `json:"token"`
	TotalPool        int64            `json:"total_pool"`
	PoolPreSeed      int64            `json:"pool_pre_seed"`
	BookmakingFee    float64          `json:"bookmaking_fee"`
	MinBet           int64            `json:"min_bet"`
	MaxBet           *int64           `json:"max_bet,omitempty"`
	// Autonomous markets quote live pool-derived odds and trigger a recalc
	// after every confirmed bet; non-autonomous markets use host-fixed odds.
	Autonomous bool `json:"autonomous"`
	// MatchRef is the external table/match identifier the verifier resolves.
	MatchRef           *string    `json:"match_ref,omitempty"`
	PauseReason        *string    `json:"pause_reason,omitempty"`
	WinningOutcomeID   *uuid.UUID `json:"winning_outcome_id,omitempty"`
	AIProposedWinnerID *uuid.UUID `json:"ai_proposed_winner_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	SettledAt          *time.Time `json:"settled_at,omitempty"`
}

// Outcome is one of the candidate results of a market.
type Outcome struct {
	ID       uuid.UUID `json:"id"`
	MarketID uuid.UUID `json:"market_id"`
	Label    string    `json:"label"`
	// Weight is the host-set fixed-odds multiplier. Meaningful only for
	// weighted and binary markets; defaults to 1.0.
	Weight    float64   `json:"weight"`
	TotalBets int64     `json:"total_bets"`
	BetCount  int       `json:"bet_count"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// SettlementData carries the external ground truth a settlement needs.
// Only score markets require it.
type SettlementData struct {
	ActualScore *float64 `json:"actual_score,omitempty"`
}
