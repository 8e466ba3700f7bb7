package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wagerhub/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// MarketRepository provides access to markets and outcomes.
type MarketRepository interface {
	// Create inserts a market row.
	Create(ctx context.Context, db DBTX, m *domain.Market) error

	// CreateOutcome inserts an outcome row.
	CreateOutcome(ctx context.Context, db DBTX, o *domain.Outcome) error

	// FindByID returns a market by ID, or nil when absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Market, error)

	// List returns recent markets, newest first.
	List(ctx context.Context, db DBTX, limit int) ([]domain.Market, error)

	// ListByTournament returns all markets of a tournament.
	ListByTournament(ctx context.Context, db DBTX, tournamentID uuid.UUID) ([]domain.Market, error)

	// ListOutcomes returns a market's outcomes in sort order.
	ListOutcomes(ctx context.Context, db DBTX, marketID uuid.UUID) ([]domain.Outcome, error)

	// FindOutcome returns the outcome only if it belongs to the market.
	FindOutcome(ctx context.Context, db DBTX, marketID, outcomeID uuid.UUID) (*domain.Outcome, error)

	// ApplyBetIncrements bumps outcome.total_bets, outcome.bet_count and
	// market.total_pool by the bet amount using server-side arithmetic.
	// Must run inside the bet-insert transaction so the pool-conservation
	// invariant holds under concurrent bets.
	ApplyBetIncrements(ctx context.Context, tx pgx.Tx, marketID, outcomeID uuid.UUID, amountMinor int64) error

	// SetPaused toggles the paused flag with an optional reason.
	SetPaused(ctx context.Context, db DBTX, marketID uuid.UUID, paused bool, reason *string) error

	// MarkProposed records an AI-proposed winner. Fails on zero rows when the
	// market already carries a proposed or approved resolution.
	MarkProposed(ctx context.Context, db DBTX, marketID, winnerID uuid.UUID) (bool, error)

	// MarkRejected reopens betting and clears the proposed winner.
	MarkRejected(ctx context.Context, db DBTX, marketID uuid.UUID) error

	// SettleCAS conditionally flips the market to settled, setting the winning
	// outcome exactly once. Returns false when another settlement won the race
	// (the one-shot guarantee).
	SettleCAS(ctx context.Context, tx pgx.Tx, marketID, winningOutcomeID uuid.UUID, resolution domain.ResolutionStatus) (bool, error)

	// CancelOpenByTournament bulk-flips all open markets of a tournament to
	// cancelled and returns the affected market IDs.
	CancelOpenByTournament(ctx context.Context, db DBTX, tournamentID uuid.UUID) ([]uuid.UUID, error)
}

// BetRepository provides access to bets.
type BetRepository interface {
	// Insert creates a bet row. Booking-code collisions surface as a unique
	// violation for the caller to retry.
	Insert(ctx context.Context, db DBTX, b *domain.Bet) error

	// FindByID returns a bet, or nil when absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Bet, error)

	// FindByBookingCode returns a bet by its shareable code.
	FindByBookingCode(ctx context.Context, db DBTX, code string) (*domain.Bet, error)

	// ListSettleable returns the market's pending and confirmed bets.
	ListSettleable(ctx context.Context, db DBTX, marketID uuid.UUID) ([]domain.Bet, error)

	// ListByPlayer returns a player's bets, newest first.
	ListByPlayer(ctx context.Context, db DBTX, playerID uuid.UUID, limit int) ([]domain.Bet, error)

	// SettleWon flips one bet to won with its payout. Guarded so terminal
	// statuses are never overwritten.
	SettleWon(ctx context.Context, tx pgx.Tx, betID uuid.UUID, payoutMinor int64) error

	// SettleLostExcept flips every remaining settleable bet of the market to
	// lost with payout zero, skipping the given IDs.
	SettleLostExcept(ctx context.Context, tx pgx.Tx, marketID uuid.UUID, exceptIDs []uuid.UUID) (int64, error)

	// MarkOutcomeResult flips bets of the given prior statuses to won on the
	// winning outcome and lost elsewhere, without payout amounts. Used by the
	// lightweight host-approval path.
	MarkOutcomeResult(ctx context.Context, tx pgx.Tx, marketID, winningOutcomeID uuid.UUID, fromStatuses []domain.BetStatus) (won, lost int64, err error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event within the caller's transaction.
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns pending events in commit order.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]OutboxRow, error)

	// MarkPublished removes published events.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}

// OutboxRow pairs a draft with its outbox sequence number.
type OutboxRow struct {
	SeqID int64
	domain.OutboxDraft
}
