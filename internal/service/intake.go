package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wagerhub/platform/internal/booking"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/guard"
	"github.com/wagerhub/platform/internal/metrics"
	"github.com/wagerhub/platform/internal/repository"
	"github.com/wagerhub/platform/internal/tasks"
)

const bookingCodeAttempts = 3

// PlaceBetInput is a player's bet submission.
type PlaceBetInput struct {
	MarketID    uuid.UUID `json:"-"`
	OutcomeID   uuid.UUID `json:"outcome_id"`
	PlayerID    uuid.UUID `json:"-"`
	AmountMinor int64     `json:"amount_minor"`
	// Token must match the market's wager token when supplied.
	Token string `json:"token,omitempty"`
	// MinOdds rejects the bet if the live quote dropped below what the
	// player saw. Nil accepts any current odds.
	MinOdds        *float64 `json:"min_odds,omitempty"`
	IdempotencyKey string   `json:"-"`
}

// BetIntakeService validates and persists bets.
//
// Checks run in a fixed order so a submission failing several rules always
// reports the same error: existence, market status, amount bounds, outcome
// membership, then slippage.
type BetIntakeService struct {
	pool        *pgxpool.Pool
	markets     repository.MarketRepository
	bets        repository.BetRepository
	outbox      repository.OutboxRepository
	odds        *OddsService
	rateLimiter *guard.RateLimiter
	idempotency *guard.IdempotencyStore
	recalc      *tasks.RecalcQueue
	logger      *slog.Logger
}

// NewBetIntakeService creates a BetIntakeService.
func NewBetIntakeService(
	pool *pgxpool.Pool,
	markets repository.MarketRepository,
	bets repository.BetRepository,
	outbox repository.OutboxRepository,
	odds *OddsService,
	rateLimiter *guard.RateLimiter,
	idempotency *guard.IdempotencyStore,
	recalc *tasks.RecalcQueue,
	logger *slog.Logger,
) *BetIntakeService {
	return &BetIntakeService{
		pool:        pool,
		markets:     markets,
		bets:        bets,
		outbox:      outbox,
		odds:        odds,
		rateLimiter: rateLimiter,
		idempotency: idempotency,
		recalc:      recalc,
		logger:      logger,
	}
}

// PreflightBet runs the pure intake checks against a loaded market. Exposed
// so handlers and tests exercise exactly the placement rules.
func PreflightBet(m *domain.Market, in PlaceBetInput) error {
	if m.Status != domain.MarketOpen {
		return domain.ErrMarketClosed(m.ID.String(), m.Status)
	}
	if in.AmountMinor < m.MinBet {
		return domain.ErrBelowMinimum(in.AmountMinor, m.MinBet)
	}
	if m.MaxBet != nil && in.AmountMinor > *m.MaxBet {
		return domain.ErrAboveMaximum(in.AmountMinor, *m.MaxBet)
	}
	return nil
}

// CheckSlippage compares the locked quote against the player's floor.
func CheckSlippage(quoted float64, minOdds *float64) error {
	if minOdds != nil && quoted < *minOdds {
		return domain.ErrSlippage(quoted, *minOdds)
	}
	return nil
}

// PlaceBet validates the submission, locks the current odds, and commits the
// bet together with its pool increments and outbox event.
func (s *BetIntakeService) PlaceBet(ctx context.Context, in PlaceBetInput) (*domain.Bet, error) {
	bet, err := s.placeBet(ctx, in)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			metrics.BetsRejected.WithLabelValues(appErr.Code).Inc()
		}
		return nil, err
	}
	return bet, nil
}

func (s *BetIntakeService) placeBet(ctx context.Context, in PlaceBetInput) (*domain.Bet, error) {
	if !s.idempotency.Claim(in.IdempotencyKey) {
		return nil, domain.ErrValidation("duplicate submission: idempotency key already used")
	}
	if res := s.rateLimiter.Check(ctx, in.PlayerID.String()); !res.Allowed {
		return nil, &domain.AppError{Code: "RATE_LIMITED", Message: res.Reason, Status: 429}
	}
	if err := domain.ValidatePositiveAmount(in.AmountMinor); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	m, err := s.markets.FindByID(ctx, s.pool, in.MarketID)
	if err != nil {
		return nil, domain.ErrInternal("load market", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound("market", in.MarketID.String())
	}
	if err := PreflightBet(m, in); err != nil {
		return nil, err
	}
	if in.Token != "" && in.Token != m.Token {
		return nil, domain.ErrValidation(
			fmt.Sprintf("market %s takes %s, not %s", m.ID, m.Token, in.Token))
	}

	outcome, err := s.markets.FindOutcome(ctx, s.pool, in.MarketID, in.OutcomeID)
	if err != nil {
		return nil, domain.ErrInternal("load outcome", err)
	}
	if outcome == nil {
		return nil, domain.ErrInvalidOutcome(in.OutcomeID.String(), in.MarketID.String())
	}

	outcomes, err := s.markets.ListOutcomes(ctx, s.pool, in.MarketID)
	if err != nil {
		return nil, domain.ErrInternal("load outcomes", err)
	}
	// Lock through the same pricing path the display surface serves, so
	// model-assisted quotes on autonomous markets are what players get.
	quote, ok := s.odds.QuoteOutcome(ctx, m, outcomes, in.OutcomeID)
	if !ok {
		return nil, domain.ErrInvalidOutcome(in.OutcomeID.String(), in.MarketID.String())
	}
	if err := CheckSlippage(quote.Odds, in.MinOdds); err != nil {
		return nil, err
	}

	bet := &domain.Bet{
		ID:              uuid.New(),
		MarketID:        m.ID,
		OutcomeID:       outcome.ID,
		PlayerID:        in.PlayerID,
		AmountMinor:     in.AmountMinor,
		Token:           m.Token,
		Status:          domain.BetPending,
		OddsAtPlacement: quote.Odds,
	}

	if err := s.commitBet(ctx, bet); err != nil {
		return nil, err
	}

	metrics.BetsPlaced.WithLabelValues(string(m.Type)).Inc()
	s.logger.Info("bet placed",
		"bet_id", bet.ID, "market_id", m.ID, "outcome_id", outcome.ID,
		"amount_minor", bet.AmountMinor, "odds", bet.OddsAtPlacement,
		"booking_code", bet.BookingCode)

	// Autonomous markets re-quote after every confirmed bet.
	if m.Autonomous {
		s.recalc.Enqueue(m.ID)
	}
	return bet, nil
}

// commitBet inserts the bet, bumps the pool counters and writes the outbox
// event in one transaction. A booking-code collision aborts the transaction,
// so the whole attempt reruns with a fresh code.
func (s *BetIntakeService) commitBet(ctx context.Context, bet *domain.Bet) error {
	var lastErr error
	for attempt := 0; attempt < bookingCodeAttempts; attempt++ {
		code, err := booking.NewCode()
		if err != nil {
			return domain.ErrInternal("generate booking code", err)
		}
		bet.BookingCode = code

		err = s.tryCommitBet(ctx, bet)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return domain.ErrInternal("commit bet", err)
		}
		lastErr = err
		s.logger.Warn("booking code collision, retrying", "bet_id", bet.ID, "attempt", attempt+1)
	}
	return domain.ErrInternal("exhausted booking code attempts", lastErr)
}

func (s *BetIntakeService) tryCommitBet(ctx context.Context, bet *domain.Bet) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.bets.Insert(ctx, tx, bet); err != nil {
		return err
	}
	if err := s.markets.ApplyBetIncrements(ctx, tx, bet.MarketID, bet.OutcomeID, bet.AmountMinor); err != nil {
		return err
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewBetPlacedEvent(bet)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// FindByBookingCode resolves a shared booking code to its bet.
func (s *BetIntakeService) FindByBookingCode(ctx context.Context, code string) (*domain.Bet, error) {
	bet, err := s.bets.FindByBookingCode(ctx, s.pool, code)
	if err != nil {
		return nil, domain.ErrInternal("load bet by booking code", err)
	}
	if bet == nil {
		return nil, domain.ErrNotFound("bet", code)
	}
	return bet, nil
}

// ListPlayerBets returns the player's recent bets.
func (s *BetIntakeService) ListPlayerBets(ctx context.Context, playerID uuid.UUID, limit int) ([]domain.Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	bets, err := s.bets.ListByPlayer(ctx, s.pool, playerID, limit)
	if err != nil {
		return nil, domain.ErrInternal("list player bets", err)
	}
	return bets, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
