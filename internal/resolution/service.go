package resolution

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/provider"
	"github.com/wagerhub/platform/internal/repository"
)

// Service drives the market resolution state machine: pause/resume,
// verified winner proposals, host approval or rejection, manual resolution
// and tournament-wide cancellation.
type Service struct {
	pool      *pgxpool.Pool
	markets   repository.MarketRepository
	bets      repository.BetRepository
	outbox    repository.OutboxRepository
	ownership repository.OwnershipAuthority
	verifier  provider.ResultVerifier
	logger    *slog.Logger
}

// NewService creates a resolution service.
func NewService(
	pool *pgxpool.Pool,
	markets repository.MarketRepository,
	bets repository.BetRepository,
	outbox repository.OutboxRepository,
	ownership repository.OwnershipAuthority,
	verifier provider.ResultVerifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		pool:      pool,
		markets:   markets,
		bets:      bets,
		outbox:    outbox,
		ownership: ownership,
		verifier:  verifier,
		logger:    logger,
	}
}

// Pause suspends betting on an open market.
func (s *Service) Pause(ctx context.Context, hostID, marketID uuid.UUID, reason string) error {
	m, err := s.loadOwned(ctx, hostID, marketID)
	if err != nil {
		return err
	}
	if err := domain.CanPause(m); err != nil {
		return err
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	return s.transition(ctx, marketID, domain.EventMarketPaused,
		map[string]interface{}{"reason": reason},
		func(ctx context.Context, tx repository.DBTX) error {
			return s.markets.SetPaused(ctx, tx, marketID, true, reasonPtr)
		})
}

// Resume reopens betting on a paused market.
func (s *Service) Resume(ctx context.Context, hostID, marketID uuid.UUID) error {
	m, err := s.loadOwned(ctx, hostID, marketID)
	if err != nil {
		return err
	}
	if err := domain.CanResume(m); err != nil {
		return err
	}

	return s.transition(ctx, marketID, domain.EventMarketResumed, nil,
		func(ctx context.Context, tx repository.DBTX) error {
			return s.markets.SetPaused(ctx, tx, marketID, false, nil)
		})
}

// Propose verifies the external match result and records its winner as the
// proposed resolution awaiting the host's approval or rejection. Betting
// stays open; only approval closes the market. An unverified result leaves
// the market untouched.
func (s *Service) Propose(ctx context.Context, marketID uuid.UUID) (*domain.Outcome, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if err := domain.CanPropose(m); err != nil {
		return nil, err
	}
	if m.MatchRef == nil {
		return nil, domain.ErrValidation(fmt.Sprintf("market %s has no match reference to verify", marketID))
	}

	result, err := s.verifier.Verify(ctx, *m.MatchRef)
	if err != nil {
		return nil, domain.ErrExternalDependency("result verifier", err)
	}
	if !result.Verified {
		return nil, domain.ErrExternalDependency("result verifier",
			fmt.Errorf("match %s result is not verified yet", *m.MatchRef))
	}

	winner, err := s.matchOutcome(ctx, marketID, result.WinnerLabel)
	if err != nil {
		return nil, err
	}

	updated, err := s.markets.MarkProposed(ctx, s.pool, marketID, winner.ID)
	if err != nil {
		return nil, domain.ErrInternal("mark winner proposed", err)
	}
	if !updated {
		return nil, domain.ErrInvalidStateTransition(
			fmt.Sprintf("market %s resolution advanced concurrently", marketID))
	}

	if err := s.outbox.Insert(ctx, s.pool, domain.NewMarketLifecycleEvent(marketID, domain.EventWinnerProposed, map[string]interface{}{
		"winner_outcome_id": winner.ID.String(),
		"winner_label":      winner.Label,
	})); err != nil {
		s.logger.Error("winner proposed event not recorded", "market_id", marketID, "error", err)
	}

	s.logger.Info("winner proposed",
		"market_id", marketID, "outcome_id", winner.ID, "label", winner.Label)
	return winner, nil
}

// Approve accepts the proposed winner: the market settles and its bets flip
// to won or lost. Payout amounts are the settlement engine's job; the
// approval path records results only.
func (s *Service) Approve(ctx context.Context, hostID, marketID uuid.UUID) error {
	m, err := s.loadOwned(ctx, hostID, marketID)
	if err != nil {
		return err
	}
	if err := domain.CanApprove(m); err != nil {
		return err
	}
	return s.settleResults(ctx, m, *m.AIProposedWinnerID)
}

// Reject discards the proposed winner and reopens betting.
func (s *Service) Reject(ctx context.Context, hostID, marketID uuid.UUID) error {
	m, err := s.loadOwned(ctx, hostID, marketID)
	if err != nil {
		return err
	}
	if err := domain.CanReject(m); err != nil {
		return err
	}

	return s.transition(ctx, marketID, domain.EventProposalRejected,
		map[string]interface{}{"rejected_outcome_id": proposedID(m)},
		func(ctx context.Context, tx repository.DBTX) error {
			return s.markets.MarkRejected(ctx, tx, marketID)
		})
}

// ResolveManual lets the host set the winner directly, bypassing the
// proposal step. Still strictly one-shot.
func (s *Service) ResolveManual(ctx context.Context, hostID, marketID, outcomeID uuid.UUID) error {
	m, err := s.loadOwned(ctx, hostID, marketID)
	if err != nil {
		return err
	}
	if err := domain.CanResolveManually(m); err != nil {
		return err
	}

	winner, err := s.markets.FindOutcome(ctx, s.pool, marketID, outcomeID)
	if err != nil {
		return domain.ErrInternal("load outcome", err)
	}
	if winner == nil {
		return domain.ErrInvalidOutcome(outcomeID.String(), marketID.String())
	}
	return s.settleResults(ctx, m, winner.ID)
}

// CancelTournament cancels every open market of the tournament. Stakes are
// reconciled by the external wallet process off the cancellation events.
func (s *Service) CancelTournament(ctx context.Context, hostID, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	isHost, err := s.ownership.IsTournamentHost(ctx, tournamentID, hostID)
	if err != nil {
		return nil, domain.ErrInternal("ownership check", err)
	}
	if !isHost {
		return nil, domain.ErrForbidden(
			fmt.Sprintf("user %s is not the host of tournament %s", hostID, tournamentID))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin cancel tx", err)
	}
	defer tx.Rollback(ctx)

	cancelled, err := s.markets.CancelOpenByTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, domain.ErrInternal("cancel tournament markets", err)
	}
	for _, marketID := range cancelled {
		if err := s.outbox.Insert(ctx, tx, domain.NewMarketLifecycleEvent(marketID, domain.EventMarketCancelled, map[string]interface{}{
			"tournament_id": tournamentID.String(),
		})); err != nil {
			return nil, domain.ErrInternal("insert cancelled event", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit cancel", err)
	}

	s.logger.Info("tournament markets cancelled",
		"tournament_id", tournamentID, "markets", len(cancelled))
	return cancelled, nil
}

// settleResults flips the market to settled and records per-bet win/loss
// without payout amounts, in one transaction.
func (s *Service) settleResults(ctx context.Context, m *domain.Market, winnerID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin resolve tx", err)
	}
	defer tx.Rollback(ctx)

	flipped, err := s.markets.SettleCAS(ctx, tx, m.ID, winnerID, domain.ResolutionApproved)
	if err != nil {
		return domain.ErrInternal("settle market", err)
	}
	if !flipped {
		return domain.ErrAlreadySettled(m.ID.String())
	}

	won, lost, err := s.bets.MarkOutcomeResult(ctx, tx, m.ID, winnerID,
		[]domain.BetStatus{domain.BetPending, domain.BetConfirmed})
	if err != nil {
		return domain.ErrInternal("mark bet results", err)
	}

	if err := s.outbox.Insert(ctx, tx, domain.NewMarketLifecycleEvent(m.ID, domain.EventMarketSettled, map[string]interface{}{
		"winning_outcome_id": winnerID.String(),
		"won_bets":           won,
		"lost_bets":          lost,
	})); err != nil {
		return domain.ErrInternal("insert settled event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit resolve", err)
	}

	s.logger.Info("market resolved",
		"market_id", m.ID, "winning_outcome_id", winnerID,
		"won_bets", won, "lost_bets", lost)
	return nil
}

// transition runs one mutation plus its lifecycle event in a transaction.
func (s *Service) transition(ctx context.Context, marketID uuid.UUID, evt domain.EventType, detail map[string]interface{}, mutate func(context.Context, repository.DBTX) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin transition tx", err)
	}
	defer tx.Rollback(ctx)

	if err := mutate(ctx, tx); err != nil {
		return domain.ErrInternal("apply transition", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewMarketLifecycleEvent(marketID, evt, detail)); err != nil {
		return domain.ErrInternal("insert transition event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit transition", err)
	}

	s.logger.Info("market transition", "market_id", marketID, "event", evt)
	return nil
}

// matchOutcome finds the market outcome whose label matches the verified
// winner, case-insensitively.
func (s *Service) matchOutcome(ctx context.Context, marketID uuid.UUID, winnerLabel string) (*domain.Outcome, error) {
	outcomes, err := s.markets.ListOutcomes(ctx, s.pool, marketID)
	if err != nil {
		return nil, domain.ErrInternal("load outcomes", err)
	}
	for i := range outcomes {
		if strings.EqualFold(outcomes[i].Label, winnerLabel) {
			return &outcomes[i], nil
		}
	}
	return nil, domain.ErrValidation(
		fmt.Sprintf("verified winner %q matches no outcome of market %s", winnerLabel, marketID))
}

func (s *Service) load(ctx context.Context, marketID uuid.UUID) (*domain.Market, error) {
	m, err := s.markets.FindByID(ctx, s.pool, marketID)
	if err != nil {
		return nil, domain.ErrInternal("load market", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound("market", marketID.String())
	}
	return m, nil
}

func (s *Service) loadOwned(ctx context.Context, hostID, marketID uuid.UUID) (*domain.Market, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return nil, err
	}
	isHost, err := s.ownership.IsMarketHost(ctx, marketID, hostID)
	if err != nil {
		return nil, domain.ErrInternal("ownership check", err)
	}
	if !isHost {
		return nil, domain.ErrForbidden(
			fmt.Sprintf("user %s is not the host of market %s", hostID, marketID))
	}
	return m, nil
}

func proposedID(m *domain.Market) string {
	if m.AIProposedWinnerID == nil {
		return ""
	}
	return m.AIProposedWinnerID.String()
}
