package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/metrics"
	"github.com/wagerhub/platform/internal/provider"
	"github.com/wagerhub/platform/internal/repository"
)

// Engine performs the terminal settlement transaction for a market: payout
// computation, every bet's one-way flip to won/lost, and the market's
// one-shot flip to settled, all in a single transaction.
type Engine struct {
	pool      *pgxpool.Pool
	markets   repository.MarketRepository
	bets      repository.BetRepository
	outbox    repository.OutboxRepository
	ownership repository.OwnershipAuthority
	scores    provider.ScoreSource
	logger    *slog.Logger
}

// NewEngine creates a settlement engine.
func NewEngine(
	pool *pgxpool.Pool,
	markets repository.MarketRepository,
	bets repository.BetRepository,
	outbox repository.OutboxRepository,
	ownership repository.OwnershipAuthority,
	scores provider.ScoreSource,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		pool:      pool,
		markets:   markets,
		bets:      bets,
		outbox:    outbox,
		ownership: ownership,
		scores:    scores,
		logger:    logger,
	}
}

// Result summarizes one committed settlement.
type Result struct {
	MarketID         uuid.UUID `json:"market_id"`
	WinningOutcomeID uuid.UUID `json:"winning_outcome_id"`
	WonBets          int       `json:"won_bets"`
	LostBets         int       `json:"lost_bets"`
	TotalPaidMinor   int64     `json:"total_paid_minor"`
}

// Settle computes and commits payouts for the market. Strictly one-shot: a
// second call fails with ALREADY_SETTLED and alters nothing.
func (e *Engine) Settle(ctx context.Context, hostID, marketID, winningOutcomeID uuid.UUID, data *domain.SettlementData) (*Result, error) {
	start := time.Now()

	m, outcomes, err := e.loadMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if err := domain.CanSettle(m); err != nil {
		return nil, err
	}
	if err := e.requireHost(ctx, m, hostID); err != nil {
		return nil, err
	}

	data, err = e.resolveSettlementData(ctx, m, data)
	if err != nil {
		return nil, err
	}

	bets, err := e.bets.ListSettleable(ctx, e.pool, marketID)
	if err != nil {
		return nil, domain.ErrInternal("load settleable bets", err)
	}

	plan, err := BuildPlan(m, outcomes, bets, winningOutcomeID, data)
	if err != nil {
		return nil, err
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin settlement tx", err)
	}
	defer tx.Rollback(ctx)

	// Conditional flip first: losing the race means another settlement
	// already committed and no bet may be touched.
	flipped, err := e.markets.SettleCAS(ctx, tx, marketID, winningOutcomeID, domain.ResolutionApproved)
	if err != nil {
		return nil, domain.ErrInternal("settle market", err)
	}
	if !flipped {
		return nil, domain.ErrAlreadySettled(marketID.String())
	}

	for _, p := range plan.Payouts {
		if err := e.bets.SettleWon(ctx, tx, p.BetID, p.AmountMinor); err != nil {
			return nil, domain.ErrInternal("settle winning bet", err)
		}
		if err := e.outbox.Insert(ctx, tx, domain.NewPayoutDueEvent(p.BetID, p.PlayerID, marketID, p.AmountMinor, m.Token)); err != nil {
			return nil, domain.ErrInternal("insert payout event", err)
		}
	}

	wonIDs := make([]uuid.UUID, len(plan.Payouts))
	for i, p := range plan.Payouts {
		wonIDs[i] = p.BetID
	}
	lost, err := e.bets.SettleLostExcept(ctx, tx, marketID, wonIDs)
	if err != nil {
		return nil, domain.ErrInternal("settle losing bets", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewMarketSettledEvent(marketID, winningOutcomeID, plan.TotalPaidMinor, len(plan.Payouts)+int(lost))); err != nil {
		return nil, domain.ErrInternal("insert settled event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit settlement", err)
	}

	metrics.SettlementsCompleted.WithLabelValues(string(m.Type)).Inc()
	metrics.PayoutMinorTotal.WithLabelValues(m.Token).Add(float64(plan.TotalPaidMinor))
	metrics.SettlementDuration.Observe(time.Since(start).Seconds())

	e.logger.Info("market settled",
		"market_id", marketID,
		"market_type", m.Type,
		"winning_outcome_id", winningOutcomeID,
		"won_bets", len(plan.Payouts),
		"lost_bets", lost,
		"total_paid_minor", plan.TotalPaidMinor,
	)

	return &Result{
		MarketID:         marketID,
		WinningOutcomeID: winningOutcomeID,
		WonBets:          len(plan.Payouts),
		LostBets:         int(lost),
		TotalPaidMinor:   plan.TotalPaidMinor,
	}, nil
}

// Preview computes the same payouts as Settle without persisting anything.
func (e *Engine) Preview(ctx context.Context, marketID, winningOutcomeID uuid.UUID, data *domain.SettlementData) (*Plan, error) {
	m, outcomes, err := e.loadMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if err := domain.CanSettle(m); err != nil {
		return nil, err
	}

	data, err = e.resolveSettlementData(ctx, m, data)
	if err != nil {
		return nil, err
	}

	bets, err := e.bets.ListSettleable(ctx, e.pool, marketID)
	if err != nil {
		return nil, domain.ErrInternal("load settleable bets", err)
	}
	return BuildPlan(m, outcomes, bets, winningOutcomeID, data)
}

// MarketStatus is one entry of a tournament settlement report.
type MarketStatus struct {
	MarketID uuid.UUID `json:"market_id"`
	Settled  bool      `json:"settled"`
	Error    string    `json:"error,omitempty"`
	Result   *Result   `json:"result,omitempty"`
}

// SettleTournament settles every unsettled market of the tournament that
// carries a resolved winner. Markets settle independently: a failure is
// recorded and skipped, never aborting the siblings.
func (e *Engine) SettleTournament(ctx context.Context, hostID, tournamentID uuid.UUID) ([]MarketStatus, error) {
	markets, err := e.markets.ListByTournament(ctx, e.pool, tournamentID)
	if err != nil {
		return nil, domain.ErrInternal("load tournament markets", err)
	}
	if len(markets) == 0 {
		return nil, domain.ErrNotFound("tournament", tournamentID.String())
	}

	var report []MarketStatus
	for _, m := range markets {
		if m.Status == domain.MarketSettled || m.Status == domain.MarketCancelled {
			continue
		}
		winner := m.AIProposedWinnerID
		if winner == nil {
			report = append(report, MarketStatus{
				MarketID: m.ID,
				Error:    "no resolved winner",
			})
			continue
		}

		result, err := e.Settle(ctx, hostID, m.ID, *winner, nil)
		if err != nil {
			e.logger.Warn("tournament settlement: market skipped",
				"tournament_id", tournamentID, "market_id", m.ID, "error", err)
			report = append(report, MarketStatus{MarketID: m.ID, Error: err.Error()})
			continue
		}
		report = append(report, MarketStatus{MarketID: m.ID, Settled: true, Result: result})
	}
	return report, nil
}

func (e *Engine) loadMarket(ctx context.Context, marketID uuid.UUID) (*domain.Market, []domain.Outcome, error) {
	m, err := e.markets.FindByID(ctx, e.pool, marketID)
	if err != nil {
		return nil, nil, domain.ErrInternal("load market", err)
	}
	if m == nil {
		return nil, nil, domain.ErrNotFound("market", marketID.String())
	}
	outcomes, err := e.markets.ListOutcomes(ctx, e.pool, marketID)
	if err != nil {
		return nil, nil, domain.ErrInternal("load outcomes", err)
	}
	return m, outcomes, nil
}

func (e *Engine) requireHost(ctx context.Context, m *domain.Market, hostID uuid.UUID) error {
	isHost, err := e.ownership.IsMarketHost(ctx, m.ID, hostID)
	if err != nil {
		return domain.ErrInternal("ownership check", err)
	}
	if !isHost {
		return domain.ErrForbidden(fmt.Sprintf("user %s is not the host of market %s", hostID, m.ID))
	}
	return nil
}

// resolveSettlementData fills in the actual score for score markets,
// consulting the external score source when the caller did not supply one.
func (e *Engine) resolveSettlementData(ctx context.Context, m *domain.Market, data *domain.SettlementData) (*domain.SettlementData, error) {
	if m.Type != domain.MarketScore {
		return data, nil
	}
	if data != nil && data.ActualScore != nil {
		return data, nil
	}
	if e.scores == nil || m.MatchRef == nil {
		return nil, domain.ErrValidation("score market settlement requires actual_score")
	}
	score, err := e.scores.FinalScore(ctx, *m.MatchRef)
	if err != nil {
		return nil, domain.ErrExternalDependency("score source", err)
	}
	return &domain.SettlementData{ActualScore: &score}, nil
}
