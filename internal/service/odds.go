package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/metrics"
	"github.com/wagerhub/platform/internal/odds"
	"github.com/wagerhub/platform/internal/provider"
	"github.com/wagerhub/platform/internal/repository"
)

// OddsService serves live quotes and runs post-bet recalculations.
type OddsService struct {
	pool    *pgxpool.Pool
	markets repository.MarketRepository
	outbox  repository.OutboxRepository
	engine  provider.OddsEngine
	logger  *slog.Logger
}

// NewOddsService creates an OddsService. engine may be nil; model-assisted
// pricing then falls back to local computation everywhere.
func NewOddsService(pool *pgxpool.Pool, markets repository.MarketRepository, outbox repository.OutboxRepository, engine provider.OddsEngine, logger *slog.Logger) *OddsService {
	return &OddsService{pool: pool, markets: markets, outbox: outbox, engine: engine, logger: logger}
}

// Quote returns the current odds for every outcome of the market.
func (s *OddsService) Quote(ctx context.Context, marketID uuid.UUID) ([]odds.Quote, error) {
	m, outcomes, err := s.load(ctx, marketID)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, m, outcomes), nil
}

// QuoteOutcome prices a single outcome for placement-time locking. It runs
// the same pricing path the display surface uses, so the odds a player is
// shown are the odds that get locked. ok is false when the outcome does not
// belong to the market.
func (s *OddsService) QuoteOutcome(ctx context.Context, m *domain.Market, outcomes []domain.Outcome, outcomeID uuid.UUID) (odds.Quote, bool) {
	for _, q := range s.quote(ctx, m, outcomes) {
		if q.OutcomeID == outcomeID {
			return q, true
		}
	}
	return odds.Quote{}, false
}

// Recalculate recomputes quotes after a confirmed bet and publishes them so
// connected clients refresh. Registered as the recalc queue handler.
func (s *OddsService) Recalculate(ctx context.Context, marketID uuid.UUID) error {
	m, outcomes, err := s.load(ctx, marketID)
	if err != nil {
		return err
	}
	quotes := s.quote(ctx, m, outcomes)

	detail := map[string]interface{}{
		"total_pool": m.TotalPool,
		"quotes":     quotes,
	}
	if err := s.outbox.Insert(ctx, s.pool, domain.NewMarketLifecycleEvent(marketID, domain.EventOddsUpdated, detail)); err != nil {
		return domain.ErrInternal("insert odds updated event", err)
	}

	metrics.OddsRecalcs.WithLabelValues("bet_placed").Inc()
	return nil
}

// quote prefers the external pricing model for weighted markets and falls
// back to the local calculator when the model is absent or fails.
func (s *OddsService) quote(ctx context.Context, m *domain.Market, outcomes []domain.Outcome) []odds.Quote {
	local := odds.Compute(odds.SnapshotOf(m), odds.StatesOf(outcomes))
	if s.engine == nil || m.Type != domain.MarketWeighted || !m.Autonomous {
		return local
	}

	req := make([]provider.OddsRequestOutcome, len(outcomes))
	for i, o := range outcomes {
		req[i] = provider.OddsRequestOutcome{
			OutcomeID:      o.ID,
			Label:          o.Label,
			Weight:         o.Weight,
			TotalBetsMinor: o.TotalBets,
		}
	}
	modeled, err := s.engine.QuoteOdds(ctx, m.ID, req)
	if err != nil {
		s.logger.Warn("odds engine unavailable, using local quotes",
			"market_id", m.ID, "error", err)
		return local
	}

	for i := range local {
		if modelOdds, ok := modeled[local[i].OutcomeID]; ok && modelOdds >= odds.Floor {
			local[i].Odds = modelOdds
		}
	}
	return local
}

func (s *OddsService) load(ctx context.Context, marketID uuid.UUID) (*domain.Market, []domain.Outcome, error) {
	m, err := s.markets.FindByID(ctx, s.pool, marketID)
	if err != nil {
		return nil, nil, domain.ErrInternal("load market", err)
	}
	if m == nil {
		return nil, nil, domain.ErrNotFound("market", marketID.String())
	}
	outcomes, err := s.markets.ListOutcomes(ctx, s.pool, marketID)
	if err != nil {
		return nil, nil, domain.ErrInternal("load outcomes", err)
	}
	return m, outcomes, nil
}
