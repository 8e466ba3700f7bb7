package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/odds"
	"github.com/wagerhub/platform/internal/repository"
)

// CreateMarketInput is the host's request to open a market.
type CreateMarketInput struct {
	TournamentID  uuid.UUID            `json:"tournament_id"`
	Title         string               `json:"title"`
	Type          domain.MarketType    `json:"type"`
	Token         string               `json:"token"`
	PoolPreSeed   int64                `json:"pool_pre_seed"`
	BookmakingFee float64              `json:"bookmaking_fee"`
	MinBet        int64                `json:"min_bet"`
	MaxBet        *int64               `json:"max_bet,omitempty"`
	Autonomous    bool                 `json:"autonomous"`
	MatchRef      *string              `json:"match_ref,omitempty"`
	Outcomes      []CreateOutcomeInput `json:"outcomes"`
}

// CreateOutcomeInput is one candidate outcome of a new market.
type CreateOutcomeInput struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// MarketView is a market with its outcomes and live quotes.
type MarketView struct {
	Market   *domain.Market   `json:"market"`
	Outcomes []domain.Outcome `json:"outcomes"`
	Quotes   []odds.Quote     `json:"quotes"`
}

// MarketService creates and reads markets.
type MarketService struct {
	pool    *pgxpool.Pool
	markets repository.MarketRepository
	outbox  repository.OutboxRepository
	logger  *slog.Logger
}

// NewMarketService creates a MarketService.
func NewMarketService(pool *pgxpool.Pool, markets repository.MarketRepository, outbox repository.OutboxRepository, logger *slog.Logger) *MarketService {
	return &MarketService{pool: pool, markets: markets, outbox: outbox, logger: logger}
}

// Create validates and persists a market with its outcomes in one transaction.
func (s *MarketService) Create(ctx context.Context, hostID uuid.UUID, in CreateMarketInput) (*MarketView, error) {
	if err := validateCreateMarket(in); err != nil {
		return nil, err
	}

	m := &domain.Market{
		ID:               uuid.New(),
		TournamentID:     in.TournamentID,
		HostID:           hostID,
		Title:            in.Title,
		Type:             in.Type,
		Status:           domain.MarketOpen,
		ResolutionStatus: domain.ResolutionNone,
		Token:            in.Token,
		TotalPool:        0,
		PoolPreSeed:      in.PoolPreSeed,
		BookmakingFee:    in.BookmakingFee,
		MinBet:           in.MinBet,
		MaxBet:           in.MaxBet,
		Autonomous:       in.Autonomous,
		MatchRef:         in.MatchRef,
	}

	outcomes := make([]domain.Outcome, len(in.Outcomes))
	for i, oc := range in.Outcomes {
		weight := oc.Weight
		if weight == 0 {
			weight = 1.0
		}
		outcomes[i] = domain.Outcome{
			ID:        uuid.New(),
			MarketID:  m.ID,
			Label:     oc.Label,
			Weight:    weight,
			SortOrder: i,
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin create market tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.markets.Create(ctx, tx, m); err != nil {
		return nil, domain.ErrInternal("create market", err)
	}
	for i := range outcomes {
		if err := s.markets.CreateOutcome(ctx, tx, &outcomes[i]); err != nil {
			return nil, domain.ErrInternal("create outcome", err)
		}
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewMarketLifecycleEvent(m.ID, domain.EventMarketCreated, map[string]interface{}{
		"tournament_id": m.TournamentID.String(),
		"market_type":   string(m.Type),
	})); err != nil {
		return nil, domain.ErrInternal("insert market created event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit create market", err)
	}

	s.logger.Info("market created",
		"market_id", m.ID, "tournament_id", m.TournamentID,
		"market_type", m.Type, "outcomes", len(outcomes))

	return &MarketView{
		Market:   m,
		Outcomes: outcomes,
		Quotes:   odds.Compute(odds.SnapshotOf(m), odds.StatesOf(outcomes)),
	}, nil
}

// Get returns the market with outcomes and freshly computed quotes.
func (s *MarketService) Get(ctx context.Context, marketID uuid.UUID) (*MarketView, error) {
	m, err := s.markets.FindByID(ctx, s.pool, marketID)
	if err != nil {
		return nil, domain.ErrInternal("load market", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound("market", marketID.String())
	}
	outcomes, err := s.markets.ListOutcomes(ctx, s.pool, marketID)
	if err != nil {
		return nil, domain.ErrInternal("load outcomes", err)
	}
	return &MarketView{
		Market:   m,
		Outcomes: outcomes,
		Quotes:   odds.Compute(odds.SnapshotOf(m), odds.StatesOf(outcomes)),
	}, nil
}

// List returns recent markets.
func (s *MarketService) List(ctx context.Context, limit int) ([]domain.Market, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	markets, err := s.markets.List(ctx, s.pool, limit)
	if err != nil {
		return nil, domain.ErrInternal("list markets", err)
	}
	return markets, nil
}

// ListByTournament returns all markets of a tournament.
func (s *MarketService) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]domain.Market, error) {
	markets, err := s.markets.ListByTournament(ctx, s.pool, tournamentID)
	if err != nil {
		return nil, domain.ErrInternal("list tournament markets", err)
	}
	return markets, nil
}

func validateCreateMarket(in CreateMarketInput) error {
	if in.Title == "" {
		return domain.ErrValidation("title is required")
	}
	if !in.Type.Valid() {
		return domain.ErrValidation(fmt.Sprintf("unknown market type %q", in.Type))
	}
	if err := domain.ValidateToken(in.Token); err != nil {
		return domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateFee(in.BookmakingFee); err != nil {
		return domain.ErrValidation(err.Error())
	}
	if in.MinBet <= 0 {
		return domain.ErrValidation("min_bet must be positive")
	}
	if in.MaxBet != nil && *in.MaxBet < in.MinBet {
		return domain.ErrValidation("max_bet must be at least min_bet")
	}
	if in.PoolPreSeed < 0 {
		return domain.ErrValidation("pool_pre_seed must not be negative")
	}
	if len(in.Outcomes) < 2 {
		return domain.ErrValidation("a market needs at least two outcomes")
	}
	if in.Type == domain.MarketBinary && len(in.Outcomes) != 2 {
		return domain.ErrValidation("a binary market needs exactly two outcomes")
	}
	seen := make(map[string]struct{}, len(in.Outcomes))
	for _, oc := range in.Outcomes {
		if oc.Label == "" {
			return domain.ErrValidation("outcome labels must not be empty")
		}
		if _, dup := seen[oc.Label]; dup {
			return domain.ErrValidation(fmt.Sprintf("duplicate outcome label %q", oc.Label))
		}
		seen[oc.Label] = struct{}{}
		if oc.Weight != 0 {
			if err := domain.ValidateWeight(oc.Weight); err != nil {
				return domain.ErrValidation(err.Error())
			}
		}
		if in.Type == domain.MarketScore {
			if _, err := domain.ParsePredictedScore(oc.Label); err != nil {
				return domain.ErrValidation(err.Error())
			}
		}
	}
	return nil
}
