//go:build integration

package integration

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/guard"
	"github.com/wagerhub/platform/internal/infra"
	"github.com/wagerhub/platform/internal/repository"
	"github.com/wagerhub/platform/internal/service"
	"github.com/wagerhub/platform/internal/settlement"
	"github.com/wagerhub/platform/internal/tasks"
)

type testEnv struct {
	pool   *pgxpool.Pool
	market *service.MarketService
	intake *service.BetIntakeService
	engine *settlement.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	require.NoError(t, infra.RunMigrations(dsn, logger))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	marketRepo := repository.NewMarketRepository()
	betRepo := repository.NewBetRepository()
	outboxRepo := repository.NewOutboxRepository()
	ownership := repository.NewOwnershipAuthority(pool)

	recalc := tasks.NewRecalcQueue(16, func(context.Context, uuid.UUID) error { return nil }, logger)
	oddsSvc := service.NewOddsService(pool, marketRepo, outboxRepo, nil, logger)
	intake := service.NewBetIntakeService(pool, marketRepo, betRepo, outboxRepo, oddsSvc,
		guard.NewRateLimiter(nil, 0, time.Minute, logger),
		guard.NewIdempotencyStore(time.Minute),
		recalc, logger)

	return &testEnv{
		pool:   pool,
		market: service.NewMarketService(pool, marketRepo, outboxRepo, logger),
		intake: intake,
		engine: settlement.NewEngine(pool, marketRepo, betRepo, outboxRepo, ownership, nil, logger),
	}
}

func TestParimutuelRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hostID := uuid.New()

	view, err := env.market.Create(ctx, hostID, service.CreateMarketInput{
		TournamentID:  uuid.New(),
		Title:         "Grand Final Winner",
		Type:          domain.MarketParimutuel,
		Token:         "GEMS",
		BookmakingFee: 0.05,
		MinBet:        100,
		Outcomes: []service.CreateOutcomeInput{
			{Label: "Team Alpha"},
			{Label: "Team Beta"},
		},
	})
	require.NoError(t, err)
	winner, loser := view.Outcomes[0], view.Outcomes[1]

	bookingCode := regexp.MustCompile(`^[2-9A-HJ-NP-Z]{6}-[2-9A-HJ-NP-Z]{3}-[2-9A-HJ-NP-Z]{6}$`)
	for _, bet := range []struct {
		outcomeID uuid.UUID
		amount    int64
	}{
		{winner.ID, 10_000},
		{winner.ID, 20_000},
		{winner.ID, 10_000},
		{loser.ID, 60_000},
	} {
		placed, err := env.intake.PlaceBet(ctx, service.PlaceBetInput{
			MarketID:    view.Market.ID,
			OutcomeID:   bet.outcomeID,
			PlayerID:    uuid.New(),
			AmountMinor: bet.amount,
		})
		require.NoError(t, err)
		assert.Regexp(t, bookingCode, placed.BookingCode)
	}

	// Pool conservation: increments match the wagered sum.
	reloaded, err := env.market.Get(ctx, view.Market.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), reloaded.Market.TotalPool)

	result, err := env.engine.Settle(ctx, hostID, view.Market.ID, winner.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.WonBets)
	assert.Equal(t, 1, result.LostBets)
	assert.Equal(t, int64(95_000), result.TotalPaidMinor)

	// One-shot: a second settlement changes nothing.
	_, err = env.engine.Settle(ctx, hostID, view.Market.ID, loser.ID, nil)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ALREADY_SETTLED", appErr.Code)
}

// A slippage rejection must leave no trace: no bet row, no pool increments.
func TestSlippageRejectionWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view, err := env.market.Create(ctx, uuid.New(), service.CreateMarketInput{
		TournamentID:  uuid.New(),
		Title:         "Series Winner",
		Type:          domain.MarketParimutuel,
		Token:         "GEMS",
		BookmakingFee: 0.05,
		MinBet:        100,
		Outcomes: []service.CreateOutcomeInput{
			{Label: "Team Alpha"},
			{Label: "Team Beta"},
		},
	})
	require.NoError(t, err)

	// An empty parimutuel pool quotes at the 1.0 floor, so any higher
	// minimum trips the slippage check.
	minOdds := 2.0
	_, err = env.intake.PlaceBet(ctx, service.PlaceBetInput{
		MarketID:    view.Market.ID,
		OutcomeID:   view.Outcomes[0].ID,
		PlayerID:    uuid.New(),
		AmountMinor: 500,
		MinOdds:     &minOdds,
	})
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SLIPPAGE", appErr.Code)

	var betCount int
	require.NoError(t, env.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM bets WHERE market_id = $1", view.Market.ID).Scan(&betCount))
	assert.Zero(t, betCount)

	reloaded, err := env.market.Get(ctx, view.Market.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Market.TotalPool)
	for _, o := range reloaded.Outcomes {
		assert.Zero(t, o.TotalBets)
		assert.Zero(t, o.BetCount)
	}
}

func TestBetRejectedOnClosedMarket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hostID := uuid.New()

	view, err := env.market.Create(ctx, hostID, service.CreateMarketInput{
		TournamentID:  uuid.New(),
		Title:         "Map Count",
		Type:          domain.MarketBinary,
		Token:         "GEMS",
		BookmakingFee: 0.02,
		MinBet:        100,
		Outcomes: []service.CreateOutcomeInput{
			{Label: "Over 2.5", Weight: 2.0},
			{Label: "Under 2.5", Weight: 2.0},
		},
	})
	require.NoError(t, err)

	_, err = env.engine.Settle(ctx, hostID, view.Market.ID, view.Outcomes[0].ID, nil)
	require.NoError(t, err)

	_, err = env.intake.PlaceBet(ctx, service.PlaceBetInput{
		MarketID:    view.Market.ID,
		OutcomeID:   view.Outcomes[0].ID,
		PlayerID:    uuid.New(),
		AmountMinor: 500,
	})
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "MARKET_CLOSED", appErr.Code)
}
