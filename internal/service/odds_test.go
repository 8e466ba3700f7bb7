package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/provider"
)

type stubOddsEngine struct {
	quotes map[uuid.UUID]float64
	err    error
	calls  int
}

func (s *stubOddsEngine) QuoteOdds(_ context.Context, _ uuid.UUID, _ []provider.OddsRequestOutcome) (map[uuid.UUID]float64, error) {
	s.calls++
	return s.quotes, s.err
}

func weightedMarket(autonomous bool) (*domain.Market, []domain.Outcome) {
	m := &domain.Market{
		ID:         uuid.New(),
		Type:       domain.MarketWeighted,
		Status:     domain.MarketOpen,
		Autonomous: autonomous,
	}
	outcomes := []domain.Outcome{
		{ID: uuid.New(), MarketID: m.ID, Label: "Team Alpha", Weight: 2.5},
		{ID: uuid.New(), MarketID: m.ID, Label: "Team Beta", Weight: 1.5},
	}
	return m, outcomes
}

func oddsServiceWith(engine provider.OddsEngine) *OddsService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOddsService(nil, nil, nil, engine, logger)
}

// The locked quote on an autonomous weighted market is the modeled quote,
// not the host weight, so placement locks exactly what the display shows.
func TestQuoteOutcomeUsesModeledOdds(t *testing.T) {
	m, outcomes := weightedMarket(true)
	engine := &stubOddsEngine{quotes: map[uuid.UUID]float64{outcomes[0].ID: 3.2}}

	q, ok := oddsServiceWith(engine).QuoteOutcome(context.Background(), m, outcomes, outcomes[0].ID)
	require.True(t, ok)
	assert.Equal(t, 3.2, q.Odds)
	assert.Equal(t, 1, engine.calls)

	// Outcomes the model did not price keep the local weight.
	q, ok = oddsServiceWith(engine).QuoteOutcome(context.Background(), m, outcomes, outcomes[1].ID)
	require.True(t, ok)
	assert.Equal(t, 1.5, q.Odds)
}

func TestQuoteOutcomeFallsBackOnEngineError(t *testing.T) {
	m, outcomes := weightedMarket(true)
	engine := &stubOddsEngine{err: errors.New("pricing service down")}

	q, ok := oddsServiceWith(engine).QuoteOutcome(context.Background(), m, outcomes, outcomes[0].ID)
	require.True(t, ok)
	assert.Equal(t, 2.5, q.Odds)
}

func TestQuoteOutcomeSkipsEngineForNonAutonomous(t *testing.T) {
	m, outcomes := weightedMarket(false)
	engine := &stubOddsEngine{quotes: map[uuid.UUID]float64{outcomes[0].ID: 3.2}}

	q, ok := oddsServiceWith(engine).QuoteOutcome(context.Background(), m, outcomes, outcomes[0].ID)
	require.True(t, ok)
	assert.Equal(t, 2.5, q.Odds)
	assert.Equal(t, 0, engine.calls)
}

// Modeled quotes below the floor are rejected; odds never drop under 1.0.
func TestQuoteOutcomeIgnoresSubFloorModel(t *testing.T) {
	m, outcomes := weightedMarket(true)
	engine := &stubOddsEngine{quotes: map[uuid.UUID]float64{outcomes[0].ID: 0.8}}

	q, ok := oddsServiceWith(engine).QuoteOutcome(context.Background(), m, outcomes, outcomes[0].ID)
	require.True(t, ok)
	assert.Equal(t, 2.5, q.Odds)
}

func TestQuoteOutcomeUnknownOutcome(t *testing.T) {
	m, outcomes := weightedMarket(true)

	_, ok := oddsServiceWith(nil).QuoteOutcome(context.Background(), m, outcomes, uuid.New())
	assert.False(t, ok)
}
