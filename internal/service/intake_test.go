package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagerhub/platform/internal/domain"
)

func openMarket() *domain.Market {
	return &domain.Market{
		ID:     uuid.New(),
		Status: domain.MarketOpen,
		MinBet: 100,
	}
}

func TestPreflightBetClosedMarket(t *testing.T) {
	for _, status := range []domain.MarketStatus{
		domain.MarketPaused, domain.MarketSettled, domain.MarketCancelled,
	} {
		m := openMarket()
		m.Status = status

		err := PreflightBet(m, PlaceBetInput{AmountMinor: 500})
		require.Error(t, err)
		var appErr *domain.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "MARKET_CLOSED", appErr.Code, "status %s", status)
	}
}

func TestPreflightBetAmountBounds(t *testing.T) {
	maxBet := int64(10_000)
	m := openMarket()
	m.MaxBet = &maxBet

	tests := []struct {
		name     string
		amount   int64
		wantCode string
	}{
		{"below minimum", 99, "BELOW_MINIMUM"},
		{"at minimum", 100, ""},
		{"at maximum", 10_000, ""},
		{"above maximum", 10_001, "ABOVE_MAXIMUM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PreflightBet(m, PlaceBetInput{AmountMinor: tt.amount})
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *domain.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestPreflightBetNoMaximum(t *testing.T) {
	m := openMarket()

	assert.NoError(t, PreflightBet(m, PlaceBetInput{AmountMinor: 1_000_000_000}))
}

// A closed market reports MARKET_CLOSED even when the amount is also out of
// bounds: the checks have a fixed order.
func TestPreflightBetCheckOrder(t *testing.T) {
	m := openMarket()
	m.Status = domain.MarketPaused

	err := PreflightBet(m, PlaceBetInput{AmountMinor: 1})
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "MARKET_CLOSED", appErr.Code)
}

func TestCheckSlippage(t *testing.T) {
	minOdds := 2.0

	assert.NoError(t, CheckSlippage(2.5, &minOdds))
	assert.NoError(t, CheckSlippage(2.0, &minOdds))
	assert.NoError(t, CheckSlippage(1.1, nil))

	err := CheckSlippage(1.9, &minOdds)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SLIPPAGE", appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestValidateCreateMarket(t *testing.T) {
	valid := CreateMarketInput{
		TournamentID:  uuid.New(),
		Title:         "Grand Final Winner",
		Type:          domain.MarketParimutuel,
		Token:         "GEMS",
		BookmakingFee: 0.05,
		MinBet:        100,
		Outcomes: []CreateOutcomeInput{
			{Label: "Team Alpha"},
			{Label: "Team Beta"},
		},
	}

	assert.NoError(t, validateCreateMarket(valid))

	tests := []struct {
		name   string
		mutate func(*CreateMarketInput)
	}{
		{"empty title", func(in *CreateMarketInput) { in.Title = "" }},
		{"bad type", func(in *CreateMarketInput) { in.Type = "spread" }},
		{"bad token", func(in *CreateMarketInput) { in.Token = "gems!" }},
		{"fee at one", func(in *CreateMarketInput) { in.BookmakingFee = 1.0 }},
		{"negative fee", func(in *CreateMarketInput) { in.BookmakingFee = -0.1 }},
		{"zero min bet", func(in *CreateMarketInput) { in.MinBet = 0 }},
		{"max below min", func(in *CreateMarketInput) { mb := int64(50); in.MaxBet = &mb }},
		{"negative pre-seed", func(in *CreateMarketInput) { in.PoolPreSeed = -1 }},
		{"one outcome", func(in *CreateMarketInput) { in.Outcomes = in.Outcomes[:1] }},
		{"binary with three outcomes", func(in *CreateMarketInput) {
			in.Type = domain.MarketBinary
			in.Outcomes = append(in.Outcomes, CreateOutcomeInput{Label: "Team Gamma"})
		}},
		{"duplicate labels", func(in *CreateMarketInput) { in.Outcomes[1].Label = in.Outcomes[0].Label }},
		{"weight below one", func(in *CreateMarketInput) { in.Outcomes[0].Weight = 0.5 }},
		{"score market with non-numeric label", func(in *CreateMarketInput) {
			in.Type = domain.MarketScore
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			in.Outcomes = append([]CreateOutcomeInput(nil), valid.Outcomes...)
			tt.mutate(&in)

			err := validateCreateMarket(in)
			require.Error(t, err)
			var appErr *domain.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestValidateCreateMarketScoreLabels(t *testing.T) {
	in := CreateMarketInput{
		TournamentID:  uuid.New(),
		Title:         "Total Kills",
		Type:          domain.MarketScore,
		Token:         "GEMS",
		BookmakingFee: 0.05,
		MinBet:        100,
		Outcomes: []CreateOutcomeInput{
			{Label: "45 kills"},
			{Label: "60 kills"},
		},
	}

	assert.NoError(t, validateCreateMarket(in))
}
