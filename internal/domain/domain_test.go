package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken(t *testing.T) {
	for _, token := range []string{"USDC", "GEMS", "A1", "TOKEN12345"} {
		assert.NoError(t, ValidateToken(token), token)
	}
	for _, token := range []string{"", "a", "usdc", "TOO-LONG-TOKEN", "GEMS!", "X"} {
		assert.Error(t, ValidateToken(token), token)
	}
}

func TestValidateFee(t *testing.T) {
	assert.NoError(t, ValidateFee(0))
	assert.NoError(t, ValidateFee(0.05))
	assert.NoError(t, ValidateFee(0.999))
	assert.Error(t, ValidateFee(1.0))
	assert.Error(t, ValidateFee(-0.01))
}

func TestValidateWeight(t *testing.T) {
	assert.NoError(t, ValidateWeight(1.0))
	assert.NoError(t, ValidateWeight(10.5))
	assert.Error(t, ValidateWeight(0.99))
	assert.Error(t, ValidateWeight(0))
}

func TestParsePredictedScore(t *testing.T) {
	tests := []struct {
		label   string
		want    float64
		wantErr bool
	}{
		{"52", 52, false},
		{"52 kills", 52, false},
		{"  3.5 rounds ", 3.5, false},
		{"-2", -2, false},
		{"", 0, true},
		{"over fifty", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePredictedScore(tt.label)
		if tt.wantErr {
			assert.Error(t, err, tt.label)
			continue
		}
		require.NoError(t, err, tt.label)
		assert.Equal(t, tt.want, got, tt.label)
	}
}

func TestBetStatusTerminal(t *testing.T) {
	assert.True(t, BetWon.Terminal())
	assert.True(t, BetLost.Terminal())
	assert.False(t, BetPending.Terminal())
	assert.False(t, BetConfirmed.Terminal())
}

func TestMarketTypeValid(t *testing.T) {
	for _, typ := range []MarketType{MarketParimutuel, MarketWeighted, MarketBinary, MarketScore} {
		assert.True(t, typ.Valid())
	}
	assert.False(t, MarketType("spread").Valid())
	assert.False(t, MarketType("").Valid())
}

func market(status MarketStatus, resolution ResolutionStatus) *Market {
	return &Market{ID: uuid.New(), Status: status, ResolutionStatus: resolution}
}

func TestCanPropose(t *testing.T) {
	assert.NoError(t, CanPropose(market(MarketOpen, ResolutionNone)))
	assert.NoError(t, CanPropose(market(MarketPaused, ResolutionRejected)))

	assert.Error(t, CanPropose(market(MarketSettled, ResolutionNone)))
	assert.Error(t, CanPropose(market(MarketCancelled, ResolutionNone)))
	assert.Error(t, CanPropose(market(MarketOpen, ResolutionProposed)))
	assert.Error(t, CanPropose(market(MarketOpen, ResolutionApproved)))
}

func TestCanApprove(t *testing.T) {
	winner := uuid.New()
	m := market(MarketOpen, ResolutionProposed)
	m.AIProposedWinnerID = &winner
	assert.NoError(t, CanApprove(m))

	// Approval is only reachable from a recorded proposal.
	err := CanApprove(market(MarketOpen, ResolutionNone))
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INVALID_STATE_TRANSITION", appErr.Code)

	noWinner := market(MarketOpen, ResolutionProposed)
	assert.Error(t, CanApprove(noWinner))

	settled := market(MarketSettled, ResolutionApproved)
	settled.AIProposedWinnerID = &winner
	err = CanApprove(settled)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ALREADY_SETTLED", appErr.Code)
}

func TestCanReject(t *testing.T) {
	assert.NoError(t, CanReject(market(MarketPaused, ResolutionProposed)))
	assert.Error(t, CanReject(market(MarketOpen, ResolutionNone)))
	assert.Error(t, CanReject(market(MarketOpen, ResolutionRejected)))
}

func TestCanPauseResume(t *testing.T) {
	assert.NoError(t, CanPause(market(MarketOpen, ResolutionNone)))
	assert.Error(t, CanPause(market(MarketPaused, ResolutionNone)))
	assert.Error(t, CanPause(market(MarketSettled, ResolutionNone)))

	assert.NoError(t, CanResume(market(MarketPaused, ResolutionNone)))
	assert.Error(t, CanResume(market(MarketOpen, ResolutionNone)))
	assert.Error(t, CanResume(market(MarketCancelled, ResolutionNone)))
}

func TestCanSettle(t *testing.T) {
	assert.NoError(t, CanSettle(market(MarketOpen, ResolutionNone)))
	assert.NoError(t, CanSettle(market(MarketPaused, ResolutionProposed)))

	err := CanSettle(market(MarketSettled, ResolutionApproved))
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ALREADY_SETTLED", appErr.Code)

	assert.Error(t, CanSettle(market(MarketCancelled, ResolutionNone)))
}

func TestAppErrorCodesAndStatuses(t *testing.T) {
	tests := []struct {
		err    *AppError
		code   string
		status int
	}{
		{ErrNotFound("market", "x"), "NOT_FOUND", 404},
		{ErrValidation("bad"), "VALIDATION_ERROR", 400},
		{ErrUnauthorized("no"), "UNAUTHORIZED", 401},
		{ErrForbidden("no"), "FORBIDDEN", 403},
		{ErrMarketClosed("x", MarketPaused), "MARKET_CLOSED", 409},
		{ErrBelowMinimum(1, 100), "BELOW_MINIMUM", 400},
		{ErrAboveMaximum(200, 100), "ABOVE_MAXIMUM", 400},
		{ErrInvalidOutcome("o", "m"), "INVALID_OUTCOME", 400},
		{ErrSlippage(1.5, 2.0), "SLIPPAGE", 409},
		{ErrAlreadySettled("m"), "ALREADY_SETTLED", 409},
		{ErrInvalidStateTransition("no"), "INVALID_STATE_TRANSITION", 409},
		{ErrExternalDependency("verifier", assert.AnError), "EXTERNAL_DEPENDENCY_FAILURE", 502},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.err.Code)
		assert.Equal(t, tt.status, tt.err.Status)
		assert.NotEmpty(t, tt.err.Error())
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := ErrInternal("boom", assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
}
