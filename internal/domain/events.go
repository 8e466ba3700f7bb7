package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewBetPlacedEvent creates the event emitted when a bet is confirmed.
func NewBetPlacedEvent(bet *Bet) OutboxDraft {
	payload, _ := json.Marshal(bet)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateBet,
		AggregateID:   bet.ID.String(),
		EventType:     EventBetPlaced,
		PartitionKey:  bet.MarketID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewPayoutDueEvent creates the obligation record the external payment
// process consumes. The engine never moves funds itself.
func NewPayoutDueEvent(betID, playerID, marketID uuid.UUID, payoutMinor int64, token string) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"bet_id":              betID.String(),
		"recipient_user_id":   playerID.String(),
		"market_id":           marketID.String(),
		"payout_amount_minor": payoutMinor,
		"token":               token,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePayout,
		AggregateID:   betID.String(),
		EventType:     EventPayoutDue,
		PartitionKey:  playerID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewMarketSettledEvent creates the terminal market event.
func NewMarketSettledEvent(marketID, winningOutcomeID uuid.UUID, totalPaidMinor int64, betCount int) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"market_id":          marketID.String(),
		"winning_outcome_id": winningOutcomeID.String(),
		"total_paid_minor":   totalPaidMinor,
		"settled_bets":       betCount,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateMarket,
		AggregateID:   marketID.String(),
		EventType:     EventMarketSettled,
		PartitionKey:  marketID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewMarketLifecycleEvent covers pause/resume/propose/reject/cancel transitions.
func NewMarketLifecycleEvent(marketID uuid.UUID, evtType EventType, detail map[string]interface{}) OutboxDraft {
	if detail == nil {
		detail = map[string]interface{}{}
	}
	detail["market_id"] = marketID.String()
	payload, _ := json.Marshal(detail)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateMarket,
		AggregateID:   marketID.String(),
		EventType:     evtType,
		PartitionKey:  marketID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
