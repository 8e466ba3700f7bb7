package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types. The outbox poller derives
// Kafka topics from these values, so they stay stable across releases.
type EventType string

const (
	EventBetPlaced        EventType = "bet.placed"
	EventBetSettled       EventType = "bet.settled"
	EventPayoutDue        EventType = "payout.due"
	EventMarketCreated    EventType = "market.created"
	EventMarketPaused     EventType = "market.paused"
	EventMarketResumed    EventType = "market.resumed"
	EventWinnerProposed   EventType = "market.winner.proposed"
	EventProposalRejected EventType = "market.winner.rejected"
	EventMarketSettled    EventType = "market.settled"
	EventMarketCancelled  EventType = "market.cancelled"
	EventOddsUpdated      EventType = "market.odds.updated"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateMarket AggregateType = "market"
	AggregateBet    AggregateType = "bet"
	AggregatePayout AggregateType = "payout"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}
