package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BetsPlaced counts confirmed bets by market mechanic.
	BetsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerhub_bets_placed_total",
		Help: "Confirmed bets by market type.",
	}, []string{"market_type"})

	// BetsRejected counts intake rejections by error code.
	BetsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerhub_bets_rejected_total",
		Help: "Rejected bet submissions by error code.",
	}, []string{"code"})

	// SettlementsCompleted counts committed settlements by market mechanic.
	SettlementsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerhub_settlements_total",
		Help: "Completed market settlements by market type.",
	}, []string{"market_type"})

	// PayoutMinorTotal accumulates paid-out minor units by token.
	PayoutMinorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerhub_payout_minor_total",
		Help: "Total payout obligations emitted, in minor units, by token.",
	}, []string{"token"})

	// SettlementDuration observes end-to-end settlement latency.
	SettlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wagerhub_settlement_duration_seconds",
		Help:    "Wall time of a full market settlement.",
		Buckets: prometheus.DefBuckets,
	})

	// OddsRecalcs counts odds recalculation runs by trigger.
	OddsRecalcs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerhub_odds_recalcs_total",
		Help: "Odds recalculation runs by trigger source.",
	}, []string{"trigger"})

	// OutboxPublished counts events published from the outbox by type.
	OutboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wagerhub_outbox_published_total",
		Help: "Outbox events published to the broker, by event type.",
	}, []string{"event_type"})
)
