// Command payout-consumer reads payout obligations from Kafka and hands them
// to the downstream wallet process. The engine never moves funds itself, so
// this consumer is the boundary where obligations leave the betting domain.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/wagerhub/platform/internal/domain"
	"github.com/wagerhub/platform/internal/infra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("payout consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !cfg.KafkaEnabled {
		return fmt.Errorf("KAFKA_ENABLED must be true for the payout consumer")
	}

	topic := infra.TopicPrefix + string(domain.EventPayoutDue)
	consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, topic, "payout-consumer", cfg.KafkaEnabled, logger)
	defer consumer.Close()

	logger.Info("payout consumer starting", "topic", topic)

	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("payout consumer shutting down")
				return nil
			}
			logger.Error("read message failed", "error", err)
			continue
		}

		var envelope struct {
			EventID string          `json:"event_id"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			logger.Error("malformed payout event", "error", err, "offset", msg.Offset)
			continue
		}

		var obligation struct {
			BetID             string `json:"bet_id"`
			RecipientUserID   string `json:"recipient_user_id"`
			MarketID          string `json:"market_id"`
			PayoutAmountMinor int64  `json:"payout_amount_minor"`
			Token             string `json:"token"`
		}
		if err := json.Unmarshal(envelope.Payload, &obligation); err != nil {
			logger.Error("malformed payout payload", "error", err, "event_id", envelope.EventID)
			continue
		}

		logger.Info("payout obligation received",
			"event_id", envelope.EventID,
			"bet_id", obligation.BetID,
			"recipient_user_id", obligation.RecipientUserID,
			"market_id", obligation.MarketID,
			"payout_amount_minor", obligation.PayoutAmountMinor,
			"token", obligation.Token,
		)
	}
}
