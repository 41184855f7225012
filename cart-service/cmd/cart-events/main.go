// Command cart-events tails the cart-updated topic and logs every committed
// cart as it is published.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fjod/go_cart/cart-service/internal/events"
	"github.com/fjod/go_cart/pkg/config"
	"github.com/fjod/go_cart/pkg/logger"
)

type Config struct {
	Env          string   `env:"APP_ENV"        envDefault:"development"`
	LogLevel     string   `env:"LOG_LEVEL"      envDefault:"info"`
	KafkaBrokers []string `env:"KAFKA_BROKERS"  envDefault:"localhost:9092" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"    envDefault:"cart-updated"`
	GroupID      string   `env:"KAFKA_GROUP_ID" envDefault:"cart-events-tail"`
}

func main() {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "cart-events",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.GroupID,
		func(ctx context.Context, e events.CartEvent) error {
			log.InfoContext(ctx, "cart updated",
				"event_id", e.EventID,
				"storage_key", e.StorageKey,
				"total_items", e.TotalItems,
				"lines", len(e.Items),
				"occurred_at", e.OccurredAt,
			)
			return nil
		}, log)

	log.Info("tailing cart events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	consumer.Run(ctx)

	if err := consumer.Close(); err != nil {
		log.Error("failed to close consumer", "error", err)
	}
}
