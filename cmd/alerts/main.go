package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"wayfarer/internal/alerts"
	"wayfarer/internal/flights/repository"
	"wayfarer/pkg/clock"
	"wayfarer/pkg/config"
	"wayfarer/pkg/kafka"
	kafka_config "wayfarer/pkg/kafka/config"
	"wayfarer/pkg/provider"
)

const ServiceName = "alerts"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Alerts checker")

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.AlertTopic, cfg.AlertTopic+".dlq", cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer producer.Close()

	gateway := provider.New(provider.Config{
		BaseURL:      cfg.ProviderBaseURL,
		TokenPath:    cfg.ProviderTokenURL,
		ClientID:     cfg.ProviderClientID,
		ClientSecret: cfg.ProviderClientSecret,
		Timeout:      cfg.ProviderTimeout,
	}, cfg.Log)

	checker := alerts.NewChecker(
		repository.NewMongoBookingRepository(cfg),
		gateway,
		producer,
		clock.NewSystem(),
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run(ctx, cfg, checker)
	cfg.Log.Info("Alerts checker stopped")
}

// run executes one pass immediately, then one per interval until the
// context is cancelled.
func run(ctx context.Context, cfg *config.Config, checker *alerts.Checker) {
	if err := checker.Run(ctx); err != nil {
		cfg.Log.Error("Delay check pass failed", "error", err)
	}

	ticker := time.NewTicker(cfg.AlertCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := checker.Run(ctx); err != nil {
				cfg.Log.Error("Delay check pass failed", "error", err)
			}
		}
	}
}
