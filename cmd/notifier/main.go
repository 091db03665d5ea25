package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"wayfarer/internal/alerts"
	"wayfarer/pkg/config"
	"wayfarer/pkg/kafka"
	kafka_config "wayfarer/pkg/kafka/config"
)

const (
	ServiceName     = "notifier"
	ConsumerGroupID = "wayfarer-notifier"
)

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Notifier")

	kafkaCfg := kafka_config.Load()
	handler := alerts.AlertHandler(alerts.NewLogNotifier(cfg.Log), cfg.Log)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.AlertTopic, ConsumerGroupID, cfg.AlertTopic+".dlq", handler, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}
