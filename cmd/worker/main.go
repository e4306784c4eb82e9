package main

import (
	"context"
	"errors"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/theta-web/internal/logger"
	"github.com/iliyamo/theta-web/internal/queue"
)

// The worker drains inquiry.received events into an append-only audit log.
func main() {
	_ = godotenv.Load()

	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	if url == "" {
		stdlog.Fatal("missing required env var: RABBITMQ_URL")
	}

	log, err := logger.New(logger.Options{
		Environment: os.Getenv("APP_ENV"),
		Level:       os.Getenv("LOG_LEVEL"),
		Service:     "theta-worker",
		File:        os.Getenv("LOG_FILE"),
	})
	if err != nil {
		stdlog.Fatalf("init logger: %v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewConsumer(url, os.Getenv("INQUIRY_LOG_DIR"), log)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", logger.Error(err))
	}
}
