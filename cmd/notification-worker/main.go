package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"ms-reservations/internal/config"
	"ms-reservations/internal/kafka"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/notification"
)

// Standalone notification worker: consumes booking events and sends guest
// confirmations. Safe to run alongside the API process; Kafka consumer
// groups partition the work.
func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()

	worker := notification.NewWorker(notification.ForConfig(cfg.Email, log), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topics := []string{
		cfg.Kafka.Topics.BookingCreated,
		cfg.Kafka.Topics.BookingCancelled,
	}

	var wg sync.WaitGroup
	for _, topic := range topics {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID, log)
		defer consumer.Close()

		wg.Add(1)
		go func(t string) {
			defer wg.Done()
			log.Info("KAFKA", fmt.Sprintf("Consuming topic %s", t))
			consumer.Start(ctx, worker.Handle)
		}(topic)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Notification worker started, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received")
	cancel()
	wg.Wait()
	log.Info("APP", "✅ Notification worker shutdown complete")
}
