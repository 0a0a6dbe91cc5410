package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/config"
	"github.com/publicart-catalog/backend/internal/db"
	"github.com/publicart-catalog/backend/internal/events"
	"github.com/publicart-catalog/backend/internal/services"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	relay := services.NewReviewRelay(services.NewCatalogClient(cfg.CatalogURL, log), log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	err = subscriber.Subscribe(ctx, events.StreamModeration, func(ctx context.Context, event events.Event) {
		if !relay.Handle(ctx, event) {
			log.Warn("review event dropped",
				zap.String("event_id", event.ID.String()),
				zap.Int64("dropped_total", relay.Dropped()),
			)
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.String("stream", events.StreamModeration), zap.Error(err))
	}

	log.Info("worker started", zap.String("stream", events.StreamModeration))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down worker", zap.Int64("dropped_total", relay.Dropped()))
}
