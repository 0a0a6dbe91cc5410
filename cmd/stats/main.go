package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/publicart-catalog/backend/internal/config"
	"github.com/publicart-catalog/backend/internal/db"
	"github.com/publicart-catalog/backend/internal/repositories"
	"github.com/publicart-catalog/backend/internal/services"
)

func main() {
	days := flag.Int("days", 30, "statistics window in days")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, db.PoolConfig{
		DSN:      cfg.PostgresDSN,
		MaxConns: int32(cfg.PostgresMaxConns),
		MinConns: int32(cfg.PostgresMinConns),
	}, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	stats := services.NewStatsService(
		repositories.NewSubmissionRepo(pool),
		repositories.NewAuditRepo(pool),
		services.NewRedisStatsCache(rdb),
		cfg,
		log,
	)

	result, err := stats.GetStatistics(ctx, *days)
	if err != nil {
		log.Fatal("failed to compute statistics", zap.Int("days", *days), zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatal("failed to write statistics", zap.Error(err))
	}
}
