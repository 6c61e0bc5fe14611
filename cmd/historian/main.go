// cmd/historian/main.go drains the match history queue into PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/ciziko/internal/cache"
	"github.com/jason-s-yu/ciziko/internal/config"
	"github.com/jason-s-yu/ciziko/internal/database"
	"github.com/jason-s-yu/ciziko/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if cfg.RedisAddr == "" || cfg.DatabaseURL == "" {
		logger.Fatal("historian needs REDIS_ADDR and a database (DATABASE_URL or POSTGRES_USER/PG_HOST)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	store, err := database.OpenMatchStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer store.Close()

	svc := historian.New(rdb, store, cfg.HistoryQueue, logger)
	svc.BatchSize = cfg.HistorianBatchSize
	svc.FlushDelay = cfg.HistorianFlush
	svc.Inactivity = cfg.MatchInactivity

	svc.Run(ctx)
	logger.Info("historian shutdown complete")
}
