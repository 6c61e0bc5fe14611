// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/ciziko/internal/cache"
	"github.com/jason-s-yu/ciziko/internal/config"
	"github.com/jason-s-yu/ciziko/internal/database"
	"github.com/jason-s-yu/ciziko/internal/game"
	"github.com/jason-s-yu/ciziko/internal/handlers"
	"github.com/jason-s-yu/ciziko/internal/idle"
	"github.com/jason-s-yu/ciziko/internal/middleware"
	"github.com/jason-s-yu/ciziko/internal/words"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := handlers.NewHub(logger)
	pool := words.DefaultPool()
	coord := game.NewCoordinator(game.NewRegistry(logger), hub, pool, logger)
	logger.Infof("loaded %d words", pool.Len())

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		pub := cache.NewPublisher(rdb, cfg.HistoryQueue)
		coord.Publisher = pub
		defer coord.Close()
		logger.Infof("publishing match history to %s", pub.Queue())
	}

	monitor := idle.NewMonitor(cfg.IdleThreshold, cfg.IdleTick, logger)
	monitor.Resolve = hub.ResolveIdle
	monitor.Unready = coord.ForceUnready
	monitor.Warn = hub.WarnIdle
	go monitor.Run(ctx)

	srv := handlers.NewGameServer(coord, hub, monitor)
	srv.OriginPatterns = cfg.AllowedOrigins

	logMW := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()
	mux.Handle("/health", logMW(handlers.HealthHandler()))
	mux.Handle("/rooms", logMW(handlers.ListRoomsHandler(srv)))
	mux.Handle("/ws", logMW(handlers.GameWSHandler(logger, srv)))

	if cfg.DatabaseURL != "" {
		store, err := database.OpenMatchStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer store.Close()
		mux.Handle("/matches", logMW(handlers.ListMatchesHandler(logger, store)))
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Running on %s", httpSrv.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
}
