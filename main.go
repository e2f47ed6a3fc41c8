package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"arena-matchmaking/config"
	"arena-matchmaking/handler"
	"arena-matchmaking/metrics"
	"arena-matchmaking/oracle"
	"arena-matchmaking/service"
	"arena-matchmaking/session"
	"arena-matchmaking/storage"
)

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting Arena Matchmaking Service")

	// Match archive and event feed
	redisStorage, err := storage.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Redis storage", zap.Error(err))
	}
	defer redisStorage.Close()

	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))

	// Player accounts
	db, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal("Failed to open player database", zap.Error(err))
	}
	defer db.Close()

	clock := clockwork.NewRealClock()
	players := storage.NewPlayerStore(db, clock, logger)

	if cfg.OracleToken == "" {
		logger.Warn("ORACLE_TOKEN is not set, oracle verification will fail")
	}
	oracleClient := oracle.NewClient(cfg.OracleBaseURL, cfg.OracleToken, cfg.OracleTimeout, logger)

	metricsService := metrics.NewService()
	registry := session.NewRegistry(logger)

	matcherService := service.NewMatcherService(service.Dependencies{
		Registry: registry,
		Notifier: session.NewDispatcher(registry, metricsService, logger),
		Players:  players,
		Oracle:   oracleClient,
		Archive:  redisStorage,
		Events:   redisStorage,
		Metrics:  metricsService,
		Clock:    clock,
	}, logger, cfg.Matcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler, err := service.NewScheduler(ctx, matcherService, cfg.Matcher, clock, logger)
	if err != nil {
		logger.Fatal("Failed to initialize scheduler", zap.Error(err))
	}
	scheduler.Start()

	router := handler.NewRouter(matcherService, redisStorage, metrics.NewMetricsHandler(), logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()
	if err := scheduler.Shutdown(); err != nil {
		logger.Error("Scheduler forced to shutdown", zap.Error(err))
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
