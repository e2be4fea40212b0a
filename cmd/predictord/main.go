package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pvplabs/predictor-api/internal/config"
	"github.com/pvplabs/predictor-api/internal/handlers"
	"github.com/pvplabs/predictor-api/internal/predictor"
	"github.com/pvplabs/predictor-api/internal/store"
	"github.com/pvplabs/predictor-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sugar.Fatalw("Invalid redis URL", "error", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		sugar.Fatalw("Redis connection failed", "error", err)
	}
	defer redisClient.Close()

	// Postgres
	pg, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("Postgres connection failed", "error", err)
	}
	defer pg.Close()

	// ClickHouse
	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		sugar.Fatalw("Invalid ClickHouse URL", "error", err)
	}
	ch, err := clickhouse.Open(chOpts)
	if err != nil {
		sugar.Fatalw("ClickHouse connection failed", "error", err)
	}
	defer ch.Close()

	// Optional trained model. Absence is normal; the engine covers it.
	var model predictor.ModelSource
	if cfg.ModelPath != "" {
		model, err = predictor.LoadModel(cfg.ModelPath)
		if err != nil {
			sugar.Warnw("Model unavailable, using strategy engine only", "path", cfg.ModelPath, "error", err)
			model = nil
		}
	}

	registry := predictor.NewRegistry(cfg.MaxHistorySize, model, sugar)
	histories := store.NewHistoryStore(redisClient)
	ticks := store.NewTickStore(redisClient, cfg.MaxTickHistory)
	tickScorer := predictor.NewTickScorer(ticks, sugar)

	restoreHistories(ctx, sugar, registry, histories)

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		ClickHouse:    ch,
		Logger:        logger,
	})
	pool.Start(ctx)

	h := handlers.New(handlers.Config{
		Registry:   registry,
		TickScorer: tickScorer,
		Histories:  histories,
		Ticks:      ticks,
		ExportPool: pool,
		Postgres:   pg,
		ClickHouse: ch,
		Redis:      redisClient,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Router(cfg.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("Server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Server shutdown failed", "error", err)
	}
	pool.Stop()
	sugar.Info("Shutdown complete")
}

// restoreHistories reloads every persisted adversary log so predictions
// survive restarts.
func restoreHistories(ctx context.Context, sugar *zap.SugaredLogger, registry *predictor.Registry, histories *store.HistoryStore) {
	names, err := histories.Adversaries(ctx)
	if err != nil {
		sugar.Warnw("Failed to list persisted adversaries", "error", err)
		return
	}
	restored := 0
	for _, name := range names {
		snap, ok, err := histories.Load(ctx, name)
		if err != nil {
			sugar.Warnw("Failed to load history snapshot", "adversary", name, "error", err)
			continue
		}
		if !ok {
			continue
		}
		registry.Restore(name, snap)
		restored++
	}
	if restored > 0 {
		sugar.Infow("Restored adversary histories", "count", restored)
	}
}
