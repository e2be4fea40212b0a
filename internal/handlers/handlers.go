package handlers

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pvplabs/predictor-api/internal/predictor"
	"github.com/pvplabs/predictor-api/internal/store"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// ExportQueue defines the interface for the training export worker pool
type ExportQueue interface {
	Enqueue(row predictor.TrainingRow) bool
	QueueDepth() int
}

// PgPool defines the postgres operations the handlers use
type PgPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type Config struct {
	Registry   *predictor.Registry
	TickScorer *predictor.TickScorer
	Histories  *store.HistoryStore
	Ticks      *store.TickStore
	ExportPool ExportQueue
	Postgres   PgPool
	ClickHouse driver.Conn
	Redis      *redis.Client
	Logger     *zap.Logger
}

type Handler struct {
	registry   *predictor.Registry
	tickScorer *predictor.TickScorer
	histories  *store.HistoryStore
	ticks      *store.TickStore
	pool       ExportQueue
	pg         PgPool
	ch         driver.Conn
	redis      *redis.Client
	logger     *zap.SugaredLogger
	validator  *validator.Validate
}

func New(cfg Config) *Handler {
	return &Handler{
		registry:   cfg.Registry,
		tickScorer: cfg.TickScorer,
		histories:  cfg.Histories,
		ticks:      cfg.Ticks,
		pool:       cfg.ExportPool,
		pg:         cfg.Postgres,
		ch:         cfg.ClickHouse,
		redis:      cfg.Redis,
		logger:     cfg.Logger.Sugar(),
		validator:  validator.New(),
	}
}
