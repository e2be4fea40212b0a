// Package worker implements the buffered worker pool that ships training
// rows to ClickHouse. It decouples HTTP request handling from database
// writes, providing:
// - Backpressure handling via load shedding
// - Batch inserts for efficient ClickHouse writes
// - Graceful shutdown with flush guarantees
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/pvplabs/predictor-api/internal/predictor"
)

// Prometheus metrics
var (
	rowsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combat_training_rows_enqueued_total",
		Help: "Total number of training rows enqueued",
	})

	rowsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combat_training_rows_processed_total",
		Help: "Total number of training rows written to ClickHouse",
	})

	rowsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combat_training_rows_failed_total",
		Help: "Total number of training rows that failed to write",
	})

	rowsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combat_training_rows_load_shed_total",
		Help: "Total number of training rows dropped due to load shedding",
	})

	exportQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "combat_export_queue_depth",
		Help: "Current depth of the export queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "combat_export_batch_insert_duration_seconds",
		Help:    "Duration of training row batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})
)

// Job is one training row waiting for export.
type Job struct {
	Row       predictor.TrainingRow
	Timestamp time.Time
}

// PoolConfig configures the export pool.
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Logger        *zap.Logger
}

// Pool manages the workers that batch training rows into ClickHouse.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a new export pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Export pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop gracefully shuts down the pool, flushing buffered rows.
func (p *Pool) Stop() {
	p.logger.Info("Stopping export pool...")
	p.cancel()
	close(p.jobQueue)
	p.wg.Wait()
	p.logger.Info("Export pool stopped")
}

// Enqueue adds a row to the queue. A full queue sheds the row rather
// than blocking the HTTP path.
func (p *Pool) Enqueue(row predictor.TrainingRow) bool {
	job := Job{Row: row, Timestamp: time.Now()}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue training row (pool stopped)", "error", r)
		}
	}()

	select {
	case p.jobQueue <- job:
		rowsEnqueued.Inc()
		return true
	default:
		rowsLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size.
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Batch insert failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			rowsFailed.Add(float64(len(batch)))
		} else {
			rowsProcessed.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			flush()
			return
		}
	}
}

// processBatch writes a batch of training rows to ClickHouse.
func (p *Pool) processBatch(batch []Job) error {
	ctx := context.Background()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO combat.training_rows (
			row_id, ingested_at, adversary, label, features
		)
	`)
	if err != nil {
		return err
	}

	for _, job := range batch {
		features := make([]float64, len(job.Row.Features))
		copy(features, job.Row.Features[:])

		err := chBatch.Append(
			uuid.New(),
			job.Timestamp,
			job.Row.Adversary,
			string(job.Row.Label),
			features,
		)
		if err != nil {
			p.logger.Warnw("Failed to append training row to batch", "error", err, "adversary", job.Row.Adversary)
			continue
		}
	}

	return chBatch.Send()
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			exportQueueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}
