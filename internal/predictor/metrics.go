package predictor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combat_predictions_total",
		Help: "Total number of prediction requests answered",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combat_prediction_cache_hits_total",
		Help: "Prediction requests answered from the engine cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "combat_prediction_cache_misses_total",
		Help: "Prediction requests that re-ran the strategy scorers",
	})

	strategyRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "combat_strategy_runs_total",
		Help: "Strategy scorer executions by strategy name",
	}, []string{"strategy"})
)
