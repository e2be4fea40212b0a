package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/pvplabs/predictor-api/internal/models"
	"github.com/pvplabs/predictor-api/internal/predictor"
)

// IngestAttacks handles POST /api/v1/combat/{adversary}/attacks.
// Accepts newline-separated JSON attack observations so clients can
// batch a whole fight in one request.
func (h *Handler) IngestAttacks(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	if adversary == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing adversary")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	lines := strings.Split(string(body), "\n")
	processed := 0
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var obs models.AttackObservation
		if err := json.Unmarshal([]byte(line), &obs); err != nil {
			h.logger.Warnw("Failed to unmarshal attack observation", "error", err, "lineNum", i)
			continue
		}
		if err := h.validator.Struct(&obs); err != nil {
			h.logger.Warnw("Validation failed for attack observation", "error", err, "lineNum", i)
			continue
		}

		prev, hadPrev := h.registry.LastContext(adversary)
		c := obs.Context()
		h.registry.RecordAttack(adversary, c)
		processed++

		if hadPrev && c.AttackStyle != "" {
			h.pool.Enqueue(predictor.TrainingRow{
				Adversary: adversary,
				Features:  predictor.EncodeFeatures(prev),
				Label:     c.AttackStyle,
			})
		}
	}

	if processed > 0 {
		if snap, ok := h.registry.Snapshot(adversary); ok {
			if err := h.histories.Save(r.Context(), adversary, snap); err != nil {
				h.logger.Warnw("Failed to persist history snapshot", "adversary", adversary, "error", err)
			}
		}
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "accepted",
		"processed": processed,
	})
}

// Predict handles POST /api/v1/combat/{adversary}/prediction.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	if adversary == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing adversary")
		return
	}

	var query models.PredictionQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&query); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	c := query.Context()
	h.jsonResponse(w, http.StatusOK, models.PredictionResponse{
		Adversary:   adversary,
		Predictions: h.registry.Predict(adversary, &c),
		HistorySize: h.registry.HistorySize(adversary),
	})
}

// Progress handles GET /api/v1/combat/{adversary}/progress.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	h.jsonResponse(w, http.StatusOK, h.registry.Progress(adversary, nil))
}

// Stats handles GET /api/v1/combat/{adversary}/stats. The log summary
// and the stored strategy weights are fetched concurrently.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")

	var (
		stats   models.AdversaryStats
		weights models.StrategyWeights
		rewards map[models.AttackType]float64
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		stats = h.registry.Stats(adversary)
		return nil
	})
	g.Go(func() error {
		var err error
		weights, err = h.ticks.StrategyWeights(ctx, adversary)
		return err
	})
	g.Go(func() error {
		rewards = h.registry.Rewards(adversary).CurrentRewardScores().Map()
		return nil
	})

	if err := g.Wait(); err != nil {
		h.logger.Errorw("Stats lookup failed", "adversary", adversary, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"stats":           stats,
		"strategyWeights": weights,
		"rewardScores":    rewards,
	})
}

// Backtest handles GET /api/v1/combat/{adversary}/backtest?warmup=N.
func (h *Handler) Backtest(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")

	warmup := 10
	if v := r.URL.Query().Get("warmup"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.errorResponse(w, http.StatusBadRequest, "Invalid warmup")
			return
		}
		warmup = parsed
	}

	h.jsonResponse(w, http.StatusOK, h.registry.Backtest(adversary, warmup))
}

// ListAdversaries handles GET /api/v1/combat/adversaries.
func (h *Handler) ListAdversaries(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"adversaries": h.registry.Adversaries(),
	})
}

// Reset handles DELETE /api/v1/combat/{adversary}: drops in-memory and
// persisted state for one adversary.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	if adversary == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing adversary")
		return
	}

	existed := h.registry.Reset(adversary)
	h.tickScorer.ClearCache(adversary)
	if err := h.histories.Delete(r.Context(), adversary); err != nil {
		h.logger.Warnw("Failed to delete persisted history", "adversary", adversary, "error", err)
	}
	if err := h.ticks.DeleteTicks(r.Context(), adversary); err != nil {
		h.logger.Warnw("Failed to delete persisted ticks", "adversary", adversary, "error", err)
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":  "reset",
		"existed": existed,
	})
}

// ResetAll handles DELETE /api/v1/combat: drops every adversary.
func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	adversaries := h.registry.Adversaries()
	count := h.registry.ResetAll()
	h.tickScorer.ClearCache("")
	for _, adversary := range adversaries {
		if err := h.histories.Delete(r.Context(), adversary); err != nil {
			h.logger.Warnw("Failed to delete persisted history", "adversary", adversary, "error", err)
		}
		if err := h.ticks.DeleteTicks(r.Context(), adversary); err != nil {
			h.logger.Warnw("Failed to delete persisted ticks", "adversary", adversary, "error", err)
		}
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status": "reset",
		"count":  count,
	})
}

// Export handles POST /api/v1/combat/{adversary}/export: replays the
// whole log into the training export queue.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	if adversary == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing adversary")
		return
	}

	rows := h.registry.TrainingRows(adversary)
	enqueued := 0
	for _, row := range rows {
		if !h.pool.Enqueue(row) {
			h.logger.Warn("Export queue full, dropping remaining rows")
			break
		}
		enqueued++
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "accepted",
		"rows":     len(rows),
		"enqueued": enqueued,
	})
}
