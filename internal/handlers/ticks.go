package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pvplabs/predictor-api/internal/models"
)

// IngestTicks handles POST /api/v1/combat/{adversary}/ticks: stores a
// batch of tick records and invalidates the tick scorer's cache.
func (h *Handler) IngestTicks(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	if adversary == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing adversary")
		return
	}

	var batch models.TickBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&batch); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := h.ticks.AppendTicks(r.Context(), adversary, batch.Ticks); err != nil {
		h.logger.Errorw("Failed to store ticks", "adversary", adversary, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to store ticks")
		return
	}
	h.tickScorer.ClearCache(adversary)

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "accepted",
		"processed": len(batch.Ticks),
	})
}

// TickPredict handles POST /api/v1/combat/{adversary}/ticks/prediction.
func (h *Handler) TickPredict(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	if adversary == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing adversary")
		return
	}

	var query models.TickPredictionQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.jsonResponse(w, http.StatusOK, models.PredictionResponse{
		Adversary:   adversary,
		Predictions: h.tickScorer.Predict(r.Context(), adversary, query.Features),
		HistorySize: h.registry.HistorySize(adversary),
	})
}

// GetWeights handles GET /api/v1/combat/{adversary}/weights.
func (h *Handler) GetWeights(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	weights, err := h.ticks.StrategyWeights(r.Context(), adversary)
	if err != nil {
		h.logger.Errorw("Failed to load weights", "adversary", adversary, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load weights")
		return
	}
	h.jsonResponse(w, http.StatusOK, weights)
}

// PutWeights handles PUT /api/v1/combat/{adversary}/weights: replaces
// the adversary's strategy weight document.
func (h *Handler) PutWeights(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	if adversary == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing adversary")
		return
	}

	var weights models.StrategyWeights
	if err := json.NewDecoder(r.Body).Decode(&weights); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.ticks.SaveWeights(r.Context(), adversary, weights); err != nil {
		h.logger.Errorw("Failed to save weights", "adversary", adversary, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to save weights")
		return
	}
	h.tickScorer.ClearCache(adversary)

	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "saved"})
}

// RewardTicks handles POST /api/v1/combat/{adversary}/reward/ticks:
// feeds the reward tracker's rolling window.
func (h *Handler) RewardTicks(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	if adversary == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing adversary")
		return
	}

	var batch models.RewardTickBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&batch); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	tracker := h.registry.Rewards(adversary)
	for _, tick := range batch.Ticks {
		tracker.LogTick(tick)
	}
	tracker.Cleanup()

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "accepted",
		"processed": len(batch.Ticks),
	})
}

// RewardPrediction handles POST /api/v1/combat/{adversary}/reward/prediction:
// registers a pending prediction under the current context fingerprint.
func (h *Handler) RewardPrediction(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	if adversary == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing adversary")
		return
	}

	var req models.RewardPredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	tracker := h.registry.Rewards(adversary)
	key := tracker.ContextKey(50)
	tracker.RecordPrediction(key, req.Predicted, req.Score)

	h.jsonResponse(w, http.StatusOK, map[string]string{
		"status":     "recorded",
		"contextKey": key,
	})
}

// RewardOutcome handles POST /api/v1/combat/{adversary}/reward/outcome:
// resolves pending predictions against the realized attack.
func (h *Handler) RewardOutcome(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	if adversary == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing adversary")
		return
	}

	var req models.RewardOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	tracker := h.registry.Rewards(adversary)
	tracker.ProcessOutcome(req.Actual)

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":       "processed",
		"rewardScores": tracker.CurrentRewardScores().Map(),
	})
}

// RewardScores handles GET /api/v1/combat/{adversary}/reward.
func (h *Handler) RewardScores(w http.ResponseWriter, r *http.Request) {
	adversary := chi.URLParam(r, "adversary")
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rewardScores": h.registry.Rewards(adversary).CurrentRewardScores().Map(),
	})
}
