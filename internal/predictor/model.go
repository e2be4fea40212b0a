package predictor

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/pvplabs/predictor-api/internal/models"
)

const (
	mlBlendModel    = 0.7
	mlBlendPersonal = 0.3
)

// ModelSource supplies per-style scores from an externally trained model.
// Implementations must be safe for concurrent use.
type ModelSource interface {
	Available() bool
	Scores(current models.Context) ([3]float64, error)
}

// HybridPredictor layers an optional trained model over the strategy
// engine. Without a usable model it is a transparent passthrough; with
// one it blends the model's scores with the adversary's observed style
// distribution and tags results ml_hybrid.
type HybridPredictor struct {
	engine *Engine
	source ModelSource
	logger *zap.SugaredLogger
}

// NewHybridPredictor wires an engine with an optional model source.
// source may be nil.
func NewHybridPredictor(engine *Engine, source ModelSource, logger *zap.SugaredLogger) *HybridPredictor {
	return &HybridPredictor{engine: engine, source: source, logger: logger}
}

// TopPredictions returns the blended ranking when a model is available
// and silently falls back to the engine otherwise. Model failures are
// logged at debug and never surfaced.
func (h *HybridPredictor) TopPredictions(current *models.Context, hist *History) []models.PredictionResult {
	if h.source == nil || !h.source.Available() || current == nil || hist == nil || hist.Len() == 0 {
		return h.engine.TopPredictions(current, hist)
	}

	mlScores, err := h.source.Scores(*current)
	if err != nil {
		if h.logger != nil {
			h.logger.Debugw("Model scoring failed, falling back to strategies", "error", err)
		}
		return h.engine.TopPredictions(current, hist)
	}

	personal := personalizationScores(hist)
	results := make([]models.PredictionResult, 0, 3)
	for _, t := range models.AttackTypes() {
		idx := models.AttackIndex(t)
		results = append(results, models.PredictionResult{
			AttackType:   t,
			QualityScore: mlScores[idx]*mlBlendModel + personal[idx]*mlBlendPersonal,
			Method:       models.MethodMLHybrid,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].QualityScore > results[j].QualityScore
	})
	return results
}

// personalizationScores is the adversary's observed style distribution
// as 0-100 scores.
func personalizationScores(hist *History) [3]float64 {
	var out [3]float64
	total := 0
	for style, count := range hist.StyleBreakdown() {
		if idx := models.AttackIndex(style); idx >= 0 {
			out[idx] = float64(count)
			total += count
		}
	}
	if total == 0 {
		return out
	}
	for i := range out {
		out[i] = out[i] / float64(total) * 100
	}
	return out
}

// fileModelSource serves scores from a JSON table keyed by the coarse
// context key. A stand-in for a real inference runtime; the table is
// produced offline from the exported training rows.
type fileModelSource struct {
	scores map[string][3]float64
}

// LoadModel reads a score-table model from disk. A missing or malformed
// file is an error for the caller to decide on; callers wanting the
// silent-fallback behavior pass the resulting nil source straight to
// NewHybridPredictor.
func LoadModel(path string) (ModelSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	var table map[string][3]float64
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing model file: %w", err)
	}
	return &fileModelSource{scores: table}, nil
}

func (f *fileModelSource) Available() bool {
	return len(f.scores) > 0
}

func (f *fileModelSource) Scores(current models.Context) ([3]float64, error) {
	scores, ok := f.scores[current.Key()]
	if !ok {
		return [3]float64{}, fmt.Errorf("no model entry for context")
	}
	return scores, nil
}
