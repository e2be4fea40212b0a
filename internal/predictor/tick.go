package predictor

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/pvplabs/predictor-api/internal/models"
)

// TickStore serves the per-adversary tick records and strategy weight
// documents the tick scorer operates on. Backed by redis in production,
// by fixtures in tests.
type TickStore interface {
	TickHistory(ctx context.Context, adversary string) ([]models.TickRecord, error)
	StrategyWeights(ctx context.Context, adversary string) (models.StrategyWeights, error)
}

// TickScorer is the alternate similarity predictor over per-tick feature
// records. Its output is blend-compatible with the engine: the same
// ranked PredictionResult slice, scores normalized to percentages.
type TickScorer struct {
	store  TickStore
	logger *zap.SugaredLogger

	mu          sync.Mutex
	tickCache   map[string][]models.TickRecord
	weightCache map[string]models.StrategyWeights
}

// NewTickScorer returns a scorer with empty per-adversary caches.
func NewTickScorer(store TickStore, logger *zap.SugaredLogger) *TickScorer {
	return &TickScorer{
		store:       store,
		logger:      logger,
		tickCache:   make(map[string][]models.TickRecord),
		weightCache: make(map[string]models.StrategyWeights),
	}
}

// Predict scores the current tick's features against the adversary's
// stored tick history. Missing or empty stores degrade to the ~33/33/34
// default, never an error surfaced to the caller.
func (s *TickScorer) Predict(ctx context.Context, adversary string, current models.TickFeatures) []models.PredictionResult {
	if adversary == "" {
		return tickDefaultPredictions()
	}

	history := s.loadTicks(ctx, adversary)
	if len(history) == 0 {
		return tickDefaultPredictions()
	}
	weights := s.loadWeights(ctx, adversary)

	var scores [3]float64
	for i := 0; i < len(history)-1; i++ {
		next := history[i+1].NextAttack
		idx := models.AttackIndex(next)
		if idx < 0 {
			continue
		}
		similarity := featureSimilarity(current, history[i].Features)
		if similarity < 0.1 {
			continue
		}
		scores[idx] += weightedFeatureScore(current, history[i].Features, weights, similarity)
	}

	total := scores[0] + scores[1] + scores[2]
	results := make([]models.PredictionResult, 0, 3)
	if total > 0.01 {
		for _, t := range models.AttackTypes() {
			idx := models.AttackIndex(t)
			results = append(results, models.PredictionResult{
				AttackType:   t,
				QualityScore: scores[idx] / total * 100,
				Method:       models.MethodTickBased,
			})
		}
	} else {
		return tickDefaultPredictions()
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].QualityScore > results[j].QualityScore
	})
	if len(results) > maxPredictions {
		results = results[:maxPredictions]
	}
	return results
}

func (s *TickScorer) loadTicks(ctx context.Context, adversary string) []models.TickRecord {
	s.mu.Lock()
	if cached, ok := s.tickCache[adversary]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	ticks, err := s.store.TickHistory(ctx, adversary)
	if err != nil {
		if s.logger != nil {
			s.logger.Warnw("Failed to load tick history", "adversary", adversary, "error", err)
		}
		return nil
	}
	s.mu.Lock()
	s.tickCache[adversary] = ticks
	s.mu.Unlock()
	return ticks
}

func (s *TickScorer) loadWeights(ctx context.Context, adversary string) models.StrategyWeights {
	s.mu.Lock()
	if cached, ok := s.weightCache[adversary]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	weights, err := s.store.StrategyWeights(ctx, adversary)
	if err != nil {
		if s.logger != nil {
			s.logger.Debugw("No strategy weights stored, using defaults", "adversary", adversary, "error", err)
		}
		weights = models.DefaultStrategyWeights()
	}
	weights.Normalize()
	s.mu.Lock()
	s.weightCache[adversary] = weights
	s.mu.Unlock()
	return weights
}

// ClearCache drops the cached ticks and weights for one adversary, or
// for all when adversary is empty.
func (s *TickScorer) ClearCache(adversary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if adversary == "" {
		s.tickCache = make(map[string][]models.TickRecord)
		s.weightCache = make(map[string]models.StrategyWeights)
		return
	}
	delete(s.tickCache, adversary)
	delete(s.weightCache, adversary)
}

// featureSimilarity is the coarse agreement ratio over the discrete
// features, with half credit for a partial overlap of the recent
// opponent-action lists.
func featureSimilarity(current, historical models.TickFeatures) float64 {
	similarity := 0.0
	total := 0

	discrete := [][2]string{
		{current.FreezeState, historical.FreezeState},
		{current.DistanceCategory, historical.DistanceCategory},
		{current.HPCategory, historical.HPCategory},
		{current.OpponentAttackType, historical.OpponentAttackType},
		{current.PlayerAnimCategory, historical.PlayerAnimCategory},
		{current.OpponentAnimCategory, historical.OpponentAnimCategory},
		{current.TimeCategory, historical.TimeCategory},
	}
	for _, pair := range discrete {
		total++
		if pair[0] != "" && pair[1] != "" && pair[0] == pair[1] {
			similarity++
		}
	}

	if current.OpponentActions != nil && historical.OpponentActions != nil {
		total++
		if equalStrings(current.OpponentActions, historical.OpponentActions) {
			similarity++
		} else if overlaps(current.OpponentActions, historical.OpponentActions) {
			similarity += 0.5
		}
	}

	if total > 0 {
		similarity /= float64(total)
	}
	return similarity
}

// weightedFeatureScore multiplies the base similarity by the sum of the
// normalized strategy weights whose feature agrees between the two ticks.
func weightedFeatureScore(current, historical models.TickFeatures, weights models.StrategyWeights, baseSimilarity float64) float64 {
	weight := 0.0
	if current.FreezeState == historical.FreezeState {
		weight += weights.FreezeState
	}
	if current.OpponentAttackType == historical.OpponentAttackType {
		weight += weights.Sequence * 0.5
	}
	if current.TimeCategory == historical.TimeCategory {
		weight += weights.Temporal
	}
	if current.DistanceCategory == historical.DistanceCategory {
		weight += weights.Movement
	}
	if current.HPCategory == historical.HPCategory {
		weight += weights.Resource
	}
	if current.PlayerAnimCategory == historical.PlayerAnimCategory {
		weight += weights.PlayerAction
	}
	if current.OpponentAnimCategory == historical.OpponentAnimCategory {
		weight += weights.OpponentAction
	}
	if current.HPCategory == historical.HPCategory {
		weight += weights.HealthState
	}
	return weight * baseSimilarity
}

func tickDefaultPredictions() []models.PredictionResult {
	return []models.PredictionResult{
		{AttackType: models.AttackMelee, QualityScore: 33.33, Method: models.MethodDefault},
		{AttackType: models.AttackRanged, QualityScore: 33.33, Method: models.MethodDefault},
		{AttackType: models.AttackMagic, QualityScore: 33.34, Method: models.MethodDefault},
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
