package predictor

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pvplabs/predictor-api/internal/models"
)

const maxPredictions = 5

// cacheEntry is the engine's single-slot prediction cache. Any change to
// the derived context key or the history length invalidates it, which
// also covers silent pattern/sequence churn from new appends.
type cacheEntry struct {
	key         string
	historySize int
	results     []models.PredictionResult
}

// Engine orchestrates the strategy scorers over one adversary's history
// and caches the ranked result. One Engine is owned per adversary; the
// internal mutex only protects the cache slot, the History itself is
// serialized by the Registry.
type Engine struct {
	logger *zap.SugaredLogger

	exact    Strategy
	partial  Strategy
	pattern  Strategy
	sequence Strategy

	mu    sync.Mutex
	cache *cacheEntry
}

// NewEngine wires the default strategy set.
func NewEngine(logger *zap.SugaredLogger) *Engine {
	return &Engine{
		logger:   logger,
		exact:    exactMatchStrategy{},
		partial:  partialMatchStrategy{},
		pattern:  patternFrequencyStrategy{},
		sequence: sequenceMatchStrategy{},
	}
}

// cacheKey buckets the mutable context fields the same way the strategies
// generalize them, then appends the history length.
func cacheKey(c models.Context, historySize int) string {
	prayer := c.OverheadPrayer
	if prayer == "" {
		prayer = "none"
	}
	freeze := string(c.FreezeState)
	if freeze == "" {
		freeze = "none"
	}
	weapon := c.Weapon
	if weapon == "" {
		weapon = "unknown"
	}
	playerFreezeRange := -1
	if c.PlayerFreezeTicks >= 0 {
		playerFreezeRange = c.PlayerFreezeTicks / 5 * 5
	}
	opponentFreezeRange := -1
	if c.OpponentFreezeTicks >= 0 {
		opponentFreezeRange = c.OpponentFreezeTicks / 5 * 5
	}
	return fmt.Sprintf("%s|%d|%s|%s|%d|%d|%d|%d",
		prayer, c.TargetHP/10*10, freeze, weapon, c.TargetSpec/10*10,
		playerFreezeRange, opponentFreezeRange, historySize)
}

// TopPredictions returns the ranked top-5 next-attack predictions for the
// current context. An empty history or nil context yields the fixed
// default. The engine never mutates the history.
func (e *Engine) TopPredictions(current *models.Context, hist *History) []models.PredictionResult {
	predictionsServed.Inc()

	if current == nil || hist == nil || hist.Len() == 0 {
		return defaultPredictions()
	}

	historySize := hist.Len()
	key := cacheKey(*current, historySize)

	e.mu.Lock()
	if e.cache != nil && e.cache.key == key && e.cache.historySize == historySize {
		out := copyResults(e.cache.results)
		e.mu.Unlock()
		cacheHits.Inc()
		return out
	}
	e.mu.Unlock()
	cacheMisses.Inc()

	var scores [3]float64
	var methods [3]string
	for i := range methods {
		methods[i] = models.MethodNoData
	}

	merge := func(v ScoreVector) {
		for i := range v.Scores {
			if v.Scores[i] > scores[i] {
				scores[i] = v.Scores[i]
				methods[i] = v.Methods[i]
			}
		}
	}

	strategyRuns.WithLabelValues(e.exact.Name()).Inc()
	exact := e.exact.Score(*current, hist)
	merge(exact)

	// Exact evidence, however weak, suppresses the partial scorer
	// entirely: a confirmed situational repeat outranks fuzzy
	// resemblance.
	if exact.Evidence == 0 {
		strategyRuns.WithLabelValues(e.partial.Name()).Inc()
		merge(e.partial.Score(*current, hist))
	}

	strategyRuns.WithLabelValues(e.pattern.Name()).Inc()
	merge(e.pattern.Score(*current, hist))

	strategyRuns.WithLabelValues(e.sequence.Name()).Inc()
	merge(e.sequence.Score(*current, hist))

	results := make([]models.PredictionResult, 0, 3)
	for _, t := range models.AttackTypes() {
		idx := models.AttackIndex(t)
		results = append(results, models.PredictionResult{
			AttackType:   t,
			QualityScore: scores[idx],
			Method:       methods[idx],
		})
	}
	// Stable sort keeps the fixed melee > ranged > magic priority as the
	// tie-break for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].QualityScore > results[j].QualityScore
	})
	if len(results) > maxPredictions {
		results = results[:maxPredictions]
	}

	e.mu.Lock()
	e.cache = &cacheEntry{key: key, historySize: historySize, results: copyResults(results)}
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Debugw("Prediction computed",
			"top", results[0].AttackType,
			"score", results[0].QualityScore,
			"method", results[0].Method,
			"historySize", historySize,
		)
	}
	return results
}

// ClearCache drops the cached prediction, forcing recomputation on the
// next call.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	e.cache = nil
	e.mu.Unlock()
}

func defaultPredictions() []models.PredictionResult {
	return []models.PredictionResult{
		{AttackType: models.AttackMelee, QualityScore: 33.3, Method: models.MethodDefault},
		{AttackType: models.AttackRanged, QualityScore: 33.3, Method: models.MethodDefault},
		{AttackType: models.AttackMagic, QualityScore: 33.3, Method: models.MethodDefault},
	}
}

func copyResults(in []models.PredictionResult) []models.PredictionResult {
	out := make([]models.PredictionResult, len(in))
	copy(out, in)
	return out
}

// Progress reports how far along data collection is for an adversary:
// 40% attack volume, 30% distinct style n-grams of length 3-5, 30% the
// confidence of the current top prediction.
func (e *Engine) Progress(current *models.Context, hist *History) models.PredictionProgress {
	if hist == nil || hist.Len() == 0 {
		return models.PredictionProgress{Status: "No data collected yet"}
	}

	attackCount := hist.Len()
	var attackProgress float64
	switch {
	case attackCount < 20:
		attackProgress = float64(attackCount) / 20 * 100
	case attackCount < 100:
		attackProgress = 100
	default:
		attackProgress = 100 + float64(attackCount-100)/400*20
		if attackProgress > 120 {
			attackProgress = 120
		}
	}
	progress := minF(100, attackProgress) * 0.4

	unique := make(map[string]struct{})
	for i := 0; i <= hist.Len()-3; i++ {
		for seqLen := 3; seqLen <= 5 && i+seqLen <= hist.Len(); seqLen++ {
			parts := make([]string, 0, seqLen)
			valid := true
			for j := 0; j < seqLen; j++ {
				style := hist.At(i + j).AttackStyle
				if style == "" {
					valid = false
					break
				}
				parts = append(parts, string(style))
			}
			if valid {
				unique[strings.Join(parts, ",")] = struct{}{}
			}
		}
	}
	progress += minF(100, float64(len(unique))/10*100) * 0.3

	confidence := 0.0
	if current != nil {
		if preds := e.TopPredictions(current, hist); len(preds) > 0 {
			confidence = preds[0].QualityScore
		}
	}
	progress += minF(100, confidence/30*100) * 0.3
	progress = minF(100, progress)

	var status string
	switch {
	case progress < 25:
		status = fmt.Sprintf("Collecting data... (%d attacks)", attackCount)
	case progress < 50:
		status = fmt.Sprintf("Building patterns... (%d attacks, %d sequences)", attackCount, len(unique))
	case progress < 75:
		status = fmt.Sprintf("Analyzing patterns... (%d attacks, %d sequences, %.1f%% confidence)", attackCount, len(unique), confidence)
	case progress < 95:
		status = fmt.Sprintf("Almost ready... (%d attacks, %d sequences, %.1f%% confidence)", attackCount, len(unique), confidence)
	default:
		status = fmt.Sprintf("Predictor active (%d attacks, %d sequences)", attackCount, len(unique))
	}

	return models.PredictionProgress{Progress: progress, Confidence: confidence, Status: status}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
