package predictor

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/pvplabs/predictor-api/internal/models"
)

// adversaryState bundles everything learned about one adversary. The
// per-adversary RWMutex serializes history mutation against reads; the
// engine's own cache lock is independent.
type adversaryState struct {
	mu      sync.RWMutex
	history *History
	engine  *Engine
	hybrid  *HybridPredictor
	rewards *RewardTracker
}

// Registry is the in-memory root of all per-adversary predictor state.
// Adversary names are opaque identifiers chosen by the client.
type Registry struct {
	logger     *zap.SugaredLogger
	maxHistory int
	model      ModelSource

	mu          sync.RWMutex
	adversaries map[string]*adversaryState
}

// NewRegistry returns an empty registry. model may be nil, in which case
// every adversary's hybrid predictor degrades to the plain engine.
func NewRegistry(maxHistory int, model ModelSource, logger *zap.SugaredLogger) *Registry {
	return &Registry{
		logger:      logger,
		maxHistory:  maxHistory,
		model:       model,
		adversaries: make(map[string]*adversaryState),
	}
}

func (r *Registry) state(adversary string) *adversaryState {
	r.mu.RLock()
	st, ok := r.adversaries[adversary]
	r.mu.RUnlock()
	if ok {
		return st
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok = r.adversaries[adversary]; ok {
		return st
	}
	engine := NewEngine(r.logger)
	st = &adversaryState{
		history: NewHistory(),
		engine:  engine,
		hybrid:  NewHybridPredictor(engine, r.model, r.logger),
		rewards: NewRewardTracker(),
	}
	r.adversaries[adversary] = st
	return st
}

// peek returns existing state without creating it.
func (r *Registry) peek(adversary string) (*adversaryState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.adversaries[adversary]
	return st, ok
}

// RecordAttack appends an observed attack to the adversary's log and
// invalidates the cached prediction. Returns the new log length.
func (r *Registry) RecordAttack(adversary string, c models.Context) int {
	st := r.state(adversary)
	st.mu.Lock()
	st.history.Append(c, r.maxHistory)
	n := st.history.Len()
	st.mu.Unlock()
	st.engine.ClearCache()
	return n
}

// LastContext returns the newest stored context for the adversary.
func (r *Registry) LastContext(adversary string) (models.Context, bool) {
	st, ok := r.peek(adversary)
	if !ok {
		return models.Context{}, false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.history.Len() == 0 {
		return models.Context{}, false
	}
	return st.history.At(st.history.Len() - 1), true
}

// HistorySize reports the adversary's log length.
func (r *Registry) HistorySize(adversary string) int {
	st, ok := r.peek(adversary)
	if !ok {
		return 0
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.history.Len()
}

// Predict returns the ranked next-attack predictions for the adversary.
func (r *Registry) Predict(adversary string, current *models.Context) []models.PredictionResult {
	st, ok := r.peek(adversary)
	if !ok {
		return defaultPredictions()
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.hybrid.TopPredictions(current, st.history)
}

// Progress reports data-collection readiness for the adversary.
func (r *Registry) Progress(adversary string, current *models.Context) models.PredictionProgress {
	st, ok := r.peek(adversary)
	if !ok {
		return models.PredictionProgress{Status: "No data collected yet"}
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.engine.Progress(current, st.history)
}

// Stats summarizes the adversary's log.
func (r *Registry) Stats(adversary string) models.AdversaryStats {
	st, ok := r.peek(adversary)
	if !ok {
		return models.AdversaryStats{
			Adversary:      adversary,
			StyleBreakdown: map[models.AttackType]int{},
			ByFreezeState:  map[models.FreezeState]map[models.AttackType]int{},
			Progress:       models.PredictionProgress{Status: "No data collected yet"},
		}
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return models.AdversaryStats{
		Adversary:      adversary,
		HistorySize:    st.history.Len(),
		PatternKeys:    st.history.PatternKeyCount(),
		StyleBreakdown: st.history.StyleBreakdown(),
		ByFreezeState:  st.history.FreezeStateBreakdown(),
		Progress:       st.engine.Progress(nil, st.history),
	}
}

// Backtest replays the adversary's log and reports the hit rate.
func (r *Registry) Backtest(adversary string, warmup int) models.BacktestReport {
	st, ok := r.peek(adversary)
	if !ok {
		return models.BacktestReport{
			ByType:     map[models.AttackType]int{},
			HitsByType: map[models.AttackType]int{},
		}
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return Backtest(st.history, warmup)
}

// TrainingRows exports the adversary's log as supervised examples.
func (r *Registry) TrainingRows(adversary string) []TrainingRow {
	st, ok := r.peek(adversary)
	if !ok {
		return nil
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return TrainingRows(adversary, st.history)
}

// Rewards returns the adversary's reward tracker, creating state on
// first use. The tracker has its own lock.
func (r *Registry) Rewards(adversary string) *RewardTracker {
	return r.state(adversary).rewards
}

// Snapshot copies the adversary's log into its serializable form.
func (r *Registry) Snapshot(adversary string) (Snapshot, bool) {
	st, ok := r.peek(adversary)
	if !ok {
		return Snapshot{}, false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.history.Snapshot(), true
}

// Restore replaces the adversary's log with persisted state.
func (r *Registry) Restore(adversary string, snap Snapshot) {
	st := r.state(adversary)
	st.mu.Lock()
	st.history = FromSnapshot(snap)
	st.mu.Unlock()
	st.engine.ClearCache()
}

// Reset drops every trace of the adversary. Reports whether anything
// existed.
func (r *Registry) Reset(adversary string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.adversaries[adversary]
	delete(r.adversaries, adversary)
	return ok
}

// ResetAll drops all adversaries and returns how many were tracked.
func (r *Registry) ResetAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.adversaries)
	r.adversaries = make(map[string]*adversaryState)
	return n
}

// Adversaries lists tracked adversary names, sorted.
func (r *Registry) Adversaries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adversaries))
	for name := range r.adversaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
