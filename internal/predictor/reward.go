package predictor

import (
	"strings"
	"sync"

	"github.com/pvplabs/predictor-api/internal/models"
)

const (
	rewardWindowTicks  = 50
	maxPendingEntries  = 100
	rewardCorrect      = 2.0
	rewardOthersOnMiss = 1.0
	dampedCorrect      = 1.0
	dampedOthersOnMiss = 0.5
)

// RewardVector is the accumulated reward per attack type for one context
// fingerprint, indexed by models.AttackIndex.
type RewardVector [3]float64

// Map expands the vector into the wire form.
func (v RewardVector) Map() map[models.AttackType]float64 {
	out := make(map[models.AttackType]float64, 3)
	for _, t := range models.AttackTypes() {
		out[t] = v[models.AttackIndex(t)]
	}
	return out
}

type pendingPrediction struct {
	attack models.AttackType
	score  float64
}

// RewardTracker is the time-windowed feedback loop: it fingerprints the
// last 50 ticks of observations and scores how well predictions made
// under a fingerprint matched realized outcomes. Correct predictions
// reward the realized style; misses reward every other style, penalizing
// the miss by omission. A damped copy of each update propagates to
// fingerprints with the same freeze-state window and mostly-overlapping
// recent attacks.
type RewardTracker struct {
	mu          sync.Mutex
	recentTicks []models.TickSnapshot
	rewards     map[string]*RewardVector
	pending     map[string]pendingPrediction
}

// NewRewardTracker returns an empty tracker.
func NewRewardTracker() *RewardTracker {
	return &RewardTracker{
		rewards: make(map[string]*RewardVector),
		pending: make(map[string]pendingPrediction),
	}
}

// LogTick appends one tick to the rolling window, evicting past 50.
func (t *RewardTracker) LogTick(tick models.TickSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recentTicks = append(t.recentTicks, tick)
	for len(t.recentTicks) > rewardWindowTicks {
		t.recentTicks = t.recentTicks[1:]
	}
}

// ContextKey builds the composite fingerprint of the last `ticks` ticks:
// 5 freeze states, up to 10 observed attacks oldest-first, 10 movement
// flags, 5 prayers and 5 weapons, segment-separated by ";".
func (t *RewardTracker) ContextKey(ticks int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.contextKeyLocked(ticks)
}

func (t *RewardTracker) contextKeyLocked(ticks int) string {
	if len(t.recentTicks) == 0 {
		return "no_context"
	}
	start := len(t.recentTicks) - ticks
	if start < 0 {
		start = 0
	}
	window := t.recentTicks[start:]

	var key strings.Builder

	freezeTicks := min(5, len(window))
	for i := len(window) - freezeTicks; i < len(window); i++ {
		key.WriteString(string(window[i].FreezeState))
		key.WriteByte('|')
	}
	key.WriteByte(';')

	attacks := make([]string, 0, 10)
	for i := len(window) - 1; i >= 0 && len(attacks) < 10; i-- {
		if window[i].AttackType != "" {
			attacks = append([]string{string(window[i].AttackType)}, attacks...)
		}
	}
	key.WriteString(strings.Join(attacks, ","))
	key.WriteByte(';')

	movementTicks := min(10, len(window))
	for i := len(window) - movementTicks; i < len(window); i++ {
		if window[i].PlayerMoved {
			key.WriteByte('M')
		} else {
			key.WriteByte('-')
		}
		key.WriteByte('|')
	}
	key.WriteByte(';')

	prayerTicks := min(5, len(window))
	for i := len(window) - prayerTicks; i < len(window); i++ {
		key.WriteString(window[i].Prayer)
		key.WriteByte('|')
	}
	key.WriteByte(';')

	weaponTicks := min(5, len(window))
	for i := len(window) - weaponTicks; i < len(window); i++ {
		key.WriteString(window[i].Weapon)
		key.WriteByte('|')
	}

	return key.String()
}

// RecordPrediction stores a pending prediction under a fingerprint,
// waiting for the realized outcome.
func (t *RewardTracker) RecordPrediction(contextKey string, predicted models.AttackType, score float64) {
	if contextKey == "" || predicted == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[contextKey] = pendingPrediction{attack: predicted, score: score}
}

// ProcessOutcome resolves the pending prediction for the current
// fingerprint against the realized attack and updates the reward table,
// then propagates a damped update to similar fingerprints.
func (t *RewardTracker) ProcessOutcome(actual models.AttackType) {
	if actual == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	contextKey := t.contextKeyLocked(rewardWindowTicks)
	prediction, ok := t.pending[contextKey]
	if ok {
		delete(t.pending, contextKey)
		t.applyLocked(contextKey, prediction.attack, actual, rewardCorrect, rewardOthersOnMiss)
		t.updateSimilarLocked(contextKey, prediction.attack, actual)
	}
}

func (t *RewardTracker) applyLocked(key string, predicted, actual models.AttackType, correct, othersOnMiss float64) {
	vec, ok := t.rewards[key]
	if !ok {
		vec = &RewardVector{}
		t.rewards[key] = vec
	}
	if predicted == actual {
		if idx := models.AttackIndex(actual); idx >= 0 {
			vec[idx] += correct
		}
		return
	}
	for _, other := range models.AttackTypes() {
		if other != predicted {
			vec[models.AttackIndex(other)] += othersOnMiss
		}
	}
}

// updateSimilarLocked propagates a damped reward to every stored
// fingerprint that shares the freeze-state segment and agrees on at least
// 3 of the last 5 observed attacks: crude locality-sensitive smoothing
// across near-identical recent histories.
func (t *RewardTracker) updateSimilarLocked(contextKey string, predicted, actual models.AttackType) {
	for otherKey := range t.rewards {
		if otherKey == contextKey {
			continue
		}
		if similarContextKeys(contextKey, otherKey) {
			t.applyLocked(otherKey, predicted, actual, dampedCorrect, dampedOthersOnMiss)
		}
	}
}

func similarContextKeys(key1, key2 string) bool {
	parts1 := strings.Split(key1, ";")
	parts2 := strings.Split(key2, ";")
	if len(parts1) < 2 || len(parts2) < 2 {
		return false
	}
	if parts1[0] != parts2[0] {
		return false
	}
	attacks1 := strings.Split(parts1[1], ",")
	attacks2 := strings.Split(parts2[1], ",")
	matches := 0
	limit := min(min(len(attacks1), len(attacks2)), 5)
	for i := 0; i < limit; i++ {
		if attacks1[len(attacks1)-1-i] == attacks2[len(attacks2)-1-i] {
			matches++
		}
	}
	return matches >= 3
}

// RewardScores returns the reward vector for a fingerprint, or an
// all-zero vector for unknown keys.
func (t *RewardTracker) RewardScores(contextKey string) RewardVector {
	t.mu.Lock()
	defer t.mu.Unlock()
	if vec, ok := t.rewards[contextKey]; ok {
		return *vec
	}
	return RewardVector{}
}

// CurrentRewardScores returns the reward vector for the fingerprint of
// the current window.
func (t *RewardTracker) CurrentRewardScores() RewardVector {
	t.mu.Lock()
	key := t.contextKeyLocked(rewardWindowTicks)
	t.mu.Unlock()
	return t.RewardScores(key)
}

// Cleanup drops all pending predictions once the backlog grows past 100;
// stale pendings only accumulate when outcomes stop arriving.
func (t *RewardTracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) > maxPendingEntries {
		t.pending = make(map[string]pendingPrediction)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
