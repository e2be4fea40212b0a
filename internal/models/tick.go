package models

// TickSnapshot is one game tick's worth of coarse observations, consumed
// by the reward tracker's rolling window.
type TickSnapshot struct {
	Tick        int64       `json:"tick"`
	FreezeState FreezeState `json:"freeze_state"`
	AttackType  AttackType  `json:"attack_type,omitempty"`
	PlayerMoved bool        `json:"player_moved"`
	Prayer      string      `json:"prayer,omitempty"`
	Weapon      string      `json:"weapon,omitempty"`
}

// TickFeatures is the richer per-tick feature record the tick-based
// scorer compares. Category fields are discrete labels produced upstream
// (e.g. distance "adjacent"/"close"/"mid"/"far", hp "low"/"mid"/"high",
// time "same_tick".."old"); empty means unknown.
type TickFeatures struct {
	FreezeState          string   `json:"freeze_state,omitempty"`
	DistanceCategory     string   `json:"distance_category,omitempty"`
	HPCategory           string   `json:"hp_category_player,omitempty"`
	OpponentAttackType   string   `json:"opponent_attack_type,omitempty"`
	PlayerAnimCategory   string   `json:"player_animation_category,omitempty"`
	OpponentAnimCategory string   `json:"opponent_animation_category,omitempty"`
	TimeCategory         string   `json:"time_category,omitempty"`
	PlayerActions        []string `json:"player_actions,omitempty"`
	OpponentActions      []string `json:"opponent_actions,omitempty"`
}

// TickRecord is one stored tick for an adversary: its features plus the
// attack the adversary made on that tick, if any.
type TickRecord struct {
	Tick       int64        `json:"tick"`
	Features   TickFeatures `json:"features"`
	NextAttack AttackType   `json:"attack_type,omitempty"`
}

// StrategyWeights are the externally supplied blending weights for the
// tick-based scorer, normalized to sum to 1 before use.
type StrategyWeights struct {
	FreezeState    float64 `json:"freeze_state"`
	Sequence       float64 `json:"sequence"`
	Temporal       float64 `json:"temporal"`
	PhaseAware     float64 `json:"phase_aware"`
	Movement       float64 `json:"movement"`
	Resource       float64 `json:"resource"`
	Frequency      float64 `json:"frequency"`
	Reward         float64 `json:"reward"`
	PlayerAction   float64 `json:"player_action"`
	PlayerDamage   float64 `json:"player_damage"`
	OpponentAction float64 `json:"opponent_action"`
	OpponentDamage float64 `json:"opponent_damage"`
	HealthState    float64 `json:"health_state"`
	ResourceState  float64 `json:"resource_state"`
	EventTiming    float64 `json:"event_timing"`
	PatternMatch   float64 `json:"pattern_match"`
}

// DefaultStrategyWeights returns the calibration used when no per-
// adversary weights document exists.
func DefaultStrategyWeights() StrategyWeights {
	return StrategyWeights{
		FreezeState:    0.1,
		Sequence:       0.2,
		Temporal:       0.15,
		PhaseAware:     0.1,
		Movement:       0.15,
		Resource:       0.1,
		Frequency:      0.05,
		Reward:         0.05,
		PlayerAction:   0.03,
		PlayerDamage:   0.02,
		OpponentAction: 0.03,
		OpponentDamage: 0.02,
		HealthState:    0.02,
		ResourceState:  0.01,
		EventTiming:    0.015,
		PatternMatch:   0.005,
	}
}

func (w *StrategyWeights) total() float64 {
	return w.FreezeState + w.Sequence + w.Temporal + w.PhaseAware +
		w.Movement + w.Resource + w.Frequency + w.Reward +
		w.PlayerAction + w.PlayerDamage + w.OpponentAction + w.OpponentDamage +
		w.HealthState + w.ResourceState + w.EventTiming + w.PatternMatch
}

// Normalize scales the weights so they sum to 1. A zero-sum document is
// left untouched.
func (w *StrategyWeights) Normalize() {
	total := w.total()
	if total <= 0 {
		return
	}
	w.FreezeState /= total
	w.Sequence /= total
	w.Temporal /= total
	w.PhaseAware /= total
	w.Movement /= total
	w.Resource /= total
	w.Frequency /= total
	w.Reward /= total
	w.PlayerAction /= total
	w.PlayerDamage /= total
	w.OpponentAction /= total
	w.OpponentDamage /= total
	w.HealthState /= total
	w.ResourceState /= total
	w.EventTiming /= total
	w.PatternMatch /= total
}
