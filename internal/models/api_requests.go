package models

// AttackObservation is the incoming record of one observed adversary
// attack, posted by the combat-observation collaborator.
type AttackObservation struct {
	ID                  string      `json:"id,omitempty"`
	Timestamp           int64       `json:"timestamp" validate:"required"`
	AttackStyle         AttackType  `json:"attack_style" validate:"required,oneof=melee ranged magic"`
	OverheadPrayer      string      `json:"overhead_prayer,omitempty"`
	TargetHP            int         `json:"target_hp"`
	Weapon              string      `json:"weapon,omitempty"`
	TargetSpec          int         `json:"target_spec"`
	FreezeState         FreezeState `json:"freeze_state,omitempty" validate:"omitempty,oneof=bothFrozen bothUnfrozen targetFrozenWeUnfrozen weFrozenTargetUnfrozen"`
	Distance            int         `json:"distance"`
	PidStatus           PidStatus   `json:"pid_status,omitempty" validate:"omitempty,oneof=ON_PID OFF_PID UNKNOWN"`
	PlayerFreezeTicks   *int        `json:"player_freeze_ticks,omitempty"`
	OpponentFreezeTicks *int        `json:"opponent_freeze_ticks,omitempty"`
}

// Context converts the observation into the engine's immutable snapshot.
// Absent freeze tick counters become the -1 sentinel.
func (o *AttackObservation) Context() Context {
	c := NewContext()
	c.Timestamp = o.Timestamp
	c.OverheadPrayer = o.OverheadPrayer
	c.TargetHP = o.TargetHP
	c.Weapon = o.Weapon
	c.TargetSpec = o.TargetSpec
	c.AttackStyle = o.AttackStyle
	c.FreezeState = o.FreezeState
	c.Distance = o.Distance
	c.PidStatus = o.PidStatus
	if o.PlayerFreezeTicks != nil {
		c.PlayerFreezeTicks = *o.PlayerFreezeTicks
	}
	if o.OpponentFreezeTicks != nil {
		c.OpponentFreezeTicks = *o.OpponentFreezeTicks
	}
	return c
}

// PredictionQuery is the per-tick query context for which a ranked
// prediction is requested. The outcome field is intentionally absent.
type PredictionQuery struct {
	Timestamp           int64       `json:"timestamp"`
	OverheadPrayer      string      `json:"overhead_prayer,omitempty"`
	TargetHP            int         `json:"target_hp"`
	Weapon              string      `json:"weapon,omitempty"`
	TargetSpec          int         `json:"target_spec"`
	FreezeState         FreezeState `json:"freeze_state,omitempty" validate:"omitempty,oneof=bothFrozen bothUnfrozen targetFrozenWeUnfrozen weFrozenTargetUnfrozen"`
	Distance            int         `json:"distance"`
	PidStatus           PidStatus   `json:"pid_status,omitempty" validate:"omitempty,oneof=ON_PID OFF_PID UNKNOWN"`
	PlayerFreezeTicks   *int        `json:"player_freeze_ticks,omitempty"`
	OpponentFreezeTicks *int        `json:"opponent_freeze_ticks,omitempty"`
}

// Context converts the query into an engine snapshot with no outcome.
func (q *PredictionQuery) Context() Context {
	c := NewContext()
	c.Timestamp = q.Timestamp
	c.OverheadPrayer = q.OverheadPrayer
	c.TargetHP = q.TargetHP
	c.Weapon = q.Weapon
	c.TargetSpec = q.TargetSpec
	c.FreezeState = q.FreezeState
	c.Distance = q.Distance
	c.PidStatus = q.PidStatus
	if q.PlayerFreezeTicks != nil {
		c.PlayerFreezeTicks = *q.PlayerFreezeTicks
	}
	if q.OpponentFreezeTicks != nil {
		c.OpponentFreezeTicks = *q.OpponentFreezeTicks
	}
	return c
}

// PredictionResponse wraps the ranked results returned to the decision-
// making collaborator.
type PredictionResponse struct {
	Adversary   string             `json:"adversary"`
	Predictions []PredictionResult `json:"predictions"`
	HistorySize int                `json:"history_size"`
}

// TickBatch is a batch of tick records posted for an adversary.
type TickBatch struct {
	Ticks []TickRecord `json:"ticks" validate:"required,min=1"`
}

// TickPredictionQuery asks the tick-based scorer for a ranking given the
// current tick's features.
type TickPredictionQuery struct {
	Features TickFeatures `json:"features"`
}

// RewardTickBatch feeds the reward tracker's rolling window.
type RewardTickBatch struct {
	Ticks []TickSnapshot `json:"ticks" validate:"required,min=1"`
}

// RewardPredictionRequest registers a pending prediction with the reward
// tracker.
type RewardPredictionRequest struct {
	Predicted AttackType `json:"predicted" validate:"required,oneof=melee ranged magic"`
	Score     float64    `json:"score"`
}

// RewardOutcomeRequest resolves pending predictions against the realized
// attack.
type RewardOutcomeRequest struct {
	Actual AttackType `json:"actual" validate:"required,oneof=melee ranged magic"`
}
