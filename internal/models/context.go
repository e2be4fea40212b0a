package models

import "fmt"

// AttackType is one of the three combat styles an adversary can use.
type AttackType string

const (
	AttackMelee  AttackType = "melee"
	AttackRanged AttackType = "ranged"
	AttackMagic  AttackType = "magic"
)

// AttackTypes returns all attack types in their fixed priority order.
// This order is also the deterministic tie-break for equally scored
// predictions.
func AttackTypes() [3]AttackType {
	return [3]AttackType{AttackMelee, AttackRanged, AttackMagic}
}

// AttackIndex maps an attack type to its slot in fixed-size score arrays.
// Returns -1 for anything that is not a known style.
func AttackIndex(t AttackType) int {
	switch t {
	case AttackMelee:
		return 0
	case AttackRanged:
		return 1
	case AttackMagic:
		return 2
	}
	return -1
}

// FreezeState describes which of the two combatants are immobilized.
type FreezeState string

const (
	BothFrozen             FreezeState = "bothFrozen"
	BothUnfrozen           FreezeState = "bothUnfrozen"
	TargetFrozenWeUnfrozen FreezeState = "targetFrozenWeUnfrozen"
	WeFrozenTargetUnfrozen FreezeState = "weFrozenTargetUnfrozen"
)

// PidStatus is the inferred turn-order relationship between the two
// combatants. Computed upstream from damage/animation timing; opaque here.
type PidStatus string

const (
	OnPid      PidStatus = "ON_PID"
	OffPid     PidStatus = "OFF_PID"
	PidUnknown PidStatus = "UNKNOWN"
)

// Context is an immutable snapshot of the combat situation at the moment
// an attack was observed or a prediction is requested. Empty strings and
// -1 mean "unknown". AttackStyle is empty for the context currently being
// predicted and set for historical entries.
type Context struct {
	Timestamp            int64       `json:"timestamp"`
	OverheadPrayer       string      `json:"overhead_prayer,omitempty"`
	TargetHP             int         `json:"target_hp"`
	Weapon               string      `json:"weapon,omitempty"`
	TargetSpec           int         `json:"target_spec"`
	AttackStyle          AttackType  `json:"attack_style,omitempty"`
	FreezeState          FreezeState `json:"freeze_state,omitempty"`
	Distance             int         `json:"distance"`
	PidStatus            PidStatus   `json:"pid_status,omitempty"`
	PlayerFreezeTicks    int         `json:"player_freeze_ticks"`
	OpponentFreezeTicks  int         `json:"opponent_freeze_ticks"`
}

// NewContext returns a Context with the freeze tick counters set to the
// unknown sentinel.
func NewContext() Context {
	return Context{PlayerFreezeTicks: -1, OpponentFreezeTicks: -1}
}

// Key derives the coarse pattern-frequency key for this context. HP and
// spec are bucketed to width-10 ranges and unknown fields collapse to
// sentinel strings, so contexts generalize across small variations.
func (c Context) Key() string {
	hpRange := c.TargetHP / 10 * 10
	specRange := c.TargetSpec / 10 * 10

	prayer := c.OverheadPrayer
	if prayer == "" {
		prayer = "none"
	}
	weapon := c.Weapon
	if weapon == "" {
		weapon = "unknown"
	}
	freeze := string(c.FreezeState)
	if freeze == "" {
		freeze = "unknown"
	}

	return fmt.Sprintf("prayer:%s,hp:%d-%d,weapon:%s,spec:%d-%d,freeze:%s",
		prayer, hpRange, hpRange+10, weapon, specRange, specRange+10, freeze)
}
