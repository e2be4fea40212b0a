package predictor

import "github.com/pvplabs/predictor-api/internal/models"

// FeatureVectorSize is the fixed width of an encoded training row:
// one-hot freeze state (4), overhead prayer (4), weapon class (7) and
// pid status (3), then raw hp, spec and distance, then two reserved
// slots kept at -1 so rows stay column-compatible with older exports.
const FeatureVectorSize = 23

var weaponClasses = []string{"whip", "crossbow", "staff", "ags", "claws", "bow"}

// TrainingRow is one supervised example: the context preceding an attack
// and the style that attack turned out to be.
type TrainingRow struct {
	Adversary string
	Features  [FeatureVectorSize]float64
	Label     models.AttackType
}

// EncodeFeatures flattens a context into the fixed training vector.
// Unknown categorical values light the final slot of their one-hot
// group.
func EncodeFeatures(c models.Context) [FeatureVectorSize]float64 {
	var v [FeatureVectorSize]float64
	i := 0

	freezeStates := []models.FreezeState{
		models.BothFrozen,
		models.BothUnfrozen,
		models.TargetFrozenWeUnfrozen,
		models.WeFrozenTargetUnfrozen,
	}
	for _, state := range freezeStates {
		if c.FreezeState == state {
			v[i] = 1
		}
		i++
	}

	prayers := []string{"mage", "ranged", "melee"}
	matched := false
	for _, prayer := range prayers {
		if c.OverheadPrayer == prayer {
			v[i] = 1
			matched = true
		}
		i++
	}
	if !matched {
		v[i] = 1
	}
	i++

	matched = false
	for _, class := range weaponClasses {
		if c.Weapon == class {
			v[i] = 1
			matched = true
		}
		i++
	}
	if !matched {
		v[i] = 1
	}
	i++

	switch c.PidStatus {
	case models.OnPid:
		v[i] = 1
	case models.OffPid:
		v[i+1] = 1
	default:
		v[i+2] = 1
	}
	i += 3

	v[i] = float64(c.TargetHP)
	v[i+1] = float64(c.TargetSpec)
	v[i+2] = float64(c.Distance)
	i += 3

	v[i] = -1
	v[i+1] = -1

	return v
}

// TrainingRows converts an adversary's history into supervised examples.
// Each labeled entry pairs with the context before it; entries without a
// style or without a predecessor are skipped.
func TrainingRows(adversary string, hist *History) []TrainingRow {
	if hist == nil || hist.Len() < 2 {
		return nil
	}
	rows := make([]TrainingRow, 0, hist.Len()-1)
	for i := 1; i < hist.Len(); i++ {
		label := hist.At(i).AttackStyle
		if label == "" {
			continue
		}
		rows = append(rows, TrainingRow{
			Adversary: adversary,
			Features:  EncodeFeatures(hist.At(i - 1)),
			Label:     label,
		})
	}
	return rows
}
