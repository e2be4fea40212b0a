package predictor

import "github.com/pvplabs/predictor-api/internal/models"

// Sub-feature weights for context similarity. Calibrated against live
// fight logs; the sum is 0.999 and the result is renormalized by the
// weights that contributed.
const (
	weaponWeight     = 0.335
	freezeWeight     = 0.213
	distanceWeight   = 0.204
	hpWeight         = 0.12
	specWeight       = 0.064
	prayerWeight     = 0.045
	freezeTickWeight = 0.018
)

// Similarity computes a continuous [0,1] similarity between the current
// context and a historical one from weighted sub-feature comparisons.
// All comparisons treat empty/-1 fields as unknown and never fail.
func Similarity(current, historical models.Context) float64 {
	totalScore := 0.0
	totalWeight := 0.0

	var weaponScore float64
	switch {
	case current.Weapon != "" && historical.Weapon != "":
		if current.Weapon == historical.Weapon {
			weaponScore = 1.0
		}
	case current.Weapon == "" && historical.Weapon == "":
		weaponScore = 1.0
	default:
		weaponScore = 0.5
	}
	totalScore += weaponScore * weaponWeight
	totalWeight += weaponWeight

	var freezeScore float64
	switch {
	case current.FreezeState != "" && historical.FreezeState != "":
		if current.FreezeState == historical.FreezeState {
			freezeScore = 1.0
		}
	case current.FreezeState == "" && historical.FreezeState == "":
		freezeScore = 1.0
	}
	totalScore += freezeScore * freezeWeight
	totalWeight += freezeWeight

	totalScore += distanceSimilarity(current.Distance, historical.Distance) * distanceWeight
	totalWeight += distanceWeight

	var hpScore float64
	if current.TargetHP >= 0 && historical.TargetHP >= 0 {
		hpScore = bucketDiff(current.TargetHP - historical.TargetHP)
	}
	totalScore += hpScore * hpWeight
	totalWeight += hpWeight

	var specScore float64
	if current.TargetSpec >= 0 && historical.TargetSpec >= 0 {
		specScore = bucketDiff(current.TargetSpec - historical.TargetSpec)
	}
	totalScore += specScore * specWeight
	totalWeight += specWeight

	var prayerScore float64
	switch {
	case current.OverheadPrayer != "" && historical.OverheadPrayer != "":
		if current.OverheadPrayer == historical.OverheadPrayer {
			prayerScore = 1.0
		} else {
			prayerScore = 0.5
		}
	case current.OverheadPrayer == "" && historical.OverheadPrayer == "":
		prayerScore = 1.0
	default:
		prayerScore = 0.8
	}
	totalScore += prayerScore * prayerWeight
	totalWeight += prayerWeight

	totalScore += freezeTickSimilarity(current, historical) * freezeTickWeight
	totalWeight += freezeTickWeight

	if totalWeight > 0 {
		return totalScore / totalWeight
	}
	return 0
}

// distanceSimilarity maps the absolute tile-distance difference onto a
// stepped [0.1, 1.0] scale. Unknown distances are neutral.
func distanceSimilarity(a, b int) float64 {
	if a < 0 || b < 0 {
		return 0.5
	}
	diff := abs(a - b)
	switch {
	case diff == 0:
		return 1.0
	case diff <= 1:
		return 0.95
	case diff <= 2:
		return 0.85
	case diff <= 4:
		return 0.7
	case diff <= 6:
		return 0.5
	case diff <= 10:
		return 0.3
	default:
		return 0.1
	}
}

// bucketDiff is the shared HP/spec percentage similarity scale.
func bucketDiff(diff int) float64 {
	diff = abs(diff)
	switch {
	case diff <= 5:
		return 1.0
	case diff <= 10:
		return 0.8
	case diff <= 20:
		return 0.5
	default:
		return 0.2
	}
}

// freezeTickSimilarity is the product of two independent per-side
// multipliers. A side with both counters known decays with the tick
// difference; a side with exactly one counter known contributes 0.5; a
// side with neither known is neutral.
func freezeTickSimilarity(current, historical models.Context) float64 {
	sim := 1.0
	sim *= tickSideSimilarity(current.PlayerFreezeTicks, historical.PlayerFreezeTicks)
	sim *= tickSideSimilarity(current.OpponentFreezeTicks, historical.OpponentFreezeTicks)
	return sim
}

func tickSideSimilarity(a, b int) float64 {
	if a >= 0 && b >= 0 {
		diff := abs(a - b)
		switch {
		case diff <= 2:
			return 1.0
		case diff <= 5:
			return 0.9
		case diff <= 10:
			return 0.7
		case diff <= 15:
			return 0.5
		default:
			return 0.3
		}
	}
	if a >= 0 || b >= 0 {
		return 0.5
	}
	return 1.0
}

// MatchesWithFreezeTicks is the gate used by the exact-match strategy:
// the freeze states must be equal (both unknown matches, one unknown does
// not) and the overall similarity must reach 0.85.
func MatchesWithFreezeTicks(current, historical models.Context) bool {
	if current.FreezeState != "" && historical.FreezeState != "" {
		if current.FreezeState != historical.FreezeState {
			return false
		}
	} else if current.FreezeState != "" || historical.FreezeState != "" {
		return false
	}
	return Similarity(current, historical) >= 0.85
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
