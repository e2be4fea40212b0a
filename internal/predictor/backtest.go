package predictor

import "github.com/pvplabs/predictor-api/internal/models"

// Backtest replays an adversary's log through a fresh engine, predicting
// each entry from the prefix before it, and reports the hit rate. warmup
// entries are replayed without being evaluated so early guesses against a
// near-empty log do not poison the rate.
func Backtest(hist *History, warmup int) models.BacktestReport {
	report := models.BacktestReport{
		ByType:     make(map[models.AttackType]int),
		HitsByType: make(map[models.AttackType]int),
	}
	if hist == nil || hist.Len() < 2 {
		return report
	}
	if warmup < 1 {
		warmup = 1
	}

	engine := NewEngine(nil)
	replay := NewHistory()

	for i := 0; i < hist.Len(); i++ {
		actual := hist.At(i)
		if i >= warmup && actual.AttackStyle != "" {
			query := actual
			query.AttackStyle = ""
			preds := engine.TopPredictions(&query, replay)
			if len(preds) > 0 {
				report.Evaluated++
				report.ByType[actual.AttackStyle]++
				if preds[0].AttackType == actual.AttackStyle {
					report.Hits++
					report.HitsByType[actual.AttackStyle]++
				}
			}
		}
		replay.Append(actual, 0)
		engine.ClearCache()
	}

	if report.Evaluated > 0 {
		report.HitRate = float64(report.Hits) / float64(report.Evaluated)
	}
	return report
}
