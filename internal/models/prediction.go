package models

// Provenance tags for prediction results. The method string only reports
// which scorer produced the winning score for an attack type.
const (
	MethodNoData           = "no_data"
	MethodDefault          = "default"
	MethodExactMatch       = "exact_match"
	MethodPatternFrequency = "pattern_frequency"
	MethodSequence         = "sequence"
	MethodMLModel          = "ml_model"
	MethodMLHybrid         = "ml_hybrid"
	MethodTickBased        = "tick_based"

	MethodPartialExcellent = "partial_match_excellent"
	MethodPartialVeryGood  = "partial_match_very_good"
	MethodPartialGood      = "partial_match_good"
	MethodPartialDecent    = "partial_match_decent"
	MethodPartialOkay      = "partial_match_okay"
	MethodPartialPoor      = "partial_match_poor"
)

// PredictionResult is one ranked guess at the adversary's next attack.
// QualityScore is 0-100 and the set of results is not required to sum
// to 100.
type PredictionResult struct {
	AttackType   AttackType `json:"attack_type"`
	QualityScore float64    `json:"quality_score"`
	Method       string     `json:"method"`
}

// PredictionProgress reports how ready the predictor is for an adversary,
// based on how much history and pattern diversity has been collected.
type PredictionProgress struct {
	Progress   float64 `json:"progress"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
}

// BacktestReport is the outcome of replaying an adversary's history
// through the engine, predicting each entry from its prefix.
type BacktestReport struct {
	Evaluated int                `json:"evaluated"`
	Hits      int                `json:"hits"`
	HitRate   float64            `json:"hit_rate"`
	ByType    map[AttackType]int `json:"by_type"`
	HitsByType map[AttackType]int `json:"hits_by_type"`
}

// AdversaryStats summarizes what has been learned about one adversary.
type AdversaryStats struct {
	Adversary       string                              `json:"adversary"`
	HistorySize     int                                 `json:"history_size"`
	PatternKeys     int                                 `json:"pattern_keys"`
	StyleBreakdown  map[AttackType]int                  `json:"style_breakdown"`
	ByFreezeState   map[FreezeState]map[AttackType]int  `json:"by_freeze_state"`
	Progress        PredictionProgress                  `json:"progress"`
}
