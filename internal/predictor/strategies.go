package predictor

import (
	"strings"

	"github.com/pvplabs/predictor-api/internal/models"
)

// ScoreVector is one strategy's weighted vote, indexed by
// models.AttackIndex. Evidence is the integer count of qualifying votes;
// the orchestrator uses it (not the float scores) to gate lower-priority
// strategies, so float accumulation drift can never flip the gate.
type ScoreVector struct {
	Scores   [3]float64
	Methods  [3]string
	Evidence int
}

// Strategy converts historical evidence into a weighted vote per attack
// type. Strategies scan pairs (entry[i], entry[i+1]) and credit the
// style observed after each scanned entry; the newest log entry is only
// ever credited as an outcome, never matched against the query.
type Strategy interface {
	Name() string
	Score(current models.Context, hist *History) ScoreVector
}

type exactMatchStrategy struct{}

func (exactMatchStrategy) Name() string { return models.MethodExactMatch }

// Score counts a full-weight vote for every historical pair whose older
// entry passes the freeze-gated similarity match against the current
// context. Votes are plain integers.
func (exactMatchStrategy) Score(current models.Context, hist *History) ScoreVector {
	var votes [3]int
	total := 0

	for i := 0; i < hist.Len()-1; i++ {
		if !MatchesWithFreezeTicks(current, hist.At(i)) {
			continue
		}
		idx := models.AttackIndex(hist.At(i + 1).AttackStyle)
		if idx < 0 {
			continue
		}
		votes[idx]++
		total++
	}

	var out ScoreVector
	out.Evidence = total
	if total == 0 {
		return out
	}
	for i := range votes {
		out.Scores[i] = float64(votes[i]) / float64(total) * 100
		out.Methods[i] = models.MethodExactMatch
	}
	return out
}

type partialMatchStrategy struct{}

func (partialMatchStrategy) Name() string { return "partial_match" }

// partialBand maps a similarity to its vote weight and provenance label.
func partialBand(similarity float64) (float64, string) {
	switch {
	case similarity >= 0.9:
		return 1.0, models.MethodPartialExcellent
	case similarity >= 0.8:
		return 0.9, models.MethodPartialVeryGood
	case similarity >= 0.7:
		return 0.8, models.MethodPartialGood
	case similarity >= 0.6:
		return 0.7, models.MethodPartialDecent
	case similarity >= 0.5:
		return 0.6, models.MethodPartialOkay
	default:
		return 0.5, models.MethodPartialPoor
	}
}

// Score accumulates similarity-banded votes for every pair whose older
// entry resembles the current context at 0.4 or better. The method label
// reported per attack type is the band of the strongest vote that
// credited it.
func (partialMatchStrategy) Score(current models.Context, hist *History) ScoreVector {
	var weighted [3]float64
	var bestSim [3]float64
	totalWeight := 0.0
	votes := 0

	for i := 0; i < hist.Len()-1; i++ {
		idx := models.AttackIndex(hist.At(i + 1).AttackStyle)
		if idx < 0 {
			continue
		}
		similarity := Similarity(current, hist.At(i))
		if similarity < 0.4 {
			continue
		}
		weight, _ := partialBand(similarity)
		weighted[idx] += weight
		totalWeight += weight
		votes++
		if similarity > bestSim[idx] {
			bestSim[idx] = similarity
		}
	}

	var out ScoreVector
	out.Evidence = votes
	if totalWeight <= 0 {
		return out
	}
	for i := range weighted {
		if weighted[i] <= 0 {
			continue
		}
		out.Scores[i] = weighted[i] / totalWeight * 100
		_, out.Methods[i] = partialBand(bestSim[i])
	}
	return out
}

type patternFrequencyStrategy struct{}

func (patternFrequencyStrategy) Name() string { return models.MethodPatternFrequency }

// Score looks the current context's coarse key up in the log's pattern
// index. Cheap, and independent of the similarity machinery.
func (patternFrequencyStrategy) Score(current models.Context, hist *History) ScoreVector {
	var out ScoreVector
	counts := hist.PatternCounts(current.Key())
	if len(counts) == 0 {
		return out
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return out
	}
	for _, t := range models.AttackTypes() {
		idx := models.AttackIndex(t)
		out.Scores[idx] = float64(counts[t]) * 100 / float64(total)
		out.Methods[idx] = models.MethodPatternFrequency
	}
	out.Evidence = total
	return out
}

type sequenceMatchStrategy struct{}

func (sequenceMatchStrategy) Name() string { return models.MethodSequence }

// Score builds the recent attack-style n-gram (lengths 2 to 4, drawn
// from the last six entries minus the reserved newest one) and searches
// the whole log for the same n-gram. A hit votes for the style that
// followed it, weighted by the similarity between the two sequences'
// final contexts.
func (sequenceMatchStrategy) Score(current models.Context, hist *History) ScoreVector {
	var out ScoreVector
	if hist.Len() < 3 {
		return out
	}

	start := hist.Len() - 6
	if start < 0 {
		start = 0
	}
	end := hist.Len() - 1
	if start >= end {
		return out
	}
	recent := make([]models.Context, 0, end-start)
	for i := start; i < end; i++ {
		recent = append(recent, hist.At(i))
	}

	var weighted [3]float64
	totalWeight := 0.0
	votes := 0

	for seqLen := 2; seqLen <= 4 && seqLen <= len(recent); seqLen++ {
		seq := recent[len(recent)-seqLen:]
		lastSeqContext := seq[len(seq)-1]
		currentSeq := styleKey(seq)
		if currentSeq == "" {
			continue
		}

		for i := 0; i < hist.Len()-seqLen-1; i++ {
			candidate := make([]models.Context, 0, seqLen)
			for j := 0; j < seqLen; j++ {
				candidate = append(candidate, hist.At(i+j))
			}
			if styleKey(candidate) != currentSeq {
				continue
			}
			similarity := Similarity(lastSeqContext, hist.At(i+seqLen-1))
			if similarity < 0.4 {
				continue
			}
			idx := models.AttackIndex(hist.At(i + seqLen).AttackStyle)
			if idx < 0 {
				continue
			}
			weight := 0.25 * (0.4 + 0.6*similarity)
			weighted[idx] += weight
			totalWeight += weight
			votes++
		}
	}

	out.Evidence = votes
	if totalWeight <= 0 {
		return out
	}
	for i := range weighted {
		if weighted[i] <= 0 {
			continue
		}
		out.Scores[i] = weighted[i] / totalWeight * 100
		out.Methods[i] = models.MethodSequence
	}
	return out
}

// styleKey joins the known attack styles of a context run into a
// comparable sequence key. Entries with no recorded style are skipped.
func styleKey(contexts []models.Context) string {
	parts := make([]string, 0, len(contexts))
	for _, c := range contexts {
		if c.AttackStyle != "" {
			parts = append(parts, string(c.AttackStyle))
		}
	}
	return strings.Join(parts, ",")
}
