// Package predictor implements the heuristic next-attack prediction
// engine: a context-similarity scorer, four strategy scorers, a cached
// orchestrator, a reward-tracking feedback loop and a tick-level scorer
// variant.
package predictor

import (
	"github.com/pvplabs/predictor-api/internal/models"
)

// History is the ordered, size-bounded log of observed attack contexts
// for one adversary, plus the derived pattern-frequency index. Both
// structures are owned exclusively by the History; callers mutate it only
// through Append. History itself is not goroutine safe - the Registry
// serializes access per adversary.
type History struct {
	entries     []models.Context
	patternFreq map[string]map[models.AttackType]int
	byFreeze    map[models.FreezeState]map[models.AttackType]int
}

// NewHistory returns an empty log.
func NewHistory() *History {
	return &History{
		patternFreq: make(map[string]map[models.AttackType]int),
		byFreeze:    make(map[models.FreezeState]map[models.AttackType]int),
	}
}

// Append pushes a context to the tail, evicting from the head while the
// log exceeds maxSize. When at least two entries are present the pattern
// index is incremented: the second-to-last entry's coarse key maps to the
// new entry's observed attack style.
func (h *History) Append(c models.Context, maxSize int) {
	h.entries = append(h.entries, c)
	for maxSize > 0 && len(h.entries) > maxSize {
		h.entries = h.entries[1:]
	}

	if len(h.entries) >= 2 && c.AttackStyle != "" {
		prev := h.entries[len(h.entries)-2]
		key := prev.Key()
		counts, ok := h.patternFreq[key]
		if !ok {
			counts = make(map[models.AttackType]int)
			h.patternFreq[key] = counts
		}
		counts[c.AttackStyle]++
	}

	if c.AttackStyle != "" && c.FreezeState != "" {
		counts, ok := h.byFreeze[c.FreezeState]
		if !ok {
			counts = make(map[models.AttackType]int)
			h.byFreeze[c.FreezeState] = counts
		}
		counts[c.AttackStyle]++
	}
}

// Len reports the number of stored contexts.
func (h *History) Len() int {
	return len(h.entries)
}

// At returns the i-th oldest entry.
func (h *History) At(i int) models.Context {
	return h.entries[i]
}

// Recent returns the last n entries (or fewer), oldest first, as a new
// slice.
func (h *History) Recent(n int) []models.Context {
	if len(h.entries) == 0 || n <= 0 {
		return nil
	}
	start := len(h.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.Context, len(h.entries)-start)
	copy(out, h.entries[start:])
	return out
}

// Entries returns a copy of the full log, oldest first. Used by the
// persister and the training exporter; the engine itself iterates
// in place via Len/At.
func (h *History) Entries() []models.Context {
	out := make([]models.Context, len(h.entries))
	copy(out, h.entries)
	return out
}

// PatternCounts returns the next-attack counts recorded for a coarse
// context key, or nil when the key has never been seen.
func (h *History) PatternCounts(key string) map[models.AttackType]int {
	counts, ok := h.patternFreq[key]
	if !ok {
		return nil
	}
	out := make(map[models.AttackType]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

// PatternKeyCount reports how many distinct coarse keys the index holds.
func (h *History) PatternKeyCount() int {
	return len(h.patternFreq)
}

// StyleBreakdown counts observed attack styles across the whole log.
func (h *History) StyleBreakdown() map[models.AttackType]int {
	out := make(map[models.AttackType]int, 3)
	for _, c := range h.entries {
		if c.AttackStyle != "" {
			out[c.AttackStyle]++
		}
	}
	return out
}

// FreezeStateBreakdown returns attack style counts grouped by the freeze
// state they were observed under.
func (h *History) FreezeStateBreakdown() map[models.FreezeState]map[models.AttackType]int {
	out := make(map[models.FreezeState]map[models.AttackType]int, len(h.byFreeze))
	for state, counts := range h.byFreeze {
		inner := make(map[models.AttackType]int, len(counts))
		for k, v := range counts {
			inner[k] = v
		}
		out[state] = inner
	}
	return out
}

// Snapshot is the serializable form of a History, exchanged with the
// persistence collaborator.
type Snapshot struct {
	Entries          []models.Context                      `json:"entries"`
	PatternFrequency map[string]map[models.AttackType]int  `json:"pattern_frequency"`
}

// Snapshot copies the log into its serializable form.
func (h *History) Snapshot() Snapshot {
	snap := Snapshot{
		Entries:          h.Entries(),
		PatternFrequency: make(map[string]map[models.AttackType]int, len(h.patternFreq)),
	}
	for key, counts := range h.patternFreq {
		inner := make(map[models.AttackType]int, len(counts))
		for k, v := range counts {
			inner[k] = v
		}
		snap.PatternFrequency[key] = inner
	}
	return snap
}

// FromSnapshot rebuilds a History from persisted state. The pattern index
// is taken as-is when present, otherwise rebuilt from the entries.
func FromSnapshot(snap Snapshot) *History {
	h := NewHistory()
	if len(snap.PatternFrequency) > 0 {
		h.entries = append(h.entries, snap.Entries...)
		for key, counts := range snap.PatternFrequency {
			inner := make(map[models.AttackType]int, len(counts))
			for k, v := range counts {
				inner[k] = v
			}
			h.patternFreq[key] = inner
		}
		for _, c := range snap.Entries {
			if c.AttackStyle != "" && c.FreezeState != "" {
				counts, ok := h.byFreeze[c.FreezeState]
				if !ok {
					counts = make(map[models.AttackType]int)
					h.byFreeze[c.FreezeState] = counts
				}
				counts[c.AttackStyle]++
			}
		}
		return h
	}
	for _, c := range snap.Entries {
		h.Append(c, 0)
	}
	return h
}
