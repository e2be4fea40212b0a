package predictor

import (
	"testing"

	"github.com/pvplabs/predictor-api/internal/models"
)

func TestHistoryAppendEvictsOldest(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 5; i++ {
		c := fullContext()
		c.Timestamp = int64(i)
		c.AttackStyle = models.AttackMelee
		h.Append(c, 3)
	}

	if h.Len() != 3 {
		t.Fatalf("Len = %d, want 3", h.Len())
	}
	if h.At(0).Timestamp != 2 {
		t.Errorf("oldest timestamp = %d, want 2", h.At(0).Timestamp)
	}
	if h.At(2).Timestamp != 4 {
		t.Errorf("newest timestamp = %d, want 4", h.At(2).Timestamp)
	}
}

func TestHistoryPatternIndex(t *testing.T) {
	h := NewHistory()
	first := fullContext()
	first.AttackStyle = models.AttackMelee
	h.Append(first, 0)

	if h.PatternKeyCount() != 0 {
		t.Fatalf("pattern keys after one entry = %d, want 0", h.PatternKeyCount())
	}

	second := fullContext()
	second.AttackStyle = models.AttackRanged
	h.Append(second, 0)

	counts := h.PatternCounts(first.Key())
	if counts[models.AttackRanged] != 1 {
		t.Errorf("pattern count for ranged = %d, want 1", counts[models.AttackRanged])
	}

	third := fullContext()
	third.AttackStyle = models.AttackRanged
	h.Append(third, 0)

	counts = h.PatternCounts(second.Key())
	if counts[models.AttackRanged] != 2 {
		t.Errorf("pattern count for ranged = %d, want 2 (same coarse key)", counts[models.AttackRanged])
	}
}

func TestHistoryPatternSkipsUnknownStyle(t *testing.T) {
	h := NewHistory()
	h.Append(fullContext(), 0)

	unlabeled := fullContext()
	unlabeled.AttackStyle = ""
	h.Append(unlabeled, 0)

	if h.PatternKeyCount() != 0 {
		t.Errorf("pattern keys = %d, want 0 when the outcome style is unknown", h.PatternKeyCount())
	}
}

func TestHistoryBreakdowns(t *testing.T) {
	h := historyOf(models.AttackMelee, models.AttackMelee, models.AttackRanged)

	styles := h.StyleBreakdown()
	if styles[models.AttackMelee] != 2 || styles[models.AttackRanged] != 1 {
		t.Errorf("StyleBreakdown = %v", styles)
	}

	byFreeze := h.FreezeStateBreakdown()
	if byFreeze[models.BothUnfrozen][models.AttackMelee] != 2 {
		t.Errorf("FreezeStateBreakdown = %v", byFreeze)
	}
}

func TestHistoryRecentReturnsCopy(t *testing.T) {
	h := historyOf(models.AttackMelee, models.AttackRanged, models.AttackMagic)

	recent := h.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) length = %d, want 2", len(recent))
	}
	if recent[0].AttackStyle != models.AttackRanged || recent[1].AttackStyle != models.AttackMagic {
		t.Errorf("Recent order wrong: %v, %v", recent[0].AttackStyle, recent[1].AttackStyle)
	}

	recent[0].AttackStyle = models.AttackMelee
	if h.At(1).AttackStyle != models.AttackRanged {
		t.Error("mutating Recent result leaked into the log")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	h := historyOf(models.AttackMelee, models.AttackRanged, models.AttackMelee)

	restored := FromSnapshot(h.Snapshot())
	if restored.Len() != h.Len() {
		t.Fatalf("restored Len = %d, want %d", restored.Len(), h.Len())
	}
	for i := 0; i < h.Len(); i++ {
		if restored.At(i).AttackStyle != h.At(i).AttackStyle {
			t.Errorf("entry %d style = %q, want %q", i, restored.At(i).AttackStyle, h.At(i).AttackStyle)
		}
	}
	if restored.PatternKeyCount() != h.PatternKeyCount() {
		t.Errorf("restored pattern keys = %d, want %d", restored.PatternKeyCount(), h.PatternKeyCount())
	}

	key := h.At(0).Key()
	want := h.PatternCounts(key)
	got := restored.PatternCounts(key)
	for style, n := range want {
		if got[style] != n {
			t.Errorf("restored pattern count[%s] = %d, want %d", style, got[style], n)
		}
	}
}

func TestFromSnapshotRebuildsMissingIndex(t *testing.T) {
	h := historyOf(models.AttackMelee, models.AttackRanged, models.AttackMelee)
	snap := h.Snapshot()
	snap.PatternFrequency = nil

	restored := FromSnapshot(snap)
	if restored.PatternKeyCount() != h.PatternKeyCount() {
		t.Errorf("rebuilt pattern keys = %d, want %d", restored.PatternKeyCount(), h.PatternKeyCount())
	}
}
