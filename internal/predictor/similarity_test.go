package predictor

import (
	"math"
	"testing"

	"github.com/pvplabs/predictor-api/internal/models"
)

func fullContext() models.Context {
	c := models.NewContext()
	c.Timestamp = 1000
	c.OverheadPrayer = "mage"
	c.TargetHP = 80
	c.Weapon = "whip"
	c.TargetSpec = 50
	c.FreezeState = models.BothUnfrozen
	c.Distance = 3
	c.PlayerFreezeTicks = 10
	c.OpponentFreezeTicks = 0
	return c
}

func TestSimilarityIdenticalContexts(t *testing.T) {
	c := fullContext()
	got := Similarity(c, c)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Similarity of identical contexts = %v, want 1.0", got)
	}
}

func TestSimilarityWeaponMismatchDominates(t *testing.T) {
	a := fullContext()
	b := fullContext()
	b.Weapon = "staff"

	got := Similarity(a, b)
	if got >= 0.85 {
		t.Errorf("Similarity with mismatched weapon = %v, want < 0.85", got)
	}
}

func TestDistanceSimilarityBuckets(t *testing.T) {
	tests := []struct {
		a, b int
		want float64
	}{
		{3, 3, 1.0},
		{3, 4, 0.95},
		{3, 5, 0.85},
		{3, 7, 0.7},
		{3, 9, 0.5},
		{3, 13, 0.3},
		{3, 20, 0.1},
		{-1, 3, 0.5},
		{3, -1, 0.5},
	}
	for _, tt := range tests {
		if got := distanceSimilarity(tt.a, tt.b); got != tt.want {
			t.Errorf("distanceSimilarity(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBucketDiff(t *testing.T) {
	tests := []struct {
		diff int
		want float64
	}{
		{0, 1.0},
		{5, 1.0},
		{-5, 1.0},
		{10, 0.8},
		{20, 0.5},
		{21, 0.2},
	}
	for _, tt := range tests {
		if got := bucketDiff(tt.diff); got != tt.want {
			t.Errorf("bucketDiff(%d) = %v, want %v", tt.diff, got, tt.want)
		}
	}
}

func TestTickSideSimilarity(t *testing.T) {
	tests := []struct {
		a, b int
		want float64
	}{
		{10, 10, 1.0},
		{10, 12, 1.0},
		{10, 15, 0.9},
		{10, 20, 0.7},
		{10, 25, 0.5},
		{10, 30, 0.3},
		{10, -1, 0.5},
		{-1, 10, 0.5},
		{-1, -1, 1.0},
	}
	for _, tt := range tests {
		if got := tickSideSimilarity(tt.a, tt.b); got != tt.want {
			t.Errorf("tickSideSimilarity(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMatchesWithFreezeTicks(t *testing.T) {
	base := fullContext()

	t.Run("identical contexts match", func(t *testing.T) {
		if !MatchesWithFreezeTicks(base, base) {
			t.Error("identical contexts should match")
		}
	})

	t.Run("different freeze states never match", func(t *testing.T) {
		other := fullContext()
		other.FreezeState = models.BothFrozen
		if MatchesWithFreezeTicks(base, other) {
			t.Error("contexts with different freeze states should not match")
		}
	})

	t.Run("one unknown freeze state never matches", func(t *testing.T) {
		other := fullContext()
		other.FreezeState = ""
		if MatchesWithFreezeTicks(base, other) {
			t.Error("one known and one unknown freeze state should not match")
		}
	})

	t.Run("both unknown freeze states can match", func(t *testing.T) {
		a := fullContext()
		a.FreezeState = ""
		b := fullContext()
		b.FreezeState = ""
		if !MatchesWithFreezeTicks(a, b) {
			t.Error("both-unknown freeze states with identical fields should match")
		}
	})

	t.Run("low similarity fails the gate", func(t *testing.T) {
		other := fullContext()
		other.Weapon = "staff"
		other.Distance = 20
		if MatchesWithFreezeTicks(base, other) {
			t.Error("dissimilar contexts should not pass the gate")
		}
	})
}

func BenchmarkSimilarity(b *testing.B) {
	a := fullContext()
	c := fullContext()
	c.Weapon = "crossbow"
	c.TargetHP = 40

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Similarity(a, c)
	}
}
