package predictor

import (
	"testing"

	"github.com/pvplabs/predictor-api/internal/models"
)

func TestBacktestPredictableAdversary(t *testing.T) {
	hist := NewHistory()
	for i := 0; i < 10; i++ {
		c := fullContext()
		c.Timestamp = int64(i)
		c.AttackStyle = models.AttackMelee
		hist.Append(c, 0)
	}

	report := Backtest(hist, 3)
	if report.Evaluated != 7 {
		t.Fatalf("Evaluated = %d, want 7", report.Evaluated)
	}
	if report.HitRate != 1.0 {
		t.Errorf("HitRate = %v, want 1.0 for an all-melee log", report.HitRate)
	}
	if report.HitsByType[models.AttackMelee] != 7 {
		t.Errorf("melee hits = %d, want 7", report.HitsByType[models.AttackMelee])
	}
}

func TestBacktestShortHistory(t *testing.T) {
	hist := NewHistory()
	c := fullContext()
	c.AttackStyle = models.AttackMelee
	hist.Append(c, 0)

	for _, h := range []*History{nil, NewHistory(), hist} {
		report := Backtest(h, 3)
		if report.Evaluated != 0 || report.HitRate != 0 {
			t.Errorf("report = %+v, want empty for insufficient history", report)
		}
	}
}

func TestBacktestSkipsUnlabeledEntries(t *testing.T) {
	hist := NewHistory()
	for i := 0; i < 6; i++ {
		c := fullContext()
		c.Timestamp = int64(i)
		c.AttackStyle = models.AttackMelee
		hist.Append(c, 0)
	}
	unlabeled := fullContext()
	unlabeled.Timestamp = 6
	unlabeled.AttackStyle = ""
	hist.Append(unlabeled, 0)

	report := Backtest(hist, 3)
	if report.Evaluated != 3 {
		t.Errorf("Evaluated = %d, want 3 (unlabeled entry skipped)", report.Evaluated)
	}
}
