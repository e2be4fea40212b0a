package predictor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pvplabs/predictor-api/internal/models"
)

type stubModelSource struct {
	available bool
	scores    [3]float64
	err       error
}

func (s *stubModelSource) Available() bool { return s.available }

func (s *stubModelSource) Scores(current models.Context) ([3]float64, error) {
	return s.scores, s.err
}

func TestHybridFallsBackWithoutModel(t *testing.T) {
	engine := NewEngine(nil)
	hist := historyOf(models.AttackMelee, models.AttackMelee, models.AttackMelee)
	query := fullContext()

	for _, source := range []ModelSource{nil, &stubModelSource{available: false}} {
		h := NewHybridPredictor(engine, source, nil)
		preds := h.TopPredictions(&query, hist)
		if preds[0].Method == models.MethodMLHybrid {
			t.Error("hybrid method reported without a usable model")
		}
	}
}

func TestHybridFallsBackOnModelError(t *testing.T) {
	engine := NewEngine(nil)
	source := &stubModelSource{available: true, err: errors.New("inference failed")}
	h := NewHybridPredictor(engine, source, nil)

	hist := historyOf(models.AttackMelee, models.AttackMelee, models.AttackMelee)
	query := fullContext()
	preds := h.TopPredictions(&query, hist)
	if preds[0].Method == models.MethodMLHybrid {
		t.Error("hybrid method reported despite model failure")
	}
}

func TestHybridBlendsModelAndPersonalization(t *testing.T) {
	engine := NewEngine(nil)
	source := &stubModelSource{available: true, scores: [3]float64{0, 100, 0}}
	h := NewHybridPredictor(engine, source, nil)

	// All-melee history: personalization is 100/0/0.
	hist := historyOf(models.AttackMelee, models.AttackMelee, models.AttackMelee, models.AttackMelee)
	query := fullContext()

	preds := h.TopPredictions(&query, hist)
	if preds[0].AttackType != models.AttackRanged {
		t.Fatalf("top prediction = %q, want ranged from the model", preds[0].AttackType)
	}
	if preds[0].Method != models.MethodMLHybrid {
		t.Errorf("method = %q, want %q", preds[0].Method, models.MethodMLHybrid)
	}
	if preds[0].QualityScore != 70 {
		t.Errorf("ranged score = %v, want 70 (100*0.7)", preds[0].QualityScore)
	}

	byType := make(map[models.AttackType]float64)
	for _, p := range preds {
		byType[p.AttackType] = p.QualityScore
	}
	if byType[models.AttackMelee] != 30 {
		t.Errorf("melee score = %v, want 30 (100*0.3 personalization)", byType[models.AttackMelee])
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	if _, err := LoadModel(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for a missing model file")
	}
}

func TestLoadModelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	c := fullContext()
	payload := `{"` + c.Key() + `":[10,20,70]}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	source, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if !source.Available() {
		t.Fatal("loaded model not available")
	}

	scores, err := source.Scores(c)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if scores != [3]float64{10, 20, 70} {
		t.Errorf("scores = %v", scores)
	}

	other := c
	other.Weapon = "claws"
	if _, err := source.Scores(other); err == nil {
		t.Error("expected error for an unknown context key")
	}
}
