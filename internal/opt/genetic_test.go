package opt

import (
	"errors"
	"testing"
)

func TestGeneticOnOneMax(t *testing.T) {
	p := newBitProblem(t, 10)
	cfg := DefaultGeneticConfig()
	cfg.PopSize = 50
	cfg.MaxAttempts = 50
	cfg.MaxIters = 500
	cfg.Seed = 42
	res, err := Genetic(p, cfg)
	if err != nil {
		t.Fatalf("Genetic: %v", err)
	}
	if res.BestFitness < 9 {
		t.Errorf("Expected best fitness >= 9, got %v", res.BestFitness)
	}
	if len(res.BestState) != 10 {
		t.Fatalf("Expected state of length 10, got %d", len(res.BestState))
	}
}

func TestGeneticBestNeverRegresses(t *testing.T) {
	p := newBitProblem(t, 12)
	cfg := DefaultGeneticConfig()
	cfg.PopSize = 30
	cfg.MaxAttempts = 20
	cfg.MaxIters = 100
	cfg.Seed = 8
	cfg.Curve = true
	res, err := Genetic(p, cfg)
	if err != nil {
		t.Fatalf("Genetic: %v", err)
	}
	for i := 1; i < len(res.Curve); i++ {
		if res.Curve[i].BestFitness < res.Curve[i-1].BestFitness {
			t.Fatalf("Best fitness regressed at generation %d: %v -> %v",
				res.Curve[i].Iteration, res.Curve[i-1].BestFitness, res.Curve[i].BestFitness)
		}
	}
}

func TestGeneticDeterministic(t *testing.T) {
	cfg := DefaultGeneticConfig()
	cfg.PopSize = 25
	cfg.MaxAttempts = 15
	cfg.MaxIters = 80
	cfg.Seed = 21

	run := func() *Result {
		p := newBitProblem(t, 10)
		res, err := Genetic(p, cfg)
		if err != nil {
			t.Fatalf("Genetic: %v", err)
		}
		return res
	}
	a, b := run(), run()
	if a.BestFitness != b.BestFitness || a.Iterations != b.Iterations || a.FnEvals != b.FnEvals {
		t.Fatalf("Non-deterministic: (%v, %d, %d) vs (%v, %d, %d)",
			a.BestFitness, a.Iterations, a.FnEvals, b.BestFitness, b.Iterations, b.FnEvals)
	}
	for i := range a.BestState {
		if a.BestState[i] != b.BestState[i] {
			t.Fatalf("Best states diverge: %v vs %v", a.BestState, b.BestState)
		}
	}
}

func TestGeneticValidation(t *testing.T) {
	p := newBitProblem(t, 6)

	cfg := DefaultGeneticConfig()
	cfg.PopSize = 0
	if _, err := Genetic(p, cfg); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for population 0, got %v", err)
	}

	cfg = DefaultGeneticConfig()
	cfg.MutationProb = 1.5
	if _, err := Genetic(p, cfg); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for mutation 1.5, got %v", err)
	}

	cfg = DefaultGeneticConfig()
	cfg.MutationProb = -0.1
	if _, err := Genetic(p, cfg); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for mutation -0.1, got %v", err)
	}

	cfg = DefaultGeneticConfig()
	cfg.InitState = []float64{0, 0, 0, 0, 0, 0}
	if _, err := Genetic(p, cfg); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for init state, got %v", err)
	}
}

func TestMatingProbs(t *testing.T) {
	// Spread fitness: the worst member gets weight zero, the rest are
	// proportional to their shifted fitness.
	pop := &Population{
		States:  [][]float64{{0}, {1}, {2}},
		Fitness: []float64{1, 2, 4},
	}
	cum := matingProbs(pop)
	// Shifted weights 0, 1, 3 over total 4.
	wantCum := []float64{0, 0.25, 1}
	for i, c := range cum {
		if diff := c - wantCum[i]; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("Cumulative[%d]: expected %v, got %v", i, wantCum[i], c)
		}
	}

	// No fitness spread selects uniformly.
	flat := &Population{
		States:  [][]float64{{0}, {1}, {2}, {3}},
		Fitness: []float64{5, 5, 5, 5},
	}
	cum = matingProbs(flat)
	for i, c := range cum {
		want := float64(i+1) / 4
		if diff := c - want; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("Uniform cumulative[%d]: expected %v, got %v", i, want, c)
		}
	}
}

func TestRouletteIndex(t *testing.T) {
	cum := []float64{0.2, 0.5, 1.0}
	tests := []struct {
		r    float64
		want int
	}{
		{0.0, 0},
		{0.19, 0},
		{0.2, 1},
		{0.49, 1},
		{0.5, 2},
		{0.999, 2},
	}
	for _, tt := range tests {
		if got := rouletteIndex(cum, tt.r); got != tt.want {
			t.Errorf("rouletteIndex(%v): expected %d, got %d", tt.r, tt.want, got)
		}
	}
	// A member with zero selection weight is never drawn.
	zeroFirst := []float64{0, 0.5, 1.0}
	if got := rouletteIndex(zeroFirst, 0.0); got != 1 {
		t.Errorf("Expected zero-weight member skipped, got index %d", got)
	}
}
