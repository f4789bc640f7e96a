package opt

import (
	"errors"
	"testing"
)

func TestHillClimbReachesOneMaxOptimum(t *testing.T) {
	p := newBitProblem(t, 10)
	cfg := DefaultHillClimbConfig()
	cfg.MaxIters = 1000
	cfg.Seed = 42
	res, err := HillClimb(p, cfg)
	if err != nil {
		t.Fatalf("HillClimb: %v", err)
	}
	// Steepest ascent on one-max always climbs straight to all ones.
	if res.BestFitness != 10 {
		t.Errorf("Expected best fitness 10, got %v", res.BestFitness)
	}
	for i, v := range res.BestState {
		if v != 1 {
			t.Errorf("Position %d: expected 1, got %v", i, v)
		}
	}
}

func TestHillClimbInitState(t *testing.T) {
	p := newBitProblem(t, 6)
	cfg := DefaultHillClimbConfig()
	cfg.MaxIters = 100
	cfg.Seed = 1
	cfg.InitState = []float64{1, 1, 1, 1, 1, 0}
	res, err := HillClimb(p, cfg)
	if err != nil {
		t.Fatalf("HillClimb: %v", err)
	}
	if res.BestFitness != 6 {
		t.Errorf("Expected best fitness 6, got %v", res.BestFitness)
	}
	// One flip away from the optimum: a single climb iteration finishes,
	// a second one confirms the local optimum.
	if res.Iterations > 2 {
		t.Errorf("Expected at most 2 iterations, got %d", res.Iterations)
	}

	cfg.InitState = []float64{1, 1, 1}
	if _, err := HillClimb(p, cfg); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for short init state, got %v", err)
	}
}

func TestRandomHillClimbReachesOneMaxOptimum(t *testing.T) {
	p := newBitProblem(t, 10)
	cfg := DefaultHillClimbConfig()
	cfg.MaxAttempts = 100
	cfg.MaxIters = 5000
	cfg.Seed = 42
	res, err := RandomHillClimb(p, cfg)
	if err != nil {
		t.Fatalf("RandomHillClimb: %v", err)
	}
	if res.BestFitness != 10 {
		t.Errorf("Expected best fitness 10, got %v", res.BestFitness)
	}
	if res.Iterations > 5000 {
		t.Errorf("Iteration bound exceeded: %d", res.Iterations)
	}
	if res.FnEvals <= 0 {
		t.Errorf("Expected positive evaluation count, got %d", res.FnEvals)
	}
}

func TestRandomHillClimbDeterministic(t *testing.T) {
	cfg := DefaultHillClimbConfig()
	cfg.MaxAttempts = 20
	cfg.MaxIters = 500
	cfg.Seed = 7
	cfg.Curve = true

	run := func() *Result {
		p := newBitProblem(t, 12)
		res, err := RandomHillClimb(p, cfg)
		if err != nil {
			t.Fatalf("RandomHillClimb: %v", err)
		}
		return res
	}
	a, b := run(), run()
	if a.BestFitness != b.BestFitness || a.Iterations != b.Iterations {
		t.Fatalf("Non-deterministic: (%v, %d) vs (%v, %d)",
			a.BestFitness, a.Iterations, b.BestFitness, b.Iterations)
	}
	for i := range a.BestState {
		if a.BestState[i] != b.BestState[i] {
			t.Fatalf("Best states diverge at %d: %v vs %v", i, a.BestState, b.BestState)
		}
	}
	if len(a.Curve) != len(b.Curve) {
		t.Fatalf("Curve lengths diverge: %d vs %d", len(a.Curve), len(b.Curve))
	}
}

func TestRandomHillClimbCurve(t *testing.T) {
	p := newBitProblem(t, 10)
	cfg := DefaultHillClimbConfig()
	cfg.MaxAttempts = 30
	cfg.MaxIters = 300
	cfg.Seed = 5
	cfg.Curve = true
	res, err := RandomHillClimb(p, cfg)
	if err != nil {
		t.Fatalf("RandomHillClimb: %v", err)
	}
	if len(res.Curve) != res.Iterations {
		t.Fatalf("Expected one curve point per iteration, got %d for %d iterations",
			len(res.Curve), res.Iterations)
	}
	for i := 1; i < len(res.Curve); i++ {
		if res.Curve[i].Iteration != res.Curve[i-1].Iteration+1 {
			t.Fatalf("Curve iterations not consecutive at %d", i)
		}
		// Maximizing: the running best never regresses.
		if res.Curve[i].BestFitness < res.Curve[i-1].BestFitness {
			t.Fatalf("Best fitness regressed at iteration %d: %v -> %v",
				res.Curve[i].Iteration, res.Curve[i-1].BestFitness, res.Curve[i].BestFitness)
		}
	}
	if res.Curve[len(res.Curve)-1].BestFitness != res.BestFitness {
		t.Errorf("Final curve point %v does not match best fitness %v",
			res.Curve[len(res.Curve)-1].BestFitness, res.BestFitness)
	}
}

func TestHillClimbRestartsShareIterationBudget(t *testing.T) {
	p := newBitProblem(t, 8)
	cfg := DefaultHillClimbConfig()
	cfg.Restarts = 5
	cfg.MaxIters = 50
	cfg.Seed = 11
	res, err := HillClimb(p, cfg)
	if err != nil {
		t.Fatalf("HillClimb: %v", err)
	}
	if res.Iterations > 50 {
		t.Errorf("Restarts exceeded the shared budget: %d iterations", res.Iterations)
	}
	if res.BestFitness != 8 {
		t.Errorf("Expected best fitness 8, got %v", res.BestFitness)
	}
}

func TestHillClimbValidation(t *testing.T) {
	p := newBitProblem(t, 4)
	cfg := DefaultHillClimbConfig()
	cfg.Restarts = -1
	if _, err := HillClimb(p, cfg); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
	cfg = DefaultHillClimbConfig()
	cfg.MaxAttempts = 0
	if _, err := RandomHillClimb(p, cfg); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
}

func TestRandomHillClimbMinimizing(t *testing.T) {
	p, err := NewContinuous(4, sphereObj{}, false, -2, 2, 0.25)
	if err != nil {
		t.Fatalf("NewContinuous: %v", err)
	}
	cfg := DefaultHillClimbConfig()
	cfg.MaxAttempts = 200
	cfg.MaxIters = 10000
	cfg.Seed = 3
	res, err := RandomHillClimb(p, cfg)
	if err != nil {
		t.Fatalf("RandomHillClimb: %v", err)
	}
	// Raw sense: smaller is better for sphere.
	if res.BestFitness > 0.5 {
		t.Errorf("Expected near-zero cost, got %v", res.BestFitness)
	}
}
