package opt

import (
	"math"
	"testing"
)

func newSphereProblem(t *testing.T, dim int) *ContinuousProblem {
	t.Helper()
	p, err := NewContinuous(dim, sphereObj{}, false, -10, 10, 0.1)
	if err != nil {
		t.Fatalf("NewContinuous: %v", err)
	}
	return p
}

func TestMayflyOnSphere(t *testing.T) {
	p := newSphereProblem(t, 3)
	res, err := RunMayfly(p, MayflyConfig{MaxIters: 100, PopSize: 20, Seed: 42})
	if err != nil {
		t.Fatalf("RunMayfly: %v", err)
	}

	if len(res.BestState) != 3 {
		t.Fatalf("Expected %d parameters, got %d", 3, len(res.BestState))
	}

	// Should converge close to zero.
	if res.BestFitness > 0.1 {
		t.Errorf("Expected cost near 0, got %f", res.BestFitness)
	}
	for i, v := range res.BestState {
		if math.Abs(v) > 1.0 {
			t.Errorf("Parameter %d = %f, expected near 0", i, v)
		}
	}
	if res.FnEvals <= 0 {
		t.Errorf("Expected positive evaluation count, got %d", res.FnEvals)
	}
}

func TestMayflyDeterministic(t *testing.T) {
	// Run twice with same seed (popSize must be >=20 for mayfly v0.1.0).
	run := func() *Result {
		p := newSphereProblem(t, 2)
		res, err := RunMayfly(p, MayflyConfig{MaxIters: 50, PopSize: 20, Seed: 123})
		if err != nil {
			t.Fatalf("RunMayfly: %v", err)
		}
		return res
	}
	a, b := run(), run()
	if a.BestFitness != b.BestFitness {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", a.BestFitness, b.BestFitness)
	}
}

func TestMayflyValidation(t *testing.T) {
	p := newSphereProblem(t, 2)
	if _, err := RunMayfly(p, MayflyConfig{MaxIters: 0, PopSize: 20}); err == nil {
		t.Error("Expected error for zero iterations")
	}
	if _, err := RunMayfly(p, MayflyConfig{MaxIters: 10, PopSize: 0}); err == nil {
		t.Error("Expected error for zero population")
	}
}
