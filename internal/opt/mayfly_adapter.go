package opt

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cwbudde/mayfly"
)

// MayflyConfig configures RunMayfly.
type MayflyConfig struct {
	MaxIters int   `json:"maxIters"`
	PopSize  int   `json:"popSize"`
	Seed     int64 `json:"seed"`
}

// DefaultMayflyConfig mirrors the conventional swarm settings.
func DefaultMayflyConfig() MayflyConfig {
	return MayflyConfig{MaxIters: 100, PopSize: 30}
}

func (c *MayflyConfig) validate() error {
	if c.MaxIters < 1 {
		return fmt.Errorf("%w: max iters %d, want >= 1", ErrInvalidParameter, c.MaxIters)
	}
	if c.PopSize < 1 {
		return fmt.Errorf("%w: population size %d, want >= 1", ErrInvalidParameter, c.PopSize)
	}
	return nil
}

// RunMayfly drives the external mayfly swarm over a continuous problem.
// The library minimizes, so the problem's adjusted fitness is negated on
// the way in and back out. No fitness curve is produced; the library does
// not expose per-iteration progress.
func RunMayfly(p *ContinuousProblem, cfg MayflyConfig) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	evals0 := p.FnEvals()

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(x []float64) float64 {
		return -p.EvalFitness(x)
	}
	config.ProblemSize = p.Length()
	config.MaxIterations = cfg.MaxIters
	config.NPop = cfg.PopSize

	// The library uses scalar bounds; every position shares the same range.
	config.LowerBound = p.Min()
	config.UpperBound = p.Max()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	config.Rand = rand.New(rand.NewSource(seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, fmt.Errorf("mayfly optimize: %w", err)
	}

	adj := -result.GlobalBest.Cost
	p.Adopt(result.GlobalBest.Position, adj)
	return &Result{
		BestState:   cloneState(result.GlobalBest.Position),
		BestFitness: rawFitness(p, adj),
		Iterations:  cfg.MaxIters,
		FnEvals:     p.FnEvals() - evals0,
	}, nil
}
