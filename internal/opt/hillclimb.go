package opt

import "fmt"

// HillClimbConfig configures HillClimb and RandomHillClimb. Restarts adds
// fresh random starts after the first; the iteration budget is shared across
// all of them. HillClimb stops each climb at a local optimum and ignores
// MaxAttempts.
type HillClimbConfig struct {
	SearchConfig
	Restarts int `json:"restarts"`
}

// DefaultHillClimbConfig returns the shared defaults with no restarts.
func DefaultHillClimbConfig() HillClimbConfig {
	return HillClimbConfig{SearchConfig: DefaultSearchConfig()}
}

func (c *HillClimbConfig) validate() error {
	if err := c.SearchConfig.validate(); err != nil {
		return err
	}
	if c.Restarts < 0 {
		return fmt.Errorf("%w: restarts %d, want >= 0", ErrInvalidParameter, c.Restarts)
	}
	return nil
}

// HillClimb runs steepest-ascent hill climbing: each iteration scans the
// full neighborhood and moves to the best neighbor only if it strictly
// improves the current fitness, stopping the climb at a local optimum. The
// first start honors InitState; every restart begins from a random state.
func HillClimb(p Problem, cfg HillClimbConfig) (*Result, error) {
	if cfg.MaxIters < 1 {
		return nil, fmt.Errorf("%w: max iters %d, want >= 1", ErrInvalidParameter, cfg.MaxIters)
	}
	if cfg.Restarts < 0 {
		return nil, fmt.Errorf("%w: restarts %d, want >= 0", ErrInvalidParameter, cfg.Restarts)
	}
	rng := cfg.rng()
	evals0 := p.FnEvals()

	var (
		bestState []float64
		bestAdj   float64
		curve     []CurvePoint
		iters     int
	)
	for r := 0; r <= cfg.Restarts && iters < cfg.MaxIters; r++ {
		if r == 0 {
			if err := initState(p, &cfg.SearchConfig, rng); err != nil {
				return nil, err
			}
		} else {
			p.Reset(rng)
		}
		if bestState == nil || p.Fitness() > bestAdj {
			bestState, bestAdj = p.State(), p.Fitness()
		}
		for iters < cfg.MaxIters {
			iters++
			// Pick the best neighbor; ties go to the earliest in
			// enumeration order.
			var nbBest []float64
			nbAdj := 0.0
			for _, nb := range p.Neighbors() {
				adj := p.EvalFitness(nb)
				if nbBest == nil || adj > nbAdj {
					nbBest, nbAdj = nb, adj
				}
			}
			improved := nbBest != nil && nbAdj > p.Fitness()
			if improved {
				p.Adopt(nbBest, nbAdj)
				if nbAdj > bestAdj {
					bestState, bestAdj = nbBest, nbAdj
				}
			}
			if cfg.Curve {
				curve = append(curve, CurvePoint{Iteration: iters, BestFitness: rawFitness(p, bestAdj)})
			}
			if !improved {
				break
			}
		}
	}

	p.Adopt(bestState, bestAdj)
	return &Result{
		BestState:   cloneState(bestState),
		BestFitness: rawFitness(p, bestAdj),
		Curve:       curve,
		Iterations:  iters,
		FnEvals:     p.FnEvals() - evals0,
	}, nil
}

// RandomHillClimb runs random-restart stochastic hill climbing: each
// iteration draws one random neighbor and accepts it when its fitness is not
// worse than the current state, so ties keep the search moving across
// plateaus. Acceptance resets the attempt counter.
func RandomHillClimb(p Problem, cfg HillClimbConfig) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := cfg.rng()
	evals0 := p.FnEvals()

	var (
		bestState []float64
		bestAdj   float64
		curve     []CurvePoint
		iters     int
	)
	for r := 0; r <= cfg.Restarts && iters < cfg.MaxIters; r++ {
		if r == 0 {
			if err := initState(p, &cfg.SearchConfig, rng); err != nil {
				return nil, err
			}
		} else {
			p.Reset(rng)
		}
		if bestState == nil || p.Fitness() > bestAdj {
			bestState, bestAdj = p.State(), p.Fitness()
		}
		for attempts := 0; attempts < cfg.MaxAttempts && iters < cfg.MaxIters; {
			iters++
			nb := p.RandomNeighbor(rng)
			adj := p.EvalFitness(nb)
			if adj >= p.Fitness() {
				p.Adopt(nb, adj)
				attempts = 0
			} else {
				attempts++
			}
			if p.Fitness() > bestAdj {
				bestState, bestAdj = p.State(), p.Fitness()
			}
			if cfg.Curve {
				curve = append(curve, CurvePoint{Iteration: iters, BestFitness: rawFitness(p, bestAdj)})
			}
		}
	}

	p.Adopt(bestState, bestAdj)
	return &Result{
		BestState:   cloneState(bestState),
		BestFitness: rawFitness(p, bestAdj),
		Curve:       curve,
		Iterations:  iters,
		FnEvals:     p.FnEvals() - evals0,
	}, nil
}
