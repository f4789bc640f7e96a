package opt

import (
	"fmt"
	"math"
)

// AnnealConfig configures Anneal. A nil Schedule falls back to NewGeomDecay.
type AnnealConfig struct {
	SearchConfig
	Schedule Schedule `json:"-"`
}

// DefaultAnnealConfig returns the shared defaults with a geometric schedule.
func DefaultAnnealConfig() AnnealConfig {
	return AnnealConfig{SearchConfig: DefaultSearchConfig(), Schedule: NewGeomDecay()}
}

// Anneal runs simulated annealing. Each iteration draws one random neighbor;
// a strictly better neighbor is always accepted and resets the attempt
// counter, a worse or equal one is accepted with probability
// exp(delta/temperature) and still counts as an attempt. The search also
// stops if the schedule reaches absolute zero.
func Anneal(p Problem, cfg AnnealConfig) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	sched := cfg.Schedule
	if sched == nil {
		sched = NewGeomDecay()
	}
	if t0 := sched.Temp(0); t0 <= 0 {
		return nil, fmt.Errorf("%w: initial temperature %v, want > 0", ErrInvalidParameter, t0)
	}
	rng := cfg.rng()
	evals0 := p.FnEvals()

	if err := initState(p, &cfg.SearchConfig, rng); err != nil {
		return nil, err
	}
	bestState, bestAdj := p.State(), p.Fitness()

	var curve []CurvePoint
	iters := 0
	for attempts := 0; attempts < cfg.MaxAttempts && iters < cfg.MaxIters; {
		temp := sched.Temp(iters)
		if temp <= 0 {
			break
		}
		iters++

		nb := p.RandomNeighbor(rng)
		adj := p.EvalFitness(nb)
		delta := adj - p.Fitness()
		if delta > 0 {
			p.Adopt(nb, adj)
			attempts = 0
		} else {
			if rng.Float64() < acceptProb(delta, temp) {
				p.Adopt(nb, adj)
			}
			attempts++
		}
		if p.Fitness() > bestAdj {
			bestState, bestAdj = p.State(), p.Fitness()
		}
		if cfg.Curve {
			curve = append(curve, CurvePoint{Iteration: iters, BestFitness: rawFitness(p, bestAdj)})
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

// acceptProb is the Metropolis acceptance probability for a non-improving
// move with fitness change delta <= 0 at the given temperature.
func acceptProb(delta, temp float64) float64 {
	return math.Exp(delta / temp)
}
