package opt

import "fmt"

// GradientDescent follows the update direction supplied by the problem's
// evaluator, which must implement IncrementalEvaluator. Every iteration
// takes the step; the attempt counter advances when the step did not
// improve the current fitness. Bounds are enforced by the problem's
// UpdateState clipping.
func GradientDescent(p *ContinuousProblem, cfg SearchConfig) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	inc, ok := p.eval.(IncrementalEvaluator)
	if !ok {
		return nil, fmt.Errorf("%w: evaluator does not provide updates", ErrInvalidParameter)
	}
	rng := cfg.rng()
	evals0 := p.FnEvals()

	if err := initState(p, &cfg, rng); err != nil {
		return nil, err
	}
	bestState, bestAdj := p.State(), p.Fitness()

	var curve []CurvePoint
	iters := 0
	for attempts := 0; attempts < cfg.MaxAttempts && iters < cfg.MaxIters; {
		iters++

		updates := inc.CalculateUpdates(p.State())
		next, err := p.UpdateState(updates)
		if err != nil {
			return nil, err
		}
		adj := p.EvalFitness(next)
		if adj > p.Fitness() {
			attempts = 0
		} else {
			attempts++
		}
		p.Adopt(next, adj)

		if adj > bestAdj {
			bestState, bestAdj = cloneState(next), adj
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
