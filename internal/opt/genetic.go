package opt

import "fmt"

// GeneticConfig configures Genetic.
type GeneticConfig struct {
	SearchConfig
	PopSize      int     `json:"popSize"`
	MutationProb float64 `json:"mutationProb"`
}

// DefaultGeneticConfig returns the conventional defaults: population 200,
// mutation probability 0.1.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{SearchConfig: DefaultSearchConfig(), PopSize: 200, MutationProb: 0.1}
}

func (c *GeneticConfig) validate() error {
	if err := c.SearchConfig.validate(); err != nil {
		return err
	}
	if c.PopSize < 1 {
		return fmt.Errorf("%w: population size %d, want >= 1", ErrInvalidParameter, c.PopSize)
	}
	if c.MutationProb < 0 || c.MutationProb > 1 {
		return fmt.Errorf("%w: mutation probability %v, want in [0, 1]", ErrInvalidParameter, c.MutationProb)
	}
	return nil
}

// Genetic runs a generational genetic algorithm: fitness-proportionate
// parent selection, crossover and mutation through the problem's Reproduce,
// full population replacement each generation. The attempt counter advances
// on generations whose best member does not beat the best seen so far.
//
// Population searches draw their own starting population; InitState is not
// supported.
func Genetic(p Problem, cfg GeneticConfig) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.InitState != nil {
		return nil, fmt.Errorf("%w: init state not supported by population searches", ErrInvalidParameter)
	}
	rng := cfg.rng()
	evals0 := p.FnEvals()

	pop := p.RandomPopulation(cfg.PopSize, rng)
	bestState, bestAdj := pop.Best()

	var curve []CurvePoint
	iters := 0
	for attempts := 0; attempts < cfg.MaxAttempts && iters < cfg.MaxIters; {
		iters++

		cum := matingProbs(pop)
		next := make([][]float64, cfg.PopSize)
		for i := range next {
			a := pop.States[rouletteIndex(cum, rng.Float64())]
			b := pop.States[rouletteIndex(cum, rng.Float64())]
			next[i] = p.Reproduce(a, b, cfg.MutationProb, rng)
		}
		pop = evalPopulation(p, next)

		genState, genAdj := pop.Best()
		if genAdj > bestAdj {
			bestState, bestAdj = genState, genAdj
			attempts = 0
		} else {
			attempts++
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

// matingProbs converts a population's adjusted fitness into cumulative
// selection probabilities. Fitness values are shifted by the minimum so all
// weights are non-negative; a population with no fitness spread selects
// uniformly.
func matingProbs(pop *Population) []float64 {
	n := pop.Len()
	min := pop.Fitness[0]
	for _, f := range pop.Fitness[1:] {
		if f < min {
			min = f
		}
	}
	total := 0.0
	weights := make([]float64, n)
	for i, f := range pop.Fitness {
		weights[i] = f - min
		total += weights[i]
	}
	cum := make([]float64, n)
	acc := 0.0
	for i := range weights {
		if total == 0 {
			acc += 1.0 / float64(n)
		} else {
			acc += weights[i] / total
		}
		cum[i] = acc
	}
	cum[n-1] = 1.0
	return cum
}

// rouletteIndex maps a uniform draw in [0, 1) onto the cumulative
// distribution.
func rouletteIndex(cum []float64, r float64) int {
	for i, c := range cum {
		if r < c {
			return i
		}
	}
	return len(cum) - 1
}
