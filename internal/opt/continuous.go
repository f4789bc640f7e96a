package opt

import (
	"fmt"
	"math/rand"
)

// ContinuousProblem is a fixed-length vector of real values, each bounded to
// [min, max]. Neighbor moves perturb one position by the configured step.
type ContinuousProblem struct {
	problemBase
	min  float64
	max  float64
	step float64
}

// NewContinuous builds a continuous problem. The initial current state is
// all positions at min, evaluated once.
func NewContinuous(length int, eval Evaluator, maximize bool, min, max, step float64) (*ContinuousProblem, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: length %d, want >= 1", ErrInvalidParameter, length)
	}
	if min >= max {
		return nil, fmt.Errorf("%w: min %v not below max %v", ErrInvalidParameter, min, max)
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: step %v, want > 0", ErrInvalidParameter, step)
	}
	if err := validateEvaluator(eval, TypeContinuous, TypeEither); err != nil {
		return nil, err
	}
	p := &ContinuousProblem{
		problemBase: problemBase{length: length, maximize: maximize, eval: eval},
		min:         min,
		max:         max,
		step:        step,
	}
	init := make([]float64, length)
	for i := range init {
		init[i] = min
	}
	p.install(init)
	return p, nil
}

func (p *ContinuousProblem) Type() ProblemType {
	return TypeContinuous
}

// Min returns the lower bound shared by all positions.
func (p *ContinuousProblem) Min() float64 { return p.min }

// Max returns the upper bound shared by all positions.
func (p *ContinuousProblem) Max() float64 { return p.max }

// Step returns the neighbor step size.
func (p *ContinuousProblem) Step() float64 { return p.step }

func (p *ContinuousProblem) Reset(rng *rand.Rand) {
	p.install(p.RandomState(rng))
}

func (p *ContinuousProblem) SetState(state []float64) error {
	if err := p.checkLength(state); err != nil {
		return err
	}
	for i, v := range state {
		if v < p.min || v > p.max {
			return fmt.Errorf("%w: state[%d]=%v outside [%v, %v]", ErrInvalidParameter, i, v, p.min, p.max)
		}
	}
	p.install(state)
	return nil
}

func (p *ContinuousProblem) RandomState(rng *rand.Rand) []float64 {
	s := make([]float64, p.length)
	for i := range s {
		s[i] = p.min + rng.Float64()*(p.max-p.min)
	}
	return s
}

// RandomNeighbor moves one random position by one step in a random
// direction, clipped to the bounds.
func (p *ContinuousProblem) RandomNeighbor(rng *rand.Rand) []float64 {
	nb := cloneState(p.state)
	pos := rng.Intn(p.length)
	if rng.Intn(2) == 0 {
		nb[pos] = p.clip(nb[pos] + p.step)
	} else {
		nb[pos] = p.clip(nb[pos] - p.step)
	}
	return nb
}

// Neighbors enumerates one step up and one step down per position, clipped.
// Moves that clipping reduces to no change are skipped.
func (p *ContinuousProblem) Neighbors() [][]float64 {
	nbs := make([][]float64, 0, 2*p.length)
	for pos := 0; pos < p.length; pos++ {
		for _, dir := range []float64{1, -1} {
			v := p.clip(p.state[pos] + dir*p.step)
			if v == p.state[pos] {
				continue
			}
			nb := cloneState(p.state)
			nb[pos] = v
			nbs = append(nbs, nb)
		}
	}
	return nbs
}

func (p *ContinuousProblem) RandomPopulation(n int, rng *rand.Rand) *Population {
	return randomPopulation(p, n, rng)
}

// Reproduce performs uniform crossover followed by per-position mutation.
// The mutated value is drawn uniformly from [min, max].
func (p *ContinuousProblem) Reproduce(parentA, parentB []float64, mutationProb float64, rng *rand.Rand) []float64 {
	child := uniformCrossover(parentA, parentB, rng)
	for i := range child {
		if rng.Float64() < mutationProb {
			child[i] = p.min + rng.Float64()*(p.max-p.min)
		}
	}
	return child
}

// uniformCrossover takes each position from a uniformly chosen parent.
func uniformCrossover(parentA, parentB []float64, rng *rand.Rand) []float64 {
	child := make([]float64, len(parentA))
	for i := range child {
		if rng.Intn(2) == 0 {
			child[i] = parentA[i]
		} else {
			child[i] = parentB[i]
		}
	}
	return child
}

// UpdateState returns the current state shifted by updates, position-wise,
// clipped to the bounds. The current state itself is not changed.
func (p *ContinuousProblem) UpdateState(updates []float64) ([]float64, error) {
	if len(updates) != p.length {
		return nil, fmt.Errorf("%w: updates length %d, want %d", ErrInvalidParameter, len(updates), p.length)
	}
	out := make([]float64, p.length)
	for i := range out {
		out[i] = p.clip(p.state[i] + updates[i])
	}
	return out, nil
}

func (p *ContinuousProblem) clip(v float64) float64 {
	if v < p.min {
		return p.min
	}
	if v > p.max {
		return p.max
	}
	return v
}
