package opt

import (
	"fmt"
	"math/rand"
)

// DiscreteProblem is a fixed-length vector of integer values drawn from the
// alphabet 0..maxVal-1, stored as float64 for a uniform state type across
// encodings.
type DiscreteProblem struct {
	problemBase
	maxVal int
}

// NewDiscrete builds a discrete problem over states of the given length with
// alphabet size maxVal. The initial current state is all zeros, evaluated
// once.
func NewDiscrete(length int, eval Evaluator, maximize bool, maxVal int) (*DiscreteProblem, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: length %d, want >= 1", ErrInvalidParameter, length)
	}
	if maxVal < 2 {
		return nil, fmt.Errorf("%w: max value %d, want >= 2", ErrInvalidParameter, maxVal)
	}
	if err := validateEvaluator(eval, TypeDiscrete, TypeEither); err != nil {
		return nil, err
	}
	p := &DiscreteProblem{
		problemBase: problemBase{length: length, maximize: maximize, eval: eval},
		maxVal:      maxVal,
	}
	p.install(make([]float64, length))
	return p, nil
}

func (p *DiscreteProblem) Type() ProblemType {
	return TypeDiscrete
}

// MaxVal returns the alphabet size.
func (p *DiscreteProblem) MaxVal() int {
	return p.maxVal
}

func (p *DiscreteProblem) Reset(rng *rand.Rand) {
	p.install(p.RandomState(rng))
}

func (p *DiscreteProblem) SetState(state []float64) error {
	if err := p.checkLength(state); err != nil {
		return err
	}
	for i, v := range state {
		if v != float64(int(v)) || v < 0 || int(v) >= p.maxVal {
			return fmt.Errorf("%w: state[%d]=%v outside alphabet 0..%d", ErrInvalidParameter, i, v, p.maxVal-1)
		}
	}
	p.install(state)
	return nil
}

func (p *DiscreteProblem) RandomState(rng *rand.Rand) []float64 {
	s := make([]float64, p.length)
	for i := range s {
		s[i] = float64(rng.Intn(p.maxVal))
	}
	return s
}

// RandomNeighbor changes one random position to a different alphabet value.
func (p *DiscreteProblem) RandomNeighbor(rng *rand.Rand) []float64 {
	nb := cloneState(p.state)
	pos := rng.Intn(p.length)
	// Draw from the maxVal-1 values other than the current one.
	v := rng.Intn(p.maxVal - 1)
	if float64(v) >= nb[pos] {
		v++
	}
	nb[pos] = float64(v)
	return nb
}

// Neighbors enumerates every single-position substitution, position-major,
// alphabet values ascending.
func (p *DiscreteProblem) Neighbors() [][]float64 {
	nbs := make([][]float64, 0, p.length*(p.maxVal-1))
	for pos := 0; pos < p.length; pos++ {
		for v := 0; v < p.maxVal; v++ {
			if float64(v) == p.state[pos] {
				continue
			}
			nb := cloneState(p.state)
			nb[pos] = float64(v)
			nbs = append(nbs, nb)
		}
	}
	return nbs
}

func (p *DiscreteProblem) RandomPopulation(n int, rng *rand.Rand) *Population {
	return randomPopulation(p, n, rng)
}

// Reproduce performs one-point crossover followed by per-position mutation.
// The mutated value is drawn uniformly from the full alphabet.
func (p *DiscreteProblem) Reproduce(parentA, parentB []float64, mutationProb float64, rng *rand.Rand) []float64 {
	child := onePointCrossover(parentA, parentB, rng)
	for i := range child {
		if rng.Float64() < mutationProb {
			child[i] = float64(rng.Intn(p.maxVal))
		}
	}
	return child
}

// onePointCrossover splits at a point in 1..len-1 so both parents contribute.
// A length-one child copies parentA.
func onePointCrossover(parentA, parentB []float64, rng *rand.Rand) []float64 {
	child := cloneState(parentA)
	if len(child) < 2 {
		return child
	}
	cut := 1 + rng.Intn(len(child)-1)
	copy(child[cut:], parentB[cut:])
	return child
}
