package opt

import (
	"fmt"
	"math/rand"
)

// TSPProblem is a tour: a permutation of 0..length-1 where position i holds
// the i-th node visited. Tours are minimized.
type TSPProblem struct {
	problemBase
}

// NewTSP builds a permutation problem over tours of the given length. The
// initial current state is the identity tour 0..length-1, evaluated once.
func NewTSP(length int, eval Evaluator) (*TSPProblem, error) {
	if length < 2 {
		return nil, fmt.Errorf("%w: length %d, want >= 2", ErrInvalidParameter, length)
	}
	if err := validateEvaluator(eval, TypeTSP); err != nil {
		return nil, err
	}
	p := &TSPProblem{
		problemBase: problemBase{length: length, maximize: false, eval: eval},
	}
	init := make([]float64, length)
	for i := range init {
		init[i] = float64(i)
	}
	p.install(init)
	return p, nil
}

func (p *TSPProblem) Type() ProblemType {
	return TypeTSP
}

// MaxVal returns the alphabet size, which for tours equals the length.
func (p *TSPProblem) MaxVal() int {
	return p.length
}

func (p *TSPProblem) Reset(rng *rand.Rand) {
	p.install(p.RandomState(rng))
}

func (p *TSPProblem) SetState(state []float64) error {
	if err := p.checkLength(state); err != nil {
		return err
	}
	seen := make([]bool, p.length)
	for i, v := range state {
		if v != float64(int(v)) || v < 0 || int(v) >= p.length {
			return fmt.Errorf("%w: state[%d]=%v is not a node in 0..%d", ErrInvalidParameter, i, v, p.length-1)
		}
		if seen[int(v)] {
			return fmt.Errorf("%w: node %d visited twice", ErrInvalidParameter, int(v))
		}
		seen[int(v)] = true
	}
	p.install(state)
	return nil
}

// RandomState returns a uniform random tour.
func (p *TSPProblem) RandomState(rng *rand.Rand) []float64 {
	perm := rng.Perm(p.length)
	s := make([]float64, p.length)
	for i, v := range perm {
		s[i] = float64(v)
	}
	return s
}

// RandomNeighbor swaps two distinct random positions of the current tour.
func (p *TSPProblem) RandomNeighbor(rng *rand.Rand) []float64 {
	nb := cloneState(p.state)
	i := rng.Intn(p.length)
	j := rng.Intn(p.length - 1)
	if j >= i {
		j++
	}
	nb[i], nb[j] = nb[j], nb[i]
	return nb
}

// Neighbors enumerates every pairwise swap, ordered by (i, j) with i < j.
func (p *TSPProblem) Neighbors() [][]float64 {
	nbs := make([][]float64, 0, p.length*(p.length-1)/2)
	for i := 0; i < p.length; i++ {
		for j := i + 1; j < p.length; j++ {
			nb := cloneState(p.state)
			nb[i], nb[j] = nb[j], nb[i]
			nbs = append(nbs, nb)
		}
	}
	return nbs
}

func (p *TSPProblem) RandomPopulation(n int, rng *rand.Rand) *Population {
	return randomPopulation(p, n, rng)
}

// Reproduce performs order crossover followed by swap mutation: the child
// keeps a prefix of parentA and visits parentA's remaining nodes in
// parentB's order, then each position swaps with a random position with
// probability mutationProb. The child is always a valid tour.
func (p *TSPProblem) Reproduce(parentA, parentB []float64, mutationProb float64, rng *rand.Rand) []float64 {
	cut := 1 + rng.Intn(p.length-1)
	child := make([]float64, 0, p.length)
	used := make([]bool, p.length)
	for _, v := range parentA[:cut] {
		child = append(child, v)
		used[int(v)] = true
	}
	for _, v := range parentB {
		if !used[int(v)] {
			child = append(child, v)
			used[int(v)] = true
		}
	}
	for i := range child {
		if rng.Float64() < mutationProb {
			j := rng.Intn(p.length)
			child[i], child[j] = child[j], child[i]
		}
	}
	return child
}
