package opt

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrInvalidParameter is wrapped by all constructor and configuration errors.
var ErrInvalidParameter = errors.New("invalid parameter")

// ProblemType identifies the state encoding an evaluator accepts.
type ProblemType string

const (
	TypeDiscrete   ProblemType = "discrete"
	TypeContinuous ProblemType = "continuous"
	TypeTSP        ProblemType = "tsp"
	// TypeEither marks evaluators that score any encoding.
	TypeEither ProblemType = "either"
)

// Evaluator scores candidate states. Implementations must be deterministic:
// the same state always yields the same fitness, and Evaluate must not
// mutate the state it is given.
type Evaluator interface {
	// Evaluate returns the raw fitness of state
	Evaluate(state []float64) float64
	// ProblemType reports which encodings the evaluator accepts
	ProblemType() ProblemType
}

// IncrementalEvaluator is implemented by evaluators that can also produce a
// per-position update direction for the current state. Gradient descent
// requires it.
type IncrementalEvaluator interface {
	Evaluator
	// CalculateUpdates returns one update step per state position
	CalculateUpdates(state []float64) []float64
}

// Problem is the surface every search strategy works against. A problem owns
// a current state, its cached fitness, and the perturbation operators for its
// encoding. All randomness flows through the *rand.Rand passed in by the
// caller; problems hold no random source of their own.
//
// Fitness values exposed by Fitness and EvalFitness are adjusted to a
// maximization sense: for minimization problems they are the negated raw
// fitness, so "larger is better" holds everywhere inside a search. Raw-sense
// values are restored in Result.
type Problem interface {
	// Length returns the fixed number of state positions
	Length() int
	// Maximize reports whether larger raw fitness is better
	Maximize() bool
	// Type reports the problem's state encoding
	Type() ProblemType

	// Reset draws a fresh random state, evaluates it, and makes it current
	Reset(rng *rand.Rand)
	// SetState validates state, installs a copy as current, and evaluates it
	SetState(state []float64) error
	// Adopt installs a copy of state as current together with its already
	// computed adjusted fitness, skipping a second evaluator call
	Adopt(state []float64, adjusted float64)
	// State returns a copy of the current state
	State() []float64
	// Fitness returns the cached adjusted fitness of the current state
	Fitness() float64
	// EvalFitness scores an arbitrary candidate, returning adjusted fitness
	EvalFitness(state []float64) float64
	// FnEvals reports how many evaluator calls the problem has made
	FnEvals() int

	// RandomState returns a uniform random state for this encoding
	RandomState(rng *rand.Rand) []float64
	// RandomNeighbor returns one random neighbor of the current state
	RandomNeighbor(rng *rand.Rand) []float64
	// Neighbors enumerates the full neighborhood of the current state in a
	// deterministic order
	Neighbors() [][]float64
	// RandomPopulation draws and evaluates n random states
	RandomPopulation(n int, rng *rand.Rand) *Population
	// Reproduce crosses two parents and mutates the child with per-position
	// probability mutationProb
	Reproduce(parentA, parentB []float64, mutationProb float64, rng *rand.Rand) []float64
}

// Population is an ordered collection of states and their fitness values.
// Fitness entries are adjusted (maximization sense), index-aligned with
// States.
type Population struct {
	States  [][]float64
	Fitness []float64
}

// Len returns the number of members.
func (p *Population) Len() int {
	return len(p.States)
}

// Best returns a copy of the fittest member and its adjusted fitness. Ties
// go to the lowest index.
func (p *Population) Best() ([]float64, float64) {
	bi := 0
	for i := 1; i < len(p.Fitness); i++ {
		if p.Fitness[i] > p.Fitness[bi] {
			bi = i
		}
	}
	return cloneState(p.States[bi]), p.Fitness[bi]
}

// problemBase carries the state that all encodings share: length, sense,
// evaluator, current state with cached adjusted fitness, and the evaluator
// call counter.
type problemBase struct {
	length   int
	maximize bool
	eval     Evaluator
	state    []float64
	fitness  float64
	fnEvals  int
}

func (b *problemBase) Length() int {
	return b.length
}

func (b *problemBase) Maximize() bool {
	return b.maximize
}

// adjust converts a raw fitness to the internal maximization sense.
func (b *problemBase) adjust(raw float64) float64 {
	if b.maximize {
		return raw
	}
	return -raw
}

func (b *problemBase) EvalFitness(state []float64) float64 {
	b.fnEvals++
	return b.adjust(b.eval.Evaluate(state))
}

func (b *problemBase) Fitness() float64 {
	return b.fitness
}

func (b *problemBase) FnEvals() int {
	return b.fnEvals
}

func (b *problemBase) State() []float64 {
	return cloneState(b.state)
}

func (b *problemBase) Adopt(state []float64, adjusted float64) {
	b.state = cloneState(state)
	b.fitness = adjusted
}

// install makes state current and evaluates it once.
func (b *problemBase) install(state []float64) {
	b.state = cloneState(state)
	b.fitness = b.EvalFitness(b.state)
}

// checkLength validates a caller-provided state length.
func (b *problemBase) checkLength(state []float64) error {
	if len(state) != b.length {
		return fmt.Errorf("%w: state length %d, want %d", ErrInvalidParameter, len(state), b.length)
	}
	return nil
}

// randomPopulation draws n states through p's own RandomState and evaluates
// each one. Shared by all encodings.
func randomPopulation(p Problem, n int, rng *rand.Rand) *Population {
	pop := &Population{
		States:  make([][]float64, n),
		Fitness: make([]float64, n),
	}
	for i := range pop.States {
		s := p.RandomState(rng)
		pop.States[i] = s
		pop.Fitness[i] = p.EvalFitness(s)
	}
	return pop
}

// evalPopulation wraps already-generated states into a population, scoring
// each one.
func evalPopulation(p Problem, states [][]float64) *Population {
	pop := &Population{
		States:  states,
		Fitness: make([]float64, len(states)),
	}
	for i, s := range states {
		pop.Fitness[i] = p.EvalFitness(s)
	}
	return pop
}

func cloneState(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

// validateEvaluator checks that eval exists and accepts one of the given
// encodings.
func validateEvaluator(eval Evaluator, accepted ...ProblemType) error {
	if eval == nil {
		return fmt.Errorf("%w: evaluator is nil", ErrInvalidParameter)
	}
	pt := eval.ProblemType()
	for _, a := range accepted {
		if pt == a {
			return nil
		}
	}
	return fmt.Errorf("%w: evaluator type %q not usable here", ErrInvalidParameter, pt)
}
