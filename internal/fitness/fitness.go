package fitness

import "github.com/cwbudde/randsearch/internal/opt"

// OneMax counts the sum of state values. On bit strings that is the number
// of ones. Works on any encoding.
type OneMax struct{}

func (OneMax) Evaluate(state []float64) float64 {
	var sum float64
	for _, v := range state {
		sum += v
	}
	return sum
}

func (OneMax) ProblemType() opt.ProblemType { return opt.TypeEither }

// FlipFlop counts consecutive positions holding different values, rewarding
// alternating strings.
type FlipFlop struct{}

func (FlipFlop) Evaluate(state []float64) float64 {
	var fit float64
	for i := 1; i < len(state); i++ {
		if state[i] != state[i-1] {
			fit++
		}
	}
	return fit
}

func (FlipFlop) ProblemType() opt.ProblemType { return opt.TypeDiscrete }

// Custom adapts a plain function as an evaluator.
type Custom struct {
	fn func([]float64) float64
	pt opt.ProblemType
}

// NewCustom wraps fn as an evaluator usable with problems of the given
// encoding. fn must be deterministic.
func NewCustom(fn func([]float64) float64, pt opt.ProblemType) *Custom {
	return &Custom{fn: fn, pt: pt}
}

func (c *Custom) Evaluate(state []float64) float64 { return c.fn(state) }

func (c *Custom) ProblemType() opt.ProblemType { return c.pt }
