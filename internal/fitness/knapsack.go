package fitness

import (
	"fmt"
	"math"

	"github.com/cwbudde/randsearch/internal/opt"
)

// Knapsack scores item selections: position i holds how many copies of item
// i are packed. The fitness is the total packed value, or zero when the
// total weight exceeds the capacity ceil(MaxWeightPct * sum(weights)).
// Maximized.
type Knapsack struct {
	weights      []float64
	values       []float64
	maxWeightPct float64
	capacity     float64
}

// NewKnapsack builds the evaluator. Weights and values must be positive and
// of equal length; maxWeightPct must be in (0, 1].
func NewKnapsack(weights, values []float64, maxWeightPct float64) (*Knapsack, error) {
	if len(weights) == 0 || len(weights) != len(values) {
		return nil, fmt.Errorf("%w: %d weights and %d values", opt.ErrInvalidParameter, len(weights), len(values))
	}
	if maxWeightPct <= 0 || maxWeightPct > 1 {
		return nil, fmt.Errorf("%w: max weight fraction %v, want in (0, 1]", opt.ErrInvalidParameter, maxWeightPct)
	}
	total := 0.0
	for i := range weights {
		if weights[i] <= 0 {
			return nil, fmt.Errorf("%w: weight %d is %v, want > 0", opt.ErrInvalidParameter, i, weights[i])
		}
		if values[i] <= 0 {
			return nil, fmt.Errorf("%w: value %d is %v, want > 0", opt.ErrInvalidParameter, i, values[i])
		}
		total += weights[i]
	}
	k := &Knapsack{
		weights:      append([]float64(nil), weights...),
		values:       append([]float64(nil), values...),
		maxWeightPct: maxWeightPct,
		capacity:     math.Ceil(maxWeightPct * total),
	}
	return k, nil
}

// Capacity returns the derived weight limit.
func (f *Knapsack) Capacity() float64 { return f.capacity }

func (f *Knapsack) Evaluate(state []float64) float64 {
	var weight, value float64
	for i, count := range state {
		weight += f.weights[i] * count
		value += f.values[i] * count
	}
	if weight > f.capacity {
		return 0
	}
	return value
}

func (f *Knapsack) ProblemType() opt.ProblemType { return opt.TypeDiscrete }
