package fitness

import (
	"math"

	"github.com/cwbudde/randsearch/internal/opt"
)

// Queens counts attacking queen pairs on an n-by-n board where position i
// holds the row of the queen in column i. Zero means a valid placement;
// minimized.
type Queens struct{}

func (Queens) Evaluate(state []float64) float64 {
	var attacks float64
	for i := 0; i < len(state); i++ {
		for j := i + 1; j < len(state); j++ {
			if state[i] == state[j] {
				attacks++
				continue
			}
			if math.Abs(state[i]-state[j]) == float64(j-i) {
				attacks++
			}
		}
	}
	return attacks
}

func (Queens) ProblemType() opt.ProblemType { return opt.TypeDiscrete }
