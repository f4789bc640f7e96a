package fitness

import (
	"fmt"

	"github.com/cwbudde/randsearch/internal/opt"
)

// Edge is an undirected link between two node indices.
type Edge struct {
	U int `json:"u"`
	V int `json:"v"`
}

// MaxKColor counts edges whose endpoints share a color, where position i
// holds the color of node i. Zero means a proper coloring; minimized.
type MaxKColor struct {
	edges []Edge
}

// NewMaxKColor builds the evaluator over the given edge list. Node indices
// must be non-negative and edges must not be self-loops.
func NewMaxKColor(edges []Edge) (*MaxKColor, error) {
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: no edges", opt.ErrInvalidParameter)
	}
	for i, e := range edges {
		if e.U < 0 || e.V < 0 {
			return nil, fmt.Errorf("%w: edge %d has negative node index", opt.ErrInvalidParameter, i)
		}
		if e.U == e.V {
			return nil, fmt.Errorf("%w: edge %d is a self-loop on node %d", opt.ErrInvalidParameter, i, e.U)
		}
	}
	cp := make([]Edge, len(edges))
	copy(cp, edges)
	return &MaxKColor{edges: cp}, nil
}

// Edges returns a copy of the edge list.
func (f *MaxKColor) Edges() []Edge {
	cp := make([]Edge, len(f.edges))
	copy(cp, f.edges)
	return cp
}

func (f *MaxKColor) Evaluate(state []float64) float64 {
	var conflicts float64
	for _, e := range f.edges {
		if state[e.U] == state[e.V] {
			conflicts++
		}
	}
	return conflicts
}

func (f *MaxKColor) ProblemType() opt.ProblemType { return opt.TypeDiscrete }
