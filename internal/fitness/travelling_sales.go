package fitness

import (
	"fmt"
	"math"

	"github.com/cwbudde/randsearch/internal/opt"
)

// Distance is one weighted link for distance-based tours.
type Distance struct {
	U    int     `json:"u"`
	V    int     `json:"v"`
	Dist float64 `json:"dist"`
}

// TravellingSales scores closed tours: the sum of the distances between
// consecutive nodes plus the leg back to the start. States that are not
// valid tours, and tours crossing a missing link, score +Inf. Minimized.
type TravellingSales struct {
	n    int
	dist [][]float64
}

// NewTravellingSalesCoords builds the evaluator from planar coordinates,
// with Euclidean distances between every pair.
func NewTravellingSalesCoords(coords [][2]float64) (*TravellingSales, error) {
	n := len(coords)
	if n < 2 {
		return nil, fmt.Errorf("%w: %d coordinates, want >= 2", opt.ErrInvalidParameter, n)
	}
	f := newTSMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := coords[i][0] - coords[j][0]
			dy := coords[i][1] - coords[j][1]
			d := math.Hypot(dx, dy)
			f.dist[i][j] = d
			f.dist[j][i] = d
		}
	}
	return f, nil
}

// NewTravellingSalesDistances builds the evaluator from an explicit list of
// symmetric distances over n nodes. Node pairs without an entry are
// unreachable.
func NewTravellingSalesDistances(n int, distances []Distance) (*TravellingSales, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: %d nodes, want >= 2", opt.ErrInvalidParameter, n)
	}
	if len(distances) == 0 {
		return nil, fmt.Errorf("%w: no distances", opt.ErrInvalidParameter)
	}
	f := newTSMatrix(n)
	for i, d := range distances {
		if d.U < 0 || d.U >= n || d.V < 0 || d.V >= n {
			return nil, fmt.Errorf("%w: distance %d links %d-%d, nodes are 0..%d", opt.ErrInvalidParameter, i, d.U, d.V, n-1)
		}
		if d.U == d.V {
			return nil, fmt.Errorf("%w: distance %d is a self-loop on node %d", opt.ErrInvalidParameter, i, d.U)
		}
		if d.Dist < 0 {
			return nil, fmt.Errorf("%w: distance %d is negative (%v)", opt.ErrInvalidParameter, i, d.Dist)
		}
		f.dist[d.U][d.V] = d.Dist
		f.dist[d.V][d.U] = d.Dist
	}
	return f, nil
}

func newTSMatrix(n int) *TravellingSales {
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dist[i][j] = math.Inf(1)
		}
	}
	return &TravellingSales{n: n, dist: dist}
}

// N returns the number of nodes.
func (f *TravellingSales) N() int { return f.n }

func (f *TravellingSales) Evaluate(state []float64) float64 {
	if len(state) != f.n {
		return math.Inf(1)
	}
	seen := make([]bool, f.n)
	for _, v := range state {
		iv := int(v)
		if v != float64(iv) || iv < 0 || iv >= f.n || seen[iv] {
			return math.Inf(1)
		}
		seen[iv] = true
	}
	total := 0.0
	for i := 1; i < f.n; i++ {
		d := f.dist[int(state[i-1])][int(state[i])]
		if math.IsInf(d, 1) {
			return math.Inf(1)
		}
		total += d
	}
	back := f.dist[int(state[f.n-1])][int(state[0])]
	if math.IsInf(back, 1) {
		return math.Inf(1)
	}
	return total + back
}

func (f *TravellingSales) ProblemType() opt.ProblemType { return opt.TypeTSP }
