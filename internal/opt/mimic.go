package opt

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// miAlpha is the additive smoothing applied to joint counts while
// estimating mutual information. Sampling tables are not smoothed, so a
// degenerate kept set resamples itself exactly.
const miAlpha = 0.1

// DiscreteSpace is the subset of problems MIMIC can model: a finite
// alphabet of the same size at every position.
type DiscreteSpace interface {
	Problem
	MaxVal() int
}

// MIMICConfig configures MIMIC.
type MIMICConfig struct {
	SearchConfig
	PopSize int     `json:"popSize"`
	KeepPct float64 `json:"keepPct"`
	// FastMode reuses pairwise mutual information from the previous
	// generation for position pairs whose kept columns did not change.
	FastMode bool `json:"fastMode"`
}

// DefaultMIMICConfig returns the conventional defaults: population 200,
// keep fraction 0.2, fast mode off.
func DefaultMIMICConfig() MIMICConfig {
	return MIMICConfig{SearchConfig: DefaultSearchConfig(), PopSize: 200, KeepPct: 0.2}
}

func (c *MIMICConfig) validate() error {
	if err := c.SearchConfig.validate(); err != nil {
		return err
	}
	if c.PopSize < 1 {
		return fmt.Errorf("%w: population size %d, want >= 1", ErrInvalidParameter, c.PopSize)
	}
	if c.KeepPct < 0 || c.KeepPct > 1 {
		return fmt.Errorf("%w: keep fraction %v, want in [0, 1]", ErrInvalidParameter, c.KeepPct)
	}
	return nil
}

// MIMIC runs the MIMIC estimation-of-distribution search. Each generation
// keeps the fittest fraction of the population, fits a dependency tree over
// state positions (maximum-spanning tree on pairwise mutual information,
// rooted at position 0), and samples a fresh population from the tree's
// conditional distributions. Only discrete and tour problems are supported.
func MIMIC(p Problem, cfg MIMICConfig) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ds, ok := p.(DiscreteSpace)
	if !ok {
		return nil, fmt.Errorf("%w: MIMIC requires a discrete or tour problem", ErrInvalidParameter)
	}
	if cfg.InitState != nil {
		return nil, fmt.Errorf("%w: init state not supported by population searches", ErrInvalidParameter)
	}
	rng := cfg.rng()
	evals0 := p.FnEvals()
	n := p.Length()
	maxVal := ds.MaxVal()

	pop := p.RandomPopulation(cfg.PopSize, rng)
	bestState, bestAdj := pop.Best()

	var (
		curve []CurvePoint
		cache *miCache
	)
	if cfg.FastMode {
		cache = newMICache(n)
	}
	iters := 0
	for attempts := 0; attempts < cfg.MaxAttempts && iters < cfg.MaxIters; {
		iters++

		kept := keepBest(pop, cfg.KeepPct)
		var mi [][]float64
		if cache != nil {
			mi = cache.update(kept, maxVal)
		} else {
			mi = mutualInfoMatrix(kept, maxVal)
		}
		parent, order := maxSpanningTree(mi)
		tables := condTables(kept, parent, maxVal)

		states := make([][]float64, cfg.PopSize)
		for i := range states {
			states[i] = sampleState(tables, parent, order, n, rng)
		}
		pop = evalPopulation(p, states)

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

// keepBest returns the top fraction of the population by adjusted fitness,
// at least one member. Ties keep their original population order.
func keepBest(pop *Population, keepPct float64) [][]float64 {
	m := pop.Len()
	keep := int(float64(m) * keepPct)
	if keep < 1 {
		keep = 1
	}
	if keep > m {
		keep = m
	}
	idx := make([]int, m)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return pop.Fitness[idx[a]] > pop.Fitness[idx[b]]
	})
	kept := make([][]float64, keep)
	for i := range kept {
		kept[i] = pop.States[idx[i]]
	}
	return kept
}

// pairMI estimates the mutual information between positions i and j of the
// kept states. Joint counts get additive smoothing and the marginals are
// derived from the smoothed joint, which keeps the estimate non-negative.
func pairMI(kept [][]float64, i, j, maxVal int) float64 {
	k := maxVal
	joint := make([]float64, k*k)
	for _, row := range kept {
		joint[int(row[i])*k+int(row[j])]++
	}
	total := float64(len(kept)) + miAlpha*float64(k*k)
	pi := make([]float64, k)
	pj := make([]float64, k)
	probs := make([]float64, k*k)
	for a := 0; a < k; a++ {
		for b := 0; b < k; b++ {
			pab := (joint[a*k+b] + miAlpha) / total
			probs[a*k+b] = pab
			pi[a] += pab
			pj[b] += pab
		}
	}
	mi := 0.0
	for a := 0; a < k; a++ {
		for b := 0; b < k; b++ {
			pab := probs[a*k+b]
			mi += pab * math.Log(pab/(pi[a]*pj[b]))
		}
	}
	return mi
}

// mutualInfoMatrix fills the symmetric pairwise mutual information matrix.
func mutualInfoMatrix(kept [][]float64, maxVal int) [][]float64 {
	n := len(kept[0])
	mi := make([][]float64, n)
	for i := range mi {
		mi[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := pairMI(kept, i, j, maxVal)
			mi[i][j] = v
			mi[j][i] = v
		}
	}
	return mi
}

// miCache memoizes pairwise mutual information across generations. A pair
// is recomputed only when either of its kept-matrix columns changed,
// compared element-wise in row order.
type miCache struct {
	mi   [][]float64
	cols [][]float64
}

func newMICache(n int) *miCache {
	mi := make([][]float64, n)
	for i := range mi {
		mi[i] = make([]float64, n)
	}
	return &miCache{mi: mi}
}

func (c *miCache) update(kept [][]float64, maxVal int) [][]float64 {
	n := len(c.mi)
	cols := make([][]float64, n)
	for i := 0; i < n; i++ {
		col := make([]float64, len(kept))
		for r, row := range kept {
			col[r] = row[i]
		}
		cols[i] = col
	}
	changed := make([]bool, n)
	for i := 0; i < n; i++ {
		changed[i] = c.cols == nil || !equalColumn(c.cols[i], cols[i])
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if changed[i] || changed[j] {
				v := pairMI(kept, i, j, maxVal)
				c.mi[i][j] = v
				c.mi[j][i] = v
			}
		}
	}
	c.cols = cols
	return c.mi
}

func equalColumn(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// maxSpanningTree runs Prim's algorithm from position 0 over the dense
// mutual information matrix. Candidate selection takes the strictly larger
// key, so the lowest position index wins ties, and a node's parent only
// changes on strict improvement. The returned order lists nodes root first,
// every node after its parent.
func maxSpanningTree(mi [][]float64) (parent []int, order []int) {
	n := len(mi)
	parent = make([]int, n)
	key := make([]float64, n)
	inTree := make([]bool, n)
	for i := range parent {
		parent[i] = -1
		key[i] = math.Inf(-1)
	}
	order = make([]int, 0, n)
	inTree[0] = true
	order = append(order, 0)
	for v := 1; v < n; v++ {
		key[v] = mi[0][v]
		parent[v] = 0
	}
	for len(order) < n {
		u := -1
		for v := 0; v < n; v++ {
			if !inTree[v] && (u == -1 || key[v] > key[u]) {
				u = v
			}
		}
		inTree[u] = true
		order = append(order, u)
		for v := 0; v < n; v++ {
			if !inTree[v] && mi[u][v] > key[v] {
				key[v] = mi[u][v]
				parent[v] = u
			}
		}
	}
	return parent, order
}

// condTables builds per-node sampling tables from the kept states. The root
// gets its empirical marginal; every other node gets one empirical
// conditional row per parent value, falling back to uniform for parent
// values never observed in the kept set. No smoothing is applied.
func condTables(kept [][]float64, parent []int, maxVal int) [][][]float64 {
	n := len(parent)
	k := maxVal
	m := float64(len(kept))
	tables := make([][][]float64, n)
	for v := 0; v < n; v++ {
		if parent[v] < 0 {
			row := make([]float64, k)
			for _, r := range kept {
				row[int(r[v])]++
			}
			for a := range row {
				row[a] /= m
			}
			tables[v] = [][]float64{row}
			continue
		}
		u := parent[v]
		joint := make([]float64, k*k)
		pcount := make([]float64, k)
		for _, r := range kept {
			pv := int(r[u])
			joint[pv*k+int(r[v])]++
			pcount[pv]++
		}
		tab := make([][]float64, k)
		for pv := 0; pv < k; pv++ {
			row := make([]float64, k)
			if pcount[pv] == 0 {
				for a := range row {
					row[a] = 1.0 / float64(k)
				}
			} else {
				for a := 0; a < k; a++ {
					row[a] = joint[pv*k+a] / pcount[pv]
				}
			}
			tab[pv] = row
		}
		tables[v] = tab
	}
	return tables
}

// sampleState draws one state from the dependency tree in ancestral order:
// the root from its marginal, every other node conditioned on its parent's
// sampled value.
func sampleState(tables [][][]float64, parent, order []int, n int, rng *rand.Rand) []float64 {
	st := make([]float64, n)
	for _, v := range order {
		var row []float64
		if parent[v] < 0 {
			row = tables[v][0]
		} else {
			row = tables[v][int(st[parent[v]])]
		}
		st[v] = float64(drawIndex(row, rng.Float64()))
	}
	return st
}

// drawIndex maps a uniform draw onto a probability row. Zero-probability
// values are never returned; rounding fall-through lands on the last
// positive entry.
func drawIndex(probs []float64, r float64) int {
	acc := 0.0
	last := 0
	for i, p := range probs {
		if p > 0 {
			last = i
			acc += p
			if r < acc {
				return i
			}
		}
	}
	return last
}
