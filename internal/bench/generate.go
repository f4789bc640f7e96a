package bench

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/cwbudde/randsearch/internal/fitness"
	"github.com/cwbudde/randsearch/internal/opt"
)

// Generator defaults shared by the named instances.
const (
	defaultTPct       = 0.1
	knapsackMaxCount  = 5
	knapsackMaxWeight = 25
	knapsackMaxValue  = 10
	knapsackWeightPct = 0.35
	kcolorMaxConn     = 4
	tspArea           = 250.0
	sphereBound       = 5.12
	sphereStep        = 0.1
)

// Generator builds a reproducible problem instance of the given size. The
// seed fully determines the instance; the same seed always builds the same
// problem.
type Generator func(size int, seed int64) (opt.Problem, error)

var generators = map[string]Generator{
	"onemax": func(size int, _ int64) (opt.Problem, error) {
		return opt.NewDiscrete(size, fitness.OneMax{}, true, 2)
	},
	"flipflop": func(size int, _ int64) (opt.Problem, error) {
		return opt.NewDiscrete(size, fitness.FlipFlop{}, true, 2)
	},
	"fourpeaks": func(size int, _ int64) (opt.Problem, error) {
		f, err := fitness.NewFourPeaks(defaultTPct)
		if err != nil {
			return nil, err
		}
		return opt.NewDiscrete(size, f, true, 2)
	},
	"sixpeaks": func(size int, _ int64) (opt.Problem, error) {
		f, err := fitness.NewSixPeaks(defaultTPct)
		if err != nil {
			return nil, err
		}
		return opt.NewDiscrete(size, f, true, 2)
	},
	"cpeaks": func(size int, _ int64) (opt.Problem, error) {
		f, err := fitness.NewContinuousPeaks(defaultTPct)
		if err != nil {
			return nil, err
		}
		return opt.NewDiscrete(size, f, true, 2)
	},
	"queens": func(size int, _ int64) (opt.Problem, error) {
		return opt.NewDiscrete(size, fitness.Queens{}, false, size)
	},
	"kcolor":   KColor,
	"knapsack": KnapsackInstance,
	"tsp":      TSP,
	"sphere": func(size int, _ int64) (opt.Problem, error) {
		f := fitness.NewCustom(func(state []float64) float64 {
			var sum float64
			for _, v := range state {
				sum += v * v
			}
			return sum
		}, opt.TypeContinuous)
		return opt.NewContinuous(size, f, false, -sphereBound, sphereBound, sphereStep)
	},
}

// Generate builds the named instance. Names returns the valid names.
func Generate(name string, size int, seed int64) (opt.Problem, error) {
	gen, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown problem %q", opt.ErrInvalidParameter, name)
	}
	return gen(size, seed)
}

// Names lists the registered generators, sorted.
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KColor builds a random graph-coloring instance: size nodes, up to
// kcolorMaxConn links per node, colors set to the highest degree plus one so
// a proper coloring always exists.
func KColor(size int, seed int64) (opt.Problem, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: size %d, want >= 2", opt.ErrInvalidParameter, size)
	}
	rng := rand.New(rand.NewSource(seed))
	degree := make([]int, size)
	seenEdge := make(map[[2]int]bool)
	var edges []fitness.Edge
	for u := 0; u < size; u++ {
		links := 1 + rng.Intn(kcolorMaxConn)
		for l := 0; l < links; l++ {
			v := rng.Intn(size)
			if v == u {
				continue
			}
			a, b := u, v
			if a > b {
				a, b = b, a
			}
			if seenEdge[[2]int{a, b}] {
				continue
			}
			seenEdge[[2]int{a, b}] = true
			edges = append(edges, fitness.Edge{U: a, V: b})
			degree[a]++
			degree[b]++
		}
	}
	if len(edges) == 0 {
		// Tiny graphs can come out empty; link the first two nodes.
		edges = append(edges, fitness.Edge{U: 0, V: 1})
		degree[0]++
		degree[1]++
	}
	colors := 0
	for _, d := range degree {
		if d > colors {
			colors = d
		}
	}
	colors++
	if colors < 2 {
		colors = 2
	}
	f, err := fitness.NewMaxKColor(edges)
	if err != nil {
		return nil, err
	}
	return opt.NewDiscrete(size, f, false, colors)
}

// KnapsackInstance builds a random knapsack: size item types with weights
// in 1..knapsackMaxWeight and values in 1..knapsackMaxValue, item counts up
// to knapsackMaxCount.
func KnapsackInstance(size int, seed int64) (opt.Problem, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: size %d, want >= 1", opt.ErrInvalidParameter, size)
	}
	rng := rand.New(rand.NewSource(seed))
	weights := make([]float64, size)
	values := make([]float64, size)
	for i := 0; i < size; i++ {
		weights[i] = float64(1 + rng.Intn(knapsackMaxWeight))
		values[i] = float64(1 + rng.Intn(knapsackMaxValue))
	}
	f, err := fitness.NewKnapsack(weights, values, knapsackWeightPct)
	if err != nil {
		return nil, err
	}
	return opt.NewDiscrete(size, f, true, knapsackMaxCount+1)
}

// TSP builds a random tour instance: size cities dropped uniformly on a
// square of side tspArea.
func TSP(size int, seed int64) (opt.Problem, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: size %d, want >= 2", opt.ErrInvalidParameter, size)
	}
	rng := rand.New(rand.NewSource(seed))
	coords := make([][2]float64, size)
	for i := range coords {
		coords[i] = [2]float64{rng.Float64() * tspArea, rng.Float64() * tspArea}
	}
	f, err := fitness.NewTravellingSalesCoords(coords)
	if err != nil {
		return nil, err
	}
	return opt.NewTSP(size, f)
}
