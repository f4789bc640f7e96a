package neural

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/randsearch/internal/opt"
)

// initWeightSpan bounds the uniform draw for starting weights when the
// fitting algorithm climbs from a single state.
const initWeightSpan = 0.1

// NetworkConfig describes a feed-forward network and how to fit it. The
// weight vector is searched inside [-ClipMax, ClipMax] with LearningRate as
// the neighborhood step, so both also shape the non-gradient algorithms.
type NetworkConfig struct {
	HiddenNodes  []int         `json:"hiddenNodes"`
	Activation   Activation    `json:"activation"`
	Algorithm    opt.Algorithm `json:"algorithm"`
	Bias         bool          `json:"bias"`
	IsClassifier bool          `json:"isClassifier"`
	LearningRate float64       `json:"learningRate"`
	ClipMax      float64       `json:"clipMax"`
	MaxIters     int           `json:"maxIters"`
	MaxAttempts  int           `json:"maxAttempts"`
	Restarts     int           `json:"restarts"`
	Schedule     opt.Schedule  `json:"-"`
	PopSize      int           `json:"popSize"`
	MutationProb float64       `json:"mutationProb"`
	Seed         int64         `json:"seed"`
}

// DefaultNetworkConfig returns a single-hidden-layer relu classifier fitted
// by random hill climbing.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		HiddenNodes:  []int{10},
		Activation:   ActRelu,
		Algorithm:    opt.AlgRandomHillClimb,
		Bias:         true,
		IsClassifier: true,
		LearningRate: 0.1,
		ClipMax:      5,
		MaxIters:     100,
		MaxAttempts:  10,
		PopSize:      200,
		MutationProb: 0.1,
	}
}

func (c *NetworkConfig) validate() error {
	for _, n := range c.HiddenNodes {
		if n < 1 {
			return fmt.Errorf("%w: hidden nodes %v, want all >= 1", opt.ErrInvalidParameter, c.HiddenNodes)
		}
	}
	if err := validActivation(c.Activation); err != nil {
		return err
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate %g, want > 0", opt.ErrInvalidParameter, c.LearningRate)
	}
	if c.ClipMax <= 0 {
		return fmt.Errorf("%w: clip max %g, want > 0", opt.ErrInvalidParameter, c.ClipMax)
	}
	return nil
}

// Network is a feed-forward model fitted by one of the engine strategies.
// Fit searches the flattened weight vector, Predict runs the forward pass
// with the fitted weights.
type Network struct {
	cfg     NetworkConfig
	nodes   []int
	weights []float64
	loss    float64
	fitted  bool
}

func NewNetwork(cfg NetworkConfig) *Network {
	return &Network{cfg: cfg}
}

// Nodes returns the layer sizes resolved by the last Fit, nil before it.
func (n *Network) Nodes() []int { return n.nodes }

// Weights returns the fitted flattened weight vector, nil before Fit.
func (n *Network) Weights() []float64 { return n.weights }

// Loss returns the training loss of the fitted weights.
func (n *Network) Loss() float64 { return n.loss }

// Fit searches for weights minimizing the training loss on x and y. The
// layer sizes are resolved from the data: inputs (plus a bias column when
// configured), the hidden layers, then one node per output column.
func (n *Network) Fit(x, y [][]float64) (*opt.Result, error) {
	if err := n.cfg.validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 || len(y) == 0 {
		return nil, fmt.Errorf("%w: empty training data", opt.ErrInvalidParameter)
	}
	if len(y[0]) == 0 {
		return nil, fmt.Errorf("%w: empty target rows", opt.ErrInvalidParameter)
	}

	inputs := len(x[0])
	if n.cfg.Bias {
		inputs++
	}
	nodes := make([]int, 0, len(n.cfg.HiddenNodes)+2)
	nodes = append(nodes, inputs)
	nodes = append(nodes, n.cfg.HiddenNodes...)
	nodes = append(nodes, len(y[0]))

	nw, err := NewNetworkWeights(x, y, nodes, n.cfg.Activation, n.cfg.Bias, n.cfg.IsClassifier, n.cfg.LearningRate)
	if err != nil {
		return nil, err
	}
	problem, err := opt.NewContinuous(nw.WeightCount(), nw, false, -n.cfg.ClipMax, n.cfg.ClipMax, n.cfg.LearningRate)
	if err != nil {
		return nil, err
	}

	base := opt.DefaultSearchConfig()
	base.MaxIters = n.cfg.MaxIters
	base.MaxAttempts = n.cfg.MaxAttempts
	base.Seed = n.cfg.Seed

	var result *opt.Result
	switch n.cfg.Algorithm {
	case opt.AlgRandomHillClimb:
		cfg := opt.HillClimbConfig{SearchConfig: base, Restarts: n.cfg.Restarts}
		cfg.InitState = n.initWeights(nw.WeightCount())
		result, err = opt.RandomHillClimb(problem, cfg)
	case opt.AlgAnneal:
		cfg := opt.AnnealConfig{SearchConfig: base, Schedule: n.cfg.Schedule}
		cfg.InitState = n.initWeights(nw.WeightCount())
		result, err = opt.Anneal(problem, cfg)
	case opt.AlgGenetic:
		cfg := opt.DefaultGeneticConfig()
		cfg.SearchConfig = base
		if n.cfg.PopSize > 0 {
			cfg.PopSize = n.cfg.PopSize
		}
		cfg.MutationProb = n.cfg.MutationProb
		result, err = opt.Genetic(problem, cfg)
	case opt.AlgGradient:
		base.InitState = n.initWeights(nw.WeightCount())
		result, err = opt.GradientDescent(problem, base)
	default:
		return nil, fmt.Errorf("%w: algorithm %q cannot fit a network", opt.ErrInvalidParameter, n.cfg.Algorithm)
	}
	if err != nil {
		return nil, err
	}

	n.nodes = nodes
	n.weights = result.BestState
	n.loss = result.BestFitness
	n.fitted = true
	return result, nil
}

// initWeights draws the starting weight vector uniformly from
// [-initWeightSpan, initWeightSpan].
func (n *Network) initWeights(count int) []float64 {
	seed := n.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	init := make([]float64, count)
	for i := range init {
		init[i] = rng.Float64()*2*initWeightSpan - initWeightSpan
	}
	return init
}

// Predict runs the forward pass with the fitted weights and returns one
// output row per input row. Classifier outputs are probabilities.
func (n *Network) Predict(x [][]float64) ([][]float64, error) {
	if !n.fitted {
		return nil, fmt.Errorf("%w: network is not fitted", opt.ErrInvalidParameter)
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: empty input", opt.ErrInvalidParameter)
	}
	features := n.nodes[0]
	if n.cfg.Bias {
		features--
	}
	for i, row := range x {
		if len(row) != features {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", opt.ErrInvalidParameter, i, len(row), features)
		}
	}

	input := mat.NewDense(len(x), n.nodes[0], nil)
	for i, row := range x {
		for j, v := range row {
			input.Set(i, j, v)
		}
		if n.cfg.Bias {
			input.Set(i, n.nodes[0]-1, 1)
		}
	}
	weights, err := UnflattenWeights(n.weights, n.nodes)
	if err != nil {
		return nil, err
	}
	_, _, pred := forwardPass(input, weights, n.cfg.Activation, n.cfg.IsClassifier)

	rows, cols := pred.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = pred.At(i, j)
		}
		out[i] = row
	}
	return out, nil
}
