package neural

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/randsearch/internal/opt"
)

// WeightCount returns the flattened weight vector length for a layer
// structure: one matrix of nodes[i] by nodes[i+1] per link.
func WeightCount(nodes []int) int {
	count := 0
	for i := 0; i+1 < len(nodes); i++ {
		count += nodes[i] * nodes[i+1]
	}
	return count
}

// FlattenWeights concatenates layer matrices row-major into one vector.
func FlattenWeights(weights []*mat.Dense) []float64 {
	var flat []float64
	for _, w := range weights {
		r, c := w.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				flat = append(flat, w.At(i, j))
			}
		}
	}
	return flat
}

// UnflattenWeights splits a flat vector back into layer matrices for the
// given layer structure.
func UnflattenWeights(flat []float64, nodes []int) ([]*mat.Dense, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf("%w: %d layers, want >= 2", opt.ErrInvalidParameter, len(nodes))
	}
	want := WeightCount(nodes)
	if len(flat) != want {
		return nil, fmt.Errorf("%w: %d weights, want %d", opt.ErrInvalidParameter, len(flat), want)
	}
	weights := make([]*mat.Dense, len(nodes)-1)
	offset := 0
	for i := range weights {
		r, c := nodes[i], nodes[i+1]
		data := make([]float64, r*c)
		copy(data, flat[offset:offset+r*c])
		weights[i] = mat.NewDense(r, c, data)
		offset += r * c
	}
	return weights, nil
}

// NetworkWeights scores a flattened weight vector by the network's loss on
// a fixed training set: mean cross-entropy for classifiers, mean squared
// error for regressors. Minimized. It also produces gradient update steps,
// so gradient descent works on it.
type NetworkWeights struct {
	x          *mat.Dense
	y          *mat.Dense
	nodes      []int
	activation Activation
	bias       bool
	classifier bool
	rate       float64
}

// NewNetworkWeights builds the evaluator. The input layer size nodes[0]
// must cover the feature count plus one when bias is set; the output layer
// size must match the target width. Inputs are copied.
func NewNetworkWeights(x, y [][]float64, nodes []int, activation Activation, bias, classifier bool, rate float64) (*NetworkWeights, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d samples and %d targets", opt.ErrInvalidParameter, len(x), len(y))
	}
	if len(nodes) < 2 {
		return nil, fmt.Errorf("%w: %d layers, want >= 2", opt.ErrInvalidParameter, len(nodes))
	}
	for i, n := range nodes {
		if n < 1 {
			return nil, fmt.Errorf("%w: layer %d has %d nodes", opt.ErrInvalidParameter, i, n)
		}
	}
	if err := validActivation(activation); err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%w: learning rate %v, want > 0", opt.ErrInvalidParameter, rate)
	}
	features := len(x[0])
	inputs := features
	if bias {
		inputs++
	}
	if nodes[0] != inputs {
		return nil, fmt.Errorf("%w: input layer %d, want %d for %d features (bias %t)",
			opt.ErrInvalidParameter, nodes[0], inputs, features, bias)
	}
	outputs := len(y[0])
	if nodes[len(nodes)-1] != outputs {
		return nil, fmt.Errorf("%w: output layer %d, want %d", opt.ErrInvalidParameter, nodes[len(nodes)-1], outputs)
	}

	m := len(x)
	xd := mat.NewDense(m, inputs, nil)
	for i, row := range x {
		if len(row) != features {
			return nil, fmt.Errorf("%w: sample %d has %d features, want %d", opt.ErrInvalidParameter, i, len(row), features)
		}
		for j, v := range row {
			xd.Set(i, j, v)
		}
		if bias {
			xd.Set(i, features, 1)
		}
	}
	yd := mat.NewDense(m, outputs, nil)
	for i, row := range y {
		if len(row) != outputs {
			return nil, fmt.Errorf("%w: target %d has %d values, want %d", opt.ErrInvalidParameter, i, len(row), outputs)
		}
		for j, v := range row {
			yd.Set(i, j, v)
		}
	}

	cp := make([]int, len(nodes))
	copy(cp, nodes)
	return &NetworkWeights{
		x:          xd,
		y:          yd,
		nodes:      cp,
		activation: activation,
		bias:       bias,
		classifier: classifier,
		rate:       rate,
	}, nil
}

// WeightCount returns the state length the evaluator expects.
func (nw *NetworkWeights) WeightCount() int { return WeightCount(nw.nodes) }

func (nw *NetworkWeights) ProblemType() opt.ProblemType { return opt.TypeContinuous }

// Evaluate returns the training loss for the flattened weights.
func (nw *NetworkWeights) Evaluate(state []float64) float64 {
	weights, err := UnflattenWeights(state, nw.nodes)
	if err != nil {
		return math.Inf(1)
	}
	_, _, pred := nw.forward(weights)
	return nw.loss(pred)
}

// CalculateUpdates backpropagates the loss and returns one negative
// gradient step per weight, scaled by the learning rate and flattened in
// the same order as the state.
func (nw *NetworkWeights) CalculateUpdates(state []float64) []float64 {
	weights, err := UnflattenWeights(state, nw.nodes)
	if err != nil {
		return make([]float64, len(state))
	}
	zs, as, pred := nw.forward(weights)

	layers := len(weights)
	deltas := make([]*mat.Dense, layers)

	// Output delta: prediction minus target, for cross-entropy with the
	// matched output activation and equally for squared error.
	last := &mat.Dense{}
	last.Sub(pred, nw.y)
	deltas[layers-1] = last

	for l := layers - 2; l >= 0; l-- {
		d := &mat.Dense{}
		d.Mul(deltas[l+1], weights[l+1].T())
		z := zs[l]
		a := as[l+1]
		d.Apply(func(i, j int, v float64) float64 {
			return v * activateDeriv(nw.activation, z.At(i, j), a.At(i, j))
		}, d)
		deltas[l] = d
	}

	updates := make([]float64, 0, len(state))
	for l := 0; l < layers; l++ {
		g := &mat.Dense{}
		g.Mul(as[l].T(), deltas[l])
		raw := g.RawMatrix()
		for _, v := range raw.Data[:raw.Rows*raw.Cols] {
			updates = append(updates, -nw.rate*v)
		}
	}
	return updates
}

// forward runs the network over the training inputs.
func (nw *NetworkWeights) forward(weights []*mat.Dense) (zs, as []*mat.Dense, pred *mat.Dense) {
	return forwardPass(nw.x, weights, nw.activation, nw.classifier)
}

// forwardPass runs the network: as[0] is the input, as[l+1] the activation
// of layer l, pred the final output after the output transfer.
func forwardPass(x *mat.Dense, weights []*mat.Dense, activation Activation, classifier bool) (zs, as []*mat.Dense, pred *mat.Dense) {
	layers := len(weights)
	zs = make([]*mat.Dense, layers)
	as = make([]*mat.Dense, layers+1)
	as[0] = x
	for l := 0; l < layers; l++ {
		z := &mat.Dense{}
		z.Mul(as[l], weights[l])
		zs[l] = z
		a := &mat.Dense{}
		if l == layers-1 {
			a.CloneFrom(z)
			outputTransfer(a, classifier)
		} else {
			a.Apply(func(_, _ int, v float64) float64 {
				return activate(activation, v)
			}, z)
		}
		as[l+1] = a
	}
	return zs, as, as[layers]
}

// outputTransfer applies the output activation in place: sigmoid for
// single-output classifiers, row-wise softmax for multi-output ones,
// identity for regressors.
func outputTransfer(a *mat.Dense, classifier bool) {
	if !classifier {
		return
	}
	rows, cols := a.Dims()
	if cols == 1 {
		a.Apply(func(_, _ int, v float64) float64 {
			return activate(ActSigmoid, v)
		}, a)
		return
	}
	for i := 0; i < rows; i++ {
		row := a.RawRowView(i)
		max := row[0]
		for _, v := range row[1:] {
			if v > max {
				max = v
			}
		}
		sum := 0.0
		for j, v := range row {
			row[j] = math.Exp(v - max)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
	}
}

// loss computes mean cross-entropy (classifier) or mean squared error
// (regressor) over all samples and outputs.
func (nw *NetworkWeights) loss(pred *mat.Dense) float64 {
	rows, cols := pred.Dims()
	total := 0.0
	if nw.classifier {
		const eps = 1e-10
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				p := math.Min(math.Max(pred.At(i, j), eps), 1-eps)
				yv := nw.y.At(i, j)
				if cols == 1 {
					total -= yv*math.Log(p) + (1-yv)*math.Log(1-p)
				} else {
					total -= yv * math.Log(p)
				}
			}
		}
		return total / float64(rows)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := pred.At(i, j) - nw.y.At(i, j)
			total += d * d
		}
	}
	return total / float64(rows*cols)
}
