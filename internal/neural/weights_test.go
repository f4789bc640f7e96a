package neural

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/randsearch/internal/opt"
)

func TestWeightCount(t *testing.T) {
	cases := []struct {
		nodes []int
		want  int
	}{
		{[]int{4, 2}, 8},
		{[]int{2, 3, 1}, 9},
		{[]int{3, 5, 5, 2}, 50},
	}
	for _, c := range cases {
		if got := WeightCount(c.nodes); got != c.want {
			t.Errorf("WeightCount(%v): expected %d, got %d", c.nodes, c.want, got)
		}
	}
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	nodes := []int{2, 3, 1}
	flat := make([]float64, WeightCount(nodes))
	for i := range flat {
		flat[i] = float64(i) + 0.5
	}
	weights, err := UnflattenWeights(flat, nodes)
	if err != nil {
		t.Fatalf("UnflattenWeights: %v", err)
	}
	if len(weights) != 2 {
		t.Fatalf("Expected 2 layer matrices, got %d", len(weights))
	}
	r, c := weights[0].Dims()
	if r != 2 || c != 3 {
		t.Errorf("Expected first layer 2x3, got %dx%d", r, c)
	}
	r, c = weights[1].Dims()
	if r != 3 || c != 1 {
		t.Errorf("Expected second layer 3x1, got %dx%d", r, c)
	}
	// Row-major order: element (1,2) of the first matrix is flat[5].
	if got := weights[0].At(1, 2); got != flat[5] {
		t.Errorf("Expected %v at (1,2), got %v", flat[5], got)
	}
	back := FlattenWeights(weights)
	if len(back) != len(flat) {
		t.Fatalf("Expected %d flattened weights, got %d", len(flat), len(back))
	}
	for i := range back {
		if back[i] != flat[i] {
			t.Errorf("Weight %d: expected %v, got %v", i, flat[i], back[i])
		}
	}
}

func TestFlattenWeightsIgnoresStride(t *testing.T) {
	// A view into a larger matrix has stride > cols; flatten must follow the
	// logical layout, not the backing slice.
	big := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	})
	view := big.Slice(0, 2, 1, 3).(*mat.Dense)
	flat := FlattenWeights([]*mat.Dense{view})
	want := []float64{2, 3, 6, 7}
	if len(flat) != len(want) {
		t.Fatalf("Expected %d weights, got %d", len(want), len(flat))
	}
	for i := range want {
		if flat[i] != want[i] {
			t.Errorf("Weight %d: expected %v, got %v", i, want[i], flat[i])
		}
	}
}

func TestUnflattenWeightsValidation(t *testing.T) {
	if _, err := UnflattenWeights([]float64{1, 2, 3}, []int{2, 2}); !errors.Is(err, opt.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for short vector, got %v", err)
	}
	if _, err := UnflattenWeights([]float64{1}, []int{1}); !errors.Is(err, opt.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for single layer, got %v", err)
	}
}

func TestNewNetworkWeightsValidation(t *testing.T) {
	x := [][]float64{{1}, {2}}
	y := [][]float64{{1}, {0}}
	cases := []struct {
		name       string
		x, y       [][]float64
		nodes      []int
		activation Activation
		bias       bool
		rate       float64
	}{
		{"empty data", nil, nil, []int{1, 1}, ActIdentity, false, 0.1},
		{"sample target mismatch", x, y[:1], []int{1, 1}, ActIdentity, false, 0.1},
		{"single layer", x, y, []int{1}, ActIdentity, false, 0.1},
		{"zero nodes", x, y, []int{1, 0}, ActIdentity, false, 0.1},
		{"unknown activation", x, y, []int{1, 1}, "swish", false, 0.1},
		{"zero rate", x, y, []int{1, 1}, ActIdentity, false, 0},
		{"input without bias slot", x, y, []int{1, 1}, ActIdentity, true, 0.1},
		{"output width", x, y, []int{1, 2}, ActIdentity, false, 0.1},
		{"ragged sample", [][]float64{{1}, {1, 2}}, y, []int{1, 1}, ActIdentity, false, 0.1},
	}
	for _, c := range cases {
		_, err := NewNetworkWeights(c.x, c.y, c.nodes, c.activation, c.bias, false, c.rate)
		if !errors.Is(err, opt.ErrInvalidParameter) {
			t.Errorf("%s: expected ErrInvalidParameter, got %v", c.name, err)
		}
	}
}

func TestNetworkWeightsRegressorLoss(t *testing.T) {
	// One linear node, no bias: pred = w*x.
	nw, err := NewNetworkWeights(
		[][]float64{{1}, {2}},
		[][]float64{{2}, {4}},
		[]int{1, 1}, ActIdentity, false, false, 0.1,
	)
	if err != nil {
		t.Fatalf("NewNetworkWeights: %v", err)
	}
	if got := nw.Evaluate([]float64{2}); got != 0 {
		t.Errorf("Expected zero loss at the exact fit, got %v", got)
	}
	// w=1: residuals -1 and -2, mean squared error (1+4)/2.
	if got := nw.Evaluate([]float64{1}); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("Expected loss 2.5, got %v", got)
	}
	if got := nw.Evaluate([]float64{1, 2}); !math.IsInf(got, 1) {
		t.Errorf("Expected +Inf for a wrong-length state, got %v", got)
	}
}

func TestNetworkWeightsBiasColumn(t *testing.T) {
	// y = x + 1 fits exactly with weight 1 and bias weight 1.
	nw, err := NewNetworkWeights(
		[][]float64{{1}, {3}},
		[][]float64{{2}, {4}},
		[]int{2, 1}, ActIdentity, true, false, 0.1,
	)
	if err != nil {
		t.Fatalf("NewNetworkWeights: %v", err)
	}
	if got := nw.Evaluate([]float64{1, 1}); got != 0 {
		t.Errorf("Expected zero loss with the bias weight, got %v", got)
	}
}

func TestNetworkWeightsClassifierLoss(t *testing.T) {
	// Single output: sigmoid transfer. Zero input forces pred 0.5 whatever
	// the weight, so the cross-entropy is ln 2.
	nw, err := NewNetworkWeights(
		[][]float64{{0}},
		[][]float64{{1}},
		[]int{1, 1}, ActIdentity, false, true, 0.1,
	)
	if err != nil {
		t.Fatalf("NewNetworkWeights: %v", err)
	}
	if got := nw.Evaluate([]float64{3}); math.Abs(got-math.Ln2) > 1e-12 {
		t.Errorf("Expected loss ln 2, got %v", got)
	}
}

func TestNetworkWeightsSoftmaxLoss(t *testing.T) {
	// Two outputs: softmax transfer. Zero weights give uniform class
	// probabilities, so the cross-entropy is ln 2 again.
	nw, err := NewNetworkWeights(
		[][]float64{{1}},
		[][]float64{{1, 0}},
		[]int{1, 2}, ActIdentity, false, true, 0.1,
	)
	if err != nil {
		t.Fatalf("NewNetworkWeights: %v", err)
	}
	if got := nw.Evaluate([]float64{0, 0}); math.Abs(got-math.Ln2) > 1e-12 {
		t.Errorf("Expected loss ln 2, got %v", got)
	}
	// Pushing weight onto the true class must lower the loss.
	if better := nw.Evaluate([]float64{2, 0}); better >= math.Ln2 {
		t.Errorf("Expected loss below ln 2 with the true class favored, got %v", better)
	}
}

func TestCalculateUpdatesLinear(t *testing.T) {
	// pred = w*x at w=1: residuals (-1, -2), gradient x'*(pred-y) = -5,
	// update -rate*gradient = 0.5.
	nw, err := NewNetworkWeights(
		[][]float64{{1}, {2}},
		[][]float64{{2}, {4}},
		[]int{1, 1}, ActIdentity, false, false, 0.1,
	)
	if err != nil {
		t.Fatalf("NewNetworkWeights: %v", err)
	}
	updates := nw.CalculateUpdates([]float64{1})
	if len(updates) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(updates))
	}
	if math.Abs(updates[0]-0.5) > 1e-12 {
		t.Errorf("Expected update 0.5, got %v", updates[0])
	}
	// At the exact fit the gradient vanishes.
	updates = nw.CalculateUpdates([]float64{2})
	if math.Abs(updates[0]) > 1e-12 {
		t.Errorf("Expected zero update at the optimum, got %v", updates[0])
	}
}

func TestCalculateUpdatesHiddenLayer(t *testing.T) {
	// With a hidden layer the update vector still matches the weight layout
	// and points downhill: stepping by it must not raise the loss.
	nw, err := NewNetworkWeights(
		[][]float64{{1, 0}, {0, 1}, {1, 1}},
		[][]float64{{1}, {0}, {1}},
		[]int{3, 4, 1}, ActSigmoid, true, true, 0.05,
	)
	if err != nil {
		t.Fatalf("NewNetworkWeights: %v", err)
	}
	state := make([]float64, nw.WeightCount())
	for i := range state {
		state[i] = 0.3 - 0.05*float64(i%5)
	}
	before := nw.Evaluate(state)
	updates := nw.CalculateUpdates(state)
	if len(updates) != len(state) {
		t.Fatalf("Expected %d updates, got %d", len(state), len(updates))
	}
	next := make([]float64, len(state))
	for i := range state {
		next[i] = state[i] + updates[i]
	}
	after := nw.Evaluate(next)
	if after > before {
		t.Errorf("Expected the update step not to raise the loss: before %v, after %v", before, after)
	}
}

func TestActivationDerivatives(t *testing.T) {
	cases := []struct {
		a    Activation
		z    float64
		want float64
	}{
		{ActIdentity, 2, 1},
		{ActRelu, 2, 1},
		{ActRelu, -1, 0},
		{ActSigmoid, 0, 0.25},
		{ActTanh, 0, 1},
	}
	for _, c := range cases {
		v := activate(c.a, c.z)
		if got := activateDeriv(c.a, c.z, v); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("%s'(%v): expected %v, got %v", c.a, c.z, c.want, got)
		}
	}
}
