package neural

import (
	"fmt"
	"math"

	"github.com/cwbudde/randsearch/internal/opt"
)

// Activation names a hidden-layer transfer function.
type Activation string

const (
	ActIdentity Activation = "identity"
	ActRelu     Activation = "relu"
	ActSigmoid  Activation = "sigmoid"
	ActTanh     Activation = "tanh"
)

// Activations lists the supported transfer functions.
func Activations() []Activation {
	return []Activation{ActIdentity, ActRelu, ActSigmoid, ActTanh}
}

func validActivation(a Activation) error {
	switch a {
	case ActIdentity, ActRelu, ActSigmoid, ActTanh:
		return nil
	}
	return fmt.Errorf("%w: unknown activation %q", opt.ErrInvalidParameter, a)
}

// activate applies the transfer function to a pre-activation value.
func activate(a Activation, z float64) float64 {
	switch a {
	case ActRelu:
		if z > 0 {
			return z
		}
		return 0
	case ActSigmoid:
		return 1 / (1 + math.Exp(-z))
	case ActTanh:
		return math.Tanh(z)
	default:
		return z
	}
}

// activateDeriv returns the derivative at pre-activation z with output v.
func activateDeriv(a Activation, z, v float64) float64 {
	switch a {
	case ActRelu:
		if z > 0 {
			return 1
		}
		return 0
	case ActSigmoid:
		return v * (1 - v)
	case ActTanh:
		return 1 - v*v
	default:
		return 1
	}
}
