package opt

import (
	"fmt"
	"math"
)

// Schedule maps an iteration number to an annealing temperature. Iterations
// are zero-based; implementations must return a positive temperature at
// t = 0 and must never return a negative one.
type Schedule interface {
	// Temp returns the temperature at iteration t
	Temp(t int) float64
}

// GeomDecay cools geometrically: InitTemp * Decay^t, floored at MinTemp.
type GeomDecay struct {
	InitTemp float64
	Decay    float64
	MinTemp  float64
}

// NewGeomDecay returns the conventional geometric schedule: start at 1.0,
// multiply by 0.99 each iteration, floor at 0.001.
func NewGeomDecay() *GeomDecay {
	return &GeomDecay{InitTemp: 1.0, Decay: 0.99, MinTemp: 0.001}
}

func (s *GeomDecay) Temp(t int) float64 {
	return math.Max(s.InitTemp*math.Pow(s.Decay, float64(t)), s.MinTemp)
}

// ArithDecay cools linearly: InitTemp - Decay*t, floored at MinTemp.
type ArithDecay struct {
	InitTemp float64
	Decay    float64
	MinTemp  float64
}

// NewArithDecay returns the conventional arithmetic schedule: start at 1.0,
// subtract 0.0001 each iteration, floor at 0.001.
func NewArithDecay() *ArithDecay {
	return &ArithDecay{InitTemp: 1.0, Decay: 0.0001, MinTemp: 0.001}
}

func (s *ArithDecay) Temp(t int) float64 {
	return math.Max(s.InitTemp-s.Decay*float64(t), s.MinTemp)
}

// ExpDecay cools exponentially: InitTemp * exp(-ExpConst*t), floored at
// MinTemp.
type ExpDecay struct {
	InitTemp float64
	ExpConst float64
	MinTemp  float64
}

// NewExpDecay returns the conventional exponential schedule: start at 1.0,
// rate constant 0.005, floor at 0.001.
func NewExpDecay() *ExpDecay {
	return &ExpDecay{InitTemp: 1.0, ExpConst: 0.005, MinTemp: 0.001}
}

func (s *ExpDecay) Temp(t int) float64 {
	return math.Max(s.InitTemp*math.Exp(-s.ExpConst*float64(t)), s.MinTemp)
}

// ScheduleByName builds the schedule called name ("geom", "arith" or "exp")
// starting at initTemp, with the conventional decay constants otherwise.
func ScheduleByName(name string, initTemp float64) (Schedule, error) {
	switch name {
	case "geom":
		s := NewGeomDecay()
		s.InitTemp = initTemp
		return s, nil
	case "arith":
		s := NewArithDecay()
		s.InitTemp = initTemp
		return s, nil
	case "exp":
		s := NewExpDecay()
		s.InitTemp = initTemp
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown schedule %q", ErrInvalidParameter, name)
	}
}
