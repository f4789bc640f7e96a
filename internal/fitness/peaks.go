package fitness

import (
	"fmt"
	"math"

	"github.com/cwbudde/randsearch/internal/opt"
)

// FourPeaks scores the longer of the leading run of ones and the trailing
// run of zeros, with a bonus of n when both runs exceed the threshold
// ceil(TPct*n). Two broad local optima and two narrow global ones.
type FourPeaks struct {
	TPct float64
}

// NewFourPeaks builds the evaluator with threshold fraction tPct in [0, 1).
func NewFourPeaks(tPct float64) (*FourPeaks, error) {
	if tPct < 0 || tPct >= 1 {
		return nil, fmt.Errorf("%w: threshold fraction %v, want in [0, 1)", opt.ErrInvalidParameter, tPct)
	}
	return &FourPeaks{TPct: tPct}, nil
}

func (f *FourPeaks) Evaluate(state []float64) float64 {
	n := len(state)
	threshold := math.Ceil(f.TPct * float64(n))
	head := leadRun(state, 1)
	tail := trailRun(state, 0)
	bonus := 0.0
	if head > threshold && tail > threshold {
		bonus = float64(n)
	}
	return math.Max(head, tail) + bonus
}

func (f *FourPeaks) ProblemType() opt.ProblemType { return opt.TypeDiscrete }

// SixPeaks extends FourPeaks with the complementary pair: the bonus also
// fires when the leading run of zeros and trailing run of ones both exceed
// the threshold.
type SixPeaks struct {
	TPct float64
}

// NewSixPeaks builds the evaluator with threshold fraction tPct in [0, 1).
func NewSixPeaks(tPct float64) (*SixPeaks, error) {
	if tPct < 0 || tPct >= 1 {
		return nil, fmt.Errorf("%w: threshold fraction %v, want in [0, 1)", opt.ErrInvalidParameter, tPct)
	}
	return &SixPeaks{TPct: tPct}, nil
}

func (f *SixPeaks) Evaluate(state []float64) float64 {
	n := len(state)
	threshold := math.Ceil(f.TPct * float64(n))
	head := leadRun(state, 1)
	tail := trailRun(state, 0)
	bonus := 0.0
	if (head > threshold && tail > threshold) ||
		(leadRun(state, 0) > threshold && trailRun(state, 1) > threshold) {
		bonus = float64(n)
	}
	return math.Max(head, tail) + bonus
}

func (f *SixPeaks) ProblemType() opt.ProblemType { return opt.TypeDiscrete }

// ContinuousPeaks rewards the longest run of ones or zeros anywhere in the
// string, with a bonus of n when a long run of each exists.
type ContinuousPeaks struct {
	TPct float64
}

// NewContinuousPeaks builds the evaluator with threshold fraction tPct in
// [0, 1).
func NewContinuousPeaks(tPct float64) (*ContinuousPeaks, error) {
	if tPct < 0 || tPct >= 1 {
		return nil, fmt.Errorf("%w: threshold fraction %v, want in [0, 1)", opt.ErrInvalidParameter, tPct)
	}
	return &ContinuousPeaks{TPct: tPct}, nil
}

func (f *ContinuousPeaks) Evaluate(state []float64) float64 {
	n := len(state)
	threshold := math.Ceil(f.TPct * float64(n))
	zeros := maxRun(state, 0)
	ones := maxRun(state, 1)
	bonus := 0.0
	if zeros > threshold && ones > threshold {
		bonus = float64(n)
	}
	return math.Max(zeros, ones) + bonus
}

func (f *ContinuousPeaks) ProblemType() opt.ProblemType { return opt.TypeDiscrete }

// leadRun counts how many leading positions hold v.
func leadRun(state []float64, v float64) float64 {
	var run float64
	for _, s := range state {
		if s != v {
			break
		}
		run++
	}
	return run
}

// trailRun counts how many trailing positions hold v.
func trailRun(state []float64, v float64) float64 {
	var run float64
	for i := len(state) - 1; i >= 0; i-- {
		if state[i] != v {
			break
		}
		run++
	}
	return run
}

// maxRun finds the longest run of v anywhere in the string.
func maxRun(state []float64, v float64) float64 {
	var best, run float64
	for _, s := range state {
		if s == v {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}
