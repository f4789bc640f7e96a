package opt

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// NoLimit removes the iteration bound when used as SearchConfig.MaxIters.
const NoLimit = math.MaxInt

// Algorithm names a built-in search strategy. The names double as CLI and
// experiment identifiers.
type Algorithm string

const (
	AlgHillClimb       Algorithm = "hc"
	AlgRandomHillClimb Algorithm = "rhc"
	AlgAnneal          Algorithm = "sa"
	AlgGenetic         Algorithm = "ga"
	AlgMIMIC           Algorithm = "mimic"
	AlgGradient        Algorithm = "gd"
	AlgMayfly          Algorithm = "mayfly"
)

// Algorithms lists every built-in strategy name.
func Algorithms() []Algorithm {
	return []Algorithm{AlgHillClimb, AlgRandomHillClimb, AlgAnneal, AlgGenetic, AlgMIMIC, AlgGradient, AlgMayfly}
}

// SearchConfig carries the knobs every strategy shares.
type SearchConfig struct {
	// MaxAttempts is how many consecutive stalled iterations are tolerated
	// before the search stops. Each strategy documents what counts as a
	// stall.
	MaxAttempts int `json:"maxAttempts"`
	// MaxIters bounds the total iteration count. Use NoLimit to run until
	// the attempt counter stops the search.
	MaxIters int `json:"maxIters"`
	// Curve records the best adjusted-to-raw fitness after each iteration.
	Curve bool `json:"curve"`
	// InitState starts the search from a specific state instead of a random
	// one. It is validated against the problem before use.
	InitState []float64 `json:"initState,omitempty"`
	// Seed fixes the random stream. Zero seeds from the clock.
	Seed int64 `json:"seed"`
}

// DefaultSearchConfig mirrors the conventional defaults: ten attempts,
// unbounded iterations, no curve.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{MaxAttempts: 10, MaxIters: NoLimit}
}

func (c *SearchConfig) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts %d, want >= 1", ErrInvalidParameter, c.MaxAttempts)
	}
	if c.MaxIters < 1 {
		return fmt.Errorf("%w: max iters %d, want >= 1", ErrInvalidParameter, c.MaxIters)
	}
	return nil
}

// rng builds the search's single random source.
func (c *SearchConfig) rng() *rand.Rand {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// CurvePoint is one fitness-curve sample: the raw-sense best fitness seen so
// far, taken after the given one-based iteration.
type CurvePoint struct {
	Iteration   int     `json:"iteration"`
	BestFitness float64 `json:"bestFitness"`
}

// Result reports the outcome of one search run. BestFitness is in the
// problem's raw sense.
type Result struct {
	BestState   []float64    `json:"bestState"`
	BestFitness float64      `json:"bestFitness"`
	Curve       []CurvePoint `json:"curve,omitempty"`
	Iterations  int          `json:"iterations"`
	FnEvals     int          `json:"fnEvals"`
}

// initState installs the configured initial state, or a random one.
func initState(p Problem, cfg *SearchConfig, rng *rand.Rand) error {
	if cfg.InitState != nil {
		return p.SetState(cfg.InitState)
	}
	p.Reset(rng)
	return nil
}

// rawFitness converts an adjusted fitness back to the problem's sense.
func rawFitness(p Problem, adjusted float64) float64 {
	if p.Maximize() {
		return adjusted
	}
	return -adjusted
}
