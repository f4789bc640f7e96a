package store

import (
	"fmt"
	"math"
	"time"
)

// RunConfig holds the declarative description of an optimization run
// (run record copy). This avoids import cycles with the server package.
type RunConfig struct {
	Problem      string  `json:"problem"` // generator name, e.g. onemax, tsp
	Size         int     `json:"size"`
	ProblemSeed  int64   `json:"problemSeed"` // instance seed for the generator
	Algorithm    string  `json:"algorithm"`   // hc, rhc, sa, ga, mimic
	MaxAttempts  int     `json:"maxAttempts"`
	MaxIters     int     `json:"maxIters"`
	Seed         int64   `json:"seed"` // search seed (0 = clock)
	Restarts     int     `json:"restarts,omitempty"`
	Schedule     string  `json:"schedule,omitempty"` // geom, arith, exp
	PopSize      int     `json:"popSize,omitempty"`
	MutationProb float64 `json:"mutationProb,omitempty"`
	KeepPct      float64 `json:"keepPct,omitempty"`
}

// RunRecord represents a finished optimization run in persistable form.
// All fields are serialized to JSON.
//
// A record stores the OUTCOME of a run, not the search state: the best
// state and fitness found, the counters, and the full RunConfig that
// produced them. Because every source of randomness is seeded through the
// config, a record is re-runnable. Saving optimizer internals (population,
// temperature, attempt counters) would tie the format to individual
// algorithms for no benefit.
type RunRecord struct {
	// RunID is the unique identifier for this run
	RunID string `json:"runId"`

	// BestState is the best state vector found by the search
	BestState []float64 `json:"bestState"`

	// BestFitness is the fitness of BestState on the problem's own scale
	// (higher is better for maximization, lower for minimization)
	BestFitness float64 `json:"bestFitness"`

	// Iterations is the number of search iterations performed
	Iterations int `json:"iterations"`

	// FnEvals counts fitness-function evaluations over the whole run
	FnEvals int `json:"fnEvals"`

	// Elapsed is the wall-clock duration of the search
	Elapsed time.Duration `json:"elapsed"`

	// Timestamp records when this record was created
	Timestamp time.Time `json:"timestamp"`

	// Config holds the run configuration, enough to reproduce the run
	Config RunConfig `json:"config"`
}

// RunInfo contains metadata about a run without the full state vector.
// Used for listing runs without loading large states.
type RunInfo struct {
	// RunID is the unique identifier for this run
	RunID string `json:"runId"`

	// BestFitness is the fitness achieved by the run
	BestFitness float64 `json:"bestFitness"`

	// Iterations is the iteration count of the run
	Iterations int `json:"iterations"`

	// Timestamp records when the record was created
	Timestamp time.Time `json:"timestamp"`

	// Problem is the generator name the run optimized
	Problem string `json:"problem"`

	// Algorithm is the search algorithm name
	Algorithm string `json:"algorithm"`

	// Size is the problem size (state length)
	Size int `json:"size"`
}

// NewRunRecord creates a record from finished run state.
// This is a helper for converting runtime results to a persistable record.
func NewRunRecord(runID string, bestState []float64, bestFitness float64, iterations, fnEvals int, elapsed time.Duration, config RunConfig) *RunRecord {
	return &RunRecord{
		RunID:       runID,
		BestState:   bestState,
		BestFitness: bestFitness,
		Iterations:  iterations,
		FnEvals:     fnEvals,
		Elapsed:     elapsed,
		Timestamp:   time.Now(),
		Config:      config,
	}
}

// ToInfo converts a full RunRecord to RunInfo (metadata only).
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		RunID:       r.RunID,
		BestFitness: r.BestFitness,
		Iterations:  r.Iterations,
		Timestamp:   r.Timestamp,
		Problem:     r.Config.Problem,
		Algorithm:   r.Config.Algorithm,
		Size:        r.Config.Size,
	}
}

// Validate checks if the record has valid data.
// Returns an error if any required field is missing or invalid.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if r.BestState == nil {
		return &ValidationError{Field: "BestState", Reason: "cannot be nil"}
	}
	if len(r.BestState) == 0 {
		return &ValidationError{Field: "BestState", Reason: "cannot be empty"}
	}
	if math.IsNaN(r.BestFitness) {
		return &ValidationError{Field: "BestFitness", Reason: "cannot be NaN"}
	}
	if r.Iterations < 0 {
		return &ValidationError{Field: "Iterations", Reason: "cannot be negative"}
	}
	if r.FnEvals < 0 {
		return &ValidationError{Field: "FnEvals", Reason: "cannot be negative"}
	}
	if r.Elapsed < 0 {
		return &ValidationError{Field: "Elapsed", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if r.Config.Problem == "" {
		return &ValidationError{Field: "Config.Problem", Reason: "cannot be empty"}
	}
	if r.Config.Algorithm == "" {
		return &ValidationError{Field: "Config.Algorithm", Reason: "cannot be empty"}
	}
	if r.Config.Size <= 0 {
		return &ValidationError{Field: "Config.Size", Reason: "must be positive"}
	}
	if r.Config.MaxIters <= 0 {
		return &ValidationError{Field: "Config.MaxIters", Reason: "must be positive"}
	}
	if r.Config.MaxAttempts <= 0 {
		return &ValidationError{Field: "Config.MaxAttempts", Reason: "must be positive"}
	}
	// Generated problems carry one state entry per position
	if len(r.BestState) != r.Config.Size {
		return &ValidationError{
			Field:  "BestState",
			Reason: fmt.Sprintf("length mismatch: %d entries for size %d", len(r.BestState), r.Config.Size),
		}
	}
	return nil
}

// ValidationError represents a run record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
