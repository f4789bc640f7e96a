package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/randsearch/internal/bench"
	"github.com/cwbudde/randsearch/internal/opt"
)

// Experiment describes a parameter sweep: one generated problem instance,
// a set of seeds, and per-algorithm parameter grids. Every grid cell is run
// once per seed with the fitness curve enabled, and snapshot rows are taken
// at each listed iteration count.
type Experiment struct {
	// Name labels the output rows and file names
	Name string `json:"name"`

	// Problem is the generator name, e.g. onemax, tsp
	Problem string `json:"problem"`

	// Size is the generated problem size
	Size int `json:"size"`

	// ProblemSeed fixes the generated instance across all cells
	ProblemSeed int64 `json:"problemSeed"`

	// Seeds lists the search seeds; every cell runs once per seed
	Seeds []int64 `json:"seeds"`

	// Iterations lists the snapshot points. Each run uses the largest
	// value as its iteration budget.
	Iterations []int `json:"iterations"`

	// MaxAttempts is the shared non-improvement stop condition
	MaxAttempts int `json:"maxAttempts"`

	// Grids selects the algorithms to sweep and their parameters
	Grids Grids `json:"grids"`

	// Workers bounds the number of cells run concurrently. Zero means
	// one worker per CPU.
	Workers int `json:"workers,omitempty"`

	// OnProgress, when set, is called after each finished cell. It may be
	// called from multiple goroutines.
	OnProgress func(done, total int) `json:"-"`
}

// Grids holds one optional parameter grid per algorithm. A nil grid leaves
// that algorithm out of the experiment.
type Grids struct {
	RHC   *RHCGrid   `json:"rhc,omitempty"`
	SA    *SAGrid    `json:"sa,omitempty"`
	GA    *GAGrid    `json:"ga,omitempty"`
	MIMIC *MIMICGrid `json:"mimic,omitempty"`
}

// RHCGrid sweeps random-restart hill climbing over restart counts.
type RHCGrid struct {
	Restarts []int `json:"restarts,omitempty"`
}

// SAGrid sweeps simulated annealing over the cross product of cooling
// schedules and initial temperatures. Schedule names are resolved by
// opt.ScheduleByName; an empty list means geometric decay only.
type SAGrid struct {
	Schedules    []string  `json:"schedules,omitempty"`
	Temperatures []float64 `json:"temperatures,omitempty"`
}

// GAGrid sweeps the genetic algorithm over the cross product of population
// sizes and mutation probabilities.
type GAGrid struct {
	PopSizes      []int     `json:"popSizes,omitempty"`
	MutationProbs []float64 `json:"mutationProbs,omitempty"`
}

// MIMICGrid sweeps MIMIC over the cross product of population sizes and
// keep percentiles.
type MIMICGrid struct {
	PopSizes []int     `json:"popSizes,omitempty"`
	KeepPcts []float64 `json:"keepPcts,omitempty"`
	FastMode bool      `json:"fastMode,omitempty"`
}

// StatRow is one snapshot of one grid cell: the best fitness reached by the
// listed iteration, plus whole-run totals.
type StatRow struct {
	Experiment string        `json:"experiment"`
	Problem    string        `json:"problem"`
	Size       int           `json:"size"`
	Algorithm  string        `json:"algorithm"`
	Params     string        `json:"params"`
	Seed       int64         `json:"seed"`
	Iteration  int           `json:"iteration"`
	Fitness    float64       `json:"fitness"`
	FnEvals    int           `json:"fnEvals"`
	Elapsed    time.Duration `json:"elapsed"`
}

// CurveRow is one fitness-curve sample of one grid cell.
type CurveRow struct {
	Experiment string  `json:"experiment"`
	Algorithm  string  `json:"algorithm"`
	Params     string  `json:"params"`
	Seed       int64   `json:"seed"`
	Iteration  int     `json:"iteration"`
	Fitness    float64 `json:"fitness"`
}

// Results collects every row produced by an experiment, ordered by
// algorithm, parameter string, seed and iteration.
type Results struct {
	Stats  []StatRow  `json:"stats"`
	Curves []CurveRow `json:"curves"`
}

// cell is one (algorithm, params, seed) combination.
type cell struct {
	algorithm opt.Algorithm
	params    string
	seed      int64
	run       func(p opt.Problem, base opt.SearchConfig) (*opt.Result, error)
}

type cellOutcome struct {
	stats  []StatRow
	curves []CurveRow
	err    error
}

// Validate reports the first problem with the experiment definition. The
// problem generator is exercised once so unknown names and bad sizes fail
// before any cell runs.
func (e *Experiment) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: experiment name cannot be empty", opt.ErrInvalidParameter)
	}
	if _, err := bench.Generate(e.Problem, e.Size, e.ProblemSeed); err != nil {
		return err
	}
	if len(e.Seeds) == 0 {
		return fmt.Errorf("%w: experiment needs at least one seed", opt.ErrInvalidParameter)
	}
	if len(e.Iterations) == 0 {
		return fmt.Errorf("%w: experiment needs at least one iteration snapshot", opt.ErrInvalidParameter)
	}
	for _, it := range e.Iterations {
		if it < 1 {
			return fmt.Errorf("%w: iteration snapshot %d, want >= 1", opt.ErrInvalidParameter, it)
		}
	}
	if e.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts %d, want >= 1", opt.ErrInvalidParameter, e.MaxAttempts)
	}
	if e.Workers < 0 {
		return fmt.Errorf("%w: workers %d, want >= 0", opt.ErrInvalidParameter, e.Workers)
	}
	g := e.Grids
	if g.RHC == nil && g.SA == nil && g.GA == nil && g.MIMIC == nil {
		return fmt.Errorf("%w: experiment needs at least one algorithm grid", opt.ErrInvalidParameter)
	}
	if g.SA != nil {
		for _, name := range g.SA.Schedules {
			if _, err := opt.ScheduleByName(name, 1); err != nil {
				return err
			}
		}
	}
	return nil
}

// CellCount returns the number of (algorithm, params, seed) combinations
// the experiment will run.
func (e *Experiment) CellCount() int {
	return len(e.cells())
}

// cells expands the grids into the full run list. The order is fixed:
// algorithms in rhc, sa, ga, mimic order, parameters as listed, seeds as
// listed. Results keep this order no matter how cells are scheduled.
func (e *Experiment) cells() []cell {
	var cells []cell
	add := func(algorithm opt.Algorithm, params string, run func(p opt.Problem, base opt.SearchConfig) (*opt.Result, error)) {
		for _, seed := range e.Seeds {
			c := cell{algorithm: algorithm, params: params, seed: seed, run: run}
			cells = append(cells, c)
		}
	}
	if g := e.Grids.RHC; g != nil {
		for _, restarts := range defaultInts(g.Restarts, 0) {
			add(opt.AlgRandomHillClimb, fmt.Sprintf("restarts=%d", restarts), func(p opt.Problem, base opt.SearchConfig) (*opt.Result, error) {
				return opt.RandomHillClimb(p, opt.HillClimbConfig{SearchConfig: base, Restarts: restarts})
			})
		}
	}
	if g := e.Grids.SA; g != nil {
		for _, schedName := range defaultStrings(g.Schedules, "geom") {
			for _, temp := range defaultFloats(g.Temperatures, 1.0) {
				add(opt.AlgAnneal, fmt.Sprintf("sched=%s,temp=%v", schedName, temp), func(p opt.Problem, base opt.SearchConfig) (*opt.Result, error) {
					sched, err := opt.ScheduleByName(schedName, temp)
					if err != nil {
						return nil, err
					}
					return opt.Anneal(p, opt.AnnealConfig{SearchConfig: base, Schedule: sched})
				})
			}
		}
	}
	if g := e.Grids.GA; g != nil {
		for _, pop := range defaultInts(g.PopSizes, 200) {
			for _, mut := range defaultFloats(g.MutationProbs, 0.1) {
				add(opt.AlgGenetic, fmt.Sprintf("pop=%d,mut=%v", pop, mut), func(p opt.Problem, base opt.SearchConfig) (*opt.Result, error) {
					cfg := opt.DefaultGeneticConfig()
					cfg.SearchConfig = base
					cfg.PopSize = pop
					cfg.MutationProb = mut
					return opt.Genetic(p, cfg)
				})
			}
		}
	}
	if g := e.Grids.MIMIC; g != nil {
		for _, pop := range defaultInts(g.PopSizes, 200) {
			for _, keep := range defaultFloats(g.KeepPcts, 0.2) {
				fast := g.FastMode
				add(opt.AlgMIMIC, fmt.Sprintf("pop=%d,keep=%v,fast=%t", pop, keep, fast), func(p opt.Problem, base opt.SearchConfig) (*opt.Result, error) {
					cfg := opt.DefaultMIMICConfig()
					cfg.SearchConfig = base
					cfg.PopSize = pop
					cfg.KeepPct = keep
					cfg.FastMode = fast
					return opt.MIMIC(p, cfg)
				})
			}
		}
	}
	return cells
}

// Run executes every grid cell on a bounded worker pool and collects the
// snapshot and curve rows. Rows come back in deterministic cell order.
// Cancelling the context abandons unfinished cells and returns its error.
func (e *Experiment) Run(ctx context.Context) (*Results, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	cells := e.cells()
	snapshots := snapshotList(e.Iterations)
	budget := snapshots[len(snapshots)-1]

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(cells) {
		workers = len(cells)
	}

	slog.Info("Experiment started",
		"experiment", e.Name,
		"problem", e.Problem,
		"size", e.Size,
		"cells", len(cells),
		"workers", workers)
	start := time.Now()

	// Each worker writes only its own outcome slots, so the slice needs
	// no lock and the final order never depends on scheduling.
	outcomes := make([]cellOutcome, len(cells))
	jobs := make(chan int)
	var done atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = e.runCell(cells[idx], budget, snapshots)
				n := done.Add(1)
				if e.OnProgress != nil {
					e.OnProgress(int(n), len(cells))
				}
			}
		}()
	}

dispatch:
	for i := range cells {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		slog.Info("Experiment cancelled", "experiment", e.Name, "cells_done", done.Load())
		return nil, err
	}

	results := &Results{}
	for i, out := range outcomes {
		if out.err != nil {
			c := cells[i]
			return nil, fmt.Errorf("cell %s[%s] seed %d: %w", c.algorithm, c.params, c.seed, out.err)
		}
		results.Stats = append(results.Stats, out.stats...)
		results.Curves = append(results.Curves, out.curves...)
	}

	slog.Info("Experiment finished",
		"experiment", e.Name,
		"cells", len(cells),
		"stat_rows", len(results.Stats),
		"elapsed", time.Since(start))
	return results, nil
}

// runCell generates a fresh problem instance and runs one search. A fresh
// instance keeps concurrent cells from sharing mutable problem state.
func (e *Experiment) runCell(c cell, budget int, snapshots []int) cellOutcome {
	problem, err := bench.Generate(e.Problem, e.Size, e.ProblemSeed)
	if err != nil {
		return cellOutcome{err: err}
	}

	base := opt.DefaultSearchConfig()
	base.MaxAttempts = e.MaxAttempts
	base.MaxIters = budget
	base.Curve = true
	base.Seed = c.seed

	start := time.Now()
	res, err := c.run(problem, base)
	if err != nil {
		return cellOutcome{err: err}
	}
	elapsed := time.Since(start)

	out := cellOutcome{curves: make([]CurveRow, 0, len(res.Curve))}
	for _, point := range res.Curve {
		out.curves = append(out.curves, CurveRow{
			Experiment: e.Name,
			Algorithm:  string(c.algorithm),
			Params:     c.params,
			Seed:       c.seed,
			Iteration:  point.Iteration,
			Fitness:    point.BestFitness,
		})
	}
	for _, snap := range snapshots {
		out.stats = append(out.stats, StatRow{
			Experiment: e.Name,
			Problem:    e.Problem,
			Size:       e.Size,
			Algorithm:  string(c.algorithm),
			Params:     c.params,
			Seed:       c.seed,
			Iteration:  snap,
			Fitness:    fitnessAt(res.Curve, snap),
			FnEvals:    res.FnEvals,
			Elapsed:    elapsed,
		})
	}
	return out
}

// fitnessAt returns the best fitness reached by the given iteration: the
// last curve point at or before it. Runs that stop early keep their final
// value for later snapshots.
func fitnessAt(curve []opt.CurvePoint, iteration int) float64 {
	fitness := curve[0].BestFitness
	for _, point := range curve {
		if point.Iteration > iteration {
			break
		}
		fitness = point.BestFitness
	}
	return fitness
}

// snapshotList returns the snapshot iterations sorted ascending with
// duplicates removed.
func snapshotList(iterations []int) []int {
	snapshots := make([]int, len(iterations))
	copy(snapshots, iterations)
	sort.Ints(snapshots)
	unique := snapshots[:0]
	for i, s := range snapshots {
		if i == 0 || s != snapshots[i-1] {
			unique = append(unique, s)
		}
	}
	return unique
}

func defaultInts(values []int, fallback int) []int {
	if len(values) == 0 {
		return []int{fallback}
	}
	return values
}

func defaultFloats(values []float64, fallback float64) []float64 {
	if len(values) == 0 {
		return []float64{fallback}
	}
	return values
}

func defaultStrings(values []string, fallback string) []string {
	if len(values) == 0 {
		return []string{fallback}
	}
	return values
}
