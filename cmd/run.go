package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/randsearch/internal/bench"
	"github.com/cwbudde/randsearch/internal/opt"
	"github.com/cwbudde/randsearch/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	problemName  string
	problemSize  int
	problemSeed  int64
	algName      string
	maxIters     int
	maxAttempts  int
	searchSeed   int64
	restarts     int
	schedName    string
	initTemp     float64
	popSize      int
	mutationProb float64
	keepPct      float64
	fastMode     bool
	saveRun      bool
	saveDataDir  string
	curveOut     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single optimization search",
	Long: `Runs one search algorithm over a named benchmark problem and prints the
best state found. The fitness curve can be written to CSV and the full
run record saved for later listing.`,
	RunE: runSearch,
}

func init() {
	runCmd.Flags().StringVar(&problemName, "problem", "", "Benchmark problem: "+strings.Join(bench.Names(), ", ")+" (required)")
	runCmd.Flags().IntVar(&problemSize, "size", 50, "Problem size (state length)")
	runCmd.Flags().Int64Var(&problemSeed, "problem-seed", 0, "Seed for random problem instances (kcolor, knapsack, tsp)")
	runCmd.Flags().StringVar(&algName, "algorithm", "rhc", "Algorithm: hc, rhc, sa, ga, mimic, gd, mayfly")
	runCmd.Flags().IntVar(&maxIters, "max-iters", 1000, "Max iterations")
	runCmd.Flags().IntVar(&maxAttempts, "max-attempts", 10, "Non-improving iterations tolerated before stopping")
	runCmd.Flags().Int64Var(&searchSeed, "seed", 42, "Random seed (0 = seed from clock)")
	runCmd.Flags().IntVar(&restarts, "restarts", 0, "Extra random restarts (hc, rhc)")
	runCmd.Flags().StringVar(&schedName, "schedule", "geom", "Cooling schedule: geom, arith, exp (sa)")
	runCmd.Flags().Float64Var(&initTemp, "temp", 1.0, "Initial temperature (sa)")
	runCmd.Flags().IntVar(&popSize, "pop", 200, "Population size (ga, mimic, mayfly)")
	runCmd.Flags().Float64Var(&mutationProb, "mutation", 0.1, "Mutation probability (ga)")
	runCmd.Flags().Float64Var(&keepPct, "keep-pct", 0.2, "Fraction of population kept per generation (mimic)")
	runCmd.Flags().BoolVar(&fastMode, "fast", false, "Reuse unchanged mutual-information terms (mimic)")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "Save the run record and curve under the data directory")
	runCmd.Flags().StringVar(&saveDataDir, "data-dir", "./data", "Base directory for saved runs")
	runCmd.Flags().StringVar(&curveOut, "curve-out", "", "Write the fitness curve to this CSV file")

	runCmd.MarkFlagRequired("problem")
	rootCmd.AddCommand(runCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	slog.Info("Starting search", "problem", problemName, "size", problemSize, "algorithm", algName, "max_iters", maxIters)

	p, err := bench.Generate(problemName, problemSize, problemSeed)
	if err != nil {
		return fmt.Errorf("failed to build problem: %w", err)
	}

	needCurve := saveRun || curveOut != ""
	base := opt.SearchConfig{
		MaxAttempts: maxAttempts,
		MaxIters:    maxIters,
		Curve:       needCurve,
		Seed:        searchSeed,
	}

	// Run the search
	start := time.Now()
	var result *opt.Result

	switch opt.Algorithm(algName) {
	case opt.AlgHillClimb:
		result, err = opt.HillClimb(p, opt.HillClimbConfig{SearchConfig: base, Restarts: restarts})
	case opt.AlgRandomHillClimb:
		result, err = opt.RandomHillClimb(p, opt.HillClimbConfig{SearchConfig: base, Restarts: restarts})
	case opt.AlgAnneal:
		var sched opt.Schedule
		sched, err = opt.ScheduleByName(schedName, initTemp)
		if err != nil {
			return err
		}
		result, err = opt.Anneal(p, opt.AnnealConfig{SearchConfig: base, Schedule: sched})
	case opt.AlgGenetic:
		result, err = opt.Genetic(p, opt.GeneticConfig{SearchConfig: base, PopSize: popSize, MutationProb: mutationProb})
	case opt.AlgMIMIC:
		result, err = opt.MIMIC(p, opt.MIMICConfig{SearchConfig: base, PopSize: popSize, KeepPct: keepPct, FastMode: fastMode})
	case opt.AlgGradient:
		cp, ok := p.(*opt.ContinuousProblem)
		if !ok {
			return fmt.Errorf("algorithm %q needs a continuous problem, %s is not", algName, problemName)
		}
		result, err = opt.GradientDescent(cp, base)
	case opt.AlgMayfly:
		cp, ok := p.(*opt.ContinuousProblem)
		if !ok {
			return fmt.Errorf("algorithm %q needs a continuous problem, %s is not", algName, problemName)
		}
		result, err = opt.RunMayfly(cp, opt.MayflyConfig{MaxIters: maxIters, PopSize: popSize, Seed: searchSeed})
	default:
		return fmt.Errorf("unknown algorithm: %s", algName)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	elapsed := time.Since(start)

	// Compute throughput (fitness evaluations per second)
	eps := float64(result.FnEvals) / elapsed.Seconds()

	slog.Info("Search complete",
		"elapsed", elapsed,
		"best_fitness", result.BestFitness,
		"iterations", result.Iterations,
		"fn_evals", result.FnEvals,
		"evals_per_second", fmt.Sprintf("%.0f", eps),
	)

	if curveOut != "" {
		if err := writeCurveCSV(curveOut, result.Curve); err != nil {
			return fmt.Errorf("failed to write curve: %w", err)
		}
		fmt.Printf("Wrote %s (%d points)\n", curveOut, len(result.Curve))
	}

	if saveRun {
		runID, err := persistRun(result, elapsed)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Printf("Saved run %s\n", runID)
	}

	fmt.Printf("%s on %s-%d: best fitness %.4f (%d iters, %.0f evals/sec)\n",
		algName, problemName, problemSize, result.BestFitness, result.Iterations, eps)

	return nil
}

// persistRun writes the run record and its fitness curve under the data
// directory and returns the new run ID.
func persistRun(result *opt.Result, elapsed time.Duration) (string, error) {
	runStore, err := store.NewFSStore(saveDataDir)
	if err != nil {
		return "", fmt.Errorf("failed to create run store: %w", err)
	}

	config := store.RunConfig{
		Problem:     problemName,
		Size:        problemSize,
		ProblemSeed: problemSeed,
		Algorithm:   algName,
		MaxAttempts: maxAttempts,
		MaxIters:    maxIters,
		Seed:        searchSeed,
	}
	switch opt.Algorithm(algName) {
	case opt.AlgHillClimb, opt.AlgRandomHillClimb:
		config.Restarts = restarts
	case opt.AlgAnneal:
		config.Schedule = schedName
	case opt.AlgGenetic:
		config.PopSize = popSize
		config.MutationProb = mutationProb
	case opt.AlgMIMIC:
		config.PopSize = popSize
		config.KeepPct = keepPct
	case opt.AlgMayfly:
		config.PopSize = popSize
	}

	runID := uuid.New().String()
	record := store.NewRunRecord(runID, result.BestState, result.BestFitness, result.Iterations, result.FnEvals, elapsed, config)
	if err := runStore.SaveRun(runID, record); err != nil {
		return "", err
	}

	if len(result.Curve) > 0 {
		cw, err := store.NewCurveWriter(saveDataDir, runID, false)
		if err != nil {
			return "", err
		}
		now := time.Now()
		for _, pt := range result.Curve {
			entry := store.CurveEntry{Iteration: pt.Iteration, Fitness: pt.BestFitness, Timestamp: now}
			if err := cw.Write(entry); err != nil {
				cw.Close()
				return "", err
			}
		}
		if err := cw.Close(); err != nil {
			return "", err
		}
	}

	slog.Info("Run saved", "run_id", runID, "data_dir", saveDataDir)
	return runID, nil
}

// writeCurveCSV writes iteration/fitness pairs as a two-column CSV file.
func writeCurveCSV(path string, curve []opt.CurvePoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"iteration", "fitness"}); err != nil {
		return err
	}
	for _, pt := range curve {
		rec := []string{strconv.Itoa(pt.Iteration), strconv.FormatFloat(pt.BestFitness, 'g', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
