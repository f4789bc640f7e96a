package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cwbudde/randsearch/internal/bench"
	"github.com/cwbudde/randsearch/internal/runner"
	"github.com/spf13/cobra"
)

var (
	expName        string
	expProblem     string
	expSize        int
	expProblemSeed int64
	expSeeds       []int64
	expIterations  []int
	expMaxAttempts int
	expWorkers     int
	expAlgorithms  []string
	expRestarts    []int
	expSchedules   []string
	expTemps       []float64
	expGAPops      []int
	expGAMuts      []float64
	expMIMICPops   []int
	expMIMICKeeps  []float64
	expMIMICFast   bool
	expOutDir      string
	expSQLitePath  string
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Run a parameter-grid experiment",
	Long: `Sweeps algorithm parameter grids over a benchmark problem, one run per
grid cell and seed, and writes snapshot and curve rows to CSV files and
optionally a SQLite database.`,
	RunE: runExperiment,
}

func init() {
	experimentCmd.Flags().StringVar(&expName, "name", "", "Experiment name, used in output rows and file names (required)")
	experimentCmd.Flags().StringVar(&expProblem, "problem", "", "Benchmark problem: "+strings.Join(bench.Names(), ", ")+" (required)")
	experimentCmd.Flags().IntVar(&expSize, "size", 50, "Problem size (state length)")
	experimentCmd.Flags().Int64Var(&expProblemSeed, "problem-seed", 0, "Seed for random problem instances")
	experimentCmd.Flags().Int64SliceVar(&expSeeds, "seeds", []int64{1, 2, 3, 4, 5}, "Search seeds, one run per grid cell and seed")
	experimentCmd.Flags().IntSliceVar(&expIterations, "iters", []int{100, 1000, 10000}, "Snapshot iteration counts; the largest is the run budget")
	experimentCmd.Flags().IntVar(&expMaxAttempts, "max-attempts", 10, "Non-improving iterations tolerated before stopping")
	experimentCmd.Flags().IntVar(&expWorkers, "workers", 0, "Concurrent cells (0 = one per CPU)")
	experimentCmd.Flags().StringSliceVar(&expAlgorithms, "algorithms", []string{"rhc", "sa", "ga", "mimic"}, "Algorithms to sweep: rhc, sa, ga, mimic")
	experimentCmd.Flags().IntSliceVar(&expRestarts, "restarts", []int{0}, "Restart counts (rhc)")
	experimentCmd.Flags().StringSliceVar(&expSchedules, "schedules", []string{"geom"}, "Cooling schedules: geom, arith, exp (sa)")
	experimentCmd.Flags().Float64SliceVar(&expTemps, "temps", []float64{1}, "Initial temperatures (sa)")
	experimentCmd.Flags().IntSliceVar(&expGAPops, "ga-pops", []int{200}, "Population sizes (ga)")
	experimentCmd.Flags().Float64SliceVar(&expGAMuts, "ga-muts", []float64{0.1}, "Mutation probabilities (ga)")
	experimentCmd.Flags().IntSliceVar(&expMIMICPops, "mimic-pops", []int{200}, "Population sizes (mimic)")
	experimentCmd.Flags().Float64SliceVar(&expMIMICKeeps, "mimic-keeps", []float64{0.2}, "Keep fractions (mimic)")
	experimentCmd.Flags().BoolVar(&expMIMICFast, "mimic-fast", false, "Reuse unchanged mutual-information terms (mimic)")
	experimentCmd.Flags().StringVar(&expOutDir, "out", "./results", "Directory for the stats and curves CSV files")
	experimentCmd.Flags().StringVar(&expSQLitePath, "sqlite", "", "Also append rows to this SQLite database")

	experimentCmd.MarkFlagRequired("name")
	experimentCmd.MarkFlagRequired("problem")
	rootCmd.AddCommand(experimentCmd)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	exp := runner.Experiment{
		Name:        expName,
		Problem:     expProblem,
		Size:        expSize,
		ProblemSeed: expProblemSeed,
		Seeds:       expSeeds,
		Iterations:  expIterations,
		MaxAttempts: expMaxAttempts,
		Workers:     expWorkers,
	}

	for _, alg := range expAlgorithms {
		switch strings.ToLower(strings.TrimSpace(alg)) {
		case "rhc":
			exp.Grids.RHC = &runner.RHCGrid{Restarts: expRestarts}
		case "sa":
			exp.Grids.SA = &runner.SAGrid{Schedules: expSchedules, Temperatures: expTemps}
		case "ga":
			exp.Grids.GA = &runner.GAGrid{PopSizes: expGAPops, MutationProbs: expGAMuts}
		case "mimic":
			exp.Grids.MIMIC = &runner.MIMICGrid{PopSizes: expMIMICPops, KeepPcts: expMIMICKeeps, FastMode: expMIMICFast}
		default:
			return fmt.Errorf("unknown algorithm: %s", alg)
		}
	}

	if err := exp.Validate(); err != nil {
		return err
	}

	// Ctrl-C cancels between grid cells
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results, err := exp.Run(ctx)
	if err != nil {
		return fmt.Errorf("experiment failed: %w", err)
	}
	elapsed := time.Since(start)

	statsPath, curvesPath, err := results.WriteCSVFiles(expOutDir, expName)
	if err != nil {
		return fmt.Errorf("failed to write CSV files: %w", err)
	}

	if expSQLitePath != "" {
		sink, err := runner.OpenSQLiteSink(ctx, expSQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open SQLite sink: %w", err)
		}
		if err := sink.WriteResults(ctx, results); err != nil {
			sink.Close()
			return fmt.Errorf("failed to write SQLite rows: %w", err)
		}
		if err := sink.Close(); err != nil {
			return fmt.Errorf("failed to close SQLite sink: %w", err)
		}
	}

	slog.Info("Experiment written",
		"name", expName,
		"cells", exp.CellCount(),
		"stat_rows", len(results.Stats),
		"curve_rows", len(results.Curves),
		"elapsed", elapsed,
	)

	fmt.Printf("Wrote %s and %s (%d cells in %s)\n", statsPath, curvesPath, exp.CellCount(), elapsed.Round(time.Millisecond))
	if expSQLitePath != "" {
		fmt.Printf("Appended %d stat rows to %s\n", len(results.Stats), expSQLitePath)
	}

	return nil
}
