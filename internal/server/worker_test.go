package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/randsearch/internal/runner"
)

func TestRunJob_Success(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testExperiment())

	ctx := context.Background()
	err := runJob(ctx, jm, "", job.ID)

	if err != nil {
		t.Errorf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Job should be completed, got %s", updated.State)
	}

	// Two cells, two snapshots each.
	if updated.CellsTotal != 2 {
		t.Errorf("Expected 2 cells, got %d", updated.CellsTotal)
	}
	if updated.CellsDone != updated.CellsTotal {
		t.Errorf("Expected all cells done, got %d of %d", updated.CellsDone, updated.CellsTotal)
	}
	if updated.results == nil {
		t.Fatal("Results should be attached to the job")
	}
	if len(updated.results.Stats) != 4 {
		t.Errorf("Expected 4 stat rows, got %d", len(updated.results.Stats))
	}
	if updated.BestFitness <= 0 {
		t.Errorf("Expected positive best fitness on onemax, got %v", updated.BestFitness)
	}
	if updated.EndTime == nil {
		t.Error("EndTime should be set")
	}
}

func TestRunJob_SavesArtifacts(t *testing.T) {
	resultsDir := t.TempDir()

	jm := NewJobManager()
	cfg := testExperiment()
	job := jm.CreateJob(cfg)

	if err := runJob(context.Background(), jm, resultsDir, job.ID); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	prefix := cfg.Name + "-" + job.ID[:8]
	for _, suffix := range []string{"_stats.csv", "_curves.csv"} {
		path := filepath.Join(resultsDir, prefix+suffix)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected artifact %s: %v", path, err)
		}
	}
}

func TestRunJob_InvalidConfig(t *testing.T) {
	jm := NewJobManager()

	// Bypasses the API validation on purpose.
	cfg := testExperiment()
	cfg.Problem = "nonexistent"
	job := jm.CreateJob(cfg)

	ctx := context.Background()
	err := runJob(ctx, jm, "", job.ID)

	if err == nil {
		t.Error("runJob should fail with unknown problem")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}

	if updated.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	jm := NewJobManager()
	cfg := runner.Experiment{
		Name:        "cancel-test",
		Problem:     "onemax",
		Size:        500,
		ProblemSeed: 7,
		Seeds:       []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		Iterations:  []int{100000},
		MaxAttempts: 100000, // never stop on attempts
		Workers:     1,
		Grids: runner.Grids{
			SA: &runner.SAGrid{Temperatures: []float64{1}},
		},
	}
	job := jm.CreateJob(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- runJob(ctx, jm, "", job.ID)
	}()

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	// Cancel the job
	cancel()

	// Wait for completion
	err := <-done

	if err == nil {
		t.Error("runJob should return error when cancelled")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Job should be cancelled, got %s", updated.State)
	}
}

func TestBestFitness_MinimizationProblem(t *testing.T) {
	exp := runner.Experiment{Problem: "tsp", Size: 6, ProblemSeed: 3}
	results := &runner.Results{
		Stats: []runner.StatRow{
			{Fitness: 12.5},
			{Fitness: 9.25},
			{Fitness: 10},
		},
	}

	if got := bestFitness(&exp, results); got != 9.25 {
		t.Errorf("Expected shortest tour 9.25, got %v", got)
	}
}

func TestBestFitness_MaximizationProblem(t *testing.T) {
	exp := runner.Experiment{Problem: "onemax", Size: 8, ProblemSeed: 3}
	results := &runner.Results{
		Stats: []runner.StatRow{
			{Fitness: 4},
			{Fitness: 7},
			{Fitness: 6},
		},
	}

	if got := bestFitness(&exp, results); got != 7 {
		t.Errorf("Expected best bit count 7, got %v", got)
	}
}
