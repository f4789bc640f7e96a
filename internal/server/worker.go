package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/randsearch/internal/bench"
	"github.com/cwbudde/randsearch/internal/runner"
)

// runJob executes an experiment job in the background.
// If resultsDir is not empty, the finished experiment is also written there
// as CSV artifacts.
func runJob(ctx context.Context, jm *JobManager, resultsDir string, jobID string) error {
	// Get the job
	job, exists := jm.SnapshotJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	exp := job.Config
	total := exp.CellCount()

	// Update state to running
	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
		j.CellsTotal = total
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "experiment", exp.Name, "problem", exp.Problem, "cells", total)

	// Feed per-cell completions back into the job record
	exp.OnProgress = func(done, total int) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.CellsDone = done
		})
	}

	// Check for cancellation before starting expensive operation
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	// Start progress monitoring goroutine
	start := time.Now()
	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, start, progressDone)

	results, err := exp.Run(ctx)
	close(progressDone)
	if err != nil {
		// Cancellation is interruption between cells, not a failure.
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID)
			return ctx.Err()
		}
		markJobFailed(jm, jobID, err)
		return err
	}
	elapsed := time.Since(start)

	// Update job with results
	best := bestFitness(&exp, results)
	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.CellsDone = total
		j.BestFitness = best
		j.EndTime = &endTime
		j.results = results
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"cells", total,
		"stat_rows", len(results.Stats),
		"best_fitness", best,
	)

	if resultsDir != "" {
		if err := saveJobArtifacts(resultsDir, jobID, &exp, results); err != nil {
			// Don't fail the job if artifacts fail - the results are in memory
			slog.Warn("Failed to save job artifacts", "job_id", jobID, "error", err)
		}
	}

	// Broadcast final completion event
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:      jobID,
		State:      StateCompleted,
		CellsDone:  total,
		CellsTotal: total,
		ElapsedSec: elapsed.Seconds(),
		Timestamp:  time.Now(),
	})

	return nil
}

// monitorProgress periodically broadcasts progress events while the
// experiment runs
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, startTime time.Time, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Get current job state
			job, exists := jm.SnapshotJob(jobID)
			if !exists {
				return
			}

			// Broadcast progress event
			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:      jobID,
				State:      job.State,
				CellsDone:  job.CellsDone,
				CellsTotal: job.CellsTotal,
				ElapsedSec: time.Since(startTime).Seconds(),
				Timestamp:  time.Now(),
			})
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}

// bestFitness picks the best final fitness across all cells in the
// problem's own sense, so tour lengths count down and bit sums count up.
func bestFitness(exp *runner.Experiment, results *runner.Results) float64 {
	maximize := true
	if p, err := bench.Generate(exp.Problem, exp.Size, exp.ProblemSeed); err == nil {
		maximize = p.Maximize()
	}

	best := results.Stats[0].Fitness
	for _, row := range results.Stats[1:] {
		if maximize && row.Fitness > best {
			best = row.Fitness
		}
		if !maximize && row.Fitness < best {
			best = row.Fitness
		}
	}
	return best
}

// saveJobArtifacts writes the experiment's stats and curves CSV files to the
// results directory
func saveJobArtifacts(resultsDir, jobID string, exp *runner.Experiment, results *runner.Results) error {
	name := fmt.Sprintf("%s-%s", exp.Name, jobID[:8])
	statsPath, curvesPath, err := results.WriteCSVFiles(resultsDir, name)
	if err != nil {
		return fmt.Errorf("failed to write experiment CSV: %w", err)
	}

	slog.Debug("Job artifacts saved", "job_id", jobID, "stats", statsPath, "curves", curvesPath)
	return nil
}
