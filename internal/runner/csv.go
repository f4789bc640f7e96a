package runner

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

var statsHeader = []string{"experiment", "problem", "size", "algorithm", "params", "seed", "iteration", "fitness", "fnEvals", "elapsedSec"}

var curvesHeader = []string{"experiment", "algorithm", "params", "seed", "iteration", "fitness"}

// WriteStatsCSV writes snapshot rows as CSV with a header line.
func WriteStatsCSV(w io.Writer, rows []StatRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statsHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Experiment,
			row.Problem,
			strconv.Itoa(row.Size),
			row.Algorithm,
			row.Params,
			strconv.FormatInt(row.Seed, 10),
			strconv.Itoa(row.Iteration),
			strconv.FormatFloat(row.Fitness, 'g', -1, 64),
			strconv.Itoa(row.FnEvals),
			strconv.FormatFloat(row.Elapsed.Seconds(), 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCurvesCSV writes fitness-curve rows as CSV with a header line.
func WriteCurvesCSV(w io.Writer, rows []CurveRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(curvesHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Experiment,
			row.Algorithm,
			row.Params,
			strconv.FormatInt(row.Seed, 10),
			strconv.Itoa(row.Iteration),
			strconv.FormatFloat(row.Fitness, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFiles writes <name>_stats.csv and <name>_curves.csv into dir,
// creating the directory if needed, and returns both paths.
func (r *Results) WriteCSVFiles(dir, name string) (statsPath, curvesPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	statsPath = filepath.Join(dir, name+"_stats.csv")
	if err := writeCSVFile(statsPath, func(w io.Writer) error {
		return WriteStatsCSV(w, r.Stats)
	}); err != nil {
		return "", "", err
	}

	curvesPath = filepath.Join(dir, name+"_curves.csv")
	if err := writeCSVFile(curvesPath, func(w io.Writer) error {
		return WriteCurvesCSV(w, r.Curves)
	}); err != nil {
		return "", "", err
	}

	slog.Debug("Experiment CSV written", "stats", statsPath, "curves", curvesPath)
	return statsPath, curvesPath, nil
}

func writeCSVFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
