package runner

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func sampleResults() *Results {
	return &Results{
		Stats: []StatRow{
			{
				Experiment: "demo",
				Problem:    "onemax",
				Size:       10,
				Algorithm:  "rhc",
				Params:     "restarts=0",
				Seed:       42,
				Iteration:  5,
				Fitness:    6.5,
				FnEvals:    120,
				Elapsed:    1500 * time.Millisecond,
			},
			{
				Experiment: "demo",
				Problem:    "onemax",
				Size:       10,
				Algorithm:  "sa",
				Params:     "sched=geom,temp=10",
				Seed:       42,
				Iteration:  5,
				Fitness:    7,
				FnEvals:    80,
				Elapsed:    250 * time.Millisecond,
			},
		},
		Curves: []CurveRow{
			{Experiment: "demo", Algorithm: "rhc", Params: "restarts=0", Seed: 42, Iteration: 1, Fitness: 4},
			{Experiment: "demo", Algorithm: "rhc", Params: "restarts=0", Seed: 42, Iteration: 2, Fitness: 6.5},
		},
	}
}

func TestWriteStatsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatsCSV(&buf, sampleResults().Stats); err != nil {
		t.Fatalf("WriteStatsCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], statsHeader) {
		t.Errorf("Expected header %v, got %v", statsHeader, records[0])
	}

	expected := []string{"demo", "onemax", "10", "rhc", "restarts=0", "42", "5", "6.5", "120", "1.5"}
	if !reflect.DeepEqual(records[1], expected) {
		t.Errorf("Expected row %v, got %v", expected, records[1])
	}
	if records[2][7] != "7" {
		t.Errorf("Expected fitness 7, got %q", records[2][7])
	}
}

func TestWriteCurvesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCurvesCSV(&buf, sampleResults().Curves); err != nil {
		t.Fatalf("WriteCurvesCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], curvesHeader) {
		t.Errorf("Expected header %v, got %v", curvesHeader, records[0])
	}

	expected := []string{"demo", "rhc", "restarts=0", "42", "1", "4"}
	if !reflect.DeepEqual(records[1], expected) {
		t.Errorf("Expected row %v, got %v", expected, records[1])
	}
}

func TestWriteCSVFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")

	statsPath, curvesPath, err := sampleResults().WriteCSVFiles(dir, "demo")
	if err != nil {
		t.Fatalf("WriteCSVFiles failed: %v", err)
	}

	if filepath.Base(statsPath) != "demo_stats.csv" {
		t.Errorf("Expected demo_stats.csv, got %s", filepath.Base(statsPath))
	}
	if filepath.Base(curvesPath) != "demo_curves.csv" {
		t.Errorf("Expected demo_curves.csv, got %s", filepath.Base(curvesPath))
	}

	for _, path := range []string{statsPath, curvesPath} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", path, err)
		}
		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", path, err)
		}
		if len(records) != 3 {
			t.Errorf("Expected 3 records in %s, got %d", path, len(records))
		}
	}
}

func TestWriteCSVFilesEmptyResults(t *testing.T) {
	dir := t.TempDir()

	statsPath, _, err := (&Results{}).WriteCSVFiles(dir, "empty")
	if err != nil {
		t.Fatalf("WriteCSVFiles failed: %v", err)
	}

	data, err := os.ReadFile(statsPath)
	if err != nil {
		t.Fatalf("Failed to read stats file: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse stats file: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected header only, got %d records", len(records))
	}
}
