package store

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestRunRecord_JSONSerialization(t *testing.T) {
	original := &RunRecord{
		RunID:       "test-run-123",
		BestState:   []float64{1, 1, 0, 1, 1, 1, 0, 1},
		BestFitness: 6,
		Iterations:  500,
		FnEvals:     750,
		Elapsed:     1500 * time.Millisecond,
		Timestamp:   time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
		Config: RunConfig{
			Problem:     "onemax",
			Size:        8,
			ProblemSeed: 1,
			Algorithm:   "rhc",
			MaxAttempts: 10,
			MaxIters:    1000,
			Seed:        42,
		},
	}

	// Serialize to JSON
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal record: %v", err)
	}

	// Verify JSON is not empty
	if len(data) == 0 {
		t.Fatal("Marshaled JSON is empty")
	}

	// Deserialize from JSON
	var restored RunRecord
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal record: %v", err)
	}

	// Verify all fields match
	if restored.RunID != original.RunID {
		t.Errorf("RunID mismatch: expected %s, got %s", original.RunID, restored.RunID)
	}
	if restored.BestFitness != original.BestFitness {
		t.Errorf("BestFitness mismatch: expected %f, got %f", original.BestFitness, restored.BestFitness)
	}
	if restored.Iterations != original.Iterations {
		t.Errorf("Iterations mismatch: expected %d, got %d", original.Iterations, restored.Iterations)
	}
	if restored.FnEvals != original.FnEvals {
		t.Errorf("FnEvals mismatch: expected %d, got %d", original.FnEvals, restored.FnEvals)
	}
	if restored.Elapsed != original.Elapsed {
		t.Errorf("Elapsed mismatch: expected %v, got %v", original.Elapsed, restored.Elapsed)
	}
	if !restored.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp mismatch: expected %v, got %v", original.Timestamp, restored.Timestamp)
	}
	if len(restored.BestState) != len(original.BestState) {
		t.Fatalf("BestState length mismatch: expected %d, got %d", len(original.BestState), len(restored.BestState))
	}
	for i := range original.BestState {
		if restored.BestState[i] != original.BestState[i] {
			t.Errorf("BestState[%d] mismatch: expected %f, got %f", i, original.BestState[i], restored.BestState[i])
		}
	}
	if restored.Config.Problem != original.Config.Problem {
		t.Errorf("Config.Problem mismatch: expected %s, got %s", original.Config.Problem, restored.Config.Problem)
	}
	if restored.Config.Algorithm != original.Config.Algorithm {
		t.Errorf("Config.Algorithm mismatch: expected %s, got %s", original.Config.Algorithm, restored.Config.Algorithm)
	}
	if restored.Config.Size != original.Config.Size {
		t.Errorf("Config.Size mismatch: expected %d, got %d", original.Config.Size, restored.Config.Size)
	}
}

func TestRunRecord_JSONIndented(t *testing.T) {
	record := &RunRecord{
		RunID:       "test-run",
		BestState:   []float64{1, 0, 1, 1},
		BestFitness: 3,
		Iterations:  100,
		FnEvals:     120,
		Elapsed:     time.Second,
		Timestamp:   time.Now(),
		Config: RunConfig{
			Problem:     "onemax",
			Size:        4,
			Algorithm:   "sa",
			MaxAttempts: 10,
			MaxIters:    100,
			Seed:        0,
		},
	}

	// Serialize with indentation (like FSStore does)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal with indent: %v", err)
	}

	// Verify it's valid JSON and can be unmarshaled
	var restored RunRecord
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal indented JSON: %v", err)
	}

	if restored.RunID != record.RunID {
		t.Errorf("RunID mismatch after indented serialization")
	}
}

func validRecord() *RunRecord {
	return &RunRecord{
		RunID:       "valid-run",
		BestState:   []float64{1, 1, 0, 1, 1, 1, 0, 1},
		BestFitness: 6,
		Iterations:  100,
		FnEvals:     150,
		Elapsed:     time.Second,
		Timestamp:   time.Now(),
		Config: RunConfig{
			Problem:     "onemax",
			Size:        8,
			Algorithm:   "rhc",
			MaxAttempts: 10,
			MaxIters:    1000,
			Seed:        42,
		},
	}
}

func TestRunRecord_Validate_Valid(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Errorf("Valid record should not have validation error: %v", err)
	}
}

func TestRunRecord_Validate_EmptyRunID(t *testing.T) {
	record := validRecord()
	record.RunID = ""

	err := record.Validate()
	if err == nil {
		t.Fatal("Expected validation error for empty RunID")
	}

	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("Expected ValidationError, got %T", err)
	}
}

func TestRunRecord_Validate_BestState(t *testing.T) {
	testCases := []struct {
		name      string
		bestState []float64
	}{
		{"nil state", nil},
		{"empty state", []float64{}},
		{"shorter than size", []float64{1, 2, 3}},
		{"longer than size", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record := validRecord()
			record.BestState = tc.bestState

			if err := record.Validate(); err == nil {
				t.Fatalf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestRunRecord_Validate_BadValues(t *testing.T) {
	testCases := []struct {
		name string
		mod  func(*RunRecord)
	}{
		{"NaN fitness", func(r *RunRecord) { r.BestFitness = math.NaN() }},
		{"negative iterations", func(r *RunRecord) { r.Iterations = -10 }},
		{"negative fnEvals", func(r *RunRecord) { r.FnEvals = -1 }},
		{"negative elapsed", func(r *RunRecord) { r.Elapsed = -time.Second }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record := validRecord()
			tc.mod(record)

			if err := record.Validate(); err == nil {
				t.Fatalf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestRunRecord_Validate_ZeroTimestamp(t *testing.T) {
	record := validRecord()
	record.Timestamp = time.Time{} // Zero value

	if err := record.Validate(); err == nil {
		t.Fatal("Expected validation error for zero timestamp")
	}
}

func TestRunRecord_Validate_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name string
		mod  func(*RunConfig)
	}{
		{"empty problem", func(c *RunConfig) { c.Problem = "" }},
		{"empty algorithm", func(c *RunConfig) { c.Algorithm = "" }},
		{"zero size", func(c *RunConfig) { c.Size = 0 }},
		{"negative size", func(c *RunConfig) { c.Size = -1 }},
		{"zero maxIters", func(c *RunConfig) { c.MaxIters = 0 }},
		{"zero maxAttempts", func(c *RunConfig) { c.MaxAttempts = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record := validRecord()
			tc.mod(&record.Config)

			if err := record.Validate(); err == nil {
				t.Fatalf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestRunInfo_FromRecord(t *testing.T) {
	record := &RunRecord{
		RunID:       "test-run",
		BestFitness: 0.123,
		Iterations:  500,
		Timestamp:   time.Now(),
		Config: RunConfig{
			Problem:   "tsp",
			Size:      20,
			Algorithm: "mimic",
		},
	}

	info := record.ToInfo()

	if info.RunID != record.RunID {
		t.Errorf("RunID mismatch: expected %s, got %s", record.RunID, info.RunID)
	}
	if info.BestFitness != record.BestFitness {
		t.Errorf("BestFitness mismatch: expected %f, got %f", record.BestFitness, info.BestFitness)
	}
	if info.Iterations != record.Iterations {
		t.Errorf("Iterations mismatch: expected %d, got %d", record.Iterations, info.Iterations)
	}
	if !info.Timestamp.Equal(record.Timestamp) {
		t.Errorf("Timestamp mismatch")
	}
	if info.Problem != record.Config.Problem {
		t.Errorf("Problem mismatch: expected %s, got %s", record.Config.Problem, info.Problem)
	}
	if info.Algorithm != record.Config.Algorithm {
		t.Errorf("Algorithm mismatch: expected %s, got %s", record.Config.Algorithm, info.Algorithm)
	}
	if info.Size != record.Config.Size {
		t.Errorf("Size mismatch: expected %d, got %d", record.Config.Size, info.Size)
	}
}

func TestNewRunRecord(t *testing.T) {
	runID := "test-run"
	bestState := []float64{1, 1, 1, 0}
	bestFitness := 3.0
	iterations := 500
	fnEvals := 600
	elapsed := 2 * time.Second
	config := RunConfig{
		Problem:     "onemax",
		Size:        4,
		Algorithm:   "ga",
		MaxAttempts: 10,
		MaxIters:    1000,
		Seed:        42,
	}

	record := NewRunRecord(runID, bestState, bestFitness, iterations, fnEvals, elapsed, config)

	if record.RunID != runID {
		t.Errorf("RunID mismatch: expected %s, got %s", runID, record.RunID)
	}
	if record.BestFitness != bestFitness {
		t.Errorf("BestFitness mismatch: expected %f, got %f", bestFitness, record.BestFitness)
	}
	if record.Iterations != iterations {
		t.Errorf("Iterations mismatch: expected %d, got %d", iterations, record.Iterations)
	}
	if record.FnEvals != fnEvals {
		t.Errorf("FnEvals mismatch: expected %d, got %d", fnEvals, record.FnEvals)
	}
	if record.Elapsed != elapsed {
		t.Errorf("Elapsed mismatch: expected %v, got %v", elapsed, record.Elapsed)
	}
	if record.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if len(record.BestState) != len(bestState) {
		t.Errorf("BestState length mismatch")
	}
	if err := record.Validate(); err != nil {
		t.Errorf("Record built by NewRunRecord should validate: %v", err)
	}
}
