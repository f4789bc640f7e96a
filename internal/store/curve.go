package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CurveEntry represents a single point of the fitness history.
// Each entry is serialized as a JSON line in curve.jsonl.
type CurveEntry struct {
	// Iteration is the search iteration number
	Iteration int `json:"iteration"`

	// Fitness is the best fitness at this iteration, on the problem's scale
	Fitness float64 `json:"fitness"`

	// FnEvals is the cumulative evaluation count at this iteration
	FnEvals int `json:"fnEvals,omitempty"`

	// Timestamp records when this entry was created
	Timestamp time.Time `json:"timestamp"`

	// State is the best state at this iteration (optional, can be nil to
	// save space)
	State []float64 `json:"state,omitempty"`
}

// CurveWriter writes curve entries to a JSONL file.
// It uses buffered I/O for performance and is safe for concurrent use.
type CurveWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewCurveWriter creates a new curve writer for the given run.
// The curve file is created at <baseDir>/runs/<runID>/curve.jsonl.
// If append is true, new entries are appended to an existing file.
func NewCurveWriter(baseDir, runID string, append bool) (*CurveWriter, error) {
	runDir := filepath.Join(baseDir, "runs", runID)

	// Ensure run directory exists
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	path := filepath.Join(runDir, "curve.jsonl")

	// Open file in append or create mode
	var file *os.File
	var err error
	if append {
		file, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	} else {
		file, err = os.Create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open curve file: %w", err)
	}

	writer := bufio.NewWriterSize(file, 64*1024) // 64KB buffer

	return &CurveWriter{
		file:   file,
		writer: writer,
		path:   path,
	}, nil
}

// Write appends a curve entry to the file.
// The entry is buffered and will be written on Flush() or Close().
func (cw *CurveWriter) Write(entry CurveEntry) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	// Serialize to JSON
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal curve entry: %w", err)
	}

	// Write JSON line
	if _, err := cw.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write curve entry: %w", err)
	}

	// Write newline
	if err := cw.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// Flush writes any buffered data to the file.
func (cw *CurveWriter) Flush() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if err := cw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush curve writer: %w", err)
	}

	// Also sync to disk for durability
	if err := cw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync curve file: %w", err)
	}

	return nil
}

// Close flushes buffered data and closes the curve file.
func (cw *CurveWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	// Flush buffer first
	if err := cw.writer.Flush(); err != nil {
		cw.file.Close() // Try to close anyway
		return fmt.Errorf("failed to flush on close: %w", err)
	}

	// Close file
	if err := cw.file.Close(); err != nil {
		return fmt.Errorf("failed to close curve file: %w", err)
	}

	return nil
}

// Path returns the filesystem path to the curve file.
func (cw *CurveWriter) Path() string {
	return cw.path
}

// CurveReader reads curve entries from a JSONL file.
type CurveReader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// NewCurveReader creates a new curve reader for the given run.
func NewCurveReader(baseDir, runID string) (*CurveReader, error) {
	path := filepath.Join(baseDir, "runs", runID, "curve.jsonl")

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{RunID: runID}
		}
		return nil, fmt.Errorf("failed to open curve file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	// Set larger buffer for long lines (if states are included)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024) // 64KB initial, 1MB max

	return &CurveReader{
		file:    file,
		scanner: scanner,
	}, nil
}

// Read reads the next curve entry from the file.
// Returns io.EOF when no more entries are available.
func (cr *CurveReader) Read() (*CurveEntry, error) {
	if !cr.scanner.Scan() {
		// Check for error or EOF
		if err := cr.scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan curve line: %w", err)
		}
		return nil, io.EOF
	}

	line := cr.scanner.Bytes()
	var entry CurveEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal curve entry: %w", err)
	}

	return &entry, nil
}

// ReadAll reads all curve entries from the file.
func (cr *CurveReader) ReadAll() ([]CurveEntry, error) {
	var entries []CurveEntry

	for {
		entry, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return entries, nil
}

// Close closes the curve reader.
func (cr *CurveReader) Close() error {
	if err := cr.file.Close(); err != nil {
		return fmt.Errorf("failed to close curve file: %w", err)
	}
	return nil
}

// DeleteCurve removes the curve file for the given run.
// Returns nil if the file doesn't exist.
func DeleteCurve(baseDir, runID string) error {
	path := filepath.Join(baseDir, "runs", runID, "curve.jsonl")

	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete curve file: %w", err)
	}

	return nil
}
