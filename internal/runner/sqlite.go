package runner

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // SQLite driver
)

const statsSchema = `CREATE TABLE IF NOT EXISTS run_stats (
	experiment  TEXT NOT NULL,
	problem     TEXT NOT NULL,
	size        INTEGER NOT NULL,
	algorithm   TEXT NOT NULL,
	params      TEXT NOT NULL,
	seed        INTEGER NOT NULL,
	iteration   INTEGER NOT NULL,
	fitness     REAL NOT NULL,
	fn_evals    INTEGER NOT NULL,
	elapsed_sec REAL NOT NULL
)`

const curvesSchema = `CREATE TABLE IF NOT EXISTS run_curves (
	experiment TEXT NOT NULL,
	algorithm  TEXT NOT NULL,
	params     TEXT NOT NULL,
	seed       INTEGER NOT NULL,
	iteration  INTEGER NOT NULL,
	fitness    REAL NOT NULL
)`

// SQLiteSink appends experiment rows to the run_stats and run_curves tables
// of a SQLite database, creating both tables on open.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLiteSink opens or creates the database at path and ensures the
// schema exists.
func OpenSQLiteSink(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	for _, schema := range []string{statsSchema, curvesSchema} {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	slog.Debug("SQLite sink opened", "path", path)
	return &SQLiteSink{db: db}, nil
}

// WriteResults inserts every stat and curve row in one transaction.
func (s *SQLiteSink) WriteResults(ctx context.Context, r *Results) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := insertRows(ctx, tx, r); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	slog.Debug("Experiment rows inserted", "stats", len(r.Stats), "curves", len(r.Curves))
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, r *Results) error {
	stats, err := tx.PrepareContext(ctx, `INSERT INTO run_stats
		(experiment, problem, size, algorithm, params, seed, iteration, fitness, fn_evals, elapsed_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare stats insert: %w", err)
	}
	defer stats.Close()
	for _, row := range r.Stats {
		_, err := stats.ExecContext(ctx, row.Experiment, row.Problem, row.Size, row.Algorithm,
			row.Params, row.Seed, row.Iteration, row.Fitness, row.FnEvals, row.Elapsed.Seconds())
		if err != nil {
			return fmt.Errorf("failed to insert stat row: %w", err)
		}
	}

	curves, err := tx.PrepareContext(ctx, `INSERT INTO run_curves
		(experiment, algorithm, params, seed, iteration, fitness)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare curves insert: %w", err)
	}
	defer curves.Close()
	for _, row := range r.Curves {
		_, err := curves.ExecContext(ctx, row.Experiment, row.Algorithm, row.Params,
			row.Seed, row.Iteration, row.Fitness)
		if err != nil {
			return fmt.Errorf("failed to insert curve row: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
