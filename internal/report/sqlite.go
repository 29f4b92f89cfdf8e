package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gyaneshwarpardhi/evacflow/internal/sim"
)

// stepBatch is how many step rows are buffered before a transaction.
const stepBatch = 512

// SQLiteSink indexes runs and their per-step totals in a SQLite file.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the run index at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			building TEXT NOT NULL,
			source TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			evacuation_time_s REAL,
			initial_people REAL,
			people_inside REAL,
			evacuated REAL,
			steps INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS run_steps (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			time_m REAL NOT NULL,
			people_inside REAL NOT NULL,
			evacuated REAL NOT NULL,
			PRIMARY KEY (run_id, step)
		);`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &SQLiteSink{db: db}, nil
}

func (*SQLiteSink) Type() string { return "sqlite" }

// Close closes the database.
func (s *SQLiteSink) Close() error { return s.db.Close() }

func (s *SQLiteSink) Open(ctx context.Context, run Run) (Recorder, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, building, source, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Building, run.Source, run.StartedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &sqliteRecorder{db: s.db, runID: run.ID}, nil
}

type stepRow struct {
	step                     int
	timeM, inside, evacuated float64
}

type sqliteRecorder struct {
	db      *sql.DB
	runID   string
	pending []stepRow
}

func (r *sqliteRecorder) Step(ctx context.Context, f Frame) error {
	r.pending = append(r.pending, stepRow{f.Step, f.TimeMinutes, f.PeopleInside, f.Evacuated})
	if len(r.pending) >= stepBatch {
		return r.flush(ctx)
	}
	return nil
}

func (r *sqliteRecorder) flush(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO run_steps (run_id, step, time_m, people_inside, evacuated) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, row := range r.pending {
		if _, err := stmt.ExecContext(ctx, r.runID, row.step, row.timeM, row.inside, row.evacuated); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert step %d: %w", row.step, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.pending = r.pending[:0]
	return nil
}

func (r *sqliteRecorder) Close(ctx context.Context, s sim.Summary) error {
	// The summary is stored even when the run was cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := r.flush(ctx); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, evacuation_time_s = ?, initial_people = ?,
			people_inside = ?, evacuated = ?, steps = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), s.EvacuationTimeSeconds, s.InitialPeople,
		s.PeopleInside, s.Evacuated, s.Steps, r.runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RunRow is one indexed run.
type RunRow struct {
	ID                    string  `json:"id"`
	Building              string  `json:"building"`
	Source                string  `json:"source"`
	StartedAt             string  `json:"started_at"`
	FinishedAt            string  `json:"finished_at,omitempty"`
	EvacuationTimeSeconds float64 `json:"evacuation_time_seconds"`
	InitialPeople         float64 `json:"initial_people"`
	PeopleInside          float64 `json:"people_inside"`
	Evacuated             float64 `json:"evacuated"`
	Steps                 int     `json:"steps"`
	StepRows              int     `json:"step_rows"`
}

// RecentRuns returns up to limit runs, newest first.
func (s *SQLiteSink) RecentRuns(ctx context.Context, limit int) ([]RunRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.building, r.source, r.started_at, COALESCE(r.finished_at, ''),
			COALESCE(r.evacuation_time_s, 0), COALESCE(r.initial_people, 0),
			COALESCE(r.people_inside, 0), COALESCE(r.evacuated, 0), COALESCE(r.steps, 0),
			(SELECT COUNT(*) FROM run_steps s WHERE s.run_id = r.id)
		FROM runs r ORDER BY r.started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var rr RunRow
		if err := rows.Scan(&rr.ID, &rr.Building, &rr.Source, &rr.StartedAt, &rr.FinishedAt,
			&rr.EvacuationTimeSeconds, &rr.InitialPeople, &rr.PeopleInside, &rr.Evacuated,
			&rr.Steps, &rr.StepRows); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
