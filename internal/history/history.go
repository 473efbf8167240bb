// SPDX-License-Identifier: MPL-2.0

// Package history records past runs and their step outcomes in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/rigup/rigup/internal/engine"
	"github.com/rigup/rigup/internal/history/migrations"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

type (
	// Run is one recorded execution of a playbook.
	Run struct {
		ID          int64
		Playbook    string
		Started     time.Time
		Finished    time.Time
		DryRun      bool
		Interrupted bool
		Success     bool
		LogPath     string
		// StepCount and FailedCount are filled by Recent.
		StepCount   int
		FailedCount int
		Steps       []Step
	}

	// Step is the recorded outcome of one step.
	Step struct {
		Position    int
		Name        string
		Kind        string
		Outcome     engine.Outcome
		Detail      string
		Error       string
		FailedItems []string
		Duration    time.Duration
	}

	// Store is a SQLite-backed run history.
	Store struct {
		db *sql.DB
	}
)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Open opens (creating if needed) the history database at path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	dsn := "file:" + clean + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RunFromReport converts an engine report into a Run ready to record.
func RunFromReport(rep *engine.Report, logPath string) Run {
	run := Run{
		Playbook:    rep.Playbook,
		Started:     rep.Started,
		Finished:    rep.Finished,
		DryRun:      rep.DryRun,
		Interrupted: rep.Interrupted,
		Success:     rep.Success(),
		LogPath:     logPath,
		Steps:       make([]Step, len(rep.Steps)),
	}
	for i := range rep.Steps {
		res := &rep.Steps[i]
		step := Step{
			Position:    i,
			Name:        string(res.Name),
			Kind:        string(res.Kind),
			Outcome:     res.Outcome,
			Detail:      res.Detail,
			FailedItems: res.FailedItems(),
			Duration:    res.Duration,
		}
		if res.Err != nil {
			step.Error = res.Err.Error()
		}
		run.Steps[i] = step
	}
	return run
}

// Record stores run and its steps in one transaction and returns the new id.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (playbook, started_at, finished_at, dry_run, interrupted, success, log_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Playbook,
		toMillis(run.Started),
		toMillis(run.Finished),
		run.DryRun,
		run.Interrupted,
		run.Success,
		run.LogPath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	for _, step := range run.Steps {
		items := step.FailedItems
		if items == nil {
			items = []string{}
		}
		failed, err := json.Marshal(items)
		if err != nil {
			return 0, fmt.Errorf("encode failed items: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO step_results (run_id, position, name, kind, outcome, detail, error, failed_items, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			step.Position,
			step.Name,
			step.Kind,
			string(step.Outcome),
			step.Detail,
			step.Error,
			string(failed),
			step.Duration.Milliseconds(),
		); err != nil {
			return 0, fmt.Errorf("insert step %s: %w", step.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first, without their steps.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.playbook, r.started_at, r.finished_at, r.dry_run, r.interrupted, r.success, r.log_path,
		        (SELECT COUNT(*) FROM step_results s WHERE s.run_id = r.id),
		        (SELECT COUNT(*) FROM step_results s WHERE s.run_id = r.id AND s.outcome IN (?, ?))
		   FROM runs r
		  ORDER BY r.started_at DESC, r.id DESC
		  LIMIT ?`,
		string(engine.OutcomeFailed), string(engine.OutcomePartial), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished int64
		)
		if err := rows.Scan(&run.ID, &run.Playbook, &started, &finished, &run.DryRun, &run.Interrupted,
			&run.Success, &run.LogPath, &run.StepCount, &run.FailedCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Started, run.Finished = fromMillis(started), fromMillis(finished)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its steps.
func (s *Store) Get(ctx context.Context, id int64) (Run, error) {
	var (
		run               Run
		started, finished int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, playbook, started_at, finished_at, dry_run, interrupted, success, log_path
		   FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Playbook, &started, &finished, &run.DryRun, &run.Interrupted, &run.Success, &run.LogPath)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	run.Started, run.Finished = fromMillis(started), fromMillis(finished)

	run.Steps, err = s.Steps(ctx, id)
	if err != nil {
		return Run{}, err
	}
	run.StepCount = len(run.Steps)
	for _, step := range run.Steps {
		if step.Outcome.IsFailure() {
			run.FailedCount++
		}
	}
	return run, nil
}

// Steps returns the recorded steps of a run in execution order.
func (s *Store) Steps(ctx context.Context, runID int64) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, kind, outcome, detail, error, failed_items, duration_ms
		   FROM step_results WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var (
			step     Step
			outcome  string
			failed   string
			duration int64
		)
		if err := rows.Scan(&step.Position, &step.Name, &step.Kind, &outcome, &step.Detail, &step.Error,
			&failed, &duration); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Outcome = engine.Outcome(outcome)
		step.Duration = time.Duration(duration) * time.Millisecond
		if err := json.Unmarshal([]byte(failed), &step.FailedItems); err != nil {
			return nil, fmt.Errorf("decode failed items of %s: %w", step.Name, err)
		}
		if len(step.FailedItems) == 0 {
			step.FailedItems = nil
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	return steps, nil
}

// Prune keeps the newest keep runs and deletes the rest.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
		   SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
		 )`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
