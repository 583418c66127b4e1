// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/harvest/internal/ports/secondary"
)

const runColumns = "id, family, status, dry_run, total, processed, skipped, errored, items_succeeded, items_failed, checkpoint_failures, started_at, finished_at"

// RunRepository implements secondary.RunRepository with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create persists a new run in the running state.
func (r *RunRepository) Create(ctx context.Context, run *secondary.RunRecord) error {
	status := run.Status
	if status == "" {
		status = "running"
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO runs (id, family, status, dry_run, total, started_at) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.Family, status, run.DryRun, run.Total, run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Finish stores the final counters of a run.
func (r *RunRepository) Finish(ctx context.Context, run *secondary.RunRecord) error {
	var finishedAt sql.NullTime
	if !run.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, processed = ?, skipped = ?, errored = ?,
			items_succeeded = ?, items_failed = ?, checkpoint_failures = ?, finished_at = ?
		WHERE id = ?`,
		run.Status, run.Processed, run.Skipped, run.Errored,
		run.ItemsSucceeded, run.ItemsFailed, run.CheckpointFailures, finishedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

// AddAccountResult stores the outcome of one account.
func (r *RunRepository) AddAccountResult(ctx context.Context, rec *secondary.RunAccountRecord) error {
	var reason sql.NullString
	if rec.Reason != "" {
		reason = sql.NullString{String: rec.Reason, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO run_accounts (run_id, account_index, address, outcome, reason, items_succeeded, items_failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.AccountIndex, rec.Address, rec.Outcome, reason, rec.ItemsSucceeded, rec.ItemsFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to add account result: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*secondary.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	record, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return record, nil
}

// List retrieves the most recent runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, record)
	}
	return runs, rows.Err()
}

// ListAccountResults retrieves the per-account results of a run in account order.
func (r *RunRepository) ListAccountResults(ctx context.Context, runID string) ([]*secondary.RunAccountRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, account_index, address, outcome, reason, items_succeeded, items_failed
		FROM run_accounts WHERE run_id = ? ORDER BY account_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account results: %w", err)
	}
	defer rows.Close()

	var results []*secondary.RunAccountRecord
	for rows.Next() {
		var reason sql.NullString
		rec := &secondary.RunAccountRecord{}
		if err := rows.Scan(&rec.RunID, &rec.AccountIndex, &rec.Address, &rec.Outcome, &reason, &rec.ItemsSucceeded, &rec.ItemsFailed); err != nil {
			return nil, fmt.Errorf("failed to scan account result: %w", err)
		}
		rec.Reason = reason.String
		results = append(results, rec)
	}
	return results, rows.Err()
}

// DeleteFinishedBefore removes finished runs started before cutoff.
// Per-account results go with them through the foreign key cascade.
func (r *RunRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM runs WHERE status != 'running' AND started_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*secondary.RunRecord, error) {
	var (
		startedAt  time.Time
		finishedAt sql.NullTime
	)
	record := &secondary.RunRecord{}
	err := s.Scan(&record.ID, &record.Family, &record.Status, &record.DryRun, &record.Total,
		&record.Processed, &record.Skipped, &record.Errored, &record.ItemsSucceeded, &record.ItemsFailed,
		&record.CheckpointFailures, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	record.StartedAt = startedAt
	if finishedAt.Valid {
		record.FinishedAt = finishedAt.Time
	}
	return record, nil
}

// Ensure RunRepository implements the interface
var _ secondary.RunRepository = (*RunRepository)(nil)
