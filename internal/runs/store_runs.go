package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"logicmate/internal/services"
)

const runColumns = `id, token, project, version, subject, status, dataset_path, model_path,
	error_message, failure_stage, progress_stage, progress_percent, progress_message,
	created_at, updated_at`

// NewRun inserts a fresh run in the idle status.
func (s *Store) NewRun(ctx context.Context, project string, version int, subject string) (*Run, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	token := uuid.NewString()

	res, err := s.execWithRetry(ctx,
		`INSERT INTO pipeline_runs (token, project, version, subject, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		token, project, version, subject, StatusIdle,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns a single run.
func (s *Store) GetByID(ctx context.Context, id int64) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "runs", "get",
			fmt.Sprintf("run %d not found", id), nil)
	}
	return run, err
}

// GetByToken returns the run carrying the given token.
func (s *Store) GetByToken(ctx context.Context, token string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE token = ?`, token)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "runs", "get",
			fmt.Sprintf("run token %s not found", token), nil)
	}
	return run, err
}

// List returns runs newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM pipeline_runs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (?` + repeatPlaceholder(len(statuses)-1) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Update persists mutable fields of a run. The status must already be valid;
// use Transition for guarded status movement.
func (s *Store) Update(ctx context.Context, run *Run) error {
	if run == nil {
		return services.Wrap(services.ErrInvalidArgument, "runs", "update", "nil run", nil)
	}
	if _, ok := statusSet[run.Status]; !ok {
		return services.Wrap(services.ErrInvalidArgument, "runs", "update",
			fmt.Sprintf("unknown status %q", run.Status), nil)
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE pipeline_runs
		 SET subject = ?, status = ?, dataset_path = ?, model_path = ?,
		     error_message = ?, failure_stage = ?,
		     progress_stage = ?, progress_percent = ?, progress_message = ?,
		     updated_at = ?
		 WHERE id = ?`,
		run.Subject, run.Status, run.DatasetPath, run.ModelPath,
		run.ErrorMessage, run.FailureStage,
		run.ProgressStage, run.ProgressPercent, run.ProgressMessage,
		now.Format(time.RFC3339Nano), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "runs", "update",
			fmt.Sprintf("run %d not found", run.ID), nil)
	}
	run.UpdatedAt = now
	return nil
}

// Transition moves a run to the next status. Skipping stages or moving a
// terminal run is a precondition error.
func (s *Store) Transition(ctx context.Context, id int64, to Status) (*Run, error) {
	run, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(run.Status, to) {
		return nil, services.Wrap(services.ErrPrecondition, "runs", "transition",
			fmt.Sprintf("run %d cannot move from %s to %s", id, run.Status, to), nil)
	}
	run.Status = to
	if to != StatusFailed {
		run.ErrorMessage = ""
		run.FailureStage = ""
	}
	if err := s.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// MarkFailed records a failure with its originating stage.
func (s *Store) MarkFailed(ctx context.Context, id int64, stage, message string) (*Run, error) {
	run, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status.Terminal() {
		return nil, services.Wrap(services.ErrPrecondition, "runs", "mark failed",
			fmt.Sprintf("run %d already terminal (%s)", id, run.Status), nil)
	}
	run.Status = StatusFailed
	run.FailureStage = stage
	run.ErrorMessage = message
	if err := s.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// SetProgress updates the progress fields of an in-flight run.
func (s *Store) SetProgress(ctx context.Context, id int64, stage string, percent float64, message string) error {
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE pipeline_runs
		 SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ?
		 WHERE id = ?`,
		stage, percent, message, now.Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "runs", "set progress",
			fmt.Sprintf("run %d not found", id), nil)
	}
	return nil
}

// Reset returns a failed run to idle so the pipeline can retry it from the
// start.
func (s *Store) Reset(ctx context.Context, id int64) (*Run, error) {
	run, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != StatusFailed {
		return nil, services.Wrap(services.ErrPrecondition, "runs", "reset",
			fmt.Sprintf("run %d is %s; only failed runs can be reset", id, run.Status), nil)
	}
	run.Status = StatusIdle
	run.ErrorMessage = ""
	run.FailureStage = ""
	run.ProgressStage = ""
	run.ProgressPercent = 0
	run.ProgressMessage = ""
	if err := s.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Health aggregates run counts for status reporting.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM pipeline_runs GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("summarize runs: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Total += count
		switch {
		case status == StatusDone:
			summary.Done += count
		case status == StatusFailed:
			summary.Failed += count
		default:
			summary.InProgress += count
		}
	}
	return summary, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var createdAt, updatedAt string
	err := row.Scan(
		&run.ID, &run.Token, &run.Project, &run.Version, &run.Subject, &run.Status,
		&run.DatasetPath, &run.ModelPath,
		&run.ErrorMessage, &run.FailureStage,
		&run.ProgressStage, &run.ProgressPercent, &run.ProgressMessage,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if run.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &run, nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
