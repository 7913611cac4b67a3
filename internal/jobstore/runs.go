package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const runColumns = "id, job, start_frame, end_frame, reverse, bracket, status, frames, failures, fallbacks, stop_frame, error_message, started_at, finished_at"

// StartRun inserts a running row and returns its id.
func (s *Store) StartRun(ctx context.Context, spec RunSpec) (string, error) {
	if strings.TrimSpace(spec.Job) == "" {
		return "", errors.New("start run: job name required")
	}
	id := uuid.NewString()
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, job, start_frame, end_frame, reverse, bracket, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, spec.Job, spec.StartFrame, spec.EndFrame,
		boolToInt(spec.Reverse), boolToInt(spec.Bracket), string(StatusRunning), now(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// RecordFrame appends a frame outcome to a run.
func (s *Store) RecordFrame(ctx context.Context, frame Frame) error {
	if frame.RunID == "" {
		return errors.New("record frame: run id required")
	}
	_, err := s.exec(ctx,
		`INSERT OR REPLACE INTO frames (run_id, frame, outcome, path, y_diff, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		frame.RunID, frame.Frame, string(frame.Outcome), nullableString(frame.Path), frame.YDiff, now(),
	)
	if err != nil {
		return fmt.Errorf("insert frame %d: %w", frame.Frame, err)
	}
	return nil
}

// FinishRun stamps the terminal state of a run.
func (s *Store) FinishRun(ctx context.Context, id string, result RunResult) error {
	if !result.Status.Terminal() {
		return fmt.Errorf("finish run: status %q is not terminal", result.Status)
	}
	var message string
	if result.Err != nil {
		message = result.Err.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, frames = ?, failures = ?, fallbacks = ?, stop_frame = ?,
		 error_message = ?, finished_at = ? WHERE id = ?`,
		string(result.Status), result.Frames, result.Failures, result.Fallbacks,
		result.StopFrame, nullableString(message), now(), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %s", id)
	}
	return nil
}

// GetRun returns a run by id, or nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Frames returns the frames recorded for a run in capture order.
func (s *Store) Frames(ctx context.Context, runID string) ([]Frame, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, frame, outcome, path, y_diff, recorded_at FROM frames
		 WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var (
			f        Frame
			outcome  string
			path     sql.NullString
			recorded string
		)
		if err := rows.Scan(&f.RunID, &f.Frame, &outcome, &path, &f.YDiff, &recorded); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.Outcome = Outcome(outcome)
		f.Path = path.String
		f.RecordedAt = parseTime(recorded)
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run        Run
		reverse    int
		bracket    int
		status     string
		stopFrame  sql.NullInt64
		message    sql.NullString
		startedRaw string
		finished   sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Job,
		&run.StartFrame,
		&run.EndFrame,
		&reverse,
		&bracket,
		&status,
		&run.Frames,
		&run.Failures,
		&run.Fallbacks,
		&stopFrame,
		&message,
		&startedRaw,
		&finished,
	); err != nil {
		return nil, err
	}
	run.Reverse = reverse != 0
	run.Bracket = bracket != 0
	run.Status = Status(status)
	run.StopFrame = int(stopFrame.Int64)
	run.ErrorMessage = message.String
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finished.String)
	return &run, nil
}
