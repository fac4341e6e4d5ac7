package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/physioreps/internal/models"
)

// ErrSessionNotFound is returned when a session ID matches no row.
var ErrSessionNotFound = errors.New("storage: session not found")

// CreateSession inserts a new (still running) session row.
func (db *DB) CreateSession(ctx context.Context, row models.SessionRow) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, source, started_at) VALUES ($1, $2, $3)`,
		row.ID, row.Source, row.StartedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// FinishSession writes the final summary onto an existing session row.
func (db *DB) FinishSession(ctx context.Context, row models.SessionRow) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions
		 SET ended_at = $2, total_valid_reps = $3, avg_knee_angle = $4,
		     min_depth_angle = $5, duration_sec = $6,
		     frames_processed = $7, frames_skipped = $8
		 WHERE id = $1`,
		row.ID, row.EndedAt, row.TotalValidReps, row.AvgKneeAngle,
		row.MinDepthAngle, row.DurationSec, row.FramesProcessed, row.FramesSkipped)
	if err != nil {
		return fmt.Errorf("finishing session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes a session and, via cascade, its reps and samples.
// Used when a session ends with no recorded samples.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// GetSession retrieves one session by ID.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.SessionRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, source, started_at, ended_at, total_valid_reps, avg_knee_angle,
		        min_depth_angle, duration_sec, frames_processed, frames_skipped
		 FROM sessions WHERE id = $1`, id)

	var s models.SessionRow
	err := row.Scan(&s.ID, &s.Source, &s.StartedAt, &s.EndedAt, &s.TotalValidReps,
		&s.AvgKneeAngle, &s.MinDepthAngle, &s.DurationSec, &s.FramesProcessed, &s.FramesSkipped)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &s, nil
}

// QuerySessions retrieves completed sessions in a time range, newest first.
func (db *DB) QuerySessions(ctx context.Context, start, end time.Time, limit int) ([]models.SessionRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, source, started_at, ended_at, total_valid_reps, avg_knee_angle,
		        min_depth_angle, duration_sec, frames_processed, frames_skipped
		 FROM sessions
		 WHERE ended_at IS NOT NULL AND started_at >= $1 AND started_at <= $2
		 ORDER BY started_at DESC
		 LIMIT $3`, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []models.SessionRow
	for rows.Next() {
		var s models.SessionRow
		if err := rows.Scan(&s.ID, &s.Source, &s.StartedAt, &s.EndedAt, &s.TotalValidReps,
			&s.AvgKneeAngle, &s.MinDepthAngle, &s.DurationSec, &s.FramesProcessed, &s.FramesSkipped); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
