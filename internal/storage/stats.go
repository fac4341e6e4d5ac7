package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics across all stored sessions.
type DataStats struct {
	TotalSessions     int64      `json:"total_sessions"`
	TotalReps         int64      `json:"total_reps"`
	TotalSamples      int64      `json:"total_samples"`
	BestDepthAngle    *float64   `json:"best_depth_angle,omitempty"`
	AvgRepsPerSession *float64   `json:"avg_reps_per_session,omitempty"`
	EarliestSession   *time.Time `json:"earliest_session"`
	LatestSession     *time.Time `json:"latest_session"`
}

// GetDataStats returns aggregate statistics for all completed sessions.
func (db *DB) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(started_at), MAX(started_at)
		 FROM sessions WHERE ended_at IS NOT NULL`,
	).Scan(&stats.TotalSessions, &stats.EarliestSession, &stats.LatestSession)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(peak_flexion_angle) FROM reps`,
	).Scan(&stats.TotalReps, &stats.BestDepthAngle)
	if err != nil {
		return nil, fmt.Errorf("counting reps: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM angle_samples`,
	).Scan(&stats.TotalSamples)
	if err != nil {
		return nil, fmt.Errorf("counting samples: %w", err)
	}

	if stats.TotalSessions > 0 {
		avg := float64(stats.TotalReps) / float64(stats.TotalSessions)
		stats.AvgRepsPerSession = &avg
	}

	return stats, nil
}
