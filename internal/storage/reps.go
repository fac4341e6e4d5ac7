package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/claude/physioreps/internal/models"
)

// InsertReps batch-inserts rep rows. Returns count inserted.
func (db *DB) InsertReps(ctx context.Context, rows []models.RepRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO reps (session_id, rep_index, start_time_sec, end_time_sec, duration_sec, peak_flexion_angle, peak_extension_angle) VALUES `
	args := make([]any, 0, len(rows)*7)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, r.SessionID, r.RepIndex, r.StartTimeSec, r.EndTimeSec,
			r.DurationSec, r.PeakFlexionAngle, r.PeakExtensionAngle)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting reps: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryReps retrieves the reps of one session in order.
func (db *DB) QueryReps(ctx context.Context, sessionID uuid.UUID) ([]models.RepRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT session_id, rep_index, start_time_sec, end_time_sec, duration_sec,
		        peak_flexion_angle, peak_extension_angle
		 FROM reps WHERE session_id = $1 ORDER BY rep_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying reps: %w", err)
	}
	defer rows.Close()

	var out []models.RepRow
	for rows.Next() {
		var r models.RepRow
		if err := rows.Scan(&r.SessionID, &r.RepIndex, &r.StartTimeSec, &r.EndTimeSec,
			&r.DurationSec, &r.PeakFlexionAngle, &r.PeakExtensionAngle); err != nil {
			return nil, fmt.Errorf("scanning rep: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
