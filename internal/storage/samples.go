package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/claude/physioreps/internal/models"
)

// sampleInsertChunk bounds the placeholder count per statement; postgres
// caps bind parameters at 65535 and long sessions have many samples.
const sampleInsertChunk = 5000

// InsertAngleSamples batch-inserts the angle time series of a session.
// Returns count inserted.
func (db *DB) InsertAngleSamples(ctx context.Context, rows []models.SampleRow) (int64, error) {
	var total int64
	for len(rows) > 0 {
		chunk := rows
		if len(chunk) > sampleInsertChunk {
			chunk = rows[:sampleInsertChunk]
		}
		rows = rows[len(chunk):]

		n, err := db.insertSampleChunk(ctx, chunk)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (db *DB) insertSampleChunk(ctx context.Context, chunk []models.SampleRow) (int64, error) {
	query := `INSERT INTO angle_samples (session_id, timestamp_sec, angle_deg, phase) VALUES `
	args := make([]any, 0, len(chunk)*4)
	valueStrings := make([]string, 0, len(chunk))

	for i, r := range chunk {
		base := i * 4
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		args = append(args, r.SessionID, r.TimestampSec, r.AngleDeg, r.Phase)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting angle samples: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueryAngleSeries retrieves the angle time series of one session in order.
func (db *DB) QueryAngleSeries(ctx context.Context, sessionID uuid.UUID) ([]models.SampleRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT session_id, timestamp_sec, angle_deg, phase
		 FROM angle_samples WHERE session_id = $1 ORDER BY timestamp_sec`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying angle samples: %w", err)
	}
	defer rows.Close()

	var out []models.SampleRow
	for rows.Next() {
		var r models.SampleRow
		if err := rows.Scan(&r.SessionID, &r.TimestampSec, &r.AngleDeg, &r.Phase); err != nil {
			return nil, fmt.Errorf("scanning angle sample: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
