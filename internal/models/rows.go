package models

import (
	"time"

	"github.com/google/uuid"
)

// Session sources.
const (
	SourceLive   = "live"
	SourceReplay = "replay"
)

// SessionRow is one workout session as stored. Summary fields are filled
// in when the session ends; a row with a NULL ended_at is still live.
type SessionRow struct {
	ID              uuid.UUID  `json:"id"`
	Source          string     `json:"source"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	TotalValidReps  int        `json:"total_valid_reps"`
	AvgKneeAngle    float64    `json:"avg_knee_angle"`
	MinDepthAngle   float64    `json:"min_depth_angle"`
	DurationSec     float64    `json:"session_duration_sec"`
	FramesProcessed int        `json:"frames_processed"`
	FramesSkipped   int        `json:"frames_skipped"`
}

// RepRow is one validated repetition as stored.
type RepRow struct {
	SessionID          uuid.UUID `json:"session_id"`
	RepIndex           int       `json:"rep_index"`
	StartTimeSec       float64   `json:"start_time"`
	EndTimeSec         float64   `json:"end_time"`
	DurationSec        float64   `json:"duration_sec"`
	PeakFlexionAngle   float64   `json:"peak_flexion_angle"`
	PeakExtensionAngle float64   `json:"peak_extension_angle"`
}

// SampleRow is one angle sample of the session time series as stored.
// Phase records the machine's confirmed phase at that sample, which makes
// replays and charts auditable without re-running the engine.
type SampleRow struct {
	SessionID    uuid.UUID `json:"session_id"`
	TimestampSec float64   `json:"timestamp_sec"`
	AngleDeg     float64   `json:"angle_deg"`
	Phase        string    `json:"phase"`
}
