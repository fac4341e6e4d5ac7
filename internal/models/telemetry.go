package models

import (
	"math"

	"github.com/claude/physioreps/internal/engine"
)

// Telemetry is the session summary as serialized at the output boundary.
// All angle and duration values are rounded to one decimal, which is the
// precision downstream consumers expect. MinDepthAngle is omitted until
// the first completed rep; a literal 0.0 would read as a measured depth.
type Telemetry struct {
	TotalValidReps     int      `json:"total_valid_reps"`
	AvgKneeAngle       float64  `json:"avg_knee_angle"`
	MinDepthAngle      *float64 `json:"min_depth_angle,omitempty"`
	SessionDurationSec float64  `json:"session_duration_sec"`
}

// TelemetryFromSummary projects an engine summary into the wire shape.
func TelemetryFromSummary(s engine.Summary) Telemetry {
	tel := Telemetry{
		TotalValidReps:     s.TotalValidReps,
		AvgKneeAngle:       Round1(s.AvgKneeAngle),
		SessionDurationSec: Round1(s.SessionDurationSec),
	}
	if s.TotalValidReps > 0 {
		depth := Round1(s.MinDepthAngle)
		tel.MinDepthAngle = &depth
	}
	return tel
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
