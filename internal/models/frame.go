// Package models defines the wire and storage shapes shared across the
// ingest boundary, the session engine, and the persistence layer.
package models

import (
	"fmt"

	"github.com/claude/physioreps/internal/kinematics"
)

// FramePayload is one landmark frame as posted by a pose detector (or read
// back from a recorded landmark log). Timestamps are session-relative
// seconds, matching the telemetry the engine emits.
type FramePayload struct {
	TimestampSec float64               `json:"timestamp_sec"`
	Landmarks    []kinematics.Landmark `json:"landmarks"`
}

// Find returns the landmark with the given ID, if present. The detector
// sends the full pose set; the engine reads exactly three points from it.
func (p *FramePayload) Find(id kinematics.LandmarkID) (kinematics.Landmark, bool) {
	for _, lm := range p.Landmarks {
		if lm.ID == id {
			return lm, true
		}
	}
	return kinematics.Landmark{}, false
}

// Validate rejects frames that cannot be processed at all. Missing
// individual landmarks are not an error here — that is a per-frame skip
// decision made by the session processor.
func (p *FramePayload) Validate() error {
	if p.TimestampSec < 0 {
		return fmt.Errorf("timestamp_sec must not be negative, got %g", p.TimestampSec)
	}
	if len(p.Landmarks) == 0 {
		return fmt.Errorf("frame has no landmarks")
	}
	for i, lm := range p.Landmarks {
		if lm.Visibility < 0 || lm.Visibility > 1 {
			return fmt.Errorf("landmark %d: visibility %g outside [0,1]", i, lm.Visibility)
		}
	}
	return nil
}
