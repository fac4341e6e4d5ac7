package models

import (
	"encoding/json"
	"testing"

	"github.com/claude/physioreps/internal/kinematics"
)

const frameJSON = `{
	"timestamp_sec": 1.25,
	"landmarks": [
		{"id": 24, "x": 0.51, "y": 0.42, "z": -0.1, "visibility": 0.98},
		{"id": 26, "x": 0.52, "y": 0.61, "z": -0.05, "visibility": 0.95},
		{"id": 28, "x": 0.50, "y": 0.83, "z": 0.02, "visibility": 0.91}
	]
}`

// TestFramePayloadDecode verifies the ingest JSON shape decodes into the
// payload struct with landmark IDs intact.
func TestFramePayloadDecode(t *testing.T) {
	var p FramePayload
	if err := json.Unmarshal([]byte(frameJSON), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.TimestampSec != 1.25 {
		t.Errorf("timestamp_sec = %g, want 1.25", p.TimestampSec)
	}
	if len(p.Landmarks) != 3 {
		t.Fatalf("landmarks = %d, want 3", len(p.Landmarks))
	}
	if p.Landmarks[1].ID != kinematics.RightKnee {
		t.Errorf("landmark[1].id = %d, want %d", p.Landmarks[1].ID, kinematics.RightKnee)
	}
}

// TestFramePayloadFind verifies lookup by landmark ID, including the
// missing case.
func TestFramePayloadFind(t *testing.T) {
	var p FramePayload
	if err := json.Unmarshal([]byte(frameJSON), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	knee, ok := p.Find(kinematics.RightKnee)
	if !ok {
		t.Fatal("RightKnee not found")
	}
	if knee.Y != 0.61 {
		t.Errorf("knee.Y = %g, want 0.61", knee.Y)
	}

	if _, ok := p.Find(kinematics.LeftKnee); ok {
		t.Error("LeftKnee should be absent")
	}
}

// TestFramePayloadValidate covers the rejection cases: negative time,
// empty landmark set, out-of-range visibility.
func TestFramePayloadValidate(t *testing.T) {
	valid := FramePayload{
		TimestampSec: 0,
		Landmarks:    []kinematics.Landmark{{ID: kinematics.RightKnee, Visibility: 0.9}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	cases := []struct {
		name string
		p    FramePayload
	}{
		{"negative timestamp", FramePayload{TimestampSec: -0.1, Landmarks: valid.Landmarks}},
		{"no landmarks", FramePayload{TimestampSec: 1}},
		{"visibility above 1", FramePayload{
			TimestampSec: 1,
			Landmarks:    []kinematics.Landmark{{ID: kinematics.RightKnee, Visibility: 1.5}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.p.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
