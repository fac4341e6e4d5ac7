// Package kinematics provides joint-angle geometry over 3D pose landmarks.
package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// LandmarkID identifies a pose landmark. Values follow the MediaPipe Pose
// Landmarker index scheme, since that is what upstream detectors emit.
type LandmarkID int

// Pose landmark indices the engine cares about. The full model emits 33
// points; everything outside the hip/knee/ankle pairs is ignored.
const (
	LeftHip    LandmarkID = 23
	RightHip   LandmarkID = 24
	LeftKnee   LandmarkID = 25
	RightKnee  LandmarkID = 26
	LeftAnkle  LandmarkID = 27
	RightAnkle LandmarkID = 28
)

// Landmark is one detected 3D body point in normalized or camera space,
// with the detector's visibility confidence in [0,1]. The engine never
// mutates landmarks; they pass through read-only.
type Landmark struct {
	ID         LandmarkID `json:"id"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Z          float64    `json:"z"`
	Visibility float64    `json:"visibility"`
}

// Vec returns the landmark position as an r3 vector.
func (l Landmark) Vec() r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y, Z: l.Z}
}

// Side selects which leg's landmark triple drives the analysis.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Joints returns the hip/knee/ankle landmark IDs for the side.
func (s Side) Joints() (hip, knee, ankle LandmarkID, err error) {
	switch s {
	case SideLeft:
		return LeftHip, LeftKnee, LeftAnkle, nil
	case SideRight:
		return RightHip, RightKnee, RightAnkle, nil
	default:
		return 0, 0, 0, fmt.Errorf("unknown side %q (want %q or %q)", s, SideLeft, SideRight)
	}
}
