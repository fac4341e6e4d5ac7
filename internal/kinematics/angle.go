package kinematics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateGeometry is returned when a bone vector collapses to
// (near) zero length, typically because a low-confidence detection put
// two landmarks on top of each other. Callers skip the frame; the value
// must never reach the state machine.
var ErrDegenerateGeometry = errors.New("kinematics: degenerate landmark geometry")

// minBoneNorm is the shortest bone vector still considered real geometry.
const minBoneNorm = 1e-9

// JointAngle computes the interior angle in degrees at the joint landmark,
// between the bone vectors joint→proximal and joint→distal. The cosine is
// clamped to [-1,1] before acos so floating-point drift on collinear
// landmarks cannot produce NaN. Result is always in [0,180].
func JointAngle(proximal, joint, distal Landmark) (float64, error) {
	a := r3.Sub(proximal.Vec(), joint.Vec())
	b := r3.Sub(distal.Vec(), joint.Vec())

	normA := r3.Norm(a)
	normB := r3.Norm(b)
	if normA < minBoneNorm || normB < minBoneNorm {
		return 0, ErrDegenerateGeometry
	}

	cos := r3.Dot(a, b) / (normA * normB)
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi, nil
}
