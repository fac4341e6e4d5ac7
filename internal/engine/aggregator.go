package engine

import (
	"errors"
	"math"
)

// ErrEmptySession is returned by Snapshot when no samples were recorded.
// A session with zero processed frames has no average to report; returning
// a fabricated zero would misrepresent "no data" as a measured value.
var ErrEmptySession = errors.New("engine: no angle samples recorded")

// Summary is a point-in-time projection of the aggregator's running state.
// MinDepthAngle is only meaningful when TotalValidReps > 0.
type Summary struct {
	TotalValidReps     int     `json:"total_valid_reps"`
	AvgKneeAngle       float64 `json:"avg_knee_angle"`
	MinDepthAngle      float64 `json:"min_depth_angle"`
	SessionDurationSec float64 `json:"session_duration_sec"`
}

// Aggregator folds the raw angle stream and rep events into running
// session statistics. It receives every computed sample, not just rep
// boundaries — the average covers the whole movement, standing included.
// Not safe for concurrent use; each session owns its own.
type Aggregator struct {
	sampleCount int
	angleSum    float64
	firstTime   float64
	lastTime    float64

	repCount int
	minDepth float64
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{minDepth: math.Inf(1)}
}

// RecordSample folds one angle sample at session-relative time t into the
// running sum and the session time bounds.
func (a *Aggregator) RecordSample(angle, t float64) {
	if a.sampleCount == 0 {
		a.firstTime = t
	}
	a.sampleCount++
	a.angleSum += angle
	a.lastTime = t
}

// RecordRep folds one completed repetition. MinDepthAngle is monotonically
// non-increasing across calls.
func (a *Aggregator) RecordRep(ev RepEvent) {
	a.repCount++
	if ev.PeakFlexionAngle < a.minDepth {
		a.minDepth = ev.PeakFlexionAngle
	}
}

// SampleCount returns the number of samples recorded so far.
func (a *Aggregator) SampleCount() int { return a.sampleCount }

// Snapshot projects the running state into a Summary. It never consumes
// or clears state: calling it twice with no intervening records yields
// identical results, and it is valid mid-session for live overlays.
func (a *Aggregator) Snapshot() (Summary, error) {
	if a.sampleCount == 0 {
		return Summary{}, ErrEmptySession
	}

	minDepth := a.minDepth
	if a.repCount == 0 {
		minDepth = 0
	}

	return Summary{
		TotalValidReps:     a.repCount,
		AvgKneeAngle:       a.angleSum / float64(a.sampleCount),
		MinDepthAngle:      minDepth,
		SessionDurationSec: a.lastTime - a.firstTime,
	}, nil
}
