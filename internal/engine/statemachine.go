// Package engine holds the kinematic-state core: the hysteresis state
// machine that turns a noisy knee-angle signal into validated repetitions,
// and the streaming aggregator that folds samples and rep events into
// session statistics. Everything here is synchronous and allocation-light;
// one instance of each type belongs to exactly one session.
package engine

import (
	"errors"
	"fmt"
)

// Phase is the confirmed state of the rep machine.
type Phase string

const (
	PhaseUp   Phase = "UP"
	PhaseDown Phase = "DOWN"
)

// ErrInvalidConfig is returned when the threshold ordering is violated at
// construction. Equal thresholds would make every sample a transition, so
// they are rejected before any frame is processed.
var ErrInvalidConfig = errors.New("engine: invalid state machine configuration")

// Config carries the biomechanical tuning parameters. The defaults are
// starting points, not clinical truth — deployments should calibrate them
// against real motion data and set them in the config file.
type Config struct {
	// UpperThreshold is the angle in degrees above which the joint counts
	// as extended (standing).
	UpperThreshold float64
	// LowerThreshold is the angle in degrees below which the joint counts
	// as flexed (full depth).
	LowerThreshold float64
	// MinRepDurationSec rejects reps completed faster than a plausible
	// human movement, filtering jitter that dips through both thresholds.
	MinRepDurationSec float64
}

// DefaultConfig returns the stock squat thresholds: 160° up, 90° down,
// 300ms minimum rep duration.
func DefaultConfig() Config {
	return Config{UpperThreshold: 160, LowerThreshold: 90, MinRepDurationSec: 0.3}
}

func (c Config) validate() error {
	if c.LowerThreshold >= c.UpperThreshold {
		return fmt.Errorf("%w: lower_threshold (%.1f) must be strictly below upper_threshold (%.1f)",
			ErrInvalidConfig, c.LowerThreshold, c.UpperThreshold)
	}
	if c.LowerThreshold <= 0 || c.UpperThreshold > 180 {
		return fmt.Errorf("%w: thresholds must lie in (0,180], got lower=%.1f upper=%.1f",
			ErrInvalidConfig, c.LowerThreshold, c.UpperThreshold)
	}
	if c.MinRepDurationSec < 0 {
		return fmt.Errorf("%w: min_rep_duration_sec must not be negative, got %.3f",
			ErrInvalidConfig, c.MinRepDurationSec)
	}
	return nil
}

// RepEvent is emitted once per validated repetition. Immutable after
// emission; ownership passes to whoever consumes it.
type RepEvent struct {
	// Index is 1-based and counts only valid reps.
	Index int `json:"rep_index"`
	// StartTime is the session-relative time the joint entered DOWN.
	StartTime float64 `json:"start_time"`
	// EndTime is the session-relative time the rep was confirmed complete.
	EndTime     float64 `json:"end_time"`
	DurationSec float64 `json:"duration_sec"`
	// PeakFlexionAngle is the minimum angle reached during the rep
	// (deepest point).
	PeakFlexionAngle float64 `json:"peak_flexion_angle"`
	// PeakExtensionAngle is the angle at the sample that completed the
	// rep (the UP boundary crossing).
	PeakExtensionAngle float64 `json:"peak_extension_angle"`
}

// StateMachine advances a rep phase per angle sample and emits validated
// RepEvents. Not safe for concurrent use; each session owns its own.
//
// Transitions use strict inequalities, so a sample exactly on a threshold
// is "not yet crossed" — this keeps a signal hovering at the boundary from
// chattering. The band between the two thresholds changes nothing.
type StateMachine struct {
	cfg   Config
	phase Phase

	// descended is true once the machine has entered DOWN since the last
	// completed (or discarded) rep. Peak flexion keeps updating while it
	// is set, including on the climb back up through the band.
	descended   bool
	repStart    float64
	peakFlexion float64

	// prevTime is the timestamp of the last processed sample. The descent
	// began somewhere between that sample and the one that crossed the
	// lower threshold, so the earlier bound is used as the rep start —
	// measuring only from the crossing would undercount rep duration by
	// the whole descent.
	prevTime    float64
	haveSamples bool

	repCount int
}

// NewStateMachine validates the configuration and returns a machine in
// the UP phase.
func NewStateMachine(cfg Config) (*StateMachine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &StateMachine{cfg: cfg, phase: PhaseUp}, nil
}

// Update consumes one angle sample at session-relative time t (seconds)
// and returns a RepEvent when this sample completes a valid repetition,
// nil otherwise.
//
// Callers must not invoke Update for frames whose angle could not be
// computed (degenerate geometry): skipping the call leaves phase and peak
// tracking untouched, which is exactly the required behaviour — an
// isolated bad frame never aborts or false-triggers a rep.
func (sm *StateMachine) Update(angle, t float64) *RepEvent {
	if sm.descended && angle < sm.peakFlexion {
		sm.peakFlexion = angle
	}

	defer func() {
		sm.prevTime = t
		sm.haveSamples = true
	}()

	switch {
	case angle < sm.cfg.LowerThreshold:
		if !sm.descended {
			sm.descended = true
			sm.repStart = t
			if sm.haveSamples {
				sm.repStart = sm.prevTime
			}
			sm.peakFlexion = angle
		}
		sm.phase = PhaseDown

	case angle > sm.cfg.UpperThreshold:
		sm.phase = PhaseUp
		if !sm.descended {
			return nil
		}

		duration := t - sm.repStart
		start := sm.repStart
		peak := sm.peakFlexion
		sm.descended = false

		if duration < sm.cfg.MinRepDurationSec {
			// Too fast to be a human rep: jitter dipped through both
			// thresholds. Discard, but the machine still resets to UP.
			return nil
		}

		sm.repCount++
		return &RepEvent{
			Index:              sm.repCount,
			StartTime:          start,
			EndTime:            t,
			DurationSec:        duration,
			PeakFlexionAngle:   peak,
			PeakExtensionAngle: angle,
		}
	}

	return nil
}

// Phase returns the current confirmed phase.
func (sm *StateMachine) Phase() Phase { return sm.phase }

// RepCount returns the number of valid reps emitted so far.
func (sm *StateMachine) RepCount() int { return sm.repCount }

// Config returns the machine's configuration.
func (sm *StateMachine) Config() Config { return sm.cfg }
