package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine(t *testing.T) *StateMachine {
	t.Helper()
	sm, err := NewStateMachine(DefaultConfig())
	require.NoError(t, err)
	return sm
}

// TestNewStateMachineRejectsBadConfig verifies threshold ordering is
// enforced at construction, before any frame is processed.
func TestNewStateMachineRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"equal thresholds", Config{UpperThreshold: 120, LowerThreshold: 120, MinRepDurationSec: 0.3}},
		{"inverted thresholds", Config{UpperThreshold: 90, LowerThreshold: 160, MinRepDurationSec: 0.3}},
		{"zero lower", Config{UpperThreshold: 160, LowerThreshold: 0, MinRepDurationSec: 0.3}},
		{"upper above 180", Config{UpperThreshold: 181, LowerThreshold: 90, MinRepDurationSec: 0.3}},
		{"negative min duration", Config{UpperThreshold: 160, LowerThreshold: 90, MinRepDurationSec: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStateMachine(tc.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

// TestSingleRepSweep drives a monotonic 180→min→180 sweep and expects
// exactly one rep whose peak flexion is the sweep minimum and whose peak
// extension is the final sample.
func TestSingleRepSweep(t *testing.T) {
	sm := newMachine(t)

	sweep := []struct {
		t, angle float64
	}{
		{0.0, 180}, {0.2, 150}, {0.4, 120}, {0.6, 95},
		{0.8, 70}, {1.0, 62}, {1.2, 80}, {1.4, 110},
		{1.6, 140}, {1.8, 165}, {2.0, 180},
	}

	var events []*RepEvent
	for _, s := range sweep {
		if ev := sm.Update(s.angle, s.t); ev != nil {
			events = append(events, ev)
		}
	}

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, 1, ev.Index)
	assert.Equal(t, 62.0, ev.PeakFlexionAngle)
	assert.Equal(t, 165.0, ev.PeakExtensionAngle)
	assert.Equal(t, PhaseUp, sm.Phase())
	assert.Equal(t, 1, sm.RepCount())
}

// TestRepScenario is the reference scenario: thresholds 160/90, min
// duration 0.3s, samples (0.0,170) (0.5,85) (1.0,88) (1.5,165) → one rep
// with duration 1.5s, peak flexion 85, peak extension 165. The rep clock
// starts at the last sample before the descent crossing (t=0.0 here).
func TestRepScenario(t *testing.T) {
	sm := newMachine(t)

	require.Nil(t, sm.Update(170, 0.0))
	require.Nil(t, sm.Update(85, 0.5))
	require.Nil(t, sm.Update(88, 1.0))

	ev := sm.Update(165, 1.5)
	require.NotNil(t, ev)
	assert.Equal(t, 1, ev.Index)
	assert.Equal(t, 0.0, ev.StartTime)
	assert.Equal(t, 1.5, ev.EndTime)
	assert.Equal(t, 1.5, ev.DurationSec)
	assert.Equal(t, 85.0, ev.PeakFlexionAngle)
	assert.Equal(t, 165.0, ev.PeakExtensionAngle)
}

// TestShortRepDiscarded verifies a dip faster than the minimum duration
// produces no event regardless of depth, and the machine still returns
// cleanly to UP.
func TestShortRepDiscarded(t *testing.T) {
	sm := newMachine(t)

	require.Nil(t, sm.Update(170, 0.0))
	require.Nil(t, sm.Update(85, 0.1))
	require.Nil(t, sm.Update(165, 0.15))

	assert.Equal(t, PhaseUp, sm.Phase())
	assert.Equal(t, 0, sm.RepCount())

	// The machine must still count a subsequent slow rep normally.
	require.Nil(t, sm.Update(80, 1.0))
	ev := sm.Update(170, 2.0)
	require.NotNil(t, ev)
	assert.Equal(t, 1, ev.Index)
}

// TestHysteresisBandNoOps verifies samples between the thresholds never
// change phase or emit events, in either phase.
func TestHysteresisBandNoOps(t *testing.T) {
	sm := newMachine(t)

	for i, angle := range []float64{120, 100, 150, 95, 159.9} {
		assert.Nil(t, sm.Update(angle, float64(i)))
		assert.Equal(t, PhaseUp, sm.Phase())
	}

	require.Nil(t, sm.Update(85, 10))
	require.Equal(t, PhaseDown, sm.Phase())

	for i, angle := range []float64{95, 130, 155, 100} {
		assert.Nil(t, sm.Update(angle, 11+float64(i)))
		assert.Equal(t, PhaseDown, sm.Phase())
	}
}

// TestThresholdEqualityNotCrossed verifies a sample exactly on a threshold
// does not transition — strict inequality avoids boundary chatter.
func TestThresholdEqualityNotCrossed(t *testing.T) {
	sm := newMachine(t)

	assert.Nil(t, sm.Update(90, 0.0))
	assert.Equal(t, PhaseUp, sm.Phase())

	require.Nil(t, sm.Update(89.9, 0.5))
	require.Equal(t, PhaseDown, sm.Phase())

	assert.Nil(t, sm.Update(160, 1.5))
	assert.Equal(t, PhaseDown, sm.Phase())

	ev := sm.Update(160.1, 2.0)
	require.NotNil(t, ev)
	assert.Equal(t, 160.1, ev.PeakExtensionAngle)
}

// TestPeakFlexionTracksRedip verifies a bounce — partial climb into the
// band, then a deeper dip — stays one rep with the deepest angle as peak
// flexion, not two reps.
func TestPeakFlexionTracksRedip(t *testing.T) {
	sm := newMachine(t)

	require.Nil(t, sm.Update(170, 0.0))
	require.Nil(t, sm.Update(85, 0.5))
	require.Nil(t, sm.Update(110, 1.0)) // partial climb, still descended
	require.Nil(t, sm.Update(78, 1.5))  // deeper second dip
	require.Nil(t, sm.Update(120, 2.0))

	ev := sm.Update(165, 2.5)
	require.NotNil(t, ev)
	assert.Equal(t, 1, ev.Index)
	assert.Equal(t, 78.0, ev.PeakFlexionAngle)
	assert.Equal(t, 1, sm.RepCount())
}

// TestMultipleReps verifies consecutive cycles get sequential indices and
// independent peak tracking.
func TestMultipleReps(t *testing.T) {
	sm := newMachine(t)

	samples := []struct {
		t, angle float64
	}{
		{0, 170}, {1, 85}, {2, 170},
		{3, 70}, {4, 170},
		{5, 88}, {6, 170},
	}

	var events []*RepEvent
	for _, s := range samples {
		if ev := sm.Update(s.angle, s.t); ev != nil {
			events = append(events, ev)
		}
	}

	require.Len(t, events, 3)
	assert.Equal(t, []float64{85, 70, 88}, []float64{
		events[0].PeakFlexionAngle, events[1].PeakFlexionAngle, events[2].PeakFlexionAngle,
	})
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Index)
	}
}

// TestNoRepWithoutDescent verifies an angle that never drops below the
// lower threshold produces no event, however long the session runs.
func TestNoRepWithoutDescent(t *testing.T) {
	sm := newMachine(t)

	for i, angle := range []float64{170, 150, 110, 95, 130, 175, 168} {
		assert.Nil(t, sm.Update(angle, float64(i)))
	}
	assert.Equal(t, 0, sm.RepCount())
}
