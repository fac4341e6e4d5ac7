// Package session owns the per-workout lifecycle: it wires landmark
// frames through the angle calculator, state machine, and aggregator, and
// persists the outcome when a session ends.
package session

import (
	"errors"
	"fmt"

	"github.com/claude/physioreps/internal/engine"
	"github.com/claude/physioreps/internal/kinematics"
	"github.com/claude/physioreps/internal/models"
)

// Skip reasons reported per frame.
const (
	SkipMissingLandmark = "missing_landmark"
	SkipLowVisibility   = "low_visibility"
	SkipDegenerate      = "degenerate_geometry"
)

// Options configures a processor.
type Options struct {
	Engine        engine.Config
	Side          kinematics.Side
	MinVisibility float64
}

// FrameResult reports what one frame did to the session.
type FrameResult struct {
	// Skipped is set when no angle could be computed; SkipReason says why.
	// Skipped frames change nothing: no sample is recorded and the state
	// machine is not advanced.
	Skipped    bool             `json:"skipped"`
	SkipReason string           `json:"skip_reason,omitempty"`
	AngleDeg   float64          `json:"angle_deg"`
	Phase      engine.Phase     `json:"phase"`
	RepCount   int              `json:"rep_count"`
	Rep        *engine.RepEvent `json:"rep,omitempty"`
}

// Processor runs the full kinematic pipeline for one session. It is not
// safe for concurrent use; Manager serializes access, and replay drives
// it from a single goroutine.
type Processor struct {
	sm  *engine.StateMachine
	agg *engine.Aggregator

	hipID, kneeID, ankleID kinematics.LandmarkID
	minVisibility          float64

	reps    []engine.RepEvent
	samples []models.SampleRow

	framesProcessed int
	framesSkipped   int
}

// NewProcessor validates the options and returns a processor ready for
// its first frame.
func NewProcessor(opts Options) (*Processor, error) {
	sm, err := engine.NewStateMachine(opts.Engine)
	if err != nil {
		return nil, err
	}
	hip, knee, ankle, err := opts.Side.Joints()
	if err != nil {
		return nil, err
	}
	if opts.MinVisibility < 0 || opts.MinVisibility > 1 {
		return nil, fmt.Errorf("min visibility %g outside [0,1]", opts.MinVisibility)
	}

	return &Processor{
		sm:            sm,
		agg:           engine.NewAggregator(),
		hipID:         hip,
		kneeID:        knee,
		ankleID:       ankle,
		minVisibility: opts.MinVisibility,
	}, nil
}

// ProcessFrame runs one landmark frame through the pipeline. A frame that
// yields no usable angle (missing or low-visibility landmarks, degenerate
// geometry) is skipped in place: phase and peak tracking stay untouched,
// so an isolated bad frame can neither false-trigger nor abort a rep.
func (p *Processor) ProcessFrame(frame models.FramePayload) (FrameResult, error) {
	if err := frame.Validate(); err != nil {
		return FrameResult{}, err
	}

	hip, knee, ankle, reason := p.extract(&frame)
	if reason != "" {
		return p.skip(reason), nil
	}

	angle, err := kinematics.JointAngle(hip, knee, ankle)
	if errors.Is(err, kinematics.ErrDegenerateGeometry) {
		return p.skip(SkipDegenerate), nil
	}
	if err != nil {
		return FrameResult{}, err
	}

	t := frame.TimestampSec
	ev := p.sm.Update(angle, t)
	p.agg.RecordSample(angle, t)
	p.samples = append(p.samples, models.SampleRow{
		TimestampSec: t,
		AngleDeg:     angle,
		Phase:        string(p.sm.Phase()),
	})

	if ev != nil {
		p.agg.RecordRep(*ev)
		p.reps = append(p.reps, *ev)
	}

	p.framesProcessed++
	return FrameResult{
		AngleDeg: angle,
		Phase:    p.sm.Phase(),
		RepCount: p.sm.RepCount(),
		Rep:      ev,
	}, nil
}

func (p *Processor) extract(frame *models.FramePayload) (hip, knee, ankle kinematics.Landmark, reason string) {
	var ok bool
	if hip, ok = frame.Find(p.hipID); !ok {
		return hip, knee, ankle, SkipMissingLandmark
	}
	if knee, ok = frame.Find(p.kneeID); !ok {
		return hip, knee, ankle, SkipMissingLandmark
	}
	if ankle, ok = frame.Find(p.ankleID); !ok {
		return hip, knee, ankle, SkipMissingLandmark
	}
	if hip.Visibility < p.minVisibility || knee.Visibility < p.minVisibility || ankle.Visibility < p.minVisibility {
		return hip, knee, ankle, SkipLowVisibility
	}
	return hip, knee, ankle, ""
}

func (p *Processor) skip(reason string) FrameResult {
	p.framesSkipped++
	return FrameResult{
		Skipped:    true,
		SkipReason: reason,
		Phase:      p.sm.Phase(),
		RepCount:   p.sm.RepCount(),
	}
}

// Snapshot returns the current session summary. Mid-session calls are
// fine; engine.ErrEmptySession means no frame has produced an angle yet.
func (p *Processor) Snapshot() (engine.Summary, error) {
	return p.agg.Snapshot()
}

// Phase returns the state machine's confirmed phase.
func (p *Processor) Phase() engine.Phase { return p.sm.Phase() }

// RepCount returns the number of valid reps so far.
func (p *Processor) RepCount() int { return p.sm.RepCount() }

// Reps returns the rep events recorded so far.
func (p *Processor) Reps() []engine.RepEvent { return p.reps }

// Samples returns the angle time series recorded so far.
func (p *Processor) Samples() []models.SampleRow { return p.samples }

// FramesProcessed returns the count of frames that produced an angle.
func (p *Processor) FramesProcessed() int { return p.framesProcessed }

// FramesSkipped returns the count of frames skipped without an angle.
func (p *Processor) FramesSkipped() int { return p.framesSkipped }
