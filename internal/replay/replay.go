package replay

import (
	"fmt"

	"github.com/claude/physioreps/internal/engine"
	"github.com/claude/physioreps/internal/models"
	"github.com/claude/physioreps/internal/session"
)

// Result is everything a replayed log produced: the session summary,
// the detected reps, and the full angle series.
type Result struct {
	Summary         engine.Summary
	Reps            []engine.RepEvent
	Samples         []models.SampleRow
	FramesProcessed int
	FramesSkipped   int
}

// Run drives the frames through a fresh processor, in order. A log
// whose frames all fail the pose quality gates yields
// engine.ErrEmptySession, same as a live session that recorded nothing.
func Run(opts session.Options, frames []models.FramePayload) (*Result, error) {
	proc, err := session.NewProcessor(opts)
	if err != nil {
		return nil, err
	}

	for i, frame := range frames {
		if _, err := proc.ProcessFrame(frame); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i+1, err)
		}
	}

	sum, err := proc.Snapshot()
	if err != nil {
		return nil, err
	}

	return &Result{
		Summary:         sum,
		Reps:            proc.Reps(),
		Samples:         proc.Samples(),
		FramesProcessed: proc.FramesProcessed(),
		FramesSkipped:   proc.FramesSkipped(),
	}, nil
}
