package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/physioreps/internal/engine"
	"github.com/claude/physioreps/internal/models"
)

// ErrNoSuchSession is returned for IDs that match no live session.
var ErrNoSuchSession = errors.New("session: no live session with that id")

// Store is the persistence surface the manager needs. *storage.DB
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	CreateSession(ctx context.Context, row models.SessionRow) error
	FinishSession(ctx context.Context, row models.SessionRow) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	InsertReps(ctx context.Context, rows []models.RepRow) (int64, error)
	InsertAngleSamples(ctx context.Context, rows []models.SampleRow) (int64, error)
}

// LiveStatus is the live-overlay view of a running session.
type LiveStatus struct {
	SessionID uuid.UUID         `json:"session_id"`
	Phase     engine.Phase      `json:"phase"`
	RepCount  int               `json:"rep_count"`
	Summary   *models.Telemetry `json:"summary,omitempty"`
}

// Manager owns the live sessions. Each session's engine state has a
// single owner; the manager serializes frame processing per session so
// concurrent HTTP requests cannot interleave mutations.
type Manager struct {
	store Store
	log   *slog.Logger
	opts  Options

	mu     sync.Mutex
	active map[uuid.UUID]*liveSession
}

type liveSession struct {
	mu        sync.Mutex
	id        uuid.UUID
	startedAt time.Time
	proc      *Processor
}

// NewManager creates a manager. The options are validated eagerly so a
// bad configuration fails at startup, not on the first frame.
func NewManager(store Store, opts Options, log *slog.Logger) (*Manager, error) {
	if _, err := NewProcessor(opts); err != nil {
		return nil, err
	}
	return &Manager{
		store:  store,
		log:    log,
		opts:   opts,
		active: make(map[uuid.UUID]*liveSession),
	}, nil
}

// Start creates a new live session and its session row.
func (m *Manager) Start(ctx context.Context) (uuid.UUID, error) {
	proc, err := NewProcessor(m.opts)
	if err != nil {
		return uuid.Nil, err
	}

	s := &liveSession{
		id:        uuid.New(),
		startedAt: time.Now().UTC(),
		proc:      proc,
	}

	if err := m.store.CreateSession(ctx, models.SessionRow{
		ID:        s.id,
		Source:    models.SourceLive,
		StartedAt: s.startedAt,
	}); err != nil {
		return uuid.Nil, fmt.Errorf("creating session row: %w", err)
	}

	m.mu.Lock()
	m.active[s.id] = s
	m.mu.Unlock()

	m.log.Info("session started", "session_id", s.id)
	return s.id, nil
}

func (m *Manager) get(id uuid.UUID) (*liveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[id]
	if !ok {
		return nil, ErrNoSuchSession
	}
	return s, nil
}

// ProcessFrame runs one landmark frame through the identified session.
func (m *Manager) ProcessFrame(id uuid.UUID, frame models.FramePayload) (FrameResult, error) {
	s, err := m.get(id)
	if err != nil {
		return FrameResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.proc.ProcessFrame(frame)
	if err != nil {
		return FrameResult{}, err
	}
	if res.Rep != nil {
		m.log.Info("rep completed", "session_id", id, "rep_index", res.Rep.Index,
			"duration_sec", res.Rep.DurationSec, "peak_flexion", res.Rep.PeakFlexionAngle)
	}
	return res, nil
}

// Live returns the live-overlay status of a running session. The summary
// is nil until the first angle sample lands.
func (m *Manager) Live(id uuid.UUID) (LiveStatus, error) {
	s, err := m.get(id)
	if err != nil {
		return LiveStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status := LiveStatus{
		SessionID: id,
		Phase:     s.proc.Phase(),
		RepCount:  s.proc.RepCount(),
	}
	if sum, err := s.proc.Snapshot(); err == nil {
		tel := models.TelemetryFromSummary(sum)
		status.Summary = &tel
	}
	return status, nil
}

// AngleSeries returns the angle samples recorded so far for a live
// session, for charting before the session is persisted.
func (m *Manager) AngleSeries(id uuid.UUID) ([]models.SampleRow, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SampleRow(nil), s.proc.Samples()...), nil
}

// End finalizes a session: computes the summary, persists the session
// row, its reps, and its angle series, and removes it from the live set.
// A session that recorded no samples is discarded (row deleted) and
// engine.ErrEmptySession is returned — there is no data to summarize.
func (m *Manager) End(ctx context.Context, id uuid.UUID) (*models.SessionRow, []models.RepRow, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Remove from the live set regardless of outcome; a second End on the
	// same ID reports ErrNoSuchSession.
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()

	sum, err := s.proc.Snapshot()
	if errors.Is(err, engine.ErrEmptySession) {
		m.log.Warn("session ended with no samples, discarding", "session_id", id)
		if delErr := m.store.DeleteSession(ctx, id); delErr != nil {
			m.log.Error("failed to delete empty session", "session_id", id, "error", delErr)
		}
		return nil, nil, err
	}
	if err != nil {
		return nil, nil, err
	}

	endedAt := time.Now().UTC()
	row := models.SessionRow{
		ID:              id,
		Source:          models.SourceLive,
		StartedAt:       s.startedAt,
		EndedAt:         &endedAt,
		TotalValidReps:  sum.TotalValidReps,
		AvgKneeAngle:    sum.AvgKneeAngle,
		MinDepthAngle:   sum.MinDepthAngle,
		DurationSec:     sum.SessionDurationSec,
		FramesProcessed: s.proc.FramesProcessed(),
		FramesSkipped:   s.proc.FramesSkipped(),
	}

	reps := RepRows(id, s.proc.Reps())
	samples := s.proc.Samples()
	for i := range samples {
		samples[i].SessionID = id
	}

	if err := m.store.FinishSession(ctx, row); err != nil {
		return nil, nil, fmt.Errorf("persisting session: %w", err)
	}
	if _, err := m.store.InsertReps(ctx, reps); err != nil {
		return nil, nil, fmt.Errorf("persisting reps: %w", err)
	}
	if _, err := m.store.InsertAngleSamples(ctx, samples); err != nil {
		return nil, nil, fmt.Errorf("persisting angle samples: %w", err)
	}

	m.log.Info("session ended", "session_id", id,
		"reps", sum.TotalValidReps, "duration_sec", sum.SessionDurationSec,
		"frames_processed", row.FramesProcessed, "frames_skipped", row.FramesSkipped)
	return &row, reps, nil
}

// Thresholds returns the configured upper and lower angle thresholds,
// for overlays and charts.
func (m *Manager) Thresholds() (upper, lower float64) {
	return m.opts.Engine.UpperThreshold, m.opts.Engine.LowerThreshold
}

// RepRows converts engine rep events into storage rows for a session.
func RepRows(sessionID uuid.UUID, events []engine.RepEvent) []models.RepRow {
	rows := make([]models.RepRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, models.RepRow{
			SessionID:          sessionID,
			RepIndex:           ev.Index,
			StartTimeSec:       ev.StartTime,
			EndTimeSec:         ev.EndTime,
			DurationSec:        ev.DurationSec,
			PeakFlexionAngle:   ev.PeakFlexionAngle,
			PeakExtensionAngle: ev.PeakExtensionAngle,
		})
	}
	return rows
}
