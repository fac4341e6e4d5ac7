package replay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/physioreps/internal/engine"
	"github.com/claude/physioreps/internal/kinematics"
	"github.com/claude/physioreps/internal/models"
	"github.com/claude/physioreps/internal/session"
)

func testOptions() session.Options {
	return session.Options{
		Engine:        engine.DefaultConfig(),
		Side:          kinematics.SideRight,
		MinVisibility: 0.6,
	}
}

// kneeFrame builds a right-leg frame whose knee angle equals the given
// value: hip fixed above the knee, ankle rotated in the XY plane.
func kneeFrame(t, angleDeg float64) models.FramePayload {
	rad := angleDeg * math.Pi / 180
	return models.FramePayload{
		TimestampSec: t,
		Landmarks: []kinematics.Landmark{
			{ID: kinematics.RightHip, X: 0, Y: 1, Z: 0, Visibility: 0.95},
			{ID: kinematics.RightKnee, X: 0, Y: 0, Z: 0, Visibility: 0.95},
			{ID: kinematics.RightAnkle, X: math.Sin(rad), Y: math.Cos(rad), Z: 0, Visibility: 0.95},
		},
	}
}

func squatFrames() []models.FramePayload {
	return []models.FramePayload{
		kneeFrame(0.0, 170),
		kneeFrame(0.5, 85),
		kneeFrame(1.0, 88),
		kneeFrame(1.5, 165),
	}
}

// TestRunFullLog replays a recorded squat and checks the result matches
// what the live pipeline would have produced.
func TestRunFullLog(t *testing.T) {
	res, err := Run(testOptions(), squatFrames())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.TotalValidReps)
	assert.InDelta(t, 127.0, res.Summary.AvgKneeAngle, 1e-6)
	assert.InDelta(t, 85.0, res.Summary.MinDepthAngle, 1e-6)
	assert.InDelta(t, 1.5, res.Summary.SessionDurationSec, 1e-9)
	assert.Equal(t, 4, res.FramesProcessed)
	assert.Equal(t, 0, res.FramesSkipped)
	require.Len(t, res.Reps, 1)
	assert.Len(t, res.Samples, 4)
}

// TestRunEmptyLog verifies a log with no frames reports the
// empty-session condition.
func TestRunEmptyLog(t *testing.T) {
	_, err := Run(testOptions(), nil)
	assert.ErrorIs(t, err, engine.ErrEmptySession)
}

// fakeStore satisfies session.Store for importer tests.
type fakeStore struct {
	created  []models.SessionRow
	finished []models.SessionRow
	reps     []models.RepRow
	samples  []models.SampleRow
}

func (f *fakeStore) CreateSession(_ context.Context, row models.SessionRow) error {
	f.created = append(f.created, row)
	return nil
}

func (f *fakeStore) FinishSession(_ context.Context, row models.SessionRow) error {
	f.finished = append(f.finished, row)
	return nil
}

func (f *fakeStore) DeleteSession(context.Context, uuid.UUID) error { return nil }

func (f *fakeStore) InsertReps(_ context.Context, rows []models.RepRow) (int64, error) {
	f.reps = append(f.reps, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) InsertAngleSamples(_ context.Context, rows []models.SampleRow) (int64, error) {
	f.samples = append(f.samples, rows...)
	return int64(len(rows)), nil
}

func writeLog(t *testing.T, dir, name string, frames []models.FramePayload) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, frame := range frames {
		require.NoError(t, enc.Encode(frame))
	}
	return path
}

// TestImporterRoundTrip imports a directory once, then again, and
// verifies the state db suppresses the duplicate.
func TestImporterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "session_001.jsonl", squatFrames())

	state, err := OpenStateDB(t.TempDir())
	require.NoError(t, err)
	defer state.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &fakeStore{}

	imp := New(store, state, testOptions(), log, "", false)
	stats, err := imp.Import(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.SessionsCreated)
	assert.Equal(t, int64(1), stats.RepsInserted)
	assert.Equal(t, int64(4), stats.SamplesInserted)

	require.Len(t, store.finished, 1)
	row := store.finished[0]
	assert.Equal(t, models.SourceReplay, row.Source)
	assert.Equal(t, 1, row.TotalValidReps)
	require.NotNil(t, row.EndedAt)
	assert.InDelta(t, 1.5, row.EndedAt.Sub(row.StartedAt).Seconds(), 1e-3)
	for _, s := range store.samples {
		assert.Equal(t, row.ID, s.SessionID)
	}

	// Second pass over the same directory is a no-op.
	imp = New(store, state, testOptions(), log, "", false)
	stats, err = imp.Import(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesProcessed)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Len(t, store.finished, 1)
}

// TestImporterDryRun verifies dry-run counts work without persisting.
func TestImporterDryRun(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "session_001.jsonl", squatFrames())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &fakeStore{}

	imp := New(store, nil, testOptions(), log, "", true)
	stats, err := imp.Import(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.SessionsCreated)
	assert.Empty(t, store.created)
	assert.Empty(t, store.finished)
}

// TestImporterWritesExports verifies each replayed log drops its per-rep
// CSV and summary JSON in the export directory, also in dry-run.
func TestImporterWritesExports(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "session_001.jsonl", squatFrames())
	exportDir := filepath.Join(t.TempDir(), "analysis")

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &fakeStore{}

	imp := New(store, nil, testOptions(), log, exportDir, true)
	stats, err := imp.Import(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesExported)

	csvData, err := os.ReadFile(filepath.Join(exportDir, "session_001_reps.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "rep_index,start_time,end_time,duration_sec,peak_flexion_angle,peak_extension_angle", lines[0])
	assert.Equal(t, "1,0.000,1.500,1.500,85.0,165.0", lines[1])

	jsonData, err := os.ReadFile(filepath.Join(exportDir, "session_001_summary.json"))
	require.NoError(t, err)
	var tel models.Telemetry
	require.NoError(t, json.Unmarshal(jsonData, &tel))
	assert.Equal(t, 1, tel.TotalValidReps)
	assert.Equal(t, 127.0, tel.AvgKneeAngle)
	require.NotNil(t, tel.MinDepthAngle)
	assert.Equal(t, 85.0, *tel.MinDepthAngle)
	assert.Equal(t, 1.5, tel.SessionDurationSec)
}

// TestImporterBadLog verifies an unparseable log is counted and skipped
// without aborting the run.
func TestImporterBadLog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jsonl"), []byte("not json\n"), 0o644))
	writeLog(t, dir, "session_002.jsonl", squatFrames())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &fakeStore{}

	imp := New(store, nil, testOptions(), log, "", false)
	stats, err := imp.Import(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesErrored)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Len(t, store.finished, 1)
}
