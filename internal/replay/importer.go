package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/physioreps/internal/engine"
	"github.com/claude/physioreps/internal/export"
	"github.com/claude/physioreps/internal/models"
	"github.com/claude/physioreps/internal/session"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int
	FilesExported  int

	SessionsCreated int
	RepsInserted    int64
	SamplesInserted int64
}

// Importer replays every frame log under a directory and persists the
// resulting sessions. The state db remembers finished logs; logs whose
// replay yields no usable samples are counted as errors and not
// persisted.
type Importer struct {
	store     session.Store
	state     *StateDB
	opts      session.Options
	log       *slog.Logger
	exportDir string
	dryRun    bool
	stats     Stats
}

// New creates an Importer. state may be nil, in which case every log is
// replayed unconditionally. A non-empty exportDir makes each replayed
// log also drop its per-rep CSV and summary JSON there; exports are
// written even in dry-run, which turns the importer into an offline
// analysis pass over a log directory.
func New(store session.Store, state *StateDB, opts session.Options, log *slog.Logger, exportDir string, dryRun bool) *Importer {
	return &Importer{store: store, state: state, opts: opts, log: log, exportDir: exportDir, dryRun: dryRun}
}

// Import processes all .jsonl logs under dir, oldest first by filename.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	if imp.exportDir != "" {
		if err := os.MkdirAll(imp.exportDir, 0o755); err != nil {
			return &imp.stats, fmt.Errorf("creating export dir: %w", err)
		}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return &imp.stats, err
	}
	sort.Strings(files)

	for _, f := range files {
		if err := imp.importLog(ctx, f); err != nil {
			return &imp.stats, fmt.Errorf("importing %s: %w", filepath.Base(f), err)
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importLog(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	var hash string
	if imp.state != nil {
		hash, err = HashFile(path)
		if err != nil {
			return fmt.Errorf("hashing: %w", err)
		}
		seen, err := imp.state.IsReplayed(filepath.Base(path), info.Size(), hash)
		if err != nil {
			return fmt.Errorf("checking state: %w", err)
		}
		if seen {
			imp.stats.FilesSkipped++
			return nil
		}
	}

	frames, err := ReadLogFile(path)
	if err != nil {
		imp.log.Warn("parse failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	res, err := Run(imp.opts, frames)
	if errors.Is(err, engine.ErrEmptySession) {
		imp.log.Warn("log produced no samples", "file", path)
		imp.stats.FilesErrored++
		return nil
	}
	if err != nil {
		imp.log.Warn("replay failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	imp.stats.FilesProcessed++
	if imp.exportDir != "" {
		if err := imp.writeExports(path, res); err != nil {
			return err
		}
		imp.stats.FilesExported++
	}
	if imp.dryRun {
		imp.stats.SessionsCreated++
		imp.stats.RepsInserted += int64(len(res.Reps))
		imp.stats.SamplesInserted += int64(len(res.Samples))
		imp.log.Info("would import", "file", path,
			"reps", res.Summary.TotalValidReps, "samples", len(res.Samples))
		return nil
	}

	if err := imp.persist(ctx, info.ModTime().UTC(), res); err != nil {
		return err
	}

	if imp.state != nil {
		if err := imp.state.MarkReplayed(filepath.Base(path), info.Size(), hash); err != nil {
			return fmt.Errorf("recording state: %w", err)
		}
	}

	imp.log.Info("imported log", "file", filepath.Base(path),
		"reps", res.Summary.TotalValidReps, "duration_sec", res.Summary.SessionDurationSec)
	return nil
}

// writeExports drops the per-log analysis files: the per-rep CSV table
// and the telemetry summary JSON, named after the source log.
func (imp *Importer) writeExports(logPath string, res *Result) error {
	base := strings.TrimSuffix(filepath.Base(logPath), filepath.Ext(logPath))

	csvPath := filepath.Join(imp.exportDir, base+"_reps.csv")
	cf, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", csvPath, err)
	}
	if err := export.WriteRepsCSV(cf, session.RepRows(uuid.Nil, res.Reps)); err != nil {
		cf.Close()
		return fmt.Errorf("writing rep csv: %w", err)
	}
	if err := cf.Close(); err != nil {
		return err
	}

	jsonPath := filepath.Join(imp.exportDir, base+"_summary.json")
	jf, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", jsonPath, err)
	}
	if err := export.WriteTelemetryJSON(jf, models.TelemetryFromSummary(res.Summary)); err != nil {
		jf.Close()
		return fmt.Errorf("writing summary json: %w", err)
	}
	return jf.Close()
}

// persist writes the replayed session. Timestamps inside the log are
// session-relative, so the file's mtime anchors the wall-clock window.
func (imp *Importer) persist(ctx context.Context, endedAt time.Time, res *Result) error {
	id := uuid.New()
	startedAt := endedAt.Add(-time.Duration(res.Summary.SessionDurationSec * float64(time.Second)))

	row := models.SessionRow{
		ID:              id,
		Source:          models.SourceReplay,
		StartedAt:       startedAt,
		EndedAt:         &endedAt,
		TotalValidReps:  res.Summary.TotalValidReps,
		AvgKneeAngle:    res.Summary.AvgKneeAngle,
		MinDepthAngle:   res.Summary.MinDepthAngle,
		DurationSec:     res.Summary.SessionDurationSec,
		FramesProcessed: res.FramesProcessed,
		FramesSkipped:   res.FramesSkipped,
	}

	if err := imp.store.CreateSession(ctx, row); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if err := imp.store.FinishSession(ctx, row); err != nil {
		return fmt.Errorf("finishing session: %w", err)
	}

	reps := session.RepRows(id, res.Reps)
	inserted, err := imp.store.InsertReps(ctx, reps)
	if err != nil {
		return fmt.Errorf("inserting reps: %w", err)
	}
	imp.stats.RepsInserted += inserted

	samples := res.Samples
	for i := range samples {
		samples[i].SessionID = id
	}
	inserted, err = imp.store.InsertAngleSamples(ctx, samples)
	if err != nil {
		return fmt.Errorf("inserting angle samples: %w", err)
	}
	imp.stats.SamplesInserted += inserted
	imp.stats.SessionsCreated++
	return nil
}
