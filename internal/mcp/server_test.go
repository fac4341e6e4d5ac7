package mcp

import (
	"testing"

	"github.com/claude/physioreps/internal/models"
)

// TestDefaultTimeRange verifies time range defaults (last 30 days) and parsing.
func TestDefaultTimeRange(t *testing.T) {
	// Both empty → defaults to last 30 days
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 719 || diff.Hours() > 721 { // ~720 hours = 30 days
		t.Errorf("default range = %.0f hours, want ~720", diff.Hours())
	}

	// Explicit dates
	start, end, err = defaultTimeRange("2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2026 || start.Month() != 1 || start.Day() != 1 {
		t.Errorf("start = %v, want 2026-01-01", start)
	}
	if end.Year() != 2026 || end.Month() != 1 || end.Day() != 31 {
		t.Errorf("end = %v, want 2026-01-31", end)
	}

	// RFC3339
	start, _, err = defaultTimeRange("2026-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	// Invalid
	_, _, err = defaultTimeRange("not-a-date", "")
	if err == nil {
		t.Error("expected error for invalid date")
	}
}

// TestDownsample verifies the even-stride reduction keeps endpoints
// representative and leaves short series untouched.
func TestDownsample(t *testing.T) {
	series := func(n int) []models.SampleRow {
		rows := make([]models.SampleRow, n)
		for i := range rows {
			rows[i] = models.SampleRow{TimestampSec: float64(i)}
		}
		return rows
	}

	// Fewer rows than max → returned as-is
	short := series(10)
	if got := downsample(short, 500); len(got) != 10 {
		t.Errorf("short series len = %d, want 10", len(got))
	}

	// Exact fit → untouched
	if got := downsample(series(500), 500); len(got) != 500 {
		t.Errorf("exact fit len = %d, want 500", len(got))
	}

	// Long series → reduced to max, first sample kept, order preserved
	got := downsample(series(2000), 500)
	if len(got) != 500 {
		t.Fatalf("len = %d, want 500", len(got))
	}
	if got[0].TimestampSec != 0 {
		t.Errorf("first sample = %g, want 0", got[0].TimestampSec)
	}
	for i := 1; i < len(got); i++ {
		if got[i].TimestampSec <= got[i-1].TimestampSec {
			t.Fatalf("order broken at %d: %g then %g", i, got[i-1].TimestampSec, got[i].TimestampSec)
		}
	}

	// Non-positive max → no reduction
	if got := downsample(series(100), 0); len(got) != 100 {
		t.Errorf("max=0 len = %d, want 100", len(got))
	}
}

// TestSessionDelta verifies the B-minus-A comparison math.
func TestSessionDelta(t *testing.T) {
	a := &models.SessionRow{TotalValidReps: 8, AvgKneeAngle: 130.0, MinDepthAngle: 86.5, DurationSec: 60.0}
	b := &models.SessionRow{TotalValidReps: 10, AvgKneeAngle: 128.5, MinDepthAngle: 82.0, DurationSec: 75.0}

	d := sessionDelta(a, b)
	if d["total_valid_reps"] != 2 {
		t.Errorf("rep delta = %g, want 2", d["total_valid_reps"])
	}
	if d["avg_knee_angle"] != -1.5 {
		t.Errorf("avg delta = %g, want -1.5", d["avg_knee_angle"])
	}
	if d["min_depth_angle"] != -4.5 {
		t.Errorf("depth delta = %g, want -4.5", d["min_depth_angle"])
	}
	if d["duration_sec"] != 15.0 {
		t.Errorf("duration delta = %g, want 15", d["duration_sec"])
	}
}
