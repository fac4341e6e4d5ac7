package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/claude/physioreps/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// sessionDelta compares the headline numbers of two sessions (b minus a).
func sessionDelta(a, b *models.SessionRow) map[string]float64 {
	return map[string]float64{
		"total_valid_reps": float64(b.TotalValidReps - a.TotalValidReps),
		"avg_knee_angle":   b.AvgKneeAngle - a.AvgKneeAngle,
		"min_depth_angle":  b.MinDepthAngle - a.MinDepthAngle,
		"duration_sec":     b.DurationSec - a.DurationSec,
	}
}

// --- Tool definitions ---

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List finished squat sessions in a time range, newest first. Each entry includes rep count, average knee angle, deepest angle, duration, and frame counts."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithNumber("limit", mcp.Description("Maximum sessions to return. Defaults to 50.")),
)

var toolGetSessionSummary = mcp.NewTool("get_session_summary",
	mcp.WithDescription("Get the full summary of one session: rep count, average and minimum knee angles, duration, source (live or replay), and frame quality counts."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetSessionReps = mcp.NewTool("get_session_reps",
	mcp.WithDescription("Get the per-rep breakdown of a session: start/end time, duration, peak flexion (deepest) angle, and peak extension angle for each rep."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolCompareSessions = mcp.NewTool("compare_sessions",
	mcp.WithDescription("Compare two sessions' summaries side by side with deltas (B minus A) for reps, depth, and duration. Useful for tracking progress between workouts."),
	mcp.WithString("session_a", mcp.Required(), mcp.Description("First session UUID (baseline)")),
	mcp.WithString("session_b", mcp.Required(), mcp.Description("Second session UUID")),
)

var toolGetAngleSeries = mcp.NewTool("get_angle_series",
	mcp.WithDescription("Get the knee-angle-over-time series of a session, evenly downsampled to at most max_points samples. Useful for spotting tempo changes or shallow reps within a set."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
	mcp.WithNumber("max_points", mcp.Description("Maximum samples to return. Defaults to 500.")),
)

var toolGetDataStats = mcp.NewTool("get_data_stats",
	mcp.WithDescription("All-time statistics: total sessions, total reps, total angle samples, best depth ever recorded, average reps per session, and the date range covered."),
)

// --- Tool handlers ---

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	limit := req.GetInt("limit", 50)

	sessions, err := h.ds.QuerySessions(ctx, start, end, limit)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_id: " + err.Error()), nil
	}

	row, err := h.ds.GetSession(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(row)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionReps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_id: " + err.Error()), nil
	}

	reps, err := h.ds.QueryReps(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session_reps", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(reps)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) compareSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	aStr, err := req.RequireString("session_a")
	if err != nil {
		return mcp.NewToolResultError("session_a parameter is required"), nil
	}
	bStr, err := req.RequireString("session_b")
	if err != nil {
		return mcp.NewToolResultError("session_b parameter is required"), nil
	}

	aID, err := uuid.Parse(aStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_a: " + err.Error()), nil
	}
	bID, err := uuid.Parse(bStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_b: " + err.Error()), nil
	}

	a, err := h.ds.GetSession(ctx, aID)
	if err != nil {
		h.log.Error("mcp compare_sessions A", "error", err)
		return mcp.NewToolResultError("query failed for session A: " + err.Error()), nil
	}
	b, err := h.ds.GetSession(ctx, bID)
	if err != nil {
		h.log.Error("mcp compare_sessions B", "error", err)
		return mcp.NewToolResultError("query failed for session B: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"session_a": a,
		"session_b": b,
		"delta":     sessionDelta(a, b),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// downsample keeps an even stride over rows so long sessions fit in a
// tool response without losing the shape of the curve.
func downsample(rows []models.SampleRow, max int) []models.SampleRow {
	if max <= 0 || len(rows) <= max {
		return rows
	}
	out := make([]models.SampleRow, 0, max)
	step := float64(len(rows)) / float64(max)
	for i := 0; i < max; i++ {
		out = append(out, rows[int(float64(i)*step)])
	}
	return out
}

func (h *handlers) getAngleSeries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_id: " + err.Error()), nil
	}
	maxPoints := req.GetInt("max_points", 500)

	samples, err := h.ds.QueryAngleSeries(ctx, id)
	if err != nil {
		h.log.Error("mcp get_angle_series", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"total_samples": len(samples),
		"samples":       downsample(samples, maxPoints),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDataStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetDataStats(ctx)
	if err != nil {
		h.log.Error("mcp get_data_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
