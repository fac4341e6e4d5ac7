package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/claude/physioreps/internal/models"
	"github.com/claude/physioreps/internal/session"
)

// handleChart renders the knee-angle time series of a session as an HTML
// line chart, with mark lines at the two thresholds. Ended sessions come
// from the database; a still-live session falls back to the manager's
// in-memory series.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	samples, err := s.db.QueryAngleSeries(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if len(samples) == 0 {
		live, liveErr := s.mgr.AngleSeries(id)
		if errors.Is(liveErr, session.ErrNoSuchSession) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no samples for session"})
			return
		}
		if liveErr != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": liveErr.Error()})
			return
		}
		samples = live
	}
	if len(samples) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no samples for session"})
		return
	}

	upper, lower := s.mgr.Thresholds()
	line := buildAngleChart(id.String(), samples, upper, lower)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		s.log.Error("rendering chart", "session_id", id, "error", err)
	}
}

func buildAngleChart(title string, samples []models.SampleRow, upper, lower float64) *charts.Line {
	xs := make([]string, 0, len(samples))
	ys := make([]opts.LineData, 0, len(samples))
	for _, sm := range samples {
		xs = append(xs, fmt.Sprintf("%.2f", sm.TimestampSec))
		ys = append(ys, opts.LineData{Value: sm.AngleDeg})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Knee angle over time",
			Subtitle: "session " + title,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "angle (°)", Min: 0, Max: 180}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	line.SetXAxis(xs).
		AddSeries("knee angle", ys).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithMarkLineNameYAxisItemOpts(
				opts.MarkLineNameYAxisItem{Name: "upper threshold", YAxis: upper},
				opts.MarkLineNameYAxisItem{Name: "lower threshold", YAxis: lower},
			),
		)
	return line
}
