package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/physioreps/internal/engine"
	"github.com/claude/physioreps/internal/export"
	"github.com/claude/physioreps/internal/models"
	"github.com/claude/physioreps/internal/session"
	"github.com/claude/physioreps/internal/storage"
)

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.mgr.Start(r.Context())
	if err != nil {
		s.log.Error("start session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id.String()})
}

func (s *Server) handleIngestFrame(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var frame models.FramePayload
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	res, err := s.mgr.ProcessFrame(id, frame)
	if errors.Is(err, session.ErrNoSuchSession) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLiveStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	status, err := s.mgr.Live(id)
	if errors.Is(err, session.ErrNoSuchSession) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	row, _, err := s.mgr.End(r.Context(), id)
	switch {
	case errors.Is(err, session.ErrNoSuchSession):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, engine.ErrEmptySession):
		// No data is not a measured zero: the session was discarded.
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "session recorded no samples"})
		return
	case err != nil:
		s.log.Error("end session", "session_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, models.TelemetryFromSummary(engine.Summary{
		TotalValidReps:     row.TotalValidReps,
		AvgKneeAngle:       row.AvgKneeAngle,
		MinDepthAngle:      row.MinDepthAngle,
		SessionDurationSec: row.DurationSec,
	}))
}

func (s *Server) handleQuerySessions(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := s.db.QuerySessions(r.Context(), start, end, 100)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	row, err := s.db.GetSession(r.Context(), id)
	if errors.Is(err, storage.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleGetReps(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	reps, err := s.db.QueryReps(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reps_%s.csv"`, id))
		if err := export.WriteRepsCSV(w, reps); err != nil {
			s.log.Error("writing reps csv", "session_id", id, "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, reps)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDataStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// sessionID parses the {id} URL parameter, writing a 400 on failure.
func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

// parseTimeRange reads optional start/end query params (RFC3339 or
// YYYY-MM-DD), defaulting to the last 30 days.
func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := parseFlexTime(v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
		}
		end = t
	}
	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
