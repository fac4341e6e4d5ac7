package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/physioreps/internal/session"
	"github.com/claude/physioreps/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	mgr    *session.Manager
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, mgr *session.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		mgr:    mgr,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Session control + frame ingest (API key required — this is the
	// boundary the pose detector posts to)
	s.router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/", s.handleStartSession)
			r.Post("/{id}/frames", s.handleIngestFrame)
			r.Post("/{id}/end", s.handleEndSession)
		})

		// Dashboard reads (no auth — tsnet handles access)
		r.Get("/", s.handleQuerySessions)
		r.Get("/{id}", s.handleGetSession)
		r.Get("/{id}/live", s.handleLiveStatus)
		r.Get("/{id}/reps", s.handleGetReps)
		r.Get("/{id}/chart", s.handleChart)
	})

	s.router.Get("/api/v1/stats", s.handleStats)
}
