package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/outlinesync/internal/config"
	"github.com/dgallion1/outlinesync/internal/session"
	"github.com/dgallion1/outlinesync/internal/settings"
	"github.com/dgallion1/outlinesync/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP API the browser extension talks to.
type Server struct {
	router   chi.Router
	sessions *session.Manager
	settings *settings.Store
	stats    *stats.RefreshStats
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *session.Manager, st *settings.Store, rs *stats.RefreshStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions: sessions,
		settings: st,
		stats:    rs,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/settings", s.handleGetSettings)
		r.Put("/api/settings", s.handlePutSettings)
		r.Get("/api/stats/refresh", s.handleRefreshStats)

		r.Post("/api/sessions", s.handleCreateSession)
		r.Get("/api/sessions", s.handleListSessions)

		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)

			r.Get("/outline", s.handleGetOutline)
			r.Get("/outline/ws", s.handleOutlineWS)
			r.Post("/outline/{action}", s.handleOutlineAction)

			r.Post("/messages", s.handleAppendMessage)
			r.Post("/chunks", s.handleAppendChunk)
			r.Post("/generation/{phase}", s.handleGeneration)
			r.Post("/scroll", s.handleScroll)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
