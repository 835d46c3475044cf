package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/englishpartner/eva/internal/config"
	"github.com/englishpartner/eva/internal/conversation"
	"github.com/englishpartner/eva/internal/observability"
	"github.com/englishpartner/eva/internal/session"
)

type Server struct {
	cfg       config.Config
	sessions  *session.Manager
	requestor conversation.Requestor
	metrics   *observability.Metrics
	upgrader  websocket.Upgrader
	static    http.Handler
	// configErr blocks conversation endpoints when the service cannot reach
	// its feedback backend (missing credential). Health stays green so the
	// shell can load and show the banner.
	configErr string

	swOnce   sync.Once
	swScript string
}

func New(cfg config.Config, sessions *session.Manager, requestor conversation.Requestor, metrics *observability.Metrics, configErr string) *Server {
	return &Server{
		cfg:       cfg,
		sessions:  sessions,
		requestor: requestor,
		metrics:   metrics,
		static:    newStaticHandler(),
		configErr: configErr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may drive a mic session unless
				// explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))
	r.Get("/sw.js", s.handleServiceWorker)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/app/status", s.handleAppStatus)
	r.Get("/v1/topics", s.handleListTopics)
	r.Get("/v1/perf/latency", s.handlePerfLatency)
	r.Post("/v1/conversation/session", s.handleCreateSession)
	r.Post("/v1/conversation/session/{id}/end", s.handleEndSession)
	r.Get("/v1/conversation/ws", s.handleConversationWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ready",
		"feedback_mode": s.cfg.FeedbackMode,
	})
}

func (s *Server) handleAppStatus(w http.ResponseWriter, _ *http.Request) {
	if s.configErr != "" {
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "config_error",
			"detail": s.configErr,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"feedback_mode": s.cfg.FeedbackMode,
	})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"generated_at": "",
			"window_size":  0,
			"stages":       []any{},
		})
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.StageSnapshot())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	if s.configErr != "" {
		respondError(w, http.StatusServiceUnavailable, "config_error", s.configErr)
		return
	}

	sess := s.sessions.Create()
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	respondJSON(w, http.StatusCreated, map[string]any{
		"session_id":        sess.ID,
		"status":            sess.Status,
		"started_at":        sess.StartedAt,
		"last_activity_at":  sess.LastActivityAt,
		"inactivity_ttl_ms": s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	respondJSON(w, http.StatusOK, sess)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
