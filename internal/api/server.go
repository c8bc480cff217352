// Package api exposes the careline HTTP surface: the chat relay the
// patient apps stream from, session persistence endpoints, and the
// bearer-protected staff routes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carelinehq/careline/internal/gateway"
	"github.com/carelinehq/careline/internal/store"
	"github.com/carelinehq/careline/internal/voice"
)

// ChatStreamer produces a raw completion event stream. Satisfied by
// *gateway.Client.
type ChatStreamer interface {
	StreamCompletion(ctx context.Context, category string, messages []gateway.Message) (io.ReadCloser, error)
}

// Dialer places outbound calls. Satisfied by *voice.Client.
type Dialer interface {
	StartCall(ctx context.Context, req voice.CallRequest) (string, error)
}

// Publisher emits outcome events on the bus. Satisfied by *events.Client.
type Publisher interface {
	Publish(subject string, data any) error
}

type Server struct {
	router *chi.Mux
	port   int
	store  *store.Store
	chat   ChatStreamer
	dialer Dialer
	bus    Publisher
	logger *slog.Logger
}

func NewServer(port int, apiToken string, db *store.Store, chat ChatStreamer, dialer Dialer, bus Publisher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		store:  db,
		chat:   chat,
		dialer: dialer,
		bus:    bus,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/careline/status", s.status)

	// Patient-facing routes; end-user auth is upstream of this service.
	router.Post("/api/v1/chat", s.relayChat)
	router.Post("/api/v1/sessions", s.createSession)
	router.Post("/api/v1/sessions/{id}/messages", s.appendMessage)
	router.Post("/api/v1/sessions/{id}/complete", s.completeSession)
	router.Post("/api/v1/sessions/{id}/abandon", s.abandonSession)

	// Staff routes.
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/sessions", s.listSessions)
		r.Get("/sessions/{id}", s.getSession)
		r.Get("/sessions/{id}/messages", s.listMessages)
		r.Get("/dashboard/stats", s.dashboardStats)
		r.Post("/calls", s.startCall)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// BearerAuthMiddleware rejects requests without the configured token.
// An empty token closes the staff surface entirely rather than opening it.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if token == "" || auth != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "careline",
		"voice":   s.dialer != nil,
		"bus":     s.bus != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
