// Package http exposes the orchestrator over a stateless chat endpoint.
package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/empassist/empassist/internal/logging"
	"github.com/empassist/empassist/internal/metrics"
	"github.com/empassist/empassist/pkg/agents"
)

const errMissingPrompt = "Provide 'prompt'. Optional: 'thread_id'."

// TurnSubmitter is the orchestrator surface the server needs.
type TurnSubmitter interface {
	SubmitTurn(ctx context.Context, threadID, prompt string) (agents.TurnResult, error)
}

// Server handles the chat boundary: request parsing, the optional API-key
// gate and error translation. Turn semantics live in the orchestrator.
type Server struct {
	orch     TurnSubmitter
	apiKey   string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithAPIKey enables the x-api-key gate with the expected value.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics wires instrumentation and the registry backing GET /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// NewServer creates a chat server over the orchestrator.
func NewServer(orch TurnSubmitter, opts ...Option) *Server {
	s := &Server{
		orch:   orch,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = metrics.New(reg)
		s.gatherer = reg
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(s.requireAPIKey)
		}
		r.Post("/chat", s.chat)
	})
	return r
}

// requireAPIKey rejects requests without the expected x-api-key header.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get("x-api-key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.apiKey)) != 1 {
			http.Error(w, "Missing or invalid x-api-key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type chatRequest struct {
	Prompt   string `json:"prompt"`
	ThreadID string `json:"thread_id"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	// A malformed body degrades to an empty prompt, rejected below.
	_ = json.NewDecoder(r.Body).Decode(&req)
	req.Prompt = strings.TrimSpace(req.Prompt)
	req.ThreadID = strings.TrimSpace(req.ThreadID)

	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMissingPrompt})
		return
	}
	s.metrics.TurnsTotal.Inc()

	result, err := s.orch.SubmitTurn(r.Context(), req.ThreadID, req.Prompt)
	if err != nil {
		s.writeError(w, req.ThreadID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeError(w http.ResponseWriter, threadID string, err error) {
	s.logger.Error("chat turn failed", "thread_id", threadID, "error", err)

	var httpErr *agents.HTTPError
	if errors.As(err, &httpErr) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   fmt.Sprintf("Backend HTTP %d", httpErr.StatusCode),
			"details": httpErr.Body,
		})
		return
	}
	if errors.Is(err, agents.ErrRunTimeout) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Run polling timed out"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
