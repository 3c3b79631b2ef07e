// Package enginehost serves the threads/runs wire protocol locally, backed by
// the rule-based dialogue engine instead of a hosted agents platform. It lets
// the orchestrator, CLI and tests run fully self-contained.
package enginehost

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/empassist/empassist/internal/logging"
)

// Responder produces the next assistant utterance for a session. The root
// Agent satisfies this.
type Responder interface {
	Respond(ctx context.Context, sessionID, text string) (string, error)
}

type message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	Content   []struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
}

func newMessage(role, text string, createdAt int64) message {
	var m message
	m.ID = "msg_" + uuid.NewString()
	m.Role = role
	m.CreatedAt = createdAt
	m.Content = make([]struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	}, 1)
	m.Content[0].Type = "text"
	m.Content[0].Text.Value = text
	return m
}

type thread struct {
	messages []message
	runs     map[string]string // run id -> status
	seq      int64
}

// Host is the local engine host. Runs execute synchronously during creation
// and are observed as already terminal by the normal poll path.
type Host struct {
	responder Responder
	logger    *slog.Logger
	clock     func() time.Time

	mu      sync.Mutex
	threads map[string]*thread
}

// Option configures the Host.
type Option func(*Host)

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(h *Host) { h.clock = clock }
}

// New creates a Host over the given responder.
func New(responder Responder, opts ...Option) *Host {
	h := &Host{
		responder: responder,
		logger:    logging.NewNop(),
		clock:     time.Now,
		threads:   make(map[string]*thread),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handler returns the HTTP handler speaking the threads/runs protocol.
func (h *Host) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/threads", h.createThread)
	r.Post("/threads/{threadID}/messages", h.createMessage)
	r.Post("/threads/{threadID}/runs", h.createRun)
	r.Get("/threads/{threadID}/runs/{runID}", h.getRun)
	r.Get("/threads/{threadID}/messages", h.listMessages)
	return r
}

func (h *Host) createThread(w http.ResponseWriter, r *http.Request) {
	id := "thread_" + uuid.NewString()

	h.mu.Lock()
	h.threads[id] = &thread{runs: make(map[string]string)}
	h.mu.Unlock()

	h.logger.Debug("thread created", "thread_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Host) createMessage(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var body struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message body"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	th, ok := h.threads[threadID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "thread not found"})
		return
	}
	th.seq++
	msg := newMessage(body.Role, body.Content, h.clock().Unix()+th.seq)
	th.messages = append(th.messages, msg)
	writeJSON(w, http.StatusOK, map[string]string{"id": msg.ID})
}

func (h *Host) createRun(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	h.mu.Lock()
	th, ok := h.threads[threadID]
	if !ok {
		h.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "thread not found"})
		return
	}
	prompt := ""
	for i := len(th.messages) - 1; i >= 0; i-- {
		if th.messages[i].Role == "user" {
			prompt = th.messages[i].Content[0].Text.Value
			break
		}
	}
	h.mu.Unlock()

	runID := "run_" + uuid.NewString()
	status := "completed"

	answer, err := h.responder.Respond(r.Context(), threadID, prompt)
	if err != nil {
		h.logger.Error("engine turn failed", "thread_id", threadID, "run_id", runID, "error", err)
		status = "failed"
	}

	h.mu.Lock()
	th.runs[runID] = status
	if status == "completed" {
		th.seq++
		th.messages = append(th.messages, newMessage("assistant", answer, h.clock().Unix()+th.seq))
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"id": runID, "status": status})
}

func (h *Host) getRun(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	runID := chi.URLParam(r, "runID")

	h.mu.Lock()
	defer h.mu.Unlock()
	th, ok := h.threads[threadID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "thread not found"})
		return
	}
	status, ok := th.runs[runID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": runID, "status": status})
}

func (h *Host) listMessages(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	h.mu.Lock()
	defer h.mu.Unlock()
	th, ok := h.threads[threadID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "thread not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": th.messages})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
