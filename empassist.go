package empassist

import (
	"context"
	"log/slog"
	"time"

	"github.com/empassist/empassist/internal/logging"
	"github.com/empassist/empassist/pkg/adapters/memory"
	"github.com/empassist/empassist/pkg/dialogue"
	"github.com/empassist/empassist/pkg/domain"
	"github.com/empassist/empassist/pkg/ports"
	"github.com/empassist/empassist/pkg/session"
)

// Agent is the high-level entry point for the library. It bundles the
// dialogue manager with session persistence and exposes the one-call local
// path used by the engine host, the MCP adapter and the CLI.
type Agent struct {
	manager  *dialogue.Manager
	sessions *session.Manager

	store  ports.SessionStore
	locker ports.DistributedLocker
	logger *slog.Logger
	clock  func() time.Time
}

// Option defines a functional option for configuring the Agent.
type Option func(*Agent)

// WithStore injects a session store. Defaults to the in-memory store.
func WithStore(store ports.SessionStore) Option {
	return func(a *Agent) { a.store = store }
}

// WithLocker enables distributed locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(a *Agent) { a.locker = locker }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(a *Agent) { a.clock = clock }
}

// New creates an Agent over the two backend tool adapters.
func New(validator ports.Validator, updater ports.Updater, opts ...Option) *Agent {
	a := &Agent{
		logger: logging.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.store == nil {
		a.store = memory.NewStore()
	}

	a.manager = dialogue.New(validator, updater,
		dialogue.WithLogger(a.logger),
		dialogue.WithClock(a.clock),
	)

	sessionOpts := []session.Option{
		session.WithLogger(a.logger),
		session.WithClock(a.clock),
	}
	if a.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(a.locker))
	}
	a.sessions = session.NewManager(a.store, sessionOpts...)

	return a
}

// Respond processes one user turn for the given session and returns the next
// assistant utterance. Unknown session IDs start fresh sessions; turns on the
// same session are serialized.
func (a *Agent) Respond(ctx context.Context, sessionID, text string) (string, error) {
	var reply string
	err := a.sessions.Mutate(ctx, sessionID, func(ctx context.Context, s *domain.Session) error {
		reply = a.manager.Respond(ctx, s, text)
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Session returns a copy of the session's current state, or
// domain.ErrSessionNotFound.
func (a *Agent) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return a.sessions.Load(ctx, sessionID)
}

// EndSession removes the session from the store.
func (a *Agent) EndSession(ctx context.Context, sessionID string) error {
	return a.sessions.Delete(ctx, sessionID)
}

// Sessions lists the IDs of active sessions.
func (a *Agent) Sessions(ctx context.Context) ([]string, error) {
	return a.sessions.List(ctx)
}
