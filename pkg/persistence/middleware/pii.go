package middleware

import (
	"context"
	"log/slog"

	"github.com/empassist/empassist/pkg/domain"
	"github.com/empassist/empassist/pkg/ports"
)

const mask = "***"

// Redact returns a copy of the session with every PII-bearing field masked.
// Phase, counters and timestamps stay intact so the copy is still useful for
// logging and inspection.
func Redact(session *domain.Session) *domain.Session {
	cloned := *session
	if cloned.EmployeeID != "" {
		cloned.EmployeeID = mask
	}
	if cloned.FirstName != "" {
		cloned.FirstName = mask
	}
	if cloned.LastName != "" {
		cloned.LastName = mask
	}
	if session.Identity != nil {
		cloned.Identity = &domain.Identity{EmployeeID: mask, FirstName: mask, LastName: mask}
	}
	if len(session.PendingValues) > 0 {
		cloned.PendingValues = make(map[domain.Field]string, len(session.PendingValues))
		for field := range session.PendingValues {
			cloned.PendingValues[field] = mask
		}
	}
	return &cloned
}

type auditMiddleware struct {
	next   ports.SessionStore
	logger *slog.Logger
}

// NewAuditMiddleware creates a middleware that logs store operations without
// exposing the PII the sessions carry. Values are masked, never the structure.
func NewAuditMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &auditMiddleware{next: next, logger: logger}
	}
}

func (m *auditMiddleware) Save(ctx context.Context, session *domain.Session) error {
	err := m.next.Save(ctx, session)
	redacted := Redact(session)
	m.logger.Debug("session saved",
		"session_id", redacted.ID,
		"phase", redacted.Phase,
		"validated", redacted.Validated,
		"pending_fields", redacted.PendingFields,
		"error", err,
	)
	return err
}

func (m *auditMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := m.next.Load(ctx, sessionID)
	m.logger.Debug("session loaded", "session_id", sessionID, "error", err)
	return session, err
}

func (m *auditMiddleware) Delete(ctx context.Context, sessionID string) error {
	err := m.next.Delete(ctx, sessionID)
	m.logger.Debug("session deleted", "session_id", sessionID, "error", err)
	return err
}

func (m *auditMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
