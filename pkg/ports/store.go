package ports

import (
	"context"

	"github.com/empassist/empassist/pkg/domain"
)

// SessionStore defines the interface for persisting dialogue sessions.
// This is what keeps identity, pending updates and retry counters alive
// across stateless HTTP turns.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves a session by ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of active sessions.
	List(ctx context.Context) ([]string, error)
}
