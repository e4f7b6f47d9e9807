package driven

import (
	"context"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
)

// SessionStore persists conversation sessions and their turns.
//
// Turns form an append-only log per session. Sequence numbers are
// assigned by the conversation service, never by the client, and the
// store enforces uniqueness of (session, seq).
type SessionStore interface {
	// SaveSession stores a new session.
	SaveSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// AppendTurn appends a committed turn to its session's log.
	// Appending a duplicate (session, seq) fails with domain.ErrAlreadyExists.
	AppendTurn(ctx context.Context, turn *domain.Turn) error

	// ListTurns returns all turns of a session in sequence order.
	ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error)
}
