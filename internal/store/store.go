// Package store provides storage backends for DebtBridge.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL stores with embedded migrations. The transcript is the source of
// truth for dialogue position; the cached conversation state is an advisory
// snapshot the engine revalidates every turn.
package store

import "github.com/debtbridge/DebtBridge/internal/models"

// Store is the persistence interface the API and response handler depend on.
type Store interface {
	// AddTurn appends a turn to a session's transcript.
	AddTurn(sessionID string, t models.Turn) error
	// GetTurns returns a session's transcript oldest first.
	GetTurns(sessionID string) ([]models.Turn, error)

	SaveSession(s models.Session) error
	// GetSession returns nil, nil when the session does not exist.
	GetSession(id string) (*models.Session, error)
	// FindSessionByPhone returns the most recent active session for a canonical
	// phone number, or nil, nil when there is none.
	FindSessionByPhone(phone string) (*models.Session, error)
	ListSessions() ([]models.Session, error)
	// DeleteSession removes the session, its transcript, and its cached state.
	DeleteSession(id string) error

	// SaveSessionState caches a conversation state snapshot for a session.
	SaveSessionState(sessionID string, state models.ConversationState) error
	// GetSessionState returns nil, nil when no snapshot exists.
	GetSessionState(sessionID string) (*models.ConversationState, error)

	Close() error
}
