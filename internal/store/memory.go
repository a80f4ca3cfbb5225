package store

import (
	"sync"

	"github.com/debtbridge/DebtBridge/internal/models"
)

// InMemoryStore keeps everything in process memory. Used by tests and
// development runs without a database.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	turns    map[string][]models.Turn
	states   map[string]models.ConversationState
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]models.Session),
		turns:    make(map[string][]models.Turn),
		states:   make(map[string]models.ConversationState),
	}
}

func (s *InMemoryStore) AddTurn(sessionID string, t models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[sessionID] = append(s.turns[sessionID], t)
	return nil
}

func (s *InMemoryStore) GetTurns(sessionID string) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.turns[sessionID]
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *InMemoryStore) SaveSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *InMemoryStore) GetSession(id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *InMemoryStore) FindSessionByPhone(phone string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Session
	for _, sess := range s.sessions {
		if sess.PhoneNumber != phone || sess.Status != models.SessionStatusActive {
			continue
		}
		if best == nil || sess.CreatedAt.After(best.CreatedAt) {
			copied := sess
			best = &copied
		}
	}
	return best, nil
}

func (s *InMemoryStore) ListSessions() ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out, nil
}

func (s *InMemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.turns, id)
	delete(s.states, id)
	return nil
}

func (s *InMemoryStore) SaveSessionState(sessionID string, state models.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = state
	return nil
}

func (s *InMemoryStore) GetSessionState(sessionID string) (*models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sessionID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (s *InMemoryStore) Close() error { return nil }
