package memory

import (
	"context"
	"sync"

	"trivia-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.SessionState
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.SessionState),
	}
}

func (s *SessionStore) Get(_ context.Context, userID string) (domain.SessionState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[userID]
	return cloneState(state), ok, nil
}

func (s *SessionStore) Save(_ context.Context, state domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.UserID] = cloneState(state)
	return nil
}

// Advance replaces prev with next only while prev is still the stored session.
func (s *SessionStore) Advance(_ context.Context, prev, next domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[prev.UserID]
	if !ok || !current.SamePosition(prev) {
		return domain.ErrSessionConflict
	}
	s.sessions[prev.UserID] = cloneState(next)
	return nil
}

func (s *SessionStore) Take(_ context.Context, userID string) (domain.SessionState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	return state, ok, nil
}

func (s *SessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// cloneState keeps callers from sharing the stored question slice.
func cloneState(state domain.SessionState) domain.SessionState {
	if state.QuestionIDs != nil {
		ids := make([]int64, len(state.QuestionIDs))
		copy(ids, state.QuestionIDs)
		state.QuestionIDs = ids
	}
	return state
}
