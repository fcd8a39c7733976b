package auth

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore keeps sessions in process memory. Tokens are lost on
// restart, so it backs tests and single-node development only.
type MemorySessionStore struct {
	mu     sync.Mutex
	byTok  map[string]Session
	byUser map[string]map[string]struct{}
}

func NewInMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		byTok:  make(map[string]Session),
		byUser: make(map[string]map[string]struct{}),
	}
}

func (s *MemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byTok[session.Token]; ok && prev.UserID != session.UserID {
		s.unindex(prev)
	}
	s.byTok[session.Token] = session
	tokens, ok := s.byUser[session.UserID]
	if !ok {
		tokens = make(map[string]struct{})
		s.byUser[session.UserID] = tokens
	}
	tokens[session.Token] = struct{}{}
	return nil
}

func (s *MemorySessionStore) Find(_ context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byTok[token]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byTok[token]
	if !ok {
		return ErrSessionNotFound
	}
	s.unindex(session)
	return nil
}

// DeleteExpired drops every session whose expiry is before cutoff.
func (s *MemorySessionStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for _, session := range s.byTok {
		if session.ExpiresAt.Before(cutoff) {
			s.unindex(session)
			removed++
		}
	}
	return removed, nil
}

// Has reports whether token is stored.
func (s *MemorySessionStore) Has(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byTok[token]
	return ok
}

// UserSessions counts the live tokens held by uid.
func (s *MemorySessionStore) UserSessions(uid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser[uid])
}

// unindex must be called with mu held.
func (s *MemorySessionStore) unindex(session Session) {
	delete(s.byTok, session.Token)
	if tokens, ok := s.byUser[session.UserID]; ok {
		delete(tokens, session.Token)
		if len(tokens) == 0 {
			delete(s.byUser, session.UserID)
		}
	}
}
