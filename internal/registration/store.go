package registration

import (
	"context"
	"sync"
)

// Store keeps in-progress sessions keyed by session id.
type Store interface {
	Load(ctx context.Context, id string) (Session, bool, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

// Sink durably appends finished registration records.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, rec Record) error

func (f SinkFunc) Append(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// MemoryStore is a process-local Store. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return Session{}, false, nil
	}
	return session.Clone(), true, nil
}

func (s *MemoryStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	s.sessions[session.ID] = session.Clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of active sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
