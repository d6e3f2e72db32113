package solveflow

import "sync"

// Sessions keeps per-identity quiz sessions, mutex-guarded like the
// authoring sessions. No timeout: a stale session persists until a terminal
// action clears it.
type Sessions struct {
	mu sync.Mutex
	m  map[int64]*Session
}

func NewSessions() *Sessions {
	return &Sessions{m: map[int64]*Session{}}
}

func (s *Sessions) Get(tgID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[tgID]
}

func (s *Sessions) Start(tgID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := New()
	s.m[tgID] = sess
	return sess
}

func (s *Sessions) Clear(tgID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, tgID)
}
