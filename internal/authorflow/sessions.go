package authorflow

import "sync"

// Sessions keeps per-identity drafts. Each identity's wizard is independent;
// the map is the only shared state and is mutex-guarded.
type Sessions struct {
	mu sync.Mutex
	m  map[int64]*Draft
}

func NewSessions() *Sessions {
	return &Sessions{m: map[int64]*Draft{}}
}

// Get returns the identity's draft, or nil when no wizard is in progress.
func (s *Sessions) Get(tgID int64) *Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[tgID]
}

// Start discards any previous draft and begins a fresh wizard.
func (s *Sessions) Start(tgID int64) *Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := NewDraft()
	s.m[tgID] = d
	return d
}

// Clear cancels the wizard, discarding accumulated input. Side entities
// already committed (e.g. a created subtopic) are not rolled back.
func (s *Sessions) Clear(tgID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, tgID)
}
