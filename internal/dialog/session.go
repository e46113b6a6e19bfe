// Package dialog holds per-conversation state and turns raw user messages
// into routable, reference-free queries.
package dialog

import "sync"

// Ref identifies one program a conversation can refer back to. Titles alone
// are ambiguous: two records may share a title, and untitled records share a
// sentinel, so the ID is the authoritative half.
type Ref struct {
	ID    string
	Title string
}

// Session is one conversation's state: the last recommendation list in
// display order and the program the conversation currently refers to.
type Session struct {
	mu    sync.Mutex
	ranks []Ref
	last  Ref
}

// SetResults records the last recommendation, in display order.
func (s *Session) SetResults(refs []Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranks = append([]Ref(nil), refs...)
}

// RefAt returns the program shown at the given 1-based rank.
func (s *Session) RefAt(rank int) (Ref, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rank < 1 || rank > len(s.ranks) {
		return Ref{}, false
	}
	return s.ranks[rank-1], true
}

// SetLast records the program the conversation now refers to.
func (s *Session) SetLast(ref Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = ref
}

// Last returns the program the conversation currently refers to. The zero
// Ref means the conversation has no referent yet.
func (s *Session) Last() Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Manager hands out sessions keyed by session ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it on first use.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = &Session{}
		m.sessions[id] = s
	}
	return s
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
