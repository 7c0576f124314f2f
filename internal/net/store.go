package net

// SessionStore owns the id → session map for the game loop. All access
// happens from the game loop goroutine, so no locking.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (st *SessionStore) Add(s *Session) {
	st.sessions[s.ID] = s
}

func (st *SessionStore) Remove(id uint64) {
	delete(st.sessions, id)
}

// Get returns the session for an ID, or nil.
func (st *SessionStore) Get(id uint64) *Session {
	return st.sessions[id]
}

func (st *SessionStore) Count() int {
	return len(st.sessions)
}

// Raw exposes the underlying map for iteration with removal.
func (st *SessionStore) Raw() map[uint64]*Session {
	return st.sessions
}

// ForEach calls fn for every session. fn must not add or remove sessions.
func (st *SessionStore) ForEach(fn func(*Session)) {
	for _, s := range st.sessions {
		fn(s)
	}
}
