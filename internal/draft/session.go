package draft

import (
	"sync"
	"time"
)

// Session ties a draft controller to one editing interaction. Drafts are
// never persisted; an abandoned session simply expires.
type Session struct {
	ID        string
	Draft     *Controller
	StartedAt time.Time

	mu        sync.Mutex
	updatedAt time.Time
}

// Touch marks the session as recently used.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = time.Now()
}

// IsExpired checks if the session has been idle too long.
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.updatedAt) > timeout
}

// SessionStore manages draft sessions by id.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	timeout  time.Duration
}

// NewSessionStore creates a store with the given idle timeout.
func NewSessionStore(timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		timeout:  timeout,
	}
}

// Put registers a session for a freshly created draft.
func (ss *SessionStore) Put(id string, ctrl *Controller) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := time.Now()
	session := &Session{ID: id, Draft: ctrl, StartedAt: now, updatedAt: now}
	ss.sessions[id] = session
	return session
}

// Get returns a live session or nil.
func (ss *SessionStore) Get(id string) *Session {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	session := ss.sessions[id]
	if session == nil || session.IsExpired(ss.timeout) {
		return nil
	}
	return session
}

// Delete removes a session, discarding its draft.
func (ss *SessionStore) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, id)
}

// Cleanup removes expired sessions and reports how many were dropped.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for id, session := range ss.sessions {
		if session.IsExpired(ss.timeout) {
			delete(ss.sessions, id)
			removed++
		}
	}
	return removed
}
