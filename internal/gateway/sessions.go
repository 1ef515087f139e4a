package gateway

import (
	"sync"

	"github.com/google/uuid"
)

// sessionRegistry is the concurrency-safe index of active sessions.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[uuid.UUID]*Session)}
}

func (r *sessionRegistry) add(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
}

func (r *sessionRegistry) get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

func (r *sessionRegistry) remove(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return sess, ok
}

func (r *sessionRegistry) all() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}
