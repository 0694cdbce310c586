package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"grievance/internal"
)

type Session struct {
	ID     string
	UserID int64
	Name   string
	Mobile string
	Role   internal.Role

	created time.Time
}

// SessionStore keeps sessions in memory; they do not survive a restart.
// Sessions older than ttl are dropped when looked up, and the whole map is
// swept at most once per ttl.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{sessions: map[string]Session{}, ttl: ttl, now: time.Now}
}

func (s *SessionStore) Create(sess Session) Session {
	sess.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess.created = now
	s.sessions[sess.ID] = sess
	s.sweepLocked(now)
	return sess
}

func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if s.expired(sess, s.now()) {
		s.Delete(id)
		return Session{}, false
	}
	return sess, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports how many sessions are held, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(sess Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.created) >= s.ttl
}

func (s *SessionStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
		}
	}
}
