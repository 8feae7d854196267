package memory

import (
	"sync"

	"shopbot/pkg/domain/model"
)

type sessionSlot struct {
	mu      sync.Mutex
	session model.Session
}

// SessionStore holds one session per user. A session is only reachable
// through Acquire, which keeps it locked until release is called.
type SessionStore struct {
	mu    sync.Mutex
	slots map[int64]*sessionSlot
}

func NewSessionStore() *SessionStore {
	return &SessionStore{slots: make(map[int64]*sessionSlot)}
}

func (s *SessionStore) Acquire(userID int64) (*model.Session, func()) {
	s.mu.Lock()
	slot, ok := s.slots[userID]
	if !ok {
		slot = &sessionSlot{session: model.Session{UserID: userID}}
		s.slots[userID] = slot
	}
	s.mu.Unlock()

	slot.mu.Lock()
	return &slot.session, slot.mu.Unlock
}
