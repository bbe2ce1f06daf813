package goIdentity

import (
	"sync"
	"time"
)

// pendingAuth is the transient record of a password-validated login waiting
// on its one-time code. It is keyed by a per-attempt challenge ID so
// concurrent logins in one process never observe each other's state, and it
// is destroyed on success or expiry. Failed code attempts keep the record so
// the user may retry until the challenge expires.
type pendingAuth struct {
	UserID    string
	ExpiresAt time.Time
}

type pendingAuthStore struct {
	mu         sync.Mutex
	challenges map[string]pendingAuth
	clock      Clock
}

func newPendingAuthStore(clock Clock) *pendingAuthStore {
	return &pendingAuthStore{
		challenges: make(map[string]pendingAuth),
		clock:      clock,
	}
}

func (s *pendingAuthStore) Save(challengeID, userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Opportunistic sweep so abandoned challenges do not accumulate.
	now := s.clock.Now()
	for id, record := range s.challenges {
		if !record.ExpiresAt.After(now) {
			delete(s.challenges, id)
		}
	}

	s.challenges[challengeID] = pendingAuth{UserID: userID, ExpiresAt: expiresAt}
}

// Get returns the user owning the challenge, or false when the challenge is
// unknown or expired. Expired challenges are removed on access.
func (s *pendingAuthStore) Get(challengeID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.challenges[challengeID]
	if !ok {
		return "", false
	}
	if !record.ExpiresAt.After(s.clock.Now()) {
		delete(s.challenges, challengeID)
		return "", false
	}
	return record.UserID, true
}

func (s *pendingAuthStore) Delete(challengeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, challengeID)
}
