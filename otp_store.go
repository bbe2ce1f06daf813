package goIdentity

import (
	"context"
	"sync"
	"time"
)

// otpCodeStore persists hashed one-time codes. Consume must be atomic on the
// used flag: of two racing calls matching the same code, exactly one wins.
type otpCodeStore interface {
	Save(ctx context.Context, code *OTPCode) error
	// Consume marks the first matching unused, unexpired code as used and
	// reports whether one was found.
	Consume(ctx context.Context, userID, digest string, now time.Time) (bool, error)
	// InvalidateAll retires every outstanding code for the user.
	InvalidateAll(ctx context.Context, userID string) error
}

// memoryOTPStore is the default in-process code store. Expired records are
// pruned lazily on save.
type memoryOTPStore struct {
	mu    sync.Mutex
	codes map[string][]*OTPCode
	clock Clock
}

func newMemoryOTPStore(clock Clock) *memoryOTPStore {
	return &memoryOTPStore{
		codes: make(map[string][]*OTPCode),
		clock: clock,
	}
}

func (s *memoryOTPStore) Save(_ context.Context, code *OTPCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	kept := s.codes[code.UserID][:0]
	for _, existing := range s.codes[code.UserID] {
		if existing.ExpiresAt.After(now) {
			kept = append(kept, existing)
		}
	}

	stored := *code
	s.codes[code.UserID] = append(kept, &stored)
	return nil
}

func (s *memoryOTPStore) Consume(_ context.Context, userID, digest string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, code := range s.codes[userID] {
		if code.Digest == digest && !code.Used && code.ExpiresAt.After(now) {
			code.Used = true
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryOTPStore) InvalidateAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.codes, userID)
	return nil
}
