package goIdentity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goIdentity/cryptobox"
)

// Store is the persistence boundary for user records. Implementations must
// serialize mutations per user so read-modify-write cycles never lose
// updates, must treat returned records as snapshots (no aliasing into stored
// state), and must report an absent user as [ErrUserNotFound].
type Store interface {
	// CreateUser persists a new user, assigning an ID when empty. It fails
	// with [ErrDuplicateEmail] when the email already has an account.
	CreateUser(ctx context.Context, user *User) (*User, error)
	// GetUserByEmail returns the user owning email, decrypted.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// GetUserByID returns the user with the given ID, decrypted.
	GetUserByID(ctx context.Context, id string) (*User, error)
	// UpdateUser replaces the stored record with the given snapshot. The
	// stored ID wins; email changes re-key the record.
	UpdateUser(ctx context.Context, user *User) (*User, error)
	// UpdateLastLogin stamps the user's last-login time.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	// AppendLoginRecord appends one immutable login-history entry.
	AppendLoginRecord(ctx context.Context, userID string, record LoginRecord) error
	// LoginHistory returns the user's login records in append order.
	LoginHistory(ctx context.Context, userID string) ([]LoginRecord, error)
}

// MemoryStore is the in-memory [Store]. Email and name are encrypted at
// rest through cryptobox; lookups go through an email digest index so the
// plaintext address never sits in a map key. Safe for concurrent use; a
// single mutex serializes all mutations, which trivially satisfies the
// per-user ordering contract.
type MemoryStore struct {
	box *cryptobox.Box

	mu      sync.RWMutex
	byEmail map[string]*User // email digest -> encrypted record
	byID    map[string]string
}

// NewMemoryStore returns an empty MemoryStore encrypting PII with box.
func NewMemoryStore(box *cryptobox.Box) *MemoryStore {
	return &MemoryStore{
		box:     box,
		byEmail: make(map[string]*User),
		byID:    make(map[string]string),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryStore) emailKey(email string) string {
	return cryptobox.Hash(normalizeEmail(email))
}

// seal returns a storable copy of user with PII fields encrypted.
func (s *MemoryStore) seal(user *User) (*User, error) {
	sealed := user.Clone()

	var err error
	if sealed.Email, err = s.box.Encrypt(normalizeEmail(user.Email)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	if sealed.Name, err = s.box.Encrypt(user.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	return sealed, nil
}

// open decrypts the PII fields of snapshot in place and returns it. The
// snapshot must already be detached from stored state; getters clone under
// the lock before calling open so in-place mutations (login appends,
// last-login stamps) never race a reader.
func (s *MemoryStore) open(snapshot *User) (*User, error) {
	var err error
	if snapshot.Email, err = s.box.Decrypt(snapshot.Email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	if snapshot.Name, err = s.box.Decrypt(snapshot.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	return snapshot, nil
}

// CreateUser implements [Store].
func (s *MemoryStore) CreateUser(_ context.Context, user *User) (*User, error) {
	if user == nil || normalizeEmail(user.Email) == "" {
		return nil, ErrStoreUnavailable
	}

	plain := user.Clone()
	if plain.ID == "" {
		plain.ID = uuid.NewString()
	}
	plain.Email = normalizeEmail(plain.Email)

	sealed, err := s.seal(plain)
	if err != nil {
		return nil, err
	}
	key := s.emailKey(plain.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[key]; exists {
		return nil, ErrDuplicateEmail
	}
	s.byEmail[key] = sealed
	s.byID[plain.ID] = key

	return plain, nil
}

// GetUserByEmail implements [Store].
func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	var snapshot *User
	if record, ok := s.byEmail[s.emailKey(email)]; ok {
		snapshot = record.Clone()
	}
	s.mu.RUnlock()

	if snapshot == nil {
		return nil, ErrUserNotFound
	}
	return s.open(snapshot)
}

// GetUserByID implements [Store].
func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	var snapshot *User
	if key, ok := s.byID[id]; ok {
		if record, ok := s.byEmail[key]; ok {
			snapshot = record.Clone()
		}
	}
	s.mu.RUnlock()

	if snapshot == nil {
		return nil, ErrUserNotFound
	}
	return s.open(snapshot)
}

// UpdateUser implements [Store].
func (s *MemoryStore) UpdateUser(_ context.Context, user *User) (*User, error) {
	if user == nil || user.ID == "" {
		return nil, ErrUserNotFound
	}

	plain := user.Clone()
	plain.Email = normalizeEmail(plain.Email)

	sealed, err := s.seal(plain)
	if err != nil {
		return nil, err
	}
	newKey := s.emailKey(plain.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	oldKey, ok := s.byID[plain.ID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if newKey != oldKey {
		if _, taken := s.byEmail[newKey]; taken {
			return nil, ErrDuplicateEmail
		}
		delete(s.byEmail, oldKey)
	}
	s.byEmail[newKey] = sealed
	s.byID[plain.ID] = newKey

	return plain, nil
}

// mutate runs fn against the stored record under the write lock. The
// encrypted fields are left untouched, so fn must not read or write Email
// or Name.
func (s *MemoryStore) mutate(userID string, fn func(record *User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	record, ok := s.byEmail[key]
	if !ok {
		return ErrUserNotFound
	}

	fn(record)
	return nil
}

// UpdateLastLogin implements [Store].
func (s *MemoryStore) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	return s.mutate(userID, func(record *User) {
		record.LastLogin = at
	})
}

// AppendLoginRecord implements [Store].
func (s *MemoryStore) AppendLoginRecord(_ context.Context, userID string, record LoginRecord) error {
	return s.mutate(userID, func(stored *User) {
		stored.LoginHistory = append(stored.LoginHistory, record)
	})
}

// LoginHistory implements [Store].
func (s *MemoryStore) LoginHistory(_ context.Context, userID string) ([]LoginRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.byID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	record, ok := s.byEmail[key]
	if !ok {
		return nil, ErrUserNotFound
	}

	history := make([]LoginRecord, len(record.LoginHistory))
	copy(history, record.LoginHistory)
	return history, nil
}
