package goIdentity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of an issued session token.
type SessionClaims struct {
	Email string `json:"email"`
	Level string `json:"lvl"`
	jwt.RegisteredClaims
}

// tokenManager signs and validates HS256 session tokens. Token issuance is
// the final step of every successful login path; nothing else in the engine
// consumes tokens, so validation exists for the hosting layer.
type tokenManager struct {
	key   []byte
	ttl   time.Duration
	clock Clock
}

func newTokenManager(cfg TokenConfig, clock Clock) *tokenManager {
	return &tokenManager{key: cfg.SigningKey, ttl: cfg.TTL, clock: clock}
}

func (m *tokenManager) Issue(u *User) (string, error) {
	if m == nil || len(m.key) == 0 {
		return "", ErrEngineNotReady
	}

	now := m.clock.Now()
	claims := SessionClaims{
		Email: u.Email,
		Level: u.SecurityLevel.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return token, nil
}

func (m *tokenManager) Parse(token string) (*SessionClaims, error) {
	if m == nil || len(m.key) == 0 {
		return nil, ErrEngineNotReady
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ValidateToken parses and validates a session token previously issued by
// this engine.
func (e *Engine) ValidateToken(token string) (*SessionClaims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	return e.tokens.Parse(token)
}
