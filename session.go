package goIdentity

import (
	"context"
	"errors"
)

// Session is the UI-facing wrapper around an [Engine] for one client: it
// holds the authenticated user snapshot and the in-flight OTP challenge
// between "password accepted" and "code accepted". A Session serves a single
// caller and is not goroutine-safe; concurrent clients each get their own.
type Session struct {
	engine      *Engine
	user        *User
	token       string
	challengeID string
}

// NewSession binds a fresh idle session to the engine.
func NewSession(engine *Engine) *Session {
	return &Session{engine: engine}
}

// Login runs the password step. On a 2FA-enabled account the session parks
// in the awaiting-OTP state and [Session.VerifyOTP] must complete the login.
func (s *Session) Login(ctx context.Context, email, password string) error {
	result, err := s.engine.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if result.Status == StatusAwaitingOTP {
		s.challengeID = result.ChallengeID
		return nil
	}

	s.user = result.User
	s.token = result.SessionToken
	s.challengeID = ""
	return nil
}

// Register creates an account and authenticates the session directly.
func (s *Session) Register(ctx context.Context, creds Credentials) error {
	result, err := s.engine.Register(ctx, creds)
	if err != nil {
		return err
	}

	s.user = result.User
	s.token = result.SessionToken
	s.challengeID = ""
	return nil
}

// VerifyOTP completes a parked login. An invalid code keeps the challenge
// alive for retry; an expired or missing challenge surfaces
// [ErrNoPendingAuth] and resets the session to idle.
func (s *Session) VerifyOTP(ctx context.Context, code string) error {
	if s.challengeID == "" {
		return ErrNoPendingAuth
	}

	result, err := s.engine.ConfirmOTP(ctx, s.challengeID, code)
	if errors.Is(err, ErrNoPendingAuth) {
		s.challengeID = ""
		return err
	}
	if err != nil {
		return err
	}

	s.user = result.User
	s.token = result.SessionToken
	s.challengeID = ""
	return nil
}

// Logout records the logout and clears all session state, including a
// parked challenge.
func (s *Session) Logout(ctx context.Context) error {
	if s.user != nil {
		if err := s.engine.Logout(ctx, s.user.ID); err != nil {
			return err
		}
	}

	s.user = nil
	s.token = ""
	s.challengeID = ""
	return nil
}

// UpdateUser replaces the held snapshot after a collaborator (two-factor
// manager, document upload) produced a newer record version.
func (s *Session) UpdateUser(user *User) {
	s.user = user.Clone()
}

// User returns the authenticated user snapshot, or nil when idle or
// awaiting OTP.
func (s *Session) User() *User {
	return s.user
}

// Token returns the issued session token, empty when not authenticated.
func (s *Session) Token() string {
	return s.token
}

// AwaitingOTP reports whether the session is parked on an OTP challenge.
func (s *Session) AwaitingOTP() bool {
	return s.challengeID != ""
}

// Authenticated reports whether a user holds this session.
func (s *Session) Authenticated() bool {
	return s.user != nil
}
