package goIdentity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrEthical07/goIdentity/internal"
	"github.com/MrEthical07/goIdentity/password"
)

// challengeIDBytes sizes the random challenge identifier (160 bits).
const challengeIDBytes = 20

// Login validates credentials and either grants a session or parks the
// attempt behind an OTP challenge when the user has 2FA enabled. An unknown
// email and a wrong password both surface as [ErrInvalidCredentials]; only
// the wrong-password case can be attributed to a user and logged against
// their ledger.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	user, err := e.store.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, string(ActivityLoginFailed), false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "unknown_email"}
		})
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := e.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		// A stored hash that no longer parses is data corruption, not a
		// credential failure.
		e.emitAudit(ctx, auditEventCryptoFailure, false, user.ID, ErrCryptoFailure, nil)
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		e.logActivity(ctx, user, ActivityLoginFailed, LoginFailedDetail{Reason: "Invalid password"})
		return nil, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		return e.beginOTPChallenge(ctx, user)
	}

	return e.grantSession(ctx, user, LoginMethodPassword)
}

// beginOTPChallenge issues a login code, delivers it, and records the
// pending authentication. No session state is granted; the caller must come
// back through ConfirmOTP.
func (e *Engine) beginOTPChallenge(ctx context.Context, user *User) (*LoginResult, error) {
	code, err := e.otp.Issue(ctx, user.ID, e.config.OTP.Channel)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricOTPIssued)

	if err := e.notifier.SendCode(ctx, e.config.OTP.Channel, user.Email, code); err != nil {
		e.metricInc(MetricNotifierFailure)
		e.emitAudit(ctx, auditEventNotifierFailure, false, user.ID, ErrNotifierFailure, nil)
		return nil, fmt.Errorf("%w: %v", ErrNotifierFailure, err)
	}

	challengeID, err := internal.NewToken(challengeIDBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	e.pending.Save(challengeID, user.ID, e.clock.Now().Add(e.config.OTP.TTL))

	e.metricInc(MetricLoginAwaitingOTP)
	return &LoginResult{Status: StatusAwaitingOTP, ChallengeID: challengeID}, nil
}

// Register creates an account and grants a session directly: new users start
// with 2FA disabled at the basic tier, so no OTP gate applies.
func (e *Engine) Register(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(creds.Email) == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := e.hasher.Hash(creds.Password)
	if errors.Is(err, password.ErrTooShort) {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}
	if err != nil {
		return nil, err
	}

	name := creds.Name
	if name == "" {
		name = creds.Email
		if at := strings.IndexByte(name, '@'); at > 0 {
			name = name[:at]
		}
	}

	user, err := e.store.CreateUser(ctx, &User{
		Email:         creds.Email,
		PasswordHash:  hash,
		Name:          name,
		SecurityLevel: LevelBasic,
		LastLogin:     e.clock.Now(),
	})
	if errors.Is(err, ErrDuplicateEmail) {
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterReject, false, "", err, func() map[string]string {
			return map[string]string{"reason": "duplicate_email"}
		})
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	return e.grantSession(ctx, user, LoginMethodRegistration)
}

// ConfirmOTP completes a pending login. The pending record survives failed
// attempts so the user may retry until the challenge expires; it is
// destroyed on success.
func (e *Engine) ConfirmOTP(ctx context.Context, challengeID, code string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	userID, ok := e.pending.Get(challengeID)
	if !ok {
		e.emitAudit(ctx, string(ActivityLoginFailed), false, "", ErrNoPendingAuth, nil)
		return nil, ErrNoPendingAuth
	}

	user, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		e.pending.Delete(challengeID)
		return nil, err
	}

	matched, err := e.otp.Verify(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if !matched {
		e.metricInc(MetricLoginFailure)
		e.metricInc(MetricOTPRejected)
		e.logActivity(ctx, user, ActivityLoginFailed, LoginFailedDetail{Reason: "Invalid 2FA code"})
		return nil, ErrOTPInvalid
	}

	e.metricInc(MetricOTPConsumed)
	e.pending.Delete(challengeID)
	return e.grantSession(ctx, user, LoginMethodTwoFactor)
}

// Logout records the logout against the user's ledger. Session state lives
// with the caller (see [Session]); the engine only owns the audit trail.
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.logActivity(ctx, user, ActivityLogout, nil)
	return nil
}

// grantSession finalizes a successful authentication: last-login stamp,
// immutable history record, ledger entry, session token.
func (e *Engine) grantSession(ctx context.Context, user *User, method string) (*LoginResult, error) {
	now := e.clock.Now()

	if err := e.store.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = now

	record := LoginRecord{
		ID:        uuid.NewString(),
		Timestamp: now,
		Device:    userAgentFromContext(ctx),
		Location:  locationFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   true,
	}
	if err := e.store.AppendLoginRecord(ctx, user.ID, record); err != nil {
		return nil, err
	}
	user.LoginHistory = append(user.LoginHistory, record)

	e.logActivity(ctx, user, ActivityLoginSuccess, LoginDetail{Method: method})

	token, err := e.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	return &LoginResult{Status: StatusAuthenticated, User: user, SessionToken: token}, nil
}
