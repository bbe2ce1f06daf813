package goIdentity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRegisterGrantsSessionAtBasicTier(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Register(ctx, Credentials{Email: "a@b.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if result.Status != StatusAuthenticated {
		t.Fatalf("expected StatusAuthenticated, got %v", result.Status)
	}
	if result.User.SecurityLevel != LevelBasic {
		t.Fatalf("expected basic tier, got %s", result.User.SecurityLevel)
	}
	if result.User.Name != "a" {
		t.Fatalf("expected name defaulted from email local part, got %q", result.User.Name)
	}
	if result.SessionToken == "" {
		t.Fatal("expected a session token")
	}
	if !result.User.LastLogin.Equal(clock.Now()) {
		t.Fatalf("expected LastLogin stamped at %v, got %v", clock.Now(), result.User.LastLogin)
	}

	claims, err := engine.ValidateToken(result.SessionToken)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Subject != result.User.ID || claims.Email != "a@b.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	registerUser(t, engine, "a@b.com", "secret123")

	_, err := engine.Register(ctx, Credentials{Email: "A@B.com", Password: "other-pass"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Register(context.Background(), Credentials{Email: "a@b.com", Password: "short"})
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
}

func TestRegisterRejectsEmptyEmail(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Register(context.Background(), Credentials{Email: "  ", Password: "secret123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "a@b.com", "secret123")

	result, err := engine.Login(ctx, "a@b.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Status != StatusAuthenticated {
		t.Fatalf("expected StatusAuthenticated, got %v", result.Status)
	}
	if result.User.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, result.User.ID)
	}

	history, err := engine.Store().LoginHistory(ctx, user.ID)
	if err != nil {
		t.Fatalf("LoginHistory failed: %v", err)
	}
	if len(history) != 2 { // registration login + this login
		t.Fatalf("expected 2 login records, got %d", len(history))
	}
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	registerUser(t, engine, "Alice@Example.com", "secret123")

	if _, err := engine.Login(context.Background(), "alice@example.com", "secret123"); err != nil {
		t.Fatalf("expected case-insensitive email match, got %v", err)
	}
}

func TestLoginWrongPasswordRecordsOneFailedActivity(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "a@b.com", "secret123")

	_, err := engine.Login(ctx, "a@b.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	failed := activitiesOfType(engine.Activities(user.ID), ActivityLoginFailed)
	if len(failed) != 1 {
		t.Fatalf("expected exactly one login_failed activity, got %d", len(failed))
	}
	detail, ok := failed[0].Detail.(LoginFailedDetail)
	if !ok || detail.Reason != "Invalid password" {
		t.Fatalf("unexpected failure detail: %+v", failed[0].Detail)
	}
}

func TestLoginUnknownEmailLeavesNoLedgerTrace(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "a@b.com", "secret123")

	_, err := engine.Login(ctx, "nobody@b.com", "secret123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if failed := activitiesOfType(engine.Activities(user.ID), ActivityLoginFailed); len(failed) != 0 {
		t.Fatalf("unknown-email failure must not be attributed to another user, got %d entries", len(failed))
	}
}

func TestLoginRecordCapturesRequestContext(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	ctx = WithUserAgent(ctx, "Mozilla/5.0")
	ctx = WithLocation(ctx, "Berlin, DE")

	result, err := engine.Register(ctx, Credentials{Email: "a@b.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	history, err := engine.Store().LoginHistory(context.Background(), result.User.ID)
	if err != nil {
		t.Fatalf("LoginHistory failed: %v", err)
	}
	record := history[0]
	if record.IP != "203.0.113.7" || record.Device != "Mozilla/5.0" || record.Location != "Berlin, DE" {
		t.Fatalf("unexpected login record: %+v", record)
	}
}

func TestLoginWithTwoFactorRequiresOTP(t *testing.T) {
	engine, notifier, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "a@b.com", "secret123")
	enableTwoFactor(t, engine, notifier, user)

	result, err := engine.Login(ctx, "a@b.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Status != StatusAwaitingOTP {
		t.Fatalf("expected StatusAwaitingOTP, got %v", result.Status)
	}
	if result.ChallengeID == "" {
		t.Fatal("expected a challenge ID")
	}
	if result.User != nil || result.SessionToken != "" {
		t.Fatal("no session state may be granted before the code is confirmed")
	}

	delivered := sentCode(t, notifier)
	confirmed, err := engine.ConfirmOTP(ctx, result.ChallengeID, delivered.Code)
	if err != nil {
		t.Fatalf("ConfirmOTP failed: %v", err)
	}
	if confirmed.Status != StatusAuthenticated {
		t.Fatalf("expected StatusAuthenticated, got %v", confirmed.Status)
	}

	success := activitiesOfType(engine.Activities(user.ID), ActivityLoginSuccess)
	if len(success) == 0 {
		t.Fatal("expected a login_success activity")
	}
	detail, ok := success[0].Detail.(LoginDetail)
	if !ok || detail.Method != LoginMethodTwoFactor {
		t.Fatalf("expected 2fa login method, got %+v", success[0].Detail)
	}
}

func TestConfirmOTPCodeIsSingleUse(t *testing.T) {
	engine, notifier, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "a@b.com", "secret123")
	enableTwoFactor(t, engine, notifier, user)

	first, err := engine.Login(ctx, "a@b.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	code := sentCode(t, notifier).Code

	if _, err := engine.ConfirmOTP(ctx, first.ChallengeID, code); err != nil {
		t.Fatalf("first ConfirmOTP failed: %v", err)
	}

	second, err := engine.Login(ctx, "a@b.com", "secret123")
	if err != nil {
		t.Fatalf("second Login failed: %v", err)
	}
	drainNotifier(notifier)

	_, err = engine.ConfirmOTP(ctx, second.ChallengeID, code)
	if !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid for a consumed code, got %v", err)
	}
}

func TestConfirmOTPInvalidCodeKeepsChallengeAlive(t *testing.T) {
	engine, notifier, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "a@b.com", "secret123")
	enableTwoFactor(t, engine, notifier, user)

	result, err := engine.Login(ctx, "a@b.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	code := sentCode(t, notifier).Code

	_, err = engine.ConfirmOTP(ctx, result.ChallengeID, "000000")
	if !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid, got %v", err)
	}

	// The same challenge must accept a retry with the right code.
	confirmed, err := engine.ConfirmOTP(ctx, result.ChallengeID, code)
	if err != nil {
		t.Fatalf("retry ConfirmOTP failed: %v", err)
	}
	if confirmed.Status != StatusAuthenticated {
		t.Fatalf("expected StatusAuthenticated after retry, got %v", confirmed.Status)
	}
}

func TestConfirmOTPExpiredChallenge(t *testing.T) {
	engine, notifier, clock := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "a@b.com", "secret123")
	enableTwoFactor(t, engine, notifier, user)

	result, err := engine.Login(ctx, "a@b.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	code := sentCode(t, notifier).Code

	clock.Advance(11 * time.Minute)

	_, err = engine.ConfirmOTP(ctx, result.ChallengeID, code)
	if !errors.Is(err, ErrNoPendingAuth) {
		t.Fatalf("expected ErrNoPendingAuth for expired challenge, got %v", err)
	}
}

func TestConfirmOTPExpiredCode(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "a@b.com", "secret123")

	// Issue directly so the code expiry can be tested apart from the
	// challenge expiry.
	code, err := engine.otp.Issue(ctx, user.ID, ChannelEmail)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	clock.Advance(11 * time.Minute)

	matched, err := engine.otp.Verify(ctx, user.ID, code)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if matched {
		t.Fatal("expected an expired code to be rejected")
	}
}

func TestLoginChallengeIDsAreOpaqueTokens(t *testing.T) {
	engine, notifier, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "a@b.com", "secret123")
	enableTwoFactor(t, engine, notifier, user)

	const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"
	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		result, err := engine.Login(ctx, "a@b.com", "secret123")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if result.Status != StatusAwaitingOTP {
			t.Fatalf("expected StatusAwaitingOTP, got %v", result.Status)
		}
		// 20 random bytes encode to exactly 32 unpadded base32 characters.
		if len(result.ChallengeID) != 32 {
			t.Fatalf("challenge ID %q: expected 32 characters", result.ChallengeID)
		}
		if strings.Trim(result.ChallengeID, base32Alphabet) != "" {
			t.Fatalf("challenge ID %q: unexpected characters", result.ChallengeID)
		}
		seen[result.ChallengeID] = true
		drainNotifier(notifier)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct challenge IDs, got %d", len(seen))
	}
}

func TestConfirmOTPUnknownChallenge(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.ConfirmOTP(context.Background(), "no-such-challenge", "123456")
	if !errors.Is(err, ErrNoPendingAuth) {
		t.Fatalf("expected ErrNoPendingAuth, got %v", err)
	}
}

func TestLogoutRecordsActivity(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "a@b.com", "secret123")

	if err := engine.Logout(ctx, user.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if logged := activitiesOfType(engine.Activities(user.ID), ActivityLogout); len(logged) != 1 {
		t.Fatalf("expected one logout activity, got %d", len(logged))
	}
}

func TestLoginNotifierFailureLeavesNoPendingAuth(t *testing.T) {
	clock := newFakeClock()
	notifier := NewChannelNotifier(16)

	engine, err := New().
		WithConfig(fastTestConfig()).
		WithClock(clock).
		WithNotifier(notifier).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()
	user := registerUser(t, engine, "a@b.com", "secret123")
	enableTwoFactor(t, engine, notifier, user)

	// Saturate the notifier buffer so the next delivery fails.
	for i := 0; i < 16; i++ {
		notifier.sent <- SentCode{}
	}

	_, err = engine.Login(ctx, "a@b.com", "secret123")
	if !errors.Is(err, ErrNotifierFailure) {
		t.Fatalf("expected ErrNotifierFailure, got %v", err)
	}
}
