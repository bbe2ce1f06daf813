package goIdentity

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fastTestConfig keeps argon2 at the package floor so the suite stays quick,
// and pins keys so Build does not log dev-key warnings.
func fastTestConfig() Config {
	cfg := defaultConfig()
	cfg.Crypto.Key = []byte("0123456789abcdef0123456789abcdef")
	cfg.Token.SigningKey = []byte("test-signing-key")
	cfg.Password = PasswordConfig{
		Memory:      8192,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *ChannelNotifier, *fakeClock) {
	t.Helper()

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

	return engine, notifier, clock
}

func registerUser(t *testing.T, engine *Engine, email, pass string) *User {
	t.Helper()

	result, err := engine.Register(context.Background(), Credentials{Email: email, Password: pass})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	if result.Status != StatusAuthenticated || result.User == nil {
		t.Fatalf("Register(%s): expected authenticated result, got %+v", email, result)
	}
	return result.User
}

func sentCode(t *testing.T, notifier *ChannelNotifier) SentCode {
	t.Helper()

	select {
	case code := <-notifier.Sent():
		return code
	default:
		t.Fatal("expected a delivered code")
		return SentCode{}
	}
}

// enableTwoFactor walks the full setup+confirm enrollment for a test user
// and returns the persisted record.
func enableTwoFactor(t *testing.T, engine *Engine, notifier *ChannelNotifier, user *User) *User {
	t.Helper()

	ctx := context.Background()
	enrolling, code, err := engine.SetupTwoFactor(ctx, user)
	if err != nil {
		t.Fatalf("SetupTwoFactor failed: %v", err)
	}
	drainNotifier(notifier)

	enabled, err := engine.ConfirmTwoFactor(ctx, enrolling, code)
	if err != nil {
		t.Fatalf("ConfirmTwoFactor failed: %v", err)
	}
	return enabled
}

func drainNotifier(notifier *ChannelNotifier) {
	for {
		select {
		case <-notifier.Sent():
		default:
			return
		}
	}
}

func activitiesOfType(activities []Activity, activityType ActivityType) []Activity {
	var out []Activity
	for _, a := range activities {
		if a.Type == activityType {
			out = append(out, a)
		}
	}
	return out
}
