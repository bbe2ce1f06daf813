package goIdentity

import (
	"context"

	"github.com/google/uuid"

	"github.com/MrEthical07/goIdentity/cryptobox"
	"github.com/MrEthical07/goIdentity/internal"
)

// otpManager issues and verifies short-lived one-time codes. Only digests
// reach the code store; the plaintext exists exactly once, in the return
// value of Issue, for out-of-band delivery.
type otpManager struct {
	cfg   OTPConfig
	store otpCodeStore
	clock Clock
}

func newOTPManager(cfg OTPConfig, store otpCodeStore, clock Clock) *otpManager {
	return &otpManager{cfg: cfg, store: store, clock: clock}
}

// Issue generates a fresh code for the user and persists its digest with
// expiry. Outstanding codes from earlier issues stay valid until their own
// expiry unless InvalidateOnReissue is configured.
func (m *otpManager) Issue(ctx context.Context, userID string, channel OTPChannel) (string, error) {
	if m == nil || m.store == nil {
		return "", ErrEngineNotReady
	}

	if m.cfg.InvalidateOnReissue {
		if err := m.store.InvalidateAll(ctx, userID); err != nil {
			return "", err
		}
	}

	plaintext, err := internal.NewOTP(m.cfg.Digits)
	if err != nil {
		return "", err
	}

	code := &OTPCode{
		ID:        uuid.NewString(),
		UserID:    userID,
		Digest:    cryptobox.Hash(plaintext),
		Channel:   channel,
		ExpiresAt: m.clock.Now().Add(m.cfg.TTL),
	}
	if err := m.store.Save(ctx, code); err != nil {
		return "", err
	}

	return plaintext, nil
}

// Verify consumes the first outstanding code matching candidate. Exactly one
// code is consumed per successful call; used and expired codes never match.
func (m *otpManager) Verify(ctx context.Context, userID, candidate string) (bool, error) {
	if m == nil || m.store == nil {
		return false, ErrEngineNotReady
	}
	if candidate == "" {
		return false, nil
	}

	return m.store.Consume(ctx, userID, cryptobox.Hash(candidate), m.clock.Now())
}
