package goIdentity

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine, grouped by subsystem.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable; [Builder.Build] clones the value it is given.
type Config struct {
	Crypto    CryptoConfig
	Password  PasswordConfig
	OTP       OTPConfig
	TwoFactor TwoFactorConfig
	Token     TokenConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
CRYPTO CONFIG
====================================
*/

// CryptoConfig supplies the 32-byte at-rest encryption key. When Key is nil,
// Build generates a throwaway development key and logs a warning; data
// encrypted under a generated key is unreadable after restart.
type CryptoConfig struct {
	Key []byte
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id cost parameters. Memory is in KB.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig governs one-time-code issuance for both login challenges and 2FA
// enrollment. InvalidateOnReissue is off by default: outstanding codes stay
// valid until their own expiry. Turning it on is the hardening variant that
// revokes prior unconsumed codes whenever a new one is issued.
type OTPConfig struct {
	Digits              int
	TTL                 time.Duration
	Channel             OTPChannel
	InvalidateOnReissue bool
}

/*
====================================
TWO-FACTOR CONFIG
====================================
*/

// TwoFactorConfig governs enrollment. Issuer labels the provisioned TOTP
// secret in authenticator apps.
type TwoFactorConfig struct {
	Issuer string
}

/*
====================================
SESSION TOKEN CONFIG
====================================
*/

// TokenConfig governs session-token issuance. SigningKey is the HS256 key;
// when nil, Build derives one at random (tokens then do not survive restarts,
// which is acceptable for development only).
type TokenConfig struct {
	SigningKey []byte
	TTL        time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig governs the async audit dispatcher. With DropIfFull set, events
// beyond BufferSize are counted and discarded instead of blocking callers.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig enables the engine's atomic counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		OTP: OTPConfig{
			Digits:              6,
			TTL:                 10 * time.Minute,
			Channel:             ChannelEmail,
			InvalidateOnReissue: false,
		},
		TwoFactor: TwoFactorConfig{
			Issuer: "goIdentity",
		},
		Token: TokenConfig{
			TTL: 30 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Crypto.Key != nil {
		out.Crypto.Key = append([]byte(nil), cfg.Crypto.Key...)
	}
	if cfg.Token.SigningKey != nil {
		out.Token.SigningKey = append([]byte(nil), cfg.Token.SigningKey...)
	}
	return out
}

// Validate rejects configurations the engine cannot run safely with.
func (c Config) Validate() error {
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("otp digits must be between 4 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("otp ttl must be positive")
	}
	if c.TwoFactor.Issuer == "" {
		return errors.New("two-factor issuer required")
	}
	if c.Token.TTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}
	if c.Crypto.Key != nil && len(c.Crypto.Key) != 32 {
		return errors.New("crypto key must be 32 bytes")
	}

	return nil
}
