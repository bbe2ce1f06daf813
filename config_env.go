package goIdentity

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by ConfigFromEnv. Keys are hex-encoded.
const (
	envEncryptionKey = "GOIDENTITY_ENCRYPTION_KEY"
	envSigningKey    = "GOIDENTITY_TOKEN_SIGNING_KEY"
	envOTPDigits     = "GOIDENTITY_OTP_DIGITS"
	envOTPTTL        = "GOIDENTITY_OTP_TTL"
	envTokenTTL      = "GOIDENTITY_TOKEN_TTL"
	envIssuer        = "GOIDENTITY_2FA_ISSUER"
	envAuditEnabled  = "GOIDENTITY_AUDIT_ENABLED"
)

// ConfigFromEnv returns the default configuration overlaid with values from
// the process environment. When envFiles are given they are loaded first via
// godotenv; a missing file is an error, matching deployment expectations
// where the file is the source of the encryption key.
func ConfigFromEnv(envFiles ...string) (Config, error) {
	cfg := defaultConfig()

	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return cfg, fmt.Errorf("load env file: %w", err)
		}
	}

	if v := os.Getenv(envEncryptionKey); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: invalid hex: %w", envEncryptionKey, err)
		}
		cfg.Crypto.Key = key
	}
	if v := os.Getenv(envSigningKey); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: invalid hex: %w", envSigningKey, err)
		}
		cfg.Token.SigningKey = key
	}
	if v := os.Getenv(envOTPDigits); v != "" {
		digits, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", envOTPDigits, err)
		}
		cfg.OTP.Digits = digits
	}
	if v := os.Getenv(envOTPTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", envOTPTTL, err)
		}
		cfg.OTP.TTL = ttl
	}
	if v := os.Getenv(envTokenTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", envTokenTTL, err)
		}
		cfg.Token.TTL = ttl
	}
	if v := os.Getenv(envIssuer); v != "" {
		cfg.TwoFactor.Issuer = v
	}
	if v := os.Getenv(envAuditEnabled); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", envAuditEnabled, err)
		}
		cfg.Audit.Enabled = enabled
	}

	return cfg, cfg.Validate()
}
