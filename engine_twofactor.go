package goIdentity

import (
	"context"
	"fmt"

	"github.com/pquerna/otp/totp"
)

// SetupTwoFactor starts enrollment: it provisions a fresh TOTP secret for
// the user, issues an enrollment code through the same hashed code store the
// login challenge uses, and delivers it via the notifier. The returned
// snapshot carries the uncommitted secret; nothing is persisted until
// [Engine.ConfirmTwoFactor] succeeds, so a delivery failure leaves no
// half-enabled state behind. The plaintext code is returned for callers that
// surface it through their own channel.
func (e *Engine) SetupTwoFactor(ctx context.Context, user *User) (*User, string, error) {
	if err := e.ready(); err != nil {
		return nil, "", err
	}
	if user == nil || user.ID == "" {
		return nil, "", ErrUserNotFound
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.config.TwoFactor.Issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}

	code, err := e.otp.Issue(ctx, user.ID, e.config.OTP.Channel)
	if err != nil {
		return nil, "", err
	}
	e.metricInc(MetricOTPIssued)

	if err := e.notifier.SendCode(ctx, e.config.OTP.Channel, user.Email, code); err != nil {
		e.metricInc(MetricNotifierFailure)
		e.emitAudit(ctx, auditEventNotifierFailure, false, user.ID, ErrNotifierFailure, nil)
		return nil, "", fmt.Errorf("%w: %v", ErrNotifierFailure, err)
	}

	enrolling := user.Clone()
	enrolling.TwoFactorSecret = key.Secret()
	return enrolling, code, nil
}

// ConfirmTwoFactor completes enrollment by verifying the enrollment code
// against the hashed code store, then enables 2FA, recomputes the security
// level, and persists the record.
func (e *Engine) ConfirmTwoFactor(ctx context.Context, user *User, code string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if user == nil || user.TwoFactorSecret == "" {
		return nil, ErrTwoFactorNotEnabled
	}

	matched, err := e.otp.Verify(ctx, user.ID, code)
	if err != nil {
		return nil, err
	}
	if !matched {
		e.metricInc(MetricOTPRejected)
		e.emitAudit(ctx, string(ActivityLoginFailed), false, user.ID, ErrOTPInvalid, func() map[string]string {
			return map[string]string{"reason": "2fa_enrollment_code"}
		})
		return nil, ErrOTPInvalid
	}
	e.metricInc(MetricOTPConsumed)

	enabled := user.Clone()
	enabled.TwoFactorEnabled = true

	e.metricInc(MetricTwoFactorEnabled)
	e.logActivity(ctx, enabled, ActivityTwoFactorEnabled, nil)
	e.refreshSecurityLevel(ctx, enabled)

	return e.store.UpdateUser(ctx, enabled)
}

// DisableTwoFactor turns 2FA off, clears the secret, recomputes the
// security level, and persists the record.
func (e *Engine) DisableTwoFactor(ctx context.Context, user *User) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if user == nil || !user.TwoFactorEnabled {
		return nil, ErrTwoFactorNotEnabled
	}

	disabled := user.Clone()
	disabled.TwoFactorEnabled = false
	disabled.TwoFactorSecret = ""

	e.metricInc(MetricTwoFactorDisabled)
	e.logActivity(ctx, disabled, ActivityTwoFactorDisabled, nil)
	e.refreshSecurityLevel(ctx, disabled)

	return e.store.UpdateUser(ctx, disabled)
}
