package goIdentity

import "errors"

var (
	// ErrInvalidCredentials is returned when the email is unknown or the
	// password does not match. The two cases are deliberately
	// indistinguishable to the caller to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail is returned when registering an email that already
	// has an account.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotFound is returned by store lookups for an absent user.
	// Login maps it to ErrInvalidCredentials before it reaches the caller.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoPendingAuth is returned when an OTP confirmation arrives without a
	// live pending-authentication challenge.
	ErrNoPendingAuth = errors.New("no pending authentication")
	// ErrOTPInvalid is returned when a submitted one-time code does not match
	// any outstanding code, was already used, or has expired.
	ErrOTPInvalid = errors.New("invalid or expired code")
	// ErrNotifierFailure is returned when out-of-band code delivery fails.
	// During 2FA enrollment it aborts the enrollment entirely.
	ErrNotifierFailure = errors.New("code delivery failed")
	// ErrCryptoFailure is returned when encryption or decryption of stored
	// data fails. It indicates key misconfiguration or data corruption and
	// must not be retried blindly.
	ErrCryptoFailure = errors.New("crypto operation failed")
	// ErrStoreUnavailable is returned when the underlying persistence backend
	// fails. It is propagated, never silently swallowed.
	ErrStoreUnavailable = errors.New("store backend unavailable")
	// ErrPasswordPolicy is returned when a password fails the minimum
	// length requirement enforced by the password hasher.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrTwoFactorNotEnabled is returned when disabling or confirming 2FA on
	// an account with no pending or active enrollment.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication not enabled")
	// ErrDocumentNotFound is returned when resolving an identity document
	// that does not exist on the user record.
	ErrDocumentNotFound = errors.New("identity document not found")
	// ErrTokenInvalid is returned when a session token fails validation.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrEngineNotReady is returned when an Engine method is called on an
	// engine missing a required dependency.
	ErrEngineNotReady = errors.New("engine not initialized")
)
