package goIdentity

import (
	"context"
	"errors"
)

// Audit event types beyond the mirrored activity types.
const (
	auditEventNotifierFailure = "notifier_failure"
	auditEventRegisterReject  = "registration_rejected"
	auditEventCryptoFailure   = "crypto_failure"
)

// AuditErrorCode is the stable machine-readable failure code carried on
// audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrDuplicateEmail     AuditErrorCode = "duplicate_email"
	auditErrNoPendingAuth      AuditErrorCode = "no_pending_auth"
	auditErrOTPInvalid         AuditErrorCode = "otp_invalid"
	auditErrNotifier           AuditErrorCode = "notifier_failure"
	auditErrCrypto             AuditErrorCode = "crypto_failure"
	auditErrStore              AuditErrorCode = "store_unavailable"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserNotFound):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrDuplicateEmail):
		return auditErrDuplicateEmail
	case errors.Is(err, ErrNoPendingAuth):
		return auditErrNoPendingAuth
	case errors.Is(err, ErrOTPInvalid):
		return auditErrOTPInvalid
	case errors.Is(err, ErrNotifierFailure):
		return auditErrNotifier
	case errors.Is(err, ErrCryptoFailure):
		return auditErrCrypto
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStore
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	default:
		return auditErrInternal
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.clock.Now(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}
