package goIdentity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActivityType is the closed enum of ledger event kinds.
type ActivityType string

const (
	// ActivityLoginSuccess records a granted session. Its LoginDetail method
	// distinguishes password, 2FA, and registration logins.
	ActivityLoginSuccess ActivityType = "login_success"
	// ActivityLoginFailed records a rejected password or code.
	ActivityLoginFailed ActivityType = "login_failed"
	// ActivityLogout records an explicit logout.
	ActivityLogout ActivityType = "logout"
	// ActivityTwoFactorEnabled records a completed 2FA enrollment.
	ActivityTwoFactorEnabled ActivityType = "2fa_enabled"
	// ActivityTwoFactorDisabled records a 2FA disablement.
	ActivityTwoFactorDisabled ActivityType = "2fa_disabled"
	// ActivityLevelChanged records a security-level transition.
	ActivityLevelChanged ActivityType = "security_level_changed"
	// ActivityFileUploaded records an identity-document submission.
	ActivityFileUploaded ActivityType = "file_uploaded"
	// ActivityFileApproved records a document verification.
	ActivityFileApproved ActivityType = "file_approved"
	// ActivityFileRejected records a document rejection.
	ActivityFileRejected ActivityType = "file_rejected"
	// ActivityPasswordChanged records a password change.
	ActivityPasswordChanged ActivityType = "password_changed"
	// ActivityProfileUpdated records a profile or security-question update.
	ActivityProfileUpdated ActivityType = "profile_updated"
)

// Login methods recorded in [LoginDetail].
const (
	LoginMethodPassword     = "password"
	LoginMethodTwoFactor    = "2fa"
	LoginMethodRegistration = "registration"
)

// ActivityDetail is the tagged payload of an [Activity]. Each activity type
// carries only the fields it needs; there is no free-form detail map.
type ActivityDetail interface {
	activityDetail()
}

// LoginDetail annotates ActivityLoginSuccess with how the session was
// obtained.
type LoginDetail struct {
	Method string
}

// LoginFailedDetail annotates ActivityLoginFailed with the rejection reason.
type LoginFailedDetail struct {
	Reason string
}

// LevelChangedDetail annotates ActivityLevelChanged with the transition.
type LevelChangedDetail struct {
	From SecurityLevel
	To   SecurityLevel
}

// DocumentDetail annotates the file_* activities with the affected document.
type DocumentDetail struct {
	DocumentID string
	Type       DocumentType
}

func (LoginDetail) activityDetail()        {}
func (LoginFailedDetail) activityDetail()  {}
func (LevelChangedDetail) activityDetail() {}
func (DocumentDetail) activityDetail()     {}

// Activity is one append-only ledger entry. Detail is nil for types that
// need no payload.
type Activity struct {
	ID        string
	UserID    string
	Type      ActivityType
	Timestamp time.Time
	Detail    ActivityDetail
	IP        string
	UserAgent string
}

// activityLedger is the in-memory append-only per-user event history,
// newest first.
type activityLedger struct {
	mu         sync.RWMutex
	activities map[string][]Activity
}

func newActivityLedger() *activityLedger {
	return &activityLedger{activities: make(map[string][]Activity)}
}

func (l *activityLedger) Append(activity Activity) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.activities[activity.UserID] = append([]Activity{activity}, l.activities[activity.UserID]...)
}

func (l *activityLedger) ForUser(userID string) []Activity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stored := l.activities[userID]
	out := make([]Activity, len(stored))
	copy(out, stored)
	return out
}

// Activities returns the user's event history, newest first.
func (e *Engine) Activities(userID string) []Activity {
	if e == nil || e.ledger == nil {
		return nil
	}
	return e.ledger.ForUser(userID)
}

// logActivity appends a ledger entry for the user, stamps the user's
// last-activity time, and mirrors the event to the audit dispatcher. The
// snapshot's LastActivity is updated in place so callers persisting it keep
// the stamp.
func (e *Engine) logActivity(ctx context.Context, u *User, activityType ActivityType, detail ActivityDetail) {
	if e == nil || e.ledger == nil || u == nil {
		return
	}

	activity := Activity{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Type:      activityType,
		Timestamp: e.clock.Now(),
		Detail:    detail,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
	}

	e.ledger.Append(activity)
	u.LastActivity = activity.Timestamp

	e.emitAudit(ctx, string(activityType), activityType != ActivityLoginFailed, u.ID, nil, func() map[string]string {
		return auditMetadata(detail)
	})
}

func auditMetadata(detail ActivityDetail) map[string]string {
	switch d := detail.(type) {
	case LoginDetail:
		return map[string]string{"method": d.Method}
	case LoginFailedDetail:
		return map[string]string{"reason": d.Reason}
	case LevelChangedDetail:
		return map[string]string{"from": d.From.String(), "to": d.To.String()}
	case DocumentDetail:
		return map[string]string{"document_id": d.DocumentID, "document_type": d.Type.String()}
	default:
		return nil
	}
}

// ActivityDescription renders a human-readable summary of one ledger entry
// for audit display.
func ActivityDescription(a Activity) string {
	switch a.Type {
	case ActivityTwoFactorEnabled:
		return "Enabled two-factor authentication"
	case ActivityTwoFactorDisabled:
		return "Disabled two-factor authentication"
	case ActivityLevelChanged:
		if d, ok := a.Detail.(LevelChangedDetail); ok {
			return fmt.Sprintf("Changed security level from %s to %s", d.From, d.To)
		}
		return "Changed security level"
	case ActivityLoginSuccess:
		if d, ok := a.Detail.(LoginDetail); ok {
			switch d.Method {
			case LoginMethodRegistration:
				return "Account created and logged in"
			case LoginMethodTwoFactor:
				return "Logged in with two-factor authentication"
			}
		}
		return "Successful login"
	case ActivityLoginFailed:
		if d, ok := a.Detail.(LoginFailedDetail); ok && d.Reason != "" {
			return "Failed login attempt: " + d.Reason
		}
		return "Failed login attempt"
	case ActivityLogout:
		return "Logged out"
	case ActivityFileUploaded:
		if d, ok := a.Detail.(DocumentDetail); ok {
			return "Uploaded document: " + d.Type.String()
		}
		return "Uploaded document"
	case ActivityFileApproved:
		if d, ok := a.Detail.(DocumentDetail); ok {
			return "Document approved: " + d.Type.String()
		}
		return "Document approved"
	case ActivityFileRejected:
		if d, ok := a.Detail.(DocumentDetail); ok {
			return "Document rejected: " + d.Type.String()
		}
		return "Document rejected"
	case ActivityPasswordChanged:
		return "Changed password"
	case ActivityProfileUpdated:
		return "Updated profile information"
	default:
		return "Unknown activity"
	}
}
