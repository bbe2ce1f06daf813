package goIdentity

import (
	"context"
	"time"
)

// SecurityLevel is the tier derived from a user's satisfied requirement
// predicates. It is recomputed by the engine on every mutation that can
// affect it and must never be hand-set inconsistently with the predicates.
type SecurityLevel uint8

const (
	// LevelBasic is the entry tier; it has no requirements.
	LevelBasic SecurityLevel = iota
	// LevelEnhanced requires two-factor authentication and at least two
	// security questions.
	LevelEnhanced
	// LevelMaximum additionally requires a verified identity document and a
	// third security question.
	LevelMaximum
)

func (l SecurityLevel) String() string {
	switch l {
	case LevelBasic:
		return "basic"
	case LevelEnhanced:
		return "enhanced"
	case LevelMaximum:
		return "maximum"
	default:
		return "unknown"
	}
}

// DocumentType identifies the kind of identity document a user submitted.
type DocumentType uint8

const (
	// DocumentPassport is a passport identity document.
	DocumentPassport DocumentType = iota
	// DocumentDriverLicense is a driver license identity document.
	DocumentDriverLicense
	// DocumentNationalID is a national identity card.
	DocumentNationalID
)

func (t DocumentType) String() string {
	switch t {
	case DocumentPassport:
		return "passport"
	case DocumentDriverLicense:
		return "driver_license"
	case DocumentNationalID:
		return "national_id"
	default:
		return "unknown"
	}
}

// DocumentStatus is the verification state of an identity document. Documents
// start pending and are resolved by an external verification collaborator;
// they are never deleted once created.
type DocumentStatus uint8

const (
	// DocumentPending means the document awaits verification.
	DocumentPending DocumentStatus = iota
	// DocumentVerified means the document passed verification.
	DocumentVerified
	// DocumentRejected means the document failed verification.
	DocumentRejected
)

func (s DocumentStatus) String() string {
	switch s {
	case DocumentPending:
		return "pending"
	case DocumentVerified:
		return "verified"
	case DocumentRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// OTPChannel selects the delivery channel for a one-time code.
type OTPChannel uint8

const (
	// ChannelEmail delivers codes by email.
	ChannelEmail OTPChannel = iota
	// ChannelSMS delivers codes by SMS.
	ChannelSMS
)

func (c OTPChannel) String() string {
	if c == ChannelSMS {
		return "sms"
	}
	return "email"
}

// SecurityQuestion is a challenge question enrolled by the user. The policy
// engine only counts enrolled questions; it never inspects answers.
type SecurityQuestion struct {
	ID       string
	Question string
	Answer   string
}

// IdentityDocument is a submitted identity document. SubmittedAt is set on
// upload; ExpiresAt is the document's own expiry and is zero when unknown.
type IdentityDocument struct {
	ID          string
	Type        DocumentType
	Status      DocumentStatus
	SubmittedAt time.Time
	ExpiresAt   time.Time
}

// LoginRecord is an immutable audit entry for one login attempt. Records are
// append-only and ordered by creation time.
type LoginRecord struct {
	ID        string
	Timestamp time.Time
	Device    string
	Location  string
	IP        string
	Success   bool
}

// User is the identity record owned by the [Store]. Instances handed out by
// the engine are deep copies; mutate them only through engine operations or
// [Store.UpdateUser].
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	Name              string
	Verified          bool
	TwoFactorEnabled  bool
	TwoFactorSecret   string
	SecurityQuestions []SecurityQuestion
	IdentityDocuments []IdentityDocument
	LoginHistory      []LoginRecord
	LastLogin         time.Time
	LastActivity      time.Time
	SecurityLevel     SecurityLevel
}

// Clone returns a deep copy of the user, including history, questions, and
// documents. The store relies on Clone to keep callers from aliasing
// persisted state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	clone := *u
	if u.SecurityQuestions != nil {
		clone.SecurityQuestions = make([]SecurityQuestion, len(u.SecurityQuestions))
		copy(clone.SecurityQuestions, u.SecurityQuestions)
	}
	if u.IdentityDocuments != nil {
		clone.IdentityDocuments = make([]IdentityDocument, len(u.IdentityDocuments))
		copy(clone.IdentityDocuments, u.IdentityDocuments)
	}
	if u.LoginHistory != nil {
		clone.LoginHistory = make([]LoginRecord, len(u.LoginHistory))
		copy(clone.LoginHistory, u.LoginHistory)
	}
	return &clone
}

// Credentials carries the registration/login input collected by the caller.
// Name is optional on registration; an empty name defaults to the local part
// of the email address.
type Credentials struct {
	Email    string
	Password string
	Name     string
}

// OTPCode is a stored one-time-code record. Only the SHA3 digest of the code
// is persisted; Used flips false→true exactly once on successful verification.
type OTPCode struct {
	ID        string
	UserID    string
	Digest    string
	Channel   OTPChannel
	ExpiresAt time.Time
	Used      bool
}

// LoginStatus is the outcome class of a login-protocol operation. Failures
// are reported as errors, not as a status value.
type LoginStatus uint8

const (
	// StatusAuthenticated means a session was granted.
	StatusAuthenticated LoginStatus = iota
	// StatusAwaitingOTP means the password was accepted and a one-time code
	// must be confirmed before a session is granted.
	StatusAwaitingOTP
)

// LoginResult is returned by [Engine.Login], [Engine.Register], and
// [Engine.ConfirmOTP]. ChallengeID is set only for StatusAwaitingOTP;
// User and SessionToken are set only for StatusAuthenticated.
type LoginResult struct {
	Status       LoginStatus
	User         *User
	ChallengeID  string
	SessionToken string
}

// Notifier delivers one-time codes out of band. Implementations must return
// an error on delivery failure; the engine treats delivery as mandatory for
// 2FA enrollment and login challenges.
type Notifier interface {
	SendCode(ctx context.Context, channel OTPChannel, destination, code string) error
}

// Clock supplies the current time. Injectable for deterministic expiry tests.
type Clock interface {
	Now() time.Time
}
