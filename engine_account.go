package goIdentity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goIdentity/password"
)

// UpdateUser persists a caller-held snapshot through the store, recomputing
// the derived security level first. This is the only sanctioned way for
// collaborator layers to write back a modified user.
func (e *Engine) UpdateUser(ctx context.Context, user *User) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, ErrUserNotFound
	}

	updated := user.Clone()
	e.refreshSecurityLevel(ctx, updated)
	return e.store.UpdateUser(ctx, updated)
}

// SetSecurityLevel overrides the user's tier directly and persists the
// result, recording the transition. Normal flows rely on the derived
// recomputation; this exists for administrative correction.
func (e *Engine) SetSecurityLevel(ctx context.Context, user *User, level SecurityLevel) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, ErrUserNotFound
	}

	updated := user.Clone()
	e.setSecurityLevel(ctx, updated, level)
	return e.store.UpdateUser(ctx, updated)
}

// UploadDocument attaches a new identity document in pending state. Pending
// documents never satisfy a requirement, so no level recomputation happens
// here; it happens when the document is resolved.
func (e *Engine) UploadDocument(ctx context.Context, user *User, docType DocumentType, expiresAt time.Time) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, ErrUserNotFound
	}

	doc := IdentityDocument{
		ID:          uuid.NewString(),
		Type:        docType,
		Status:      DocumentPending,
		SubmittedAt: e.clock.Now(),
		ExpiresAt:   expiresAt,
	}

	updated := user.Clone()
	updated.IdentityDocuments = append(updated.IdentityDocuments, doc)

	e.logActivity(ctx, updated, ActivityFileUploaded, DocumentDetail{DocumentID: doc.ID, Type: doc.Type})
	return e.store.UpdateUser(ctx, updated)
}

// ResolveDocument records the verdict of the external document verifier.
// Documents are retained for audit whatever the verdict; a verification can
// raise the security level.
func (e *Engine) ResolveDocument(ctx context.Context, user *User, documentID string, status DocumentStatus) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, ErrUserNotFound
	}
	if status != DocumentVerified && status != DocumentRejected {
		return nil, errors.New("document resolution must be verified or rejected")
	}

	updated := user.Clone()
	resolved := false
	var docType DocumentType
	for i := range updated.IdentityDocuments {
		if updated.IdentityDocuments[i].ID == documentID {
			updated.IdentityDocuments[i].Status = status
			docType = updated.IdentityDocuments[i].Type
			resolved = true
			break
		}
	}
	if !resolved {
		return nil, ErrDocumentNotFound
	}

	activityType := ActivityFileApproved
	if status == DocumentRejected {
		activityType = ActivityFileRejected
	}
	e.logActivity(ctx, updated, activityType, DocumentDetail{DocumentID: documentID, Type: docType})
	e.refreshSecurityLevel(ctx, updated)

	return e.store.UpdateUser(ctx, updated)
}

// SetSecurityQuestions replaces the user's enrolled questions and recomputes
// the security level.
func (e *Engine) SetSecurityQuestions(ctx context.Context, user *User, questions []SecurityQuestion) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, ErrUserNotFound
	}

	updated := user.Clone()
	updated.SecurityQuestions = make([]SecurityQuestion, len(questions))
	copy(updated.SecurityQuestions, questions)
	for i := range updated.SecurityQuestions {
		if updated.SecurityQuestions[i].ID == "" {
			updated.SecurityQuestions[i].ID = uuid.NewString()
		}
	}

	e.logActivity(ctx, updated, ActivityProfileUpdated, nil)
	e.refreshSecurityLevel(ctx, updated)

	return e.store.UpdateUser(ctx, updated)
}

// ChangePassword verifies the current password before rehashing the new one.
func (e *Engine) ChangePassword(ctx context.Context, user *User, oldPass, newPass string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, ErrUserNotFound
	}

	ok, err := e.hasher.Verify(oldPass, user.PasswordHash)
	if err != nil {
		e.emitAudit(ctx, auditEventCryptoFailure, false, user.ID, ErrCryptoFailure, nil)
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	hash, err := e.hasher.Hash(newPass)
	if errors.Is(err, password.ErrTooShort) {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}
	if err != nil {
		return nil, err
	}

	updated := user.Clone()
	updated.PasswordHash = hash

	e.logActivity(ctx, updated, ActivityPasswordChanged, nil)
	return e.store.UpdateUser(ctx, updated)
}

// UpdateProfile changes the display name.
func (e *Engine) UpdateProfile(ctx context.Context, user *User, name string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, ErrUserNotFound
	}

	updated := user.Clone()
	updated.Name = name

	e.logActivity(ctx, updated, ActivityProfileUpdated, nil)
	return e.store.UpdateUser(ctx, updated)
}
