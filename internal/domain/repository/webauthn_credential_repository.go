package repository

import (
	"context"
	"errors"

	"stampauth/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrCredentialNotFound is returned when no passkey matches.
var ErrCredentialNotFound = errors.New("webauthn credential not found")

// WebAuthnCredentialRepository persists registered passkeys.
type WebAuthnCredentialRepository interface {
	// Create stores a new credential. A duplicate credential id yields
	// domainerrors.ErrCredentialAlreadyRegistered.
	Create(ctx context.Context, credential *entity.WebAuthnCredential) error

	// FindByCredentialID looks up a credential by its base64url credential id.
	FindByCredentialID(ctx context.Context, credentialID string) (*entity.WebAuthnCredential, error)

	// ListByUserID returns a user's credentials, oldest first.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.WebAuthnCredential, error)

	// UpdateUsage persists the signature counter, backup state and last use after a login.
	UpdateUsage(ctx context.Context, credential *entity.WebAuthnCredential) error

	// DeleteByIDAndUserID removes a credential only when it belongs to userID.
	DeleteByIDAndUserID(ctx context.Context, id, userID uuid.UUID) error
}
