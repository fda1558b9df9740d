package usecase

import (
	"context"

	"stampauth/internal/domain/entity"

	"github.com/google/uuid"
)

// LinkedAccountsOutput lists every sign-in method a user has.
type LinkedAccountsOutput struct {
	OAuthAccounts       []*entity.OAuthAccount
	WebAuthnCredentials []*entity.WebAuthnCredential
	HasPassword         bool
}

// UnlinkOutput reports what kind of method was removed: "oauth" or "webauthn".
type UnlinkOutput struct {
	Type string
}

// LinkedAccountUsecase lists and removes sign-in methods without ever leaving zero.
type LinkedAccountUsecase interface {
	List(ctx context.Context, userID uuid.UUID) (*LinkedAccountsOutput, error)
	Unlink(ctx context.Context, userID, id uuid.UUID) (*UnlinkOutput, error)
}
