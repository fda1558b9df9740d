// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"stampauth/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to create a password account.
// Name is split into first/last name when FirstName is empty.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Name      string
	Phone     *string
}

// LoginInput defines the data required for a password login.
type LoginInput struct {
	Email    string
	Password string
}

// ExtensionTokenInput carries either an authenticated identity or email/password.
type ExtensionTokenInput struct {
	Identity *entity.Identity
	Email    string
	Password string
}

// --- Output DTOs ---

// AuthOutput is returned by every operation that issues a bearer token.
type AuthOutput struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

// AccountUsecase covers password accounts and token issuance.
type AccountUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)
	Me(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	IssueExtensionToken(ctx context.Context, input *ExtensionTokenInput) (*AuthOutput, error)
}
