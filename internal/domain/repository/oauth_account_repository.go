package repository

import (
	"context"
	"errors"

	"stampauth/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrOAuthAccountNotFound is returned when no provider link matches.
// This allows the application layer to branch on "unknown identity" without depending on GORM.
var ErrOAuthAccountNotFound = errors.New("oauth account not found")

// OAuthAccountRepository persists the links between provider identities and users.
type OAuthAccountRepository interface {
	// Create persists a new link. A taken (provider, providerAccountID) pair yields
	// domainerrors.ErrOAuthAccountLinkedToOther.
	Create(ctx context.Context, account *entity.OAuthAccount) error

	// FindByProviderAccount retrieves the link for a provider and the provider's subject.
	FindByProviderAccount(ctx context.Context, provider entity.ProviderType, providerAccountID string) (*entity.OAuthAccount, error)

	// UpdateTokens refreshes the stored tokens and profile snapshot of an existing link.
	UpdateTokens(ctx context.Context, account *entity.OAuthAccount) error

	// ListByUserID returns every link owned by userID, oldest first.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.OAuthAccount, error)

	// DeleteByIDAndUserID removes a link only when it belongs to userID.
	DeleteByIDAndUserID(ctx context.Context, id, userID uuid.UUID) error
}
