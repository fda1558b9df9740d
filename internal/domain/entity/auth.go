package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProviderType names an external identity provider.
type ProviderType string

const (
	ProviderTypeGoogle    ProviderType = "google"
	ProviderTypeMicrosoft ProviderType = "microsoft"
)

// OAuthAccount links one provider identity to exactly one user.
// (Provider, ProviderAccountID) is globally unique.
type OAuthAccount struct {
	ID                   uuid.UUID    // The unique ID for this link record itself.
	UserID               uuid.UUID    // Owner of the link.
	Provider             ProviderType // The identity provider, e.g. "google".
	ProviderAccountID    string       // The provider's stable subject ('sub' claim).
	AccessToken          string       // Latest access token returned by the token endpoint.
	RefreshToken         *string      // Optional refresh token.
	AccessTokenExpiresAt *time.Time   // Expiry of AccessToken if the provider reported one.
	IDToken              *string      // Raw ID token from the last exchange.
	ProviderEmail        *string      // Profile snapshot: email.
	ProviderName         *string      // Profile snapshot: display name.
	ProviderAvatarURL    *string      // Profile snapshot: picture URL.
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
