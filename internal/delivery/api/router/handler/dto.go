package handler

import (
	"time"

	"stampauth/internal/domain/entity"
	domainerrors "stampauth/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type userResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	AvatarURL   *string    `json:"avatarUrl"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toUserResponse(u *entity.User) *userResponse {
	if u == nil {
		return nil
	}

	return &userResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		AvatarURL:   u.AvatarURL,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

type oauthAccountResponse struct {
	ID        uuid.UUID           `json:"id"`
	Provider  entity.ProviderType `json:"provider"`
	Email     *string             `json:"email"`
	Name      *string             `json:"name"`
	AvatarURL *string             `json:"avatarUrl"`
	CreatedAt time.Time           `json:"createdAt"`
}

type webAuthnCredentialResponse struct {
	ID         uuid.UUID  `json:"id"`
	DeviceName *string    `json:"deviceName"`
	DeviceType string     `json:"deviceType"`
	BackedUp   bool       `json:"backedUp"`
	Transports []string   `json:"transports"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type apiKeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	Scopes     []string   `json:"scopes"`
	IsActive   bool       `json:"isActive"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func toAPIKeyResponse(k *entity.APIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		Prefix:     k.KeyPrefix,
		Scopes:     k.Scopes,
		IsActive:   k.IsActive,
		LastUsedAt: k.LastUsedAt,
		ExpiresAt:  k.ExpiresAt,
		CreatedAt:  k.CreatedAt,
	}
}

type successResponse struct {
	Success bool   `json:"success"`
	Type    string `json:"type,omitempty"`
}

// bindAndValidate binds the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}

	return c.Validate(req)
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domainerrors.ErrValidationFailed.WithDetails(name + " must be a UUID")
	}

	return id, nil
}
