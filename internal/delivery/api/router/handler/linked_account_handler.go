package handler

import (
	"stampauth/internal/delivery/api/response"
	deliverycontext "stampauth/internal/delivery/context"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// LinkedAccountHandler lists and removes the caller's sign-in methods.
type LinkedAccountHandler struct {
	uc usecase.LinkedAccountUsecase
}

// LinkedAccountHandlerParams holds dependencies for LinkedAccountHandler, injected by Fx.
type LinkedAccountHandlerParams struct {
	fx.In

	LinkedAccountUsecase usecase.LinkedAccountUsecase
}

// NewLinkedAccountHandler is the constructor for LinkedAccountHandler.
func NewLinkedAccountHandler(params LinkedAccountHandlerParams) *LinkedAccountHandler {
	return &LinkedAccountHandler{uc: params.LinkedAccountUsecase}
}

type linkedAccountsResponse struct {
	OAuthAccounts       []oauthAccountResponse       `json:"oauthAccounts"`
	WebAuthnCredentials []webAuthnCredentialResponse `json:"webauthnCredentials"`
	HasPassword         bool                         `json:"hasPassword"`
}

// List handles GET /api/auth/linked-accounts.
func (h *LinkedAccountHandler) List(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthorized
	}

	output, err := h.uc.List(c.Request().Context(), identity.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	out := linkedAccountsResponse{
		OAuthAccounts:       make([]oauthAccountResponse, 0, len(output.OAuthAccounts)),
		WebAuthnCredentials: make([]webAuthnCredentialResponse, 0, len(output.WebAuthnCredentials)),
		HasPassword:         output.HasPassword,
	}
	for _, a := range output.OAuthAccounts {
		out.OAuthAccounts = append(out.OAuthAccounts, oauthAccountResponse{
			ID:        a.ID,
			Provider:  a.Provider,
			Email:     a.ProviderEmail,
			Name:      a.ProviderName,
			AvatarURL: a.ProviderAvatarURL,
			CreatedAt: a.CreatedAt,
		})
	}
	for _, cred := range output.WebAuthnCredentials {
		out.WebAuthnCredentials = append(out.WebAuthnCredentials, webAuthnCredentialResponse{
			ID:         cred.ID,
			DeviceName: cred.DeviceName,
			DeviceType: cred.DeviceType,
			BackedUp:   cred.BackedUp,
			Transports: cred.Transports,
			LastUsedAt: cred.LastUsedAt,
			CreatedAt:  cred.CreatedAt,
		})
	}

	return response.OK(c, out)
}

// Unlink handles DELETE /api/auth/linked-accounts/:id.
func (h *LinkedAccountHandler) Unlink(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthorized
	}

	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	output, err := h.uc.Unlink(c.Request().Context(), identity.UserID, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, successResponse{Success: true, Type: output.Type})
}
