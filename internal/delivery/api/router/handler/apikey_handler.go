package handler

import (
	"stampauth/internal/delivery/api/response"
	deliverycontext "stampauth/internal/delivery/context"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// APIKeyHandler manages the caller's API keys.
type APIKeyHandler struct {
	uc usecase.APIKeyUsecase
}

// APIKeyHandlerParams holds dependencies for APIKeyHandler, injected by Fx.
type APIKeyHandlerParams struct {
	fx.In

	APIKeyUsecase usecase.APIKeyUsecase
}

// NewAPIKeyHandler is the constructor for APIKeyHandler.
func NewAPIKeyHandler(params APIKeyHandlerParams) *APIKeyHandler {
	return &APIKeyHandler{uc: params.APIKeyUsecase}
}

type createAPIKeyRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Scopes        []string `json:"scopes" validate:"omitempty,dive,oneof=* read:stamps read:verify read:insurance"`
	ExpiresInDays *int     `json:"expiresInDays" validate:"omitempty,min=1,max=3650"`
}

type createAPIKeyResponse struct {
	Key    string    `json:"key"`
	ID     uuid.UUID `json:"id"`
	Prefix string    `json:"prefix"`
	Name   string    `json:"name"`
}

type listAPIKeysResponse struct {
	Keys []apiKeyResponse `json:"keys"`
}

// List handles GET /api/keys.
func (h *APIKeyHandler) List(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthorized
	}

	keys, err := h.uc.List(c.Request().Context(), identity.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	out := listAPIKeysResponse{Keys: make([]apiKeyResponse, 0, len(keys))}
	for _, key := range keys {
		out.Keys = append(out.Keys, toAPIKeyResponse(key))
	}

	return response.OK(c, out)
}

// Create handles POST /api/keys. The plaintext key is only returned here.
func (h *APIKeyHandler) Create(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthorized
	}

	var req createAPIKeyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.Create(c.Request().Context(), &usecase.CreateAPIKeyInput{
		UserID:        identity.UserID,
		Name:          req.Name,
		Scopes:        req.Scopes,
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Created(c, createAPIKeyResponse{
		Key:    output.Key,
		ID:     output.ID,
		Prefix: output.Prefix,
		Name:   output.Name,
	})
}

// Revoke handles DELETE /api/keys/:id.
func (h *APIKeyHandler) Revoke(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthorized
	}

	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.Revoke(c.Request().Context(), id, identity.UserID); err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, successResponse{Success: true})
}
