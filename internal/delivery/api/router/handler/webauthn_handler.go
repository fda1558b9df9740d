package handler

import (
	"encoding/json"

	"stampauth/internal/delivery/api/response"
	deliverycontext "stampauth/internal/delivery/context"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// WebAuthnHandler exposes the passkey registration and authentication ceremonies.
type WebAuthnHandler struct {
	uc usecase.WebAuthnUsecase
}

// WebAuthnHandlerParams holds dependencies for WebAuthnHandler, injected by Fx.
type WebAuthnHandlerParams struct {
	fx.In

	WebAuthnUsecase usecase.WebAuthnUsecase
}

// NewWebAuthnHandler is the constructor for WebAuthnHandler.
func NewWebAuthnHandler(params WebAuthnHandlerParams) *WebAuthnHandler {
	return &WebAuthnHandler{uc: params.WebAuthnUsecase}
}

type webAuthnOptionsResponse struct {
	Options     json.RawMessage `json:"options"`
	ChallengeID string          `json:"challengeId"`
}

type registerVerifyRequest struct {
	ChallengeID string          `json:"challengeId" validate:"required"`
	Response    json.RawMessage `json:"response" validate:"required"`
	DeviceName  *string         `json:"deviceName" validate:"omitempty,max=100"`
}

type authenticateOptionsRequest struct {
	Email string `json:"email"`
}

type authenticateVerifyRequest struct {
	ChallengeID string          `json:"challengeId" validate:"required"`
	Response    json.RawMessage `json:"response" validate:"required"`
}

// RegisterOptions handles POST /api/auth/webauthn/register/options.
func (h *WebAuthnHandler) RegisterOptions(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthorized
	}

	output, err := h.uc.RegisterOptions(c.Request().Context(), identity.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, webAuthnOptionsResponse{Options: output.Options, ChallengeID: output.ChallengeID})
}

// RegisterVerify handles POST /api/auth/webauthn/register/verify.
func (h *WebAuthnHandler) RegisterVerify(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthorized
	}

	var req registerVerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.uc.RegisterVerify(c.Request().Context(), &usecase.WebAuthnRegisterVerifyInput{
		UserID:      identity.UserID,
		ChallengeID: req.ChallengeID,
		Response:    req.Response,
		DeviceName:  req.DeviceName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, successResponse{Success: true})
}

// AuthenticateOptions handles POST /api/auth/webauthn/authenticate/options.
func (h *WebAuthnHandler) AuthenticateOptions(c echo.Context) error {
	var req authenticateOptionsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.AuthenticateOptions(c.Request().Context(), req.Email)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, webAuthnOptionsResponse{Options: output.Options, ChallengeID: output.ChallengeID})
}

// AuthenticateVerify handles POST /api/auth/webauthn/authenticate/verify.
func (h *WebAuthnHandler) AuthenticateVerify(c echo.Context) error {
	var req authenticateVerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.AuthenticateVerify(c.Request().Context(), &usecase.WebAuthnAuthenticateVerifyInput{
		ChallengeID: req.ChallengeID,
		Response:    req.Response,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, authResponse{User: toUserResponse(output.User), Token: output.Token})
}
