// Package handler contains the HTTP handlers for the API.
package handler

import (
	"time"

	"stampauth/internal/delivery/api/response"
	deliverycontext "stampauth/internal/delivery/context"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AccountHandler serves password registration, login and token endpoints.
type AccountHandler struct {
	uc usecase.AccountUsecase
}

// AccountHandlerParams holds dependencies for AccountHandler, injected by Fx.
type AccountHandlerParams struct {
	fx.In

	AccountUsecase usecase.AccountUsecase
}

// NewAccountHandler is the constructor for AccountHandler.
func NewAccountHandler(params AccountHandlerParams) *AccountHandler {
	return &AccountHandler{uc: params.AccountUsecase}
}

type registerRequest struct {
	Email     string  `json:"email" validate:"required"`
	Password  string  `json:"password" validate:"required"`
	FirstName string  `json:"firstName" validate:"max=100"`
	LastName  string  `json:"lastName" validate:"max=100"`
	Name      string  `json:"name" validate:"max=200"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type extensionTokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *userResponse `json:"user"`
	Token string        `json:"token"`
}

type extensionTokenResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *userResponse `json:"user"`
}

type meResponse struct {
	User       *userResponse `json:"user"`
	AuthMethod string        `json:"authMethod"`
	Scopes     []string      `json:"scopes"`
}

// Register handles POST /api/auth/register.
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Name:      req.Name,
		Phone:     req.Phone,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Created(c, authResponse{User: toUserResponse(output.User), Token: output.Token})
}

// Login handles POST /api/auth/login.
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.Login(c.Request().Context(), &usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, authResponse{User: toUserResponse(output.User), Token: output.Token})
}

// Me handles GET /api/auth/me.
func (h *AccountHandler) Me(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthorized
	}

	user, err := h.uc.Me(c.Request().Context(), identity.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, meResponse{
		User:       toUserResponse(user),
		AuthMethod: string(identity.Method),
		Scopes:     identity.Scopes,
	})
}

// ExtensionToken handles POST /api/auth/extension-token. It accepts either a
// session bearer or email and password in the body.
func (h *AccountHandler) ExtensionToken(c echo.Context) error {
	input := &usecase.ExtensionTokenInput{Identity: deliverycontext.GetIdentity(c)}
	if input.Identity == nil {
		var req extensionTokenRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		input.Email, input.Password = req.Email, req.Password
	}

	output, err := h.uc.IssueExtensionToken(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, extensionTokenResponse{
		Token:     output.Token,
		ExpiresAt: output.ExpiresAt,
		User:      toUserResponse(output.User),
	})
}
