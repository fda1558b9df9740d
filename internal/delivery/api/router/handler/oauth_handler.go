package handler

import (
	"net/http"

	"stampauth/internal/delivery/api/response"
	"stampauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// OAuthHandler starts provider logins and receives their callbacks.
type OAuthHandler struct {
	uc usecase.OAuthUsecase
}

// OAuthHandlerParams holds dependencies for OAuthHandler, injected by Fx.
type OAuthHandlerParams struct {
	fx.In

	OAuthUsecase usecase.OAuthUsecase
}

// NewOAuthHandler is the constructor for OAuthHandler.
func NewOAuthHandler(params OAuthHandlerParams) *OAuthHandler {
	return &OAuthHandler{uc: params.OAuthUsecase}
}

type oauthInitiateRequest struct {
	LinkToken string `json:"linkToken"`
}

type oauthInitiateResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
}

// Initiate handles POST /api/auth/oauth/:provider.
func (h *OAuthHandler) Initiate(c echo.Context) error {
	var req oauthInitiateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	authURL, err := h.uc.Initiate(c.Request().Context(), &usecase.OAuthInitiateInput{
		Provider:  c.Param("provider"),
		LinkToken: req.LinkToken,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, oauthInitiateResponse{AuthorizationURL: authURL})
}

// Callback handles GET /api/auth/callback/:provider. It always redirects.
func (h *OAuthHandler) Callback(c echo.Context) error {
	target := h.uc.Callback(c.Request().Context(), &usecase.OAuthCallbackInput{
		Provider:      c.Param("provider"),
		Code:          c.QueryParam("code"),
		State:         c.QueryParam("state"),
		ProviderError: c.QueryParam("error"),
	})

	return c.Redirect(http.StatusFound, target)
}
