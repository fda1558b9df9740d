package middleware

import (
	"strings"

	deliverycontext "stampauth/internal/delivery/context"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const bearerPrefix = "Bearer "

// AuthMiddleware resolves bearer credentials to an identity and enforces scopes.
type AuthMiddleware struct {
	authenticator usecase.Authenticator
}

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	Authenticator usecase.Authenticator
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{authenticator: params.Authenticator}
}

// Authenticate rejects the request unless it carries a valid session token or API key.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		bearer, ok := bearerToken(c)
		if !ok {
			return domainerrors.ErrUnauthorized
		}

		return m.authenticate(c, bearer, next)
	}
}

// OptionalAuthenticate resolves the identity when an Authorization header is present.
// A present but invalid credential is still rejected.
func (m *AuthMiddleware) OptionalAuthenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
			return next(c)
		}

		bearer, ok := bearerToken(c)
		if !ok {
			return domainerrors.ErrUnauthorized
		}

		return m.authenticate(c, bearer, next)
	}
}

func (m *AuthMiddleware) authenticate(c echo.Context, bearer string, next echo.HandlerFunc) error {
	identity, err := m.authenticator.Authenticate(c.Request().Context(), bearer)
	if err != nil {
		return domainerrors.ErrUnauthorized
	}

	deliverycontext.SetIdentity(c, identity)

	return next(c)
}

// RequireScope must be used AFTER Authenticate.
func (m *AuthMiddleware) RequireScope(scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := deliverycontext.GetIdentity(c)
			if identity == nil {
				return domainerrors.ErrUnauthorized
			}
			if !identity.HasScope(scope) {
				return domainerrors.ErrInsufficientScope
			}

			return next(c)
		}
	}
}

// RequireSession admits full session tokens only; API keys and extension tokens get 403.
func (m *AuthMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity := deliverycontext.GetIdentity(c)
		if identity == nil {
			return domainerrors.ErrUnauthorized
		}
		if !identity.IsSession() {
			return domainerrors.ErrSessionRequired
		}

		return next(c)
	}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, found := strings.CutPrefix(header, bearerPrefix)
	token = strings.TrimSpace(token)

	return token, found && token != ""
}
