package handler

import (
	"stampauth/internal/delivery/api/response"
	deliverycontext "stampauth/internal/delivery/context"
	domainerrors "stampauth/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type verifyAccessResponse struct {
	UserID     uuid.UUID `json:"userId"`
	AuthMethod string    `json:"authMethod"`
	Scopes     []string  `json:"scopes"`
}

// VerifyAccess handles GET /api/insurance/verify-access. The route is scope
// gated by the router; this only reports the authorized principal.
func VerifyAccess(c echo.Context) error {
	identity := deliverycontext.GetIdentity(c)
	if identity == nil {
		return domainerrors.ErrUnauthorized
	}

	return response.OK(c, verifyAccessResponse{
		UserID:     identity.UserID,
		AuthMethod: string(identity.Method),
		Scopes:     identity.Scopes,
	})
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.OK(c, map[string]string{"status": "ok"})
}
