// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"stampauth/config"
	"stampauth/internal/delivery/api/middleware"
	"stampauth/internal/delivery/api/router/handler"
	"stampauth/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AccountHandler       *handler.AccountHandler
	OAuthHandler         *handler.OAuthHandler
	WebAuthnHandler      *handler.WebAuthnHandler
	APIKeyHandler        *handler.APIKeyHandler
	LinkedAccountHandler *handler.LinkedAccountHandler
	AuthMiddleware       *middleware.AuthMiddleware
	Gatherer             prometheus.Gatherer `optional:"true"`
	Config               *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	accountHandler       *handler.AccountHandler
	oauthHandler         *handler.OAuthHandler
	webAuthnHandler      *handler.WebAuthnHandler
	apiKeyHandler        *handler.APIKeyHandler
	linkedAccountHandler *handler.LinkedAccountHandler
	authMiddleware       *middleware.AuthMiddleware
	gatherer             prometheus.Gatherer
	config               *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		accountHandler:       params.AccountHandler,
		oauthHandler:         params.OAuthHandler,
		webAuthnHandler:      params.WebAuthnHandler,
		apiKeyHandler:        params.APIKeyHandler,
		linkedAccountHandler: params.LinkedAccountHandler,
		authMiddleware:       params.AuthMiddleware,
		gatherer:             params.Gatherer,
		config:               params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	if r.config.Metrics.Enabled && r.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	auth := r.authMiddleware
	api := e.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", r.accountHandler.Register)
		authGroup.POST("/login", r.accountHandler.Login)
		authGroup.GET("/me", r.accountHandler.Me, auth.Authenticate)
		authGroup.POST("/extension-token", r.accountHandler.ExtensionToken, auth.OptionalAuthenticate)

		authGroup.POST("/oauth/:provider", r.oauthHandler.Initiate)
		authGroup.GET("/callback/:provider", r.oauthHandler.Callback)
	}

	webAuthnGroup := authGroup.Group("/webauthn")
	{
		webAuthnGroup.POST("/register/options", r.webAuthnHandler.RegisterOptions, auth.Authenticate, auth.RequireSession)
		webAuthnGroup.POST("/register/verify", r.webAuthnHandler.RegisterVerify, auth.Authenticate, auth.RequireSession)
		webAuthnGroup.POST("/authenticate/options", r.webAuthnHandler.AuthenticateOptions)
		webAuthnGroup.POST("/authenticate/verify", r.webAuthnHandler.AuthenticateVerify)
	}

	// Sign-in method management needs a full session
	linkedGroup := authGroup.Group("/linked-accounts", auth.Authenticate, auth.RequireSession)
	{
		linkedGroup.GET("", r.linkedAccountHandler.List)
		linkedGroup.DELETE("/:id", r.linkedAccountHandler.Unlink)
	}

	keysGroup := api.Group("/keys", auth.Authenticate, auth.RequireSession)
	{
		keysGroup.GET("", r.apiKeyHandler.List)
		keysGroup.POST("", r.apiKeyHandler.Create)
		keysGroup.DELETE("/:id", r.apiKeyHandler.Revoke)
	}

	insuranceGroup := api.Group("/insurance", auth.Authenticate)
	{
		insuranceGroup.GET("/verify-access", handler.VerifyAccess, auth.RequireScope(entity.ScopeReadInsurance))
	}
}
