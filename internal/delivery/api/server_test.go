package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stampauth/config"
	apimiddleware "stampauth/internal/delivery/api/middleware"
	"stampauth/internal/delivery/api/router"
	"stampauth/internal/delivery/api/router/handler"
	"stampauth/internal/domain/entity"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	e        *echo.Echo
	accounts *mockAccountUsecase
	oauth    *mockOAuthUsecase
	webauthn *mockWebAuthnUsecase
	apiKeys  *mockAPIKeyUsecase
	linked   *mockLinkedAccountUsecase
	authn    *mockAuthenticator
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.HTTP.MaxRequestBodySize = "100KB"
	cfg.Metrics.Enabled = true

	f := &apiFixture{
		accounts: &mockAccountUsecase{},
		oauth:    &mockOAuthUsecase{},
		webauthn: &mockWebAuthnUsecase{},
		apiKeys:  &mockAPIKeyUsecase{},
		linked:   &mockLinkedAccountUsecase{},
		authn:    &mockAuthenticator{},
	}
	t.Cleanup(func() {
		f.accounts.AssertExpectations(t)
		f.oauth.AssertExpectations(t)
		f.apiKeys.AssertExpectations(t)
		f.linked.AssertExpectations(t)
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "stampauth_test_total", Help: "test"}))

	f.e = NewEcho(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), router.RouterParams{
		AccountHandler:       handler.NewAccountHandler(handler.AccountHandlerParams{AccountUsecase: f.accounts}),
		OAuthHandler:         handler.NewOAuthHandler(handler.OAuthHandlerParams{OAuthUsecase: f.oauth}),
		WebAuthnHandler:      handler.NewWebAuthnHandler(handler.WebAuthnHandlerParams{WebAuthnUsecase: f.webauthn}),
		APIKeyHandler:        handler.NewAPIKeyHandler(handler.APIKeyHandlerParams{APIKeyUsecase: f.apiKeys}),
		LinkedAccountHandler: handler.NewLinkedAccountHandler(handler.LinkedAccountHandlerParams{LinkedAccountUsecase: f.linked}),
		AuthMiddleware:       apimiddleware.NewAuthMiddleware(apimiddleware.AuthMiddlewareParams{Authenticator: f.authn}),
		Gatherer:             registry,
		Config:               cfg,
	})

	return f
}

func (f *apiFixture) do(method, path, bearer, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	return env
}

func sessionIdentity(userID uuid.UUID) *entity.Identity {
	return &entity.Identity{Method: entity.AuthMethodSession, UserID: userID, Scopes: []string{entity.ScopeAll}}
}

func apiKeyIdentity(userID uuid.UUID, scopes ...string) *entity.Identity {
	keyID := uuid.New()

	return &entity.Identity{Method: entity.AuthMethodAPIKey, UserID: userID, Scopes: scopes, APIKeyID: &keyID}
}

func TestAPI_RegisterThenMe(t *testing.T) {
	f := newAPIFixture(t)
	user := &entity.User{ID: uuid.New(), Email: "a@x.com", PasswordHash: "secret-hash", FirstName: "User", CreatedAt: time.Now()}

	f.accounts.On("Register", mock.Anything, &usecase.RegisterInput{Email: "a@x.com", Password: "correcthorse"}).
		Return(&usecase.AuthOutput{User: user, Token: "session-token"}, nil).Once()

	rec := f.do(http.MethodPost, "/api/auth/register", "", `{"email":"a@x.com","password":"correcthorse"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secret-hash")

	env := decode(t, rec)
	assert.NotEmpty(t, env.Meta.RequestID)
	var registered struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &registered))
	assert.Equal(t, "session-token", registered.Token)
	assert.Equal(t, "a@x.com", registered.User["email"])
	assert.NotContains(t, registered.User, "passwordHash")

	f.authn.On("Authenticate", mock.Anything, "session-token").Return(sessionIdentity(user.ID), nil)
	f.accounts.On("Me", mock.Anything, user.ID).Return(user, nil).Once()

	rec = f.do(http.MethodGet, "/api/auth/me", "session-token", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var me struct {
		User struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
		AuthMethod string   `json:"authMethod"`
		Scopes     []string `json:"scopes"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &me))
	assert.Equal(t, user.ID, me.User.ID)
	assert.Equal(t, "session", me.AuthMethod)
	assert.Equal(t, []string{"*"}, me.Scopes)
}

func TestAPI_ErrorMapping(t *testing.T) {
	f := newAPIFixture(t)

	f.accounts.On("Register", mock.Anything, mock.Anything).
		Return(nil, errors.Wrap(domainerrors.ErrUserAlreadyExists, "failed to create user")).Once()
	rec := f.do(http.MethodPost, "/api/auth/register", "", `{"email":"a@x.com","password":"correcthorse"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "USER_ALREADY_EXISTS", decode(t, rec).Error.Code)

	rec = f.do(http.MethodPost, "/api/auth/register", "", `{"password":"correcthorse"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "email")

	f.accounts.On("Login", mock.Anything, mock.Anything).Return(nil, domainerrors.ErrInvalidCredentials).Once()
	rec = f.do(http.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, rec).Error.Code)

	f.accounts.On("Login", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset by peer")).Once()
	rec = f.do(http.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	assert.Equal(t, "INTERNAL_ERROR", decode(t, rec).Error.Code)
}

func TestAPI_Authentication(t *testing.T) {
	f := newAPIFixture(t)
	f.authn.On("Authenticate", mock.Anything, "forged").Return(nil, usecase.ErrUnauthenticated)

	for name, header := range map[string]string{"missing": "", "not bearer": "Basic abc", "forged": "Bearer forged"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if header != "" {
				req.Header.Set(echo.HeaderAuthorization, header)
			}
			rec := httptest.NewRecorder()
			f.e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
			assert.Empty(t, env.Error.Details)
		})
	}
}

func TestAPI_ScopeEnforcement(t *testing.T) {
	f := newAPIFixture(t)
	userID := uuid.New()

	f.authn.On("Authenticate", mock.Anything, "slk_stamps").Return(apiKeyIdentity(userID, entity.ScopeReadStamps), nil)
	f.authn.On("Authenticate", mock.Anything, "slk_insurance").Return(apiKeyIdentity(userID, entity.ScopeReadInsurance), nil)
	f.authn.On("Authenticate", mock.Anything, "session").Return(sessionIdentity(userID), nil)
	f.authn.On("Authenticate", mock.Anything, "slk_revoked").Return(nil, usecase.ErrUnauthenticated)

	rec := f.do(http.MethodGet, "/api/insurance/verify-access", "slk_stamps", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INSUFFICIENT_SCOPE", decode(t, rec).Error.Code)

	rec = f.do(http.MethodGet, "/api/insurance/verify-access", "slk_insurance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var access struct {
		UserID     uuid.UUID `json:"userId"`
		AuthMethod string    `json:"authMethod"`
		Scopes     []string  `json:"scopes"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &access))
	assert.Equal(t, userID, access.UserID)
	assert.Equal(t, "api_key", access.AuthMethod)

	rec = f.do(http.MethodGet, "/api/insurance/verify-access", "session", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/insurance/verify-access", "slk_revoked", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/keys", "slk_insurance", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "SESSION_REQUIRED", decode(t, rec).Error.Code)
}

func TestAPI_APIKeys(t *testing.T) {
	f := newAPIFixture(t)
	userID := uuid.New()
	keyID := uuid.New()
	f.authn.On("Authenticate", mock.Anything, "session").Return(sessionIdentity(userID), nil)

	f.apiKeys.On("Create", mock.Anything, &usecase.CreateAPIKeyInput{UserID: userID, Name: "reader", Scopes: []string{"read:stamps"}}).
		Return(&usecase.CreateAPIKeyOutput{Key: "slk_full", ID: keyID, Prefix: "slk_fu", Name: "reader"}, nil).Once()
	rec := f.do(http.MethodPost, "/api/keys", "session", `{"name":"reader","scopes":["read:stamps"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"key":"slk_full"`)

	rec = f.do(http.MethodPost, "/api/keys", "session", `{"name":"reader","scopes":["extension"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.apiKeys.On("List", mock.Anything, userID).Return([]*entity.APIKey{
		{ID: keyID, Name: "reader", KeyPrefix: "slk_fu", KeyHash: "hash-never-shown", Scopes: []string{"read:stamps"}, IsActive: true},
	}, nil).Once()
	rec = f.do(http.MethodGet, "/api/keys", "session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash-never-shown")
	assert.Contains(t, rec.Body.String(), `"prefix":"slk_fu"`)

	f.apiKeys.On("Revoke", mock.Anything, keyID, userID).Return(nil).Once()
	rec = f.do(http.MethodDelete, "/api/keys/"+keyID.String(), "session", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodDelete, "/api/keys/not-a-uuid", "session", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_LinkedAccounts(t *testing.T) {
	f := newAPIFixture(t)
	userID := uuid.New()
	linkID := uuid.New()
	f.authn.On("Authenticate", mock.Anything, "session").Return(sessionIdentity(userID), nil)

	f.linked.On("Unlink", mock.Anything, userID, linkID).Return(nil, domainerrors.ErrLastAuthMethod).Once()
	rec := f.do(http.MethodDelete, "/api/auth/linked-accounts/"+linkID.String(), "session", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "LAST_AUTH_METHOD", decode(t, rec).Error.Code)

	f.linked.On("Unlink", mock.Anything, userID, linkID).Return(&usecase.UnlinkOutput{Type: "oauth"}, nil).Once()
	rec = f.do(http.MethodDelete, "/api/auth/linked-accounts/"+linkID.String(), "session", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"oauth"`)

	f.linked.On("List", mock.Anything, userID).Return(&usecase.LinkedAccountsOutput{HasPassword: true}, nil).Once()
	rec = f.do(http.MethodGet, "/api/auth/linked-accounts", "session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"oauthAccounts":[]`)
	assert.Contains(t, rec.Body.String(), `"hasPassword":true`)
}

func TestAPI_OAuth(t *testing.T) {
	f := newAPIFixture(t)

	f.oauth.On("Initiate", mock.Anything, &usecase.OAuthInitiateInput{Provider: "google"}).
		Return("https://accounts.google.com/o/oauth2/auth?state=abc", nil).Once()
	rec := f.do(http.MethodPost, "/api/auth/oauth/google", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "authorizationUrl")

	f.oauth.On("Initiate", mock.Anything, &usecase.OAuthInitiateInput{Provider: "github"}).
		Return("", domainerrors.ErrInvalidProvider).Once()
	rec = f.do(http.MethodPost, "/api/auth/oauth/github", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.oauth.On("Callback", mock.Anything, &usecase.OAuthCallbackInput{Provider: "google", Code: "c", State: "s"}).
		Return("/oauth-callback?token=t").Once()
	rec = f.do(http.MethodGet, "/api/auth/callback/google?code=c&state=s", "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/oauth-callback?token=t", rec.Header().Get(echo.HeaderLocation))
}

func TestAPI_ExtensionToken(t *testing.T) {
	f := newAPIFixture(t)
	userID := uuid.New()
	user := &entity.User{ID: userID, Email: "e@x.com"}
	identity := sessionIdentity(userID)
	f.authn.On("Authenticate", mock.Anything, "session").Return(identity, nil)

	f.accounts.On("IssueExtensionToken", mock.Anything, &usecase.ExtensionTokenInput{Identity: identity}).
		Return(&usecase.AuthOutput{User: user, Token: "ext", ExpiresAt: time.Now().Add(time.Hour)}, nil).Once()
	rec := f.do(http.MethodPost, "/api/auth/extension-token", "session", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"token":"ext"`)

	f.accounts.On("IssueExtensionToken", mock.Anything, &usecase.ExtensionTokenInput{Email: "e@x.com", Password: "pw"}).
		Return(&usecase.AuthOutput{User: user, Token: "ext2", ExpiresAt: time.Now().Add(time.Hour)}, nil).Once()
	rec = f.do(http.MethodPost, "/api/auth/extension-token", "", `{"email":"e@x.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"token":"ext2"`)
}

func TestAPI_WebAuthnRequiresSession(t *testing.T) {
	f := newAPIFixture(t)
	userID := uuid.New()
	f.authn.On("Authenticate", mock.Anything, "extension").
		Return(&entity.Identity{Method: entity.AuthMethodSession, UserID: userID, Scopes: []string{entity.ScopeExtension}}, nil)

	rec := f.do(http.MethodPost, "/api/auth/webauthn/register/options", "extension", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.webauthn.On("AuthenticateVerify", mock.Anything, mock.Anything).Return(nil, domainerrors.ErrAuthenticatorCloned).Once()
	rec = f.do(http.MethodPost, "/api/auth/webauthn/authenticate/verify", "", `{"challengeId":"c","response":{"id":"x"}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTHENTICATOR_CLONED", decode(t, rec).Error.Code)
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stampauth_test_total")
}
