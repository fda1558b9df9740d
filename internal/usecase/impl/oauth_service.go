package impl

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	deliverycontext "stampauth/internal/delivery/context"
	"stampauth/internal/domain/entity"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/domain/repository"
	"stampauth/internal/domain/service"
	"stampauth/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const oauthStateTTL = 10 * time.Minute

// Redirect targets handed back to the browser after a callback.
const (
	redirectOAuthDenied          = "/login?error=oauth_denied"
	redirectOAuthInvalid         = "/login?error=oauth_invalid"
	redirectOAuthExpired         = "/login?error=oauth_expired"
	redirectOAuthInvalidProvider = "/login?error=oauth_invalid_provider"
	redirectOAuthFailed          = "/login?error=oauth_failed"
	redirectOAuthEmailUnverified = "/login?error=oauth_email_unverified"
	redirectLinkedOther          = "/settings?error=oauth_linked_other"
	redirectLinkedAlready        = "/settings?linked=already"
)

// oauthStatePayload is what the oauth_state challenge remembers between initiate and callback.
type oauthStatePayload struct {
	CodeVerifier string     `json:"codeVerifier"`
	Provider     string     `json:"provider"`
	LinkUserID   *uuid.UUID `json:"linkUserId,omitempty"`
}

// callbackRedirectError carries a redirect target out of a transaction.
type callbackRedirectError struct {
	target string
}

func (e *callbackRedirectError) Error() string {
	return "oauth callback redirect: " + e.target
}

// oauthService implements the OAuthUsecase interface.
type oauthService struct {
	providers    service.OAuthProviderRegistry
	pkce         service.PKCEGenerator
	challenges   repository.ChallengeStore
	txManager    repository.TransactionManager
	tokenService service.TokenService
	metrics      service.AuthMetrics
	now          func() time.Time
	logger       *slog.Logger
}

// OAuthServiceParams holds dependencies for OAuthService, injected by Fx.
type OAuthServiceParams struct {
	fx.In

	Providers    service.OAuthProviderRegistry
	PKCE         service.PKCEGenerator
	Challenges   repository.ChallengeStore
	TxManager    repository.TransactionManager
	TokenService service.TokenService
	Metrics      service.AuthMetrics `optional:"true"`
	Logger       *slog.Logger
}

// NewOAuthService is the constructor for oauthService.
func NewOAuthService(params OAuthServiceParams) usecase.OAuthUsecase {
	return &oauthService{
		providers:    params.Providers,
		pkce:         params.PKCE,
		challenges:   params.Challenges,
		txManager:    params.TxManager,
		tokenService: params.TokenService,
		metrics:      metricsOrNoop(params.Metrics),
		now:          time.Now,
		logger:       params.Logger,
	}
}

func (srv *oauthService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Initiate stores a PKCE verifier under a fresh state and returns the provider URL.
func (srv *oauthService) Initiate(ctx context.Context, input *usecase.OAuthInitiateInput) (string, error) {
	provider, ok := srv.providers.Get(input.Provider)
	if !ok {
		return "", domainerrors.ErrInvalidProvider
	}

	payload := oauthStatePayload{
		CodeVerifier: srv.pkce.GenerateVerifier(),
		Provider:     string(provider.Name()),
	}

	if input.LinkToken != "" {
		claims, err := srv.tokenService.ValidateToken(input.LinkToken)
		if err != nil || claims.Type != service.TokenPurposeSession {
			return "", domainerrors.ErrUnauthorized
		}
		userID, err := claims.UserID()
		if err != nil {
			return "", domainerrors.ErrUnauthorized
		}
		payload.LinkUserID = &userID
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode oauth state")
	}

	state, err := srv.challenges.Create(ctx, entity.ChallengeTypeOAuthState, raw, oauthStateTTL, payload.LinkUserID)
	if err != nil {
		return "", errors.Wrap(err, "failed to create oauth state")
	}
	srv.metrics.Challenge(string(entity.ChallengeTypeOAuthState), outcomeCreated)

	return provider.AuthorizationURL(state, payload.CodeVerifier), nil
}

// Callback never fails; every problem is reported through the redirect target.
func (srv *oauthService) Callback(ctx context.Context, input *usecase.OAuthCallbackInput) string {
	logger := srv.log(ctx).With(slog.String("provider", input.Provider))

	if input.ProviderError != "" {
		logger.Info("Provider denied authorization", slog.String("providerError", input.ProviderError))

		return redirectOAuthDenied
	}
	if input.Code == "" || input.State == "" {
		return redirectOAuthInvalid
	}

	payload, err := srv.consumeState(ctx, input.State)
	if err != nil {
		logger.Info("OAuth state rejected", slog.Any("error", err))
		srv.metrics.Challenge(string(entity.ChallengeTypeOAuthState), outcomeExpired)

		return redirectOAuthExpired
	}

	provider, ok := srv.providers.Get(input.Provider)
	if !ok {
		return redirectOAuthInvalidProvider
	}
	if payload.Provider != string(provider.Name()) {
		return redirectOAuthExpired
	}

	identity, err := provider.ExchangeCode(ctx, input.Code, payload.CodeVerifier)
	if err != nil {
		logger.Warn("OAuth code exchange failed", slog.Any("error", err))
		srv.metrics.AuthAttempt(methodOAuth, outcomeFailure)

		return redirectOAuthFailed
	}

	var target string
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var txErr error
		if payload.LinkUserID != nil {
			target, txErr = srv.link(ctx, repoFactory, provider.Name(), *payload.LinkUserID, identity)
		} else {
			target, txErr = srv.login(ctx, repoFactory, provider.Name(), identity)
		}

		return txErr
	})
	if err != nil {
		var redirect *callbackRedirectError
		if errors.As(err, &redirect) {
			srv.metrics.AuthAttempt(methodOAuth, outcomeFailure)

			return redirect.target
		}

		logger.Error("OAuth callback failed", slog.Any("error", err))
		srv.metrics.AuthAttempt(methodOAuth, outcomeFailure)

		return redirectOAuthFailed
	}

	return target
}

func (srv *oauthService) consumeState(ctx context.Context, state string) (*oauthStatePayload, error) {
	challenge, err := srv.challenges.Consume(ctx, state)
	if err != nil {
		return nil, errors.Wrap(err, "failed to consume oauth state")
	}
	if challenge.Type != entity.ChallengeTypeOAuthState {
		return nil, repository.ErrChallengeNotFound
	}

	var payload oauthStatePayload
	if err := json.Unmarshal(challenge.Payload, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode oauth state")
	}

	return &payload, nil
}

// link attaches identity to linkUserID unless another user already owns it.
func (srv *oauthService) link(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	provider entity.ProviderType,
	linkUserID uuid.UUID,
	identity *service.OAuthIdentity,
) (string, error) {
	accountRepo := repoFactory.OAuthAccountRepo()

	existing, err := accountRepo.FindByProviderAccount(ctx, provider, identity.ProviderAccountID)
	switch {
	case err == nil && existing.UserID == linkUserID:
		return redirectLinkedAlready, nil
	case err == nil:
		srv.log(ctx).Warn("OAuth identity already linked to another user", slog.Any("userID", linkUserID))

		return redirectLinkedOther, nil
	case !errors.Is(err, repository.ErrOAuthAccountNotFound):
		return "", errors.Wrap(err, "failed to look up oauth account")
	}

	if err := accountRepo.Create(ctx, newOAuthAccount(linkUserID, provider, identity)); err != nil {
		if errors.Is(err, domainerrors.ErrOAuthAccountLinkedToOther) {
			return "", &callbackRedirectError{target: redirectLinkedOther}
		}

		return "", errors.Wrap(err, "failed to link oauth account")
	}

	srv.log(ctx).Info("OAuth identity linked", slog.Any("userID", linkUserID))

	return "/settings?linked=" + url.QueryEscape(string(provider)), nil
}

// login resolves identity to a user, in order: existing link, verified-email auto-link, new user.
func (srv *oauthService) login(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	provider entity.ProviderType,
	identity *service.OAuthIdentity,
) (string, error) {
	accountRepo := repoFactory.OAuthAccountRepo()
	userRepo := repoFactory.UserRepo()

	existing, err := accountRepo.FindByProviderAccount(ctx, provider, identity.ProviderAccountID)
	if err == nil {
		applyIdentity(existing, identity)
		if err := accountRepo.UpdateTokens(ctx, existing); err != nil {
			return "", errors.Wrap(err, "failed to refresh oauth tokens")
		}

		return srv.completeLogin(ctx, userRepo, existing.UserID)
	}
	if !errors.Is(err, repository.ErrOAuthAccountNotFound) {
		return "", errors.Wrap(err, "failed to look up oauth account")
	}

	email := normalizeEmail(identity.Email)
	if email != "" {
		user, err := userRepo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			if !identity.EmailVerified {
				srv.log(ctx).Warn("Refusing auto-link for unverified email", slog.Any("userID", user.ID))

				return "", &callbackRedirectError{target: redirectOAuthEmailUnverified}
			}
			if err := accountRepo.Create(ctx, newOAuthAccount(user.ID, provider, identity)); err != nil {
				return "", errors.Wrap(err, "failed to auto-link oauth account")
			}
			srv.log(ctx).Info("OAuth identity auto-linked by email", slog.Any("userID", user.ID))

			return srv.completeLogin(ctx, userRepo, user.ID)
		case !errors.Is(err, repository.ErrUserNotFound):
			return "", errors.Wrap(err, "failed to find user by email")
		}
	}

	user := newOAuthUser(provider, identity)
	if err := userRepo.Create(ctx, user); err != nil {
		return "", errors.Wrap(err, "failed to provision oauth user")
	}
	if err := accountRepo.Create(ctx, newOAuthAccount(user.ID, provider, identity)); err != nil {
		return "", errors.Wrap(err, "failed to link new oauth user")
	}
	srv.log(ctx).Info("OAuth user provisioned", slog.Any("userID", user.ID))

	return srv.completeLogin(ctx, userRepo, user.ID)
}

func (srv *oauthService) completeLogin(ctx context.Context, userRepo repository.UserRepository, userID uuid.UUID) (string, error) {
	if err := userRepo.TouchLastLogin(ctx, userID, srv.now()); err != nil {
		return "", errors.Wrap(err, "failed to record login")
	}

	token, _, err := srv.tokenService.GenerateToken(userID, service.TokenPurposeSession)
	if err != nil {
		return "", errors.Wrap(err, "failed to issue session")
	}
	srv.metrics.AuthAttempt(methodOAuth, outcomeSuccess)

	return "/oauth-callback?" + url.Values{"token": {token}}.Encode(), nil
}

func newOAuthAccount(userID uuid.UUID, provider entity.ProviderType, identity *service.OAuthIdentity) *entity.OAuthAccount {
	account := &entity.OAuthAccount{
		UserID:            userID,
		Provider:          provider,
		ProviderAccountID: identity.ProviderAccountID,
	}
	applyIdentity(account, identity)

	return account
}

// applyIdentity copies tokens and the profile snapshot. A missing refresh token keeps the old one.
func applyIdentity(account *entity.OAuthAccount, identity *service.OAuthIdentity) {
	account.AccessToken = identity.AccessToken
	if identity.RefreshToken != "" {
		account.RefreshToken = stringPtr(identity.RefreshToken)
	}
	account.AccessTokenExpiresAt = identity.AccessTokenExpiresAt
	account.IDToken = stringPtr(identity.IDToken)
	account.ProviderEmail = stringPtr(identity.Email)
	account.ProviderName = stringPtr(identity.Name)
	account.ProviderAvatarURL = stringPtr(identity.AvatarURL)
}

func newOAuthUser(provider entity.ProviderType, identity *service.OAuthIdentity) *entity.User {
	email := normalizeEmail(identity.Email)
	if email == "" {
		email = strings.ToLower(string(provider) + "_" + identity.ProviderAccountID + "@oauth.local")
	}

	nameFirst, nameLast := splitName(identity.Name)

	firstName := identity.GivenName
	if firstName == "" {
		firstName = nameFirst
	}
	if firstName == "" {
		firstName = defaultFirstName
	}

	lastName := identity.FamilyName
	if lastName == "" {
		lastName = nameLast
	}

	return &entity.User{
		Email:        email,
		PasswordHash: entity.NoPasswordHash,
		FirstName:    firstName,
		LastName:     lastName,
		AvatarURL:    stringPtr(identity.AvatarURL),
	}
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
