package impl

import (
	"context"
	"log/slog"
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

const webAuthnChallengeTTL = 5 * time.Minute

// webAuthnService implements the WebAuthnUsecase interface.
type webAuthnService struct {
	userRepo       repository.UserRepository
	credentialRepo repository.WebAuthnCredentialRepository
	challenges     repository.ChallengeStore
	passkeys       service.PasskeyService
	tokenService   service.TokenService
	metrics        service.AuthMetrics
	now            func() time.Time
	logger         *slog.Logger
}

// WebAuthnServiceParams holds dependencies for WebAuthnService, injected by Fx.
type WebAuthnServiceParams struct {
	fx.In

	UserRepo       repository.UserRepository
	CredentialRepo repository.WebAuthnCredentialRepository
	Challenges     repository.ChallengeStore
	Passkeys       service.PasskeyService
	TokenService   service.TokenService
	Metrics        service.AuthMetrics `optional:"true"`
	Logger         *slog.Logger
}

// NewWebAuthnService is the constructor for webAuthnService.
func NewWebAuthnService(params WebAuthnServiceParams) usecase.WebAuthnUsecase {
	return &webAuthnService{
		userRepo:       params.UserRepo,
		credentialRepo: params.CredentialRepo,
		challenges:     params.Challenges,
		passkeys:       params.Passkeys,
		tokenService:   params.TokenService,
		metrics:        metricsOrNoop(params.Metrics),
		now:            time.Now,
		logger:         params.Logger,
	}
}

func (srv *webAuthnService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RegisterOptions starts a registration ceremony bound to userID.
func (srv *webAuthnService) RegisterOptions(ctx context.Context, userID uuid.UUID) (*usecase.WebAuthnOptionsOutput, error) {
	user, credentials, err := srv.loadUserWithCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	ceremony, err := srv.passkeys.BeginRegistration(user, credentials)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin passkey registration")
	}

	challengeID, err := srv.challenges.Create(ctx, entity.ChallengeTypeWebAuthnRegister, ceremony.Session, webAuthnChallengeTTL, &user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to store registration challenge")
	}
	srv.metrics.Challenge(string(entity.ChallengeTypeWebAuthnRegister), outcomeCreated)

	return &usecase.WebAuthnOptionsOutput{Options: ceremony.Options, ChallengeID: challengeID}, nil
}

// RegisterVerify checks the attestation and stores the new credential.
func (srv *webAuthnService) RegisterVerify(ctx context.Context, input *usecase.WebAuthnRegisterVerifyInput) error {
	challenge, err := srv.consume(ctx, input.ChallengeID, entity.ChallengeTypeWebAuthnRegister)
	if err != nil {
		return err
	}
	if challenge.UserID == nil || *challenge.UserID != input.UserID {
		srv.log(ctx).Warn("Registration challenge used by a different user", slog.Any("userID", input.UserID))

		return domainerrors.ErrChallengeUserMismatch
	}

	user, existing, err := srv.loadUserWithCredentials(ctx, input.UserID)
	if err != nil {
		return err
	}

	credential, err := srv.passkeys.FinishRegistration(user, existing, challenge.Payload, input.Response)
	if err != nil {
		srv.log(ctx).Info("Passkey attestation rejected", slog.Any("userID", user.ID), slog.Any("error", err))

		return domainerrors.ErrPasskeyVerificationFailed
	}
	credential.DeviceName = input.DeviceName

	if err := srv.credentialRepo.Create(ctx, credential); err != nil {
		return errors.Wrap(err, "failed to store passkey")
	}

	srv.log(ctx).Info("Passkey registered", slog.Any("userID", user.ID), slog.String("deviceType", credential.DeviceType))

	return nil
}

// AuthenticateOptions restricts the allow list to the user's credentials when
// email matches an account that has any. Otherwise the request is discoverable.
func (srv *webAuthnService) AuthenticateOptions(ctx context.Context, email string) (*usecase.WebAuthnOptionsOutput, error) {
	var (
		user        *entity.User
		credentials []*entity.WebAuthnCredential
	)

	if email = normalizeEmail(email); email != "" {
		found, err := srv.userRepo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			credentials, err = srv.credentialRepo.ListByUserID(ctx, found.ID)
			if err != nil {
				return nil, errors.Wrap(err, "failed to list passkeys")
			}
			if len(credentials) > 0 {
				user = found
			}
		case !errors.Is(err, repository.ErrUserNotFound):
			return nil, errors.Wrap(err, "failed to find user by email")
		}
	}

	ceremony, err := srv.passkeys.BeginLogin(user, credentials)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin passkey login")
	}

	challengeID, err := srv.challenges.Create(ctx, entity.ChallengeTypeWebAuthnAuthenticate, ceremony.Session, webAuthnChallengeTTL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to store authentication challenge")
	}
	srv.metrics.Challenge(string(entity.ChallengeTypeWebAuthnAuthenticate), outcomeCreated)

	return &usecase.WebAuthnOptionsOutput{Options: ceremony.Options, ChallengeID: challengeID}, nil
}

// AuthenticateVerify checks the assertion, rejects cloned authenticators and issues a session.
func (srv *webAuthnService) AuthenticateVerify(ctx context.Context, input *usecase.WebAuthnAuthenticateVerifyInput) (*usecase.AuthOutput, error) {
	challenge, err := srv.consume(ctx, input.ChallengeID, entity.ChallengeTypeWebAuthnAuthenticate)
	if err != nil {
		return nil, err
	}

	credentialID, err := srv.passkeys.CredentialID(input.Response)
	if err != nil {
		srv.metrics.AuthAttempt(methodWebAuthn, outcomeFailure)

		return nil, domainerrors.ErrPasskeyVerificationFailed
	}

	stored, err := srv.credentialRepo.FindByCredentialID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			srv.metrics.AuthAttempt(methodWebAuthn, outcomeFailure)

			return nil, domainerrors.ErrPasskeyVerificationFailed
		}

		return nil, errors.Wrap(err, "failed to find passkey")
	}

	user, credentials, err := srv.loadUserWithCredentials(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	assertion, err := srv.passkeys.FinishLogin(user, credentials, challenge.Payload, input.Response)
	if err != nil {
		srv.log(ctx).Info("Passkey assertion rejected", slog.Any("userID", user.ID), slog.Any("error", err))
		srv.metrics.AuthAttempt(methodWebAuthn, outcomeFailure)

		return nil, domainerrors.ErrPasskeyVerificationFailed
	}
	if assertion.CloneWarning {
		srv.log(ctx).Warn("Passkey counter did not advance, possible cloned authenticator",
			slog.Any("userID", user.ID),
			slog.Any("credentialID", stored.ID),
			slog.Any("storedCounter", stored.Counter),
			slog.Any("returnedCounter", assertion.SignCount),
		)
		srv.metrics.AuthAttempt(methodWebAuthn, outcomeCloned)

		return nil, domainerrors.ErrAuthenticatorCloned
	}

	now := srv.now()
	stored.Counter = assertion.SignCount
	stored.BackedUp = assertion.BackedUp
	stored.LastUsedAt = &now
	if err := srv.credentialRepo.UpdateUsage(ctx, stored); err != nil {
		return nil, errors.Wrap(err, "failed to update passkey usage")
	}
	if err := srv.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, errors.Wrap(err, "failed to record login")
	}
	user.LastLoginAt = &now

	token, expiresAt, err := srv.tokenService.GenerateToken(user.ID, service.TokenPurposeSession)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue session")
	}
	srv.metrics.AuthAttempt(methodWebAuthn, outcomeSuccess)

	return &usecase.AuthOutput{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// consume maps a missing, expired or mistyped challenge to ErrChallengeExpired.
func (srv *webAuthnService) consume(ctx context.Context, id string, want entity.ChallengeType) (*entity.Challenge, error) {
	if id == "" {
		return nil, domainerrors.ErrChallengeExpired
	}

	challenge, err := srv.challenges.Consume(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrChallengeNotFound) {
			srv.metrics.Challenge(string(want), outcomeExpired)

			return nil, domainerrors.ErrChallengeExpired
		}

		return nil, errors.Wrap(err, "failed to consume challenge")
	}
	if challenge.Type != want {
		srv.metrics.Challenge(string(want), outcomeInvalid)

		return nil, domainerrors.ErrChallengeExpired
	}

	return challenge, nil
}

func (srv *webAuthnService) loadUserWithCredentials(ctx context.Context, userID uuid.UUID) (*entity.User, []*entity.WebAuthnCredential, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, domainerrors.ErrUserNotFound
		}

		return nil, nil, errors.Wrap(err, "failed to load user")
	}

	credentials, err := srv.credentialRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list passkeys")
	}

	return user, credentials, nil
}
