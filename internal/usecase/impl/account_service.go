package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"stampauth/config"
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

const defaultFirstName = "User"

// timingPadPassword is hashed once at startup. Logins that have no real hash to
// check compare against it so every attempt pays for one key derivation.
const timingPadPassword = "stampauth-timing-pad"

// accountService implements the AccountUsecase interface.
type accountService struct {
	userRepo          repository.UserRepository
	hasher            service.PasswordHasher
	tokenService      service.TokenService
	metrics           service.AuthMetrics
	passwordMinLength int
	dummyHash         string
	now               func() time.Time
	logger            *slog.Logger
}

// AccountServiceParams holds dependencies for AccountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Metrics      service.AuthMetrics `optional:"true"`
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAccountService is the constructor for accountService.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	minLength := 8
	if params.Config != nil && params.Config.Auth.PasswordMinLength > 0 {
		minLength = params.Config.Auth.PasswordMinLength
	}

	dummyHash, err := params.Hasher.Hash(timingPadPassword)
	if err != nil {
		params.Logger.Error("Failed to build timing pad hash", slog.Any("error", err))
	}

	return &accountService{
		userRepo:          params.UserRepo,
		hasher:            params.Hasher,
		tokenService:      params.TokenService,
		metrics:           metricsOrNoop(params.Metrics),
		passwordMinLength: minLength,
		dummyHash:         dummyHash,
		now:               time.Now,
		logger:            params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a password account and logs it in.
func (srv *accountService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	email := normalizeEmail(input.Email)
	if !strings.Contains(email, "@") {
		return nil, domainerrors.ErrInvalidEmail
	}
	if len(input.Password) < srv.passwordMinLength {
		return nil, domainerrors.ErrPasswordTooShort
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	firstName, lastName := input.FirstName, input.LastName
	if firstName == "" {
		firstName, lastName = splitName(input.Name)
	}
	if firstName == "" {
		firstName = defaultFirstName
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        input.Phone,
	}
	if err := srv.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
			srv.log(ctx).Info("Registration rejected, email already in use", slog.String("email", email))
		}

		return nil, errors.Wrap(err, "failed to create user during registration")
	}

	srv.log(ctx).Info("User registered", slog.Any("userID", user.ID))

	return srv.issue(user, service.TokenPurposeSession)
}

// Login verifies email and password. Unknown emails, wrong passwords and
// password-less accounts all fail with the same error.
func (srv *accountService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	user, err := srv.verifyPassword(ctx, input.Email, input.Password)
	if err != nil {
		srv.metrics.AuthAttempt(methodPassword, outcomeFailure)

		return nil, err
	}

	now := srv.now()
	if err := srv.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, errors.Wrap(err, "failed to record login")
	}
	user.LastLoginAt = &now
	srv.metrics.AuthAttempt(methodPassword, outcomeSuccess)

	return srv.issue(user, service.TokenPurposeSession)
}

func (srv *accountService) Me(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to load user")
	}

	return user, nil
}

// IssueExtensionToken mints a long-lived, extension-scoped token either from
// an existing session or from email and password.
func (srv *accountService) IssueExtensionToken(ctx context.Context, input *usecase.ExtensionTokenInput) (*usecase.AuthOutput, error) {
	var (
		user *entity.User
		err  error
	)

	switch {
	case input.Identity != nil:
		if !input.Identity.IsSession() {
			return nil, domainerrors.ErrSessionRequired
		}
		user, err = srv.Me(ctx, input.Identity.UserID)
	case input.Email != "" && input.Password != "":
		user, err = srv.verifyPassword(ctx, input.Email, input.Password)
	default:
		return nil, domainerrors.ErrValidationFailed.WithDetails("email and password are required")
	}
	if err != nil {
		return nil, err
	}

	return srv.issue(user, service.TokenPurposeExtension)
}

// verifyPassword runs exactly one key derivation whether or not the email exists
// and whether or not the account has a password, so timing does not reveal either.
func (srv *accountService) verifyPassword(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := srv.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.hasher.Check(password, srv.dummyHash)

			return nil, domainerrors.ErrInvalidCredentials
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	if !srv.hasher.HasPassword(user.PasswordHash) {
		srv.hasher.Check(password, srv.dummyHash)
		srv.log(ctx).Debug("Password login on an account without a password", slog.Any("userID", user.ID))

		return nil, domainerrors.ErrInvalidCredentials
	}

	if !srv.hasher.Check(password, user.PasswordHash) {
		srv.log(ctx).Debug("Password check failed", slog.Any("userID", user.ID))

		return nil, domainerrors.ErrInvalidCredentials
	}

	return user, nil
}

func (srv *accountService) issue(user *entity.User, purpose service.TokenPurpose) (*usecase.AuthOutput, error) {
	token, expiresAt, err := srv.tokenService.GenerateToken(user.ID, purpose)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token")
	}

	return &usecase.AuthOutput{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// splitName turns "Ada King Lovelace" into ("Ada", "King Lovelace").
func splitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}

	return fields[0], strings.Join(fields[1:], " ")
}
