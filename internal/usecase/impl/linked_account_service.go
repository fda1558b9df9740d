package impl

import (
	"context"
	"log/slog"

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

const (
	linkedTypeOAuth    = "oauth"
	linkedTypeWebAuthn = "webauthn"
)

// linkedAccountService implements the LinkedAccountUsecase interface.
type linkedAccountService struct {
	txManager repository.TransactionManager
	hasher    service.PasswordHasher
	logger    *slog.Logger
}

// LinkedAccountServiceParams holds dependencies for LinkedAccountService, injected by Fx.
type LinkedAccountServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewLinkedAccountService is the constructor for linkedAccountService.
func NewLinkedAccountService(params LinkedAccountServiceParams) usecase.LinkedAccountUsecase {
	return &linkedAccountService{
		txManager: params.TxManager,
		hasher:    params.Hasher,
		logger:    params.Logger,
	}
}

func (srv *linkedAccountService) List(ctx context.Context, userID uuid.UUID) (*usecase.LinkedAccountsOutput, error) {
	var output *usecase.LinkedAccountsOutput
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := repoFactory.UserRepo().FindByID(ctx, userID)
		if err != nil {
			return mapUserLookupError(err)
		}

		methods, err := srv.collect(ctx, repoFactory, user)
		if err != nil {
			return err
		}
		output = methods.LinkedAccountsOutput

		return nil
	})
	if err != nil {
		return nil, err
	}

	return output, nil
}

// Unlink removes an OAuth link or passkey by id, refusing to remove the user's last
// sign-in method. The user row stays locked from the count until commit, so two
// concurrent unlinks on the same account are serialized.
func (srv *linkedAccountService) Unlink(ctx context.Context, userID, id uuid.UUID) (*usecase.UnlinkOutput, error) {
	var output *usecase.UnlinkOutput
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := repoFactory.UserRepo().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return mapUserLookupError(err)
		}

		methods, err := srv.collect(ctx, repoFactory, user)
		if err != nil {
			return err
		}

		linkedType := methods.typeOf(id)
		if linkedType == "" {
			return domainerrors.ErrLinkedAccountNotFound
		}
		if methods.count() <= 1 {
			return domainerrors.ErrLastAuthMethod
		}

		switch linkedType {
		case linkedTypeOAuth:
			err = repoFactory.OAuthAccountRepo().DeleteByIDAndUserID(ctx, id, userID)
		default:
			err = repoFactory.WebAuthnCredentialRepo().DeleteByIDAndUserID(ctx, id, userID)
		}
		if err != nil {
			if errors.Is(err, repository.ErrOAuthAccountNotFound) || errors.Is(err, repository.ErrCredentialNotFound) {
				return domainerrors.ErrLinkedAccountNotFound
			}

			return errors.Wrapf(err, "failed to remove %s sign-in method", linkedType)
		}
		output = &usecase.UnlinkOutput{Type: linkedType}

		return nil
	})
	if err != nil {
		return nil, err
	}

	deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Info("Sign-in method removed",
		slog.Any("userID", userID), slog.String("type", output.Type))

	return output, nil
}

// signInMethods is the collected state Unlink decides on.
type signInMethods struct {
	*usecase.LinkedAccountsOutput
}

func (m signInMethods) count() int {
	total := len(m.OAuthAccounts) + len(m.WebAuthnCredentials)
	if m.HasPassword {
		total++
	}

	return total
}

// typeOf reports which kind of method id names, or "" when the user owns no such method.
func (m signInMethods) typeOf(id uuid.UUID) string {
	for _, account := range m.OAuthAccounts {
		if account.ID == id {
			return linkedTypeOAuth
		}
	}
	for _, credential := range m.WebAuthnCredentials {
		if credential.ID == id {
			return linkedTypeWebAuthn
		}
	}

	return ""
}

func mapUserLookupError(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return domainerrors.ErrUserNotFound
	}

	return errors.Wrap(err, "failed to load user")
}

func (srv *linkedAccountService) collect(ctx context.Context, repoFactory repository.RepositoryFactory, user *entity.User) (signInMethods, error) {
	accounts, err := repoFactory.OAuthAccountRepo().ListByUserID(ctx, user.ID)
	if err != nil {
		return signInMethods{}, errors.Wrap(err, "failed to list oauth accounts")
	}

	credentials, err := repoFactory.WebAuthnCredentialRepo().ListByUserID(ctx, user.ID)
	if err != nil {
		return signInMethods{}, errors.Wrap(err, "failed to list passkeys")
	}

	return signInMethods{&usecase.LinkedAccountsOutput{
		OAuthAccounts:       accounts,
		WebAuthnCredentials: credentials,
		HasPassword:         srv.hasher.HasPassword(user.PasswordHash),
	}}, nil
}
