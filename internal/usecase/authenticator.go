package usecase

import (
	"context"
	"errors"

	"stampauth/internal/domain/entity"
)

// ErrUnauthenticated is the single, uniform failure of bearer verification.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves a bearer credential of any kind to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*entity.Identity, error)
}
