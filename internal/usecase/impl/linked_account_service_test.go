package impl

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stampauth/internal/domain/entity"
	domainerrors "stampauth/internal/domain/errors"
	"stampauth/internal/infra/auth"
	"stampauth/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinkedAccountFixture(t *testing.T) (*memoryDB, usecase.LinkedAccountUsecase) {
	t.Helper()

	db := newMemoryDB(t)

	return db, NewLinkedAccountService(LinkedAccountServiceParams{
		TxManager: db,
		Hasher:    auth.NewPBKDF2Hasher(),
		Logger:    newDiscardLogger(),
	})
}

func TestLinkedAccountService_KeepsLastMethod(t *testing.T) {
	db, svc := newLinkedAccountFixture(t)
	ctx := context.Background()

	user := &entity.User{Email: "g@example.com", PasswordHash: entity.NoPasswordHash, FirstName: "G"}
	require.NoError(t, db.UserRepo().Create(ctx, user))

	google := &entity.OAuthAccount{UserID: user.ID, Provider: entity.ProviderTypeGoogle, ProviderAccountID: "g-1"}
	require.NoError(t, db.OAuthAccountRepo().Create(ctx, google))

	listed, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, listed.OAuthAccounts, 1)
	assert.Empty(t, listed.WebAuthnCredentials)
	assert.False(t, listed.HasPassword)

	_, err = svc.Unlink(ctx, user.ID, google.ID)
	require.ErrorIs(t, err, domainerrors.ErrLastAuthMethod)

	passkey := &entity.WebAuthnCredential{UserID: user.ID, CredentialID: "cred-1", PublicKey: "AQ"}
	require.NoError(t, db.WebAuthnCredentialRepo().Create(ctx, passkey))

	out, err := svc.Unlink(ctx, user.ID, google.ID)
	require.NoError(t, err)
	assert.Equal(t, "oauth", out.Type)

	_, err = svc.Unlink(ctx, user.ID, passkey.ID)
	require.ErrorIs(t, err, domainerrors.ErrLastAuthMethod)

	listed, err = svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, listed.OAuthAccounts)
	assert.Len(t, listed.WebAuthnCredentials, 1)
}

func TestLinkedAccountService_PasswordCountsAsMethod(t *testing.T) {
	db, svc := newLinkedAccountFixture(t)
	ctx := context.Background()

	hash, err := auth.NewPBKDF2Hasher().Hash("correcthorse")
	require.NoError(t, err)
	user := &entity.User{Email: "p@example.com", PasswordHash: hash, FirstName: "P"}
	require.NoError(t, db.UserRepo().Create(ctx, user))

	passkey := &entity.WebAuthnCredential{UserID: user.ID, CredentialID: "cred-2", PublicKey: "AQ"}
	require.NoError(t, db.WebAuthnCredentialRepo().Create(ctx, passkey))

	out, err := svc.Unlink(ctx, user.ID, passkey.ID)
	require.NoError(t, err)
	assert.Equal(t, "webauthn", out.Type)
}

func TestLinkedAccountService_NotFound(t *testing.T) {
	db, svc := newLinkedAccountFixture(t)
	ctx := context.Background()

	hash, err := auth.NewPBKDF2Hasher().Hash("correcthorse")
	require.NoError(t, err)
	owner := &entity.User{Email: "o@example.com", PasswordHash: hash, FirstName: "O"}
	require.NoError(t, db.UserRepo().Create(ctx, owner))
	other := &entity.User{Email: "x@example.com", PasswordHash: hash, FirstName: "X"}
	require.NoError(t, db.UserRepo().Create(ctx, other))

	account := &entity.OAuthAccount{UserID: owner.ID, Provider: entity.ProviderTypeMicrosoft, ProviderAccountID: "m-1"}
	require.NoError(t, db.OAuthAccountRepo().Create(ctx, account))

	passkey := &entity.WebAuthnCredential{UserID: other.ID, CredentialID: "cred-3", PublicKey: "AQ"}
	require.NoError(t, db.WebAuthnCredentialRepo().Create(ctx, passkey))

	_, err = svc.Unlink(ctx, other.ID, account.ID)
	require.ErrorIs(t, err, domainerrors.ErrLinkedAccountNotFound)

	_, err = svc.Unlink(ctx, owner.ID, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrLinkedAccountNotFound)

	_, err = svc.List(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestLinkedAccountService_UnknownIDOnSingleMethodAccount(t *testing.T) {
	db, svc := newLinkedAccountFixture(t)
	ctx := context.Background()

	user := &entity.User{Email: "solo@example.com", PasswordHash: entity.NoPasswordHash, FirstName: "S"}
	require.NoError(t, db.UserRepo().Create(ctx, user))
	passkey := &entity.WebAuthnCredential{UserID: user.ID, CredentialID: "cred-solo", PublicKey: "AQ"}
	require.NoError(t, db.WebAuthnCredentialRepo().Create(ctx, passkey))

	_, err := svc.Unlink(ctx, user.ID, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrLinkedAccountNotFound)

	_, err = svc.Unlink(ctx, user.ID, passkey.ID)
	require.ErrorIs(t, err, domainerrors.ErrLastAuthMethod)
}

func TestLinkedAccountService_ConcurrentUnlinkKeepsOneMethod(t *testing.T) {
	db, svc := newLinkedAccountFixture(t)
	ctx := context.Background()

	user := &entity.User{Email: "race@example.com", PasswordHash: entity.NoPasswordHash, FirstName: "R"}
	require.NoError(t, db.UserRepo().Create(ctx, user))
	google := &entity.OAuthAccount{UserID: user.ID, Provider: entity.ProviderTypeGoogle, ProviderAccountID: "g-race"}
	require.NoError(t, db.OAuthAccountRepo().Create(ctx, google))
	passkey := &entity.WebAuthnCredential{UserID: user.ID, CredentialID: "cred-race", PublicKey: "AQ"}
	require.NoError(t, db.WebAuthnCredentialRepo().Create(ctx, passkey))

	// Hold each unlink after it has counted methods until the other one has
	// counted too, or until a short timeout when the other one is blocked.
	var counted atomic.Int32
	bothCounted := make(chan struct{})
	db.afterCredentialList = func() {
		if counted.Add(1) == 2 {
			close(bothCounted)
		}
		select {
		case <-bothCounted:
		case <-time.After(200 * time.Millisecond):
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{google.ID, passkey.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Unlink(ctx, user.ID, id)
		}()
	}
	wg.Wait()
	db.afterCredentialList = nil

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++

			continue
		}
		require.ErrorIs(t, err, domainerrors.ErrLastAuthMethod)
	}
	assert.Equal(t, 1, succeeded)

	listed, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, len(listed.OAuthAccounts)+len(listed.WebAuthnCredentials))
}
