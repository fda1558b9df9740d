package api

import (
	"context"

	"stampauth/internal/domain/entity"
	"stampauth/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockAccountUsecase struct{ mock.Mock }

func (m *mockAccountUsecase) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.AuthOutput)

	return out, args.Error(1)
}

func (m *mockAccountUsecase) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.AuthOutput)

	return out, args.Error(1)
}

func (m *mockAccountUsecase) Me(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).(*entity.User)

	return out, args.Error(1)
}

func (m *mockAccountUsecase) IssueExtensionToken(ctx context.Context, input *usecase.ExtensionTokenInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.AuthOutput)

	return out, args.Error(1)
}

type mockOAuthUsecase struct{ mock.Mock }

func (m *mockOAuthUsecase) Initiate(ctx context.Context, input *usecase.OAuthInitiateInput) (string, error) {
	args := m.Called(ctx, input)

	return args.String(0), args.Error(1)
}

func (m *mockOAuthUsecase) Callback(ctx context.Context, input *usecase.OAuthCallbackInput) string {
	return m.Called(ctx, input).String(0)
}

type mockWebAuthnUsecase struct{ mock.Mock }

func (m *mockWebAuthnUsecase) RegisterOptions(ctx context.Context, userID uuid.UUID) (*usecase.WebAuthnOptionsOutput, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).(*usecase.WebAuthnOptionsOutput)

	return out, args.Error(1)
}

func (m *mockWebAuthnUsecase) RegisterVerify(ctx context.Context, input *usecase.WebAuthnRegisterVerifyInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *mockWebAuthnUsecase) AuthenticateOptions(ctx context.Context, email string) (*usecase.WebAuthnOptionsOutput, error) {
	args := m.Called(ctx, email)
	out, _ := args.Get(0).(*usecase.WebAuthnOptionsOutput)

	return out, args.Error(1)
}

func (m *mockWebAuthnUsecase) AuthenticateVerify(ctx context.Context, input *usecase.WebAuthnAuthenticateVerifyInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.AuthOutput)

	return out, args.Error(1)
}

type mockAPIKeyUsecase struct{ mock.Mock }

func (m *mockAPIKeyUsecase) Create(ctx context.Context, input *usecase.CreateAPIKeyInput) (*usecase.CreateAPIKeyOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.CreateAPIKeyOutput)

	return out, args.Error(1)
}

func (m *mockAPIKeyUsecase) Verify(ctx context.Context, key string) (*entity.Identity, error) {
	args := m.Called(ctx, key)
	out, _ := args.Get(0).(*entity.Identity)

	return out, args.Error(1)
}

func (m *mockAPIKeyUsecase) List(ctx context.Context, userID uuid.UUID) ([]*entity.APIKey, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]*entity.APIKey)

	return out, args.Error(1)
}

func (m *mockAPIKeyUsecase) Revoke(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

type mockLinkedAccountUsecase struct{ mock.Mock }

func (m *mockLinkedAccountUsecase) List(ctx context.Context, userID uuid.UUID) (*usecase.LinkedAccountsOutput, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).(*usecase.LinkedAccountsOutput)

	return out, args.Error(1)
}

func (m *mockLinkedAccountUsecase) Unlink(ctx context.Context, userID, id uuid.UUID) (*usecase.UnlinkOutput, error) {
	args := m.Called(ctx, userID, id)
	out, _ := args.Get(0).(*usecase.UnlinkOutput)

	return out, args.Error(1)
}

type mockAuthenticator struct{ mock.Mock }

func (m *mockAuthenticator) Authenticate(ctx context.Context, bearer string) (*entity.Identity, error) {
	args := m.Called(ctx, bearer)
	out, _ := args.Get(0).(*entity.Identity)

	return out, args.Error(1)
}
