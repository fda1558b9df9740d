package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// WebAuthnOptionsOutput carries browser options and the challenge to echo back.
type WebAuthnOptionsOutput struct {
	Options     json.RawMessage
	ChallengeID string
}

// WebAuthnRegisterVerifyInput finishes a registration ceremony.
type WebAuthnRegisterVerifyInput struct {
	UserID      uuid.UUID
	ChallengeID string
	Response    json.RawMessage
	DeviceName  *string
}

// WebAuthnAuthenticateVerifyInput finishes an authentication ceremony.
type WebAuthnAuthenticateVerifyInput struct {
	ChallengeID string
	Response    json.RawMessage
}

// WebAuthnUsecase drives passkey registration and login.
type WebAuthnUsecase interface {
	RegisterOptions(ctx context.Context, userID uuid.UUID) (*WebAuthnOptionsOutput, error)
	RegisterVerify(ctx context.Context, input *WebAuthnRegisterVerifyInput) error
	AuthenticateOptions(ctx context.Context, email string) (*WebAuthnOptionsOutput, error)
	AuthenticateVerify(ctx context.Context, input *WebAuthnAuthenticateVerifyInput) (*AuthOutput, error)
}
