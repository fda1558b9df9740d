package service

import (
	"encoding/json"

	"stampauth/internal/domain/entity"
)

// PasskeyCeremony is the output of a ceremony start: options for the browser and
// opaque session state that must come back unchanged to finish the ceremony.
type PasskeyCeremony struct {
	Options json.RawMessage
	Session []byte
}

// PasskeyAssertion is the verified result of an authentication ceremony.
type PasskeyAssertion struct {
	CredentialID string
	SignCount    uint32
	CloneWarning bool // The returned counter did not advance past the stored one.
	BackedUp     bool
}

// PasskeyService performs the cryptographic half of WebAuthn ceremonies.
type PasskeyService interface {
	// BeginRegistration creates options that exclude the user's existing credentials.
	BeginRegistration(user *entity.User, existing []*entity.WebAuthnCredential) (*PasskeyCeremony, error)

	// FinishRegistration verifies an attestation response against session and returns the credential to store.
	FinishRegistration(user *entity.User, existing []*entity.WebAuthnCredential, session []byte, response json.RawMessage) (*entity.WebAuthnCredential, error)

	// BeginLogin creates assertion options restricted to user's credentials.
	// A nil user yields a discoverable-credential request with an empty allow list.
	BeginLogin(user *entity.User, credentials []*entity.WebAuthnCredential) (*PasskeyCeremony, error)

	// CredentialID extracts the base64url credential id from an assertion response without verifying it.
	CredentialID(response json.RawMessage) (string, error)

	// FinishLogin verifies an assertion made by one of user's credentials.
	FinishLogin(user *entity.User, credentials []*entity.WebAuthnCredential, session []byte, response json.RawMessage) (*PasskeyAssertion, error)
}
