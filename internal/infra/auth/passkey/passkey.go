// Package passkey adapts go-webauthn to the domain PasskeyService.
package passkey

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/pkg/errors"

	"stampauth/config"
	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/service"
)

type passkeyService struct {
	webAuthn *webauthn.WebAuthn
}

// NewService builds the relying party from the webauthn config section.
func NewService(cfg *config.Config) (service.PasskeyService, error) {
	timeout := webauthn.TimeoutConfig{Timeout: cfg.WebAuthn.Timeout, TimeoutUVD: cfg.WebAuthn.Timeout}

	wa, err := webauthn.New(&webauthn.Config{
		RPID:                  cfg.WebAuthn.RPID,
		RPDisplayName:         cfg.WebAuthn.RPName,
		RPOrigins:             cfg.WebAuthn.Origins,
		AttestationPreference: protocol.PreferNoAttestation,
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementPreferred,
			UserVerification: protocol.VerificationPreferred,
		},
		// Challenge expiry is enforced by the challenge store.
		Timeouts: webauthn.TimeoutsConfig{Login: timeout, Registration: timeout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "configure webauthn relying party")
	}

	return &passkeyService{webAuthn: wa}, nil
}

func (s *passkeyService) BeginRegistration(user *entity.User, existing []*entity.WebAuthnCredential) (*service.PasskeyCeremony, error) {
	account, err := newAccount(user, existing)
	if err != nil {
		return nil, err
	}

	var opts []webauthn.RegistrationOption
	if len(account.credentials) > 0 {
		opts = append(opts, webauthn.WithExclusions(webauthn.Credentials(account.credentials).CredentialDescriptors()))
	}

	creation, session, err := s.webAuthn.BeginRegistration(account, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "begin registration")
	}

	return newCeremony(creation.Response, session)
}

func (s *passkeyService) FinishRegistration(user *entity.User, existing []*entity.WebAuthnCredential, sessionData []byte, response json.RawMessage) (*entity.WebAuthnCredential, error) {
	account, err := newAccount(user, existing)
	if err != nil {
		return nil, err
	}

	session, err := decodeSession(sessionData)
	if err != nil {
		return nil, err
	}

	parsed, err := protocol.ParseCredentialCreationResponseBytes(response)
	if err != nil {
		return nil, errors.Wrap(err, "parse attestation response")
	}

	credential, err := s.webAuthn.CreateCredential(account, *session, parsed)
	if err != nil {
		return nil, errors.Wrap(err, "verify attestation")
	}

	return toEntity(user, credential), nil
}

func (s *passkeyService) BeginLogin(user *entity.User, credentials []*entity.WebAuthnCredential) (*service.PasskeyCeremony, error) {
	var (
		assertion *protocol.CredentialAssertion
		session   *webauthn.SessionData
		err       error
	)

	if user == nil || len(credentials) == 0 {
		assertion, session, err = s.webAuthn.BeginDiscoverableLogin()
	} else {
		account, accErr := newAccount(user, credentials)
		if accErr != nil {
			return nil, accErr
		}
		assertion, session, err = s.webAuthn.BeginLogin(account)
	}
	if err != nil {
		return nil, errors.Wrap(err, "begin login")
	}

	return newCeremony(assertion.Response, session)
}

func (s *passkeyService) CredentialID(response json.RawMessage) (string, error) {
	parsed, err := protocol.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return "", errors.Wrap(err, "parse assertion response")
	}

	return base64.RawURLEncoding.EncodeToString(parsed.RawID), nil
}

// FinishLogin validates the assertion. A counter that fails to advance is reported through
// CloneWarning rather than as an error; the caller decides what to do with it.
func (s *passkeyService) FinishLogin(user *entity.User, credentials []*entity.WebAuthnCredential, sessionData []byte, response json.RawMessage) (*service.PasskeyAssertion, error) {
	account, err := newAccount(user, credentials)
	if err != nil {
		return nil, err
	}

	session, err := decodeSession(sessionData)
	if err != nil {
		return nil, err
	}

	parsed, err := protocol.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return nil, errors.Wrap(err, "parse assertion response")
	}

	var validated *webauthn.Credential
	if len(session.UserID) == 0 {
		handler := func(_, userHandle []byte) (webauthn.User, error) {
			if !bytes.Equal(userHandle, account.WebAuthnID()) {
				return nil, errors.New("user handle does not belong to credential owner")
			}

			return account, nil
		}
		_, validated, err = s.webAuthn.ValidatePasskeyLogin(handler, *session, parsed)
	} else {
		validated, err = s.webAuthn.ValidateLogin(account, *session, parsed)
	}
	if err != nil {
		return nil, errors.Wrap(err, "verify assertion")
	}

	credentialID := base64.RawURLEncoding.EncodeToString(validated.ID)
	returned := parsed.Response.AuthenticatorData.Counter

	var stored uint32
	for _, c := range credentials {
		if c.CredentialID == credentialID {
			stored = c.Counter

			break
		}
	}

	return &service.PasskeyAssertion{
		CredentialID: credentialID,
		SignCount:    returned,
		CloneWarning: validated.Authenticator.CloneWarning || counterRegressed(stored, returned),
		BackedUp:     validated.Flags.BackupState,
	}, nil
}

// counterRegressed reports whether returned fails to advance past stored. Authenticators
// that never count keep both at zero.
func counterRegressed(stored, returned uint32) bool {
	if stored == 0 && returned == 0 {
		return false
	}

	return returned <= stored
}

func newCeremony(options any, session *webauthn.SessionData) (*service.PasskeyCeremony, error) {
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, errors.Wrap(err, "encode ceremony options")
	}

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return nil, errors.Wrap(err, "encode ceremony session")
	}

	return &service.PasskeyCeremony{Options: optionsJSON, Session: sessionJSON}, nil
}

func decodeSession(data []byte) (*webauthn.SessionData, error) {
	var session webauthn.SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrap(err, "decode ceremony session")
	}

	return &session, nil
}
