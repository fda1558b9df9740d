package passkey

import (
	"encoding/base64"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/pkg/errors"

	"stampauth/internal/domain/entity"
)

// account presents a user and their stored credentials as a webauthn.User.
type account struct {
	user        *entity.User
	credentials []webauthn.Credential
}

func newAccount(user *entity.User, stored []*entity.WebAuthnCredential) (*account, error) {
	if user == nil {
		return nil, errors.New("passkey ceremony requires a user")
	}

	credentials := make([]webauthn.Credential, 0, len(stored))
	for _, c := range stored {
		credential, err := fromEntity(c)
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, credential)
	}

	return &account{user: user, credentials: credentials}, nil
}

// WebAuthnID is the raw 16-byte user id, which authenticators return as the user handle.
func (a *account) WebAuthnID() []byte {
	id := a.user.ID

	return id[:]
}

func (a *account) WebAuthnName() string {
	return a.user.Email
}

func (a *account) WebAuthnDisplayName() string {
	return a.user.DisplayName()
}

func (a *account) WebAuthnCredentials() []webauthn.Credential {
	return a.credentials
}

func fromEntity(c *entity.WebAuthnCredential) (webauthn.Credential, error) {
	id, err := base64.RawURLEncoding.DecodeString(c.CredentialID)
	if err != nil {
		return webauthn.Credential{}, errors.Wrapf(err, "decode credential id %s", c.CredentialID)
	}

	publicKey, err := base64.RawURLEncoding.DecodeString(c.PublicKey)
	if err != nil {
		return webauthn.Credential{}, errors.Wrapf(err, "decode public key of %s", c.CredentialID)
	}

	transports := make([]protocol.AuthenticatorTransport, 0, len(c.Transports))
	for _, t := range c.Transports {
		transports = append(transports, protocol.AuthenticatorTransport(t))
	}

	return webauthn.Credential{
		ID:              id,
		PublicKey:       publicKey,
		AttestationType: c.AttestationType,
		Transport:       transports,
		Flags: webauthn.CredentialFlags{
			UserPresent:    true,
			BackupEligible: c.BackupEligible,
			BackupState:    c.BackedUp,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    c.AAGUID,
			SignCount: c.Counter,
		},
	}, nil
}

func toEntity(user *entity.User, c *webauthn.Credential) *entity.WebAuthnCredential {
	deviceType := entity.DeviceTypeSingleDevice
	if c.Flags.BackupEligible {
		deviceType = entity.DeviceTypeMultiDevice
	}

	transports := make([]string, 0, len(c.Transport))
	for _, t := range c.Transport {
		transports = append(transports, string(t))
	}

	return &entity.WebAuthnCredential{
		UserID:          user.ID,
		CredentialID:    base64.RawURLEncoding.EncodeToString(c.ID),
		PublicKey:       base64.RawURLEncoding.EncodeToString(c.PublicKey),
		Counter:         c.Authenticator.SignCount,
		DeviceType:      deviceType,
		BackupEligible:  c.Flags.BackupEligible,
		BackedUp:        c.Flags.BackupState,
		Transports:      transports,
		AttestationType: c.AttestationType,
		AAGUID:          c.Authenticator.AAGUID,
	}
}
