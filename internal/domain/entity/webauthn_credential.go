package entity

import (
	"time"

	"github.com/google/uuid"
)

// Passkey device types, mirroring the WebAuthn backup-eligibility flag.
const (
	DeviceTypeSingleDevice = "singleDevice"
	DeviceTypeMultiDevice  = "multiDevice"
)

// WebAuthnCredential is a registered public-key credential (passkey, security key, CAC).
type WebAuthnCredential struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	CredentialID    string     // base64url credential id as reported by the authenticator; unique.
	PublicKey       string     // base64url COSE public key.
	Counter         uint32     // Signature counter; must strictly advance between logins unless it stays at zero.
	DeviceType      string     // DeviceTypeSingleDevice or DeviceTypeMultiDevice.
	BackupEligible  bool       // Authenticator may sync the credential.
	BackedUp        bool       // Credential is currently backed up.
	Transports      []string   // e.g. "usb", "nfc", "internal".
	AttestationType string     // Attestation format used at registration.
	AAGUID          []byte     // Authenticator model identifier.
	DeviceName      *string    // User supplied label such as "YubiKey 5".
	LastUsedAt      *time.Time // Updated on each successful assertion.
	CreatedAt       time.Time
}
