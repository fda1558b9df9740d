package entity

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// ChallengeType distinguishes the protocol a challenge belongs to.
type ChallengeType string

const (
	ChallengeTypeOAuthState           ChallengeType = "oauth_state"
	ChallengeTypeWebAuthnRegister     ChallengeType = "webauthn_register"
	ChallengeTypeWebAuthnAuthenticate ChallengeType = "webauthn_authenticate"
)

// Challenge is short-lived, one-time protocol state. It is immutable between
// create and consume and can be consumed at most once.
type Challenge struct {
	ID        string        // Opaque lookup key; for OAuth this is the state parameter.
	Type      ChallengeType // Which ceremony created it.
	Payload   []byte        // JSON blob owned by the creating ceremony.
	UserID    *uuid.UUID    // Set when the challenge is bound to an authenticated user.
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the challenge is past its expiry at now.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

const challengeIDBytes = 32

// NewChallengeID returns 32 random bytes encoded as unpadded base64url, safe to use as an OAuth state.
func NewChallengeID() (string, error) {
	buf := make([]byte, challengeIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
