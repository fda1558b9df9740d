package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the only failure ValidateToken reports. Expired, malformed and
// forged tokens all map to it.
var ErrInvalidToken = errors.New("invalid token")

// TokenPurpose selects the lifetime and scope of an issued token.
type TokenPurpose string

const (
	TokenPurposeSession   TokenPurpose = "session"
	TokenPurposeExtension TokenPurpose = "extension"
)

// Claims defines the custom claims for the session tokens.
type Claims struct {
	Type  TokenPurpose `json:"typ"`
	Scope string       `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenService defines the interface for issuing and validating bearer tokens.
type TokenService interface {
	// GenerateToken issues a signed token for userID and reports when it expires.
	GenerateToken(userID uuid.UUID, purpose TokenPurpose) (token string, expiresAt time.Time, err error)

	// ValidateToken checks signature and expiry. Any failure returns ErrInvalidToken.
	ValidateToken(token string) (*Claims, error)
}
