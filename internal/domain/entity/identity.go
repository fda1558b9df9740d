package entity

import (
	"slices"

	"github.com/google/uuid"
)

// AuthMethod tags how a bearer credential was verified.
type AuthMethod string

const (
	AuthMethodSession AuthMethod = "session"
	AuthMethodAPIKey  AuthMethod = "api_key"
)

// Identity is the resolved principal behind a bearer credential. It is only
// ever constructed fully populated.
type Identity struct {
	Method   AuthMethod
	UserID   uuid.UUID
	Scopes   []string
	APIKeyID *uuid.UUID // Set for AuthMethodAPIKey only.
}

// HasScope reports whether the identity may perform an operation requiring scope.
func (i *Identity) HasScope(scope string) bool {
	return HasScope(i.Scopes, scope)
}

// IsSession reports whether the identity came from a full session token.
func (i *Identity) IsSession() bool {
	return i.Method == AuthMethodSession && !slices.Equal(i.Scopes, []string{ScopeExtension})
}
