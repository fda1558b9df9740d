package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Scope strings understood by the API.
const (
	ScopeAll           = "*"
	ScopeReadStamps    = "read:stamps"
	ScopeReadVerify    = "read:verify"
	ScopeReadInsurance = "read:insurance"
	ScopeExtension     = "extension"
)

// DefaultAPIKeyScopes are granted when a key is created without explicit scopes.
var DefaultAPIKeyScopes = []string{ScopeReadStamps, ScopeReadVerify}

// APIKey is a long-lived machine credential. Only the hash of the secret is kept.
type APIKey struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	KeyPrefix  string // Displayable prefix, e.g. "slk_live_1a2b3c4d...".
	KeyHash    string // SHA-256 hex of the full key.
	Name       string
	Scopes     []string
	CreatedAt  time.Time
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
	IsActive   bool // Revocation flips this to false; rows are never deleted.
}

// Expired reports whether the key has an expiry in the past relative to now.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// HasScope reports whether scopes grant required, either directly or through "*".
func HasScope(scopes []string, required string) bool {
	return slices.Contains(scopes, ScopeAll) || slices.Contains(scopes, required)
}
