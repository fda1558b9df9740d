// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// NoPasswordHash is stored in place of a password hash for accounts that only
// sign in through OAuth or passkeys. It never verifies.
const NoPasswordHash = "NO_PASSWORD"

// User is the root identity that every credential (password, OAuth link, passkey, API key) hangs off.
type User struct {
	ID           uuid.UUID  // The Global Unique Identifier (GUID) for the user.
	Email        string     // Lower-cased login email; unique across users.
	PasswordHash string     // Packed PBKDF2 hash, or NoPasswordHash for password-less accounts.
	FirstName    string     // Given name, shown in the UI.
	LastName     string     // Family name, may be empty for provisioned accounts.
	Phone        *string    // Optional contact number.
	AvatarURL    *string    // Optional avatar, usually copied from an identity provider.
	CreatedAt    time.Time  // Timestamp of when this user account was created.
	UpdatedAt    time.Time  // Timestamp of the last modification to this user's data.
	LastLoginAt  *time.Time // Set on every successful login, regardless of method.
}

// DisplayName joins first and last name for places like passkey prompts.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}

	return u.FirstName + " " + u.LastName
}
