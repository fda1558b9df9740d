// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"

	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/service"
)

const (
	pbkdf2SaltSize   = 16
	pbkdf2KeySize    = 32
	pbkdf2Iterations = 100_000
)

// pbkdf2Hasher stores passwords as base64(salt || PBKDF2-HMAC-SHA256(password, salt)).
type pbkdf2Hasher struct {
	iterations int
}

// NewPBKDF2Hasher is the constructor for pbkdf2Hasher.
func NewPBKDF2Hasher() service.PasswordHasher {
	return &pbkdf2Hasher{iterations: pbkdf2Iterations}
}

// Hash derives a key from password with a fresh random salt.
func (h *pbkdf2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "generate salt")
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, pbkdf2KeySize, sha256.New)

	return base64.StdEncoding.EncodeToString(append(salt, key...)), nil
}

// Check re-derives the key with the stored salt and compares in constant time.
func (h *pbkdf2Hasher) Check(password, hash string) bool {
	if !h.HasPassword(hash) {
		return false
	}

	raw, err := base64.StdEncoding.DecodeString(hash)
	if err != nil || len(raw) != pbkdf2SaltSize+pbkdf2KeySize {
		return false
	}

	salt, stored := raw[:pbkdf2SaltSize], raw[pbkdf2SaltSize:]
	derived := pbkdf2.Key([]byte(password), salt, h.iterations, pbkdf2KeySize, sha256.New)

	return subtle.ConstantTimeCompare(derived, stored) == 1
}

// HasPassword is false for OAuth- and passkey-only accounts.
func (h *pbkdf2Hasher) HasPassword(hash string) bool {
	return hash != "" && hash != entity.NoPasswordHash
}
