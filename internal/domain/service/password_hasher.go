// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying key-derivation function, keeping the domain pure.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(password string) (string, error)

	// Check compares a plaintext password with a stored hash in constant time.
	// It returns false for malformed hashes and the no-password sentinel.
	Check(password, hash string) bool

	// HasPassword reports whether hash represents a real password credential.
	HasPassword(hash string) bool
}
