package service

// GeneratedAPIKey is freshly minted key material. Key is the only copy of the secret.
type GeneratedAPIKey struct {
	Key    string // Full plaintext key, shown to the caller exactly once.
	Prefix string // Displayable prefix stored alongside the hash.
	Hash   string // One-way hash persisted for lookups.
}

// APIKeyGenerator creates and fingerprints API key secrets.
type APIKeyGenerator interface {
	// Generate returns a new random key with its display prefix and hash.
	Generate() (*GeneratedAPIKey, error)

	// Hash fingerprints a presented key for lookup.
	Hash(key string) string

	// Matches reports whether bearer carries the API key prefix.
	Matches(bearer string) bool
}
