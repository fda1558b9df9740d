package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"stampauth/internal/domain/service"
)

const (
	// APIKeyPrefix marks live API keys; bearer values starting with "slk_" are routed to key verification.
	APIKeyPrefix = "slk_live_"

	apiKeyFamily       = "slk_"
	apiKeyRandomBytes  = 32
	apiKeyDisplayChars = 8
)

type apiKeyGenerator struct{}

// NewAPIKeyGenerator is the constructor for apiKeyGenerator.
func NewAPIKeyGenerator() service.APIKeyGenerator {
	return &apiKeyGenerator{}
}

// Generate mints slk_live_ followed by 64 hex characters.
func (g *apiKeyGenerator) Generate() (*service.GeneratedAPIKey, error) {
	buf := make([]byte, apiKeyRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, "generate api key")
	}

	secret := hex.EncodeToString(buf)
	key := APIKeyPrefix + secret

	return &service.GeneratedAPIKey{
		Key:    key,
		Prefix: APIKeyPrefix + secret[:apiKeyDisplayChars] + "...",
		Hash:   g.Hash(key),
	}, nil
}

func (g *apiKeyGenerator) Hash(key string) string {
	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])
}

func (g *apiKeyGenerator) Matches(bearer string) bool {
	return strings.HasPrefix(bearer, apiKeyFamily)
}
