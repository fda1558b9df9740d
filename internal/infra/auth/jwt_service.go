package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"stampauth/config"
	"stampauth/internal/domain/entity"
	"stampauth/internal/domain/service"
)

// jwtService issues HS256 session and extension tokens signed with a single server secret.
type jwtService struct {
	secret       []byte
	sessionTTL   time.Duration
	extensionTTL time.Duration
	now          func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Session == "" {
		return nil, errors.New("jwt session secret must be provided")
	}

	return &jwtService{
		secret:       []byte(cfg.SecretKey.Session),
		sessionTTL:   cfg.Auth.SessionTTL,
		extensionTTL: cfg.Auth.ExtensionTTL,
		now:          time.Now,
	}, nil
}

// GenerateToken signs a token for userID. Extension tokens carry scope=extension.
func (s *jwtService) GenerateToken(userID uuid.UUID, purpose service.TokenPurpose) (string, time.Time, error) {
	issuedAt := s.now()

	claims := &service.Claims{
		Type: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			IssuedAt: jwt.NewNumericDate(issuedAt),
			ID:       uuid.NewString(),
		},
	}

	switch purpose {
	case service.TokenPurposeSession:
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(s.sessionTTL))
	case service.TokenPurposeExtension:
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(s.extensionTTL))
		claims.Scope = entity.ScopeExtension
	default:
		return "", time.Time{}, errors.Errorf("unknown token purpose: %s", purpose)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

// ValidateToken verifies signature, algorithm and expiry.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, service.ErrInvalidToken
	}

	if _, err := claims.UserID(); err != nil {
		return nil, service.ErrInvalidToken
	}

	switch claims.Type {
	case service.TokenPurposeSession:
	case service.TokenPurposeExtension:
		if claims.Scope != entity.ScopeExtension {
			return nil, service.ErrInvalidToken
		}
	default:
		return nil, service.ErrInvalidToken
	}

	return claims, nil
}
