package jwt

import (
	"os"
	"time"
)

const devSecret = "devJwtSecretDoNotUseInProduction"

// Service signs and validates tokens with a fixed secret and lifetime
type Service struct {
	secretKey []byte
	expiry    time.Duration
}

// NewService creates a new JWT service. An empty secret falls back to JWT_SECRET.
func NewService(secretKey string, expiry time.Duration) *Service {
	if secretKey == "" {
		secretKey = os.Getenv("JWT_SECRET")
	}
	if secretKey == "" {
		secretKey = devSecret
	}

	if expiry == 0 {
		expiry = 24 * time.Hour
	}

	return &Service{
		secretKey: []byte(secretKey),
		expiry:    expiry,
	}
}

// GenerateToken generates a JWT token for a user
func (s *Service) GenerateToken(userID uint, email string, role Role) (string, error) {
	return sign(s.secretKey, newClaims(userID, email, role, s.expiry))
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	return parse(s.secretKey, tokenString)
}
