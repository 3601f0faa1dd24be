package services

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "drive"

// ErrInvalidToken covers malformed, expired and wrongly signed tokens
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies the HS256 session tokens that guard the API
type TokenService struct {
	signingKey []byte
	password   string
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenService creates a token service. An empty secret generates an
// ephemeral key, which means sessions invalidate on restart.
func NewTokenService(secret, password string, ttl time.Duration) *TokenService {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			panic("failed to generate random key")
		}
	}
	return &TokenService{signingKey: key, password: password, ttl: ttl, now: time.Now}
}

// TTL is how long an issued token stays valid
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// CheckPassword compares in constant time. No password configured never matches.
func (s *TokenService) CheckPassword(candidate string) bool {
	if s.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.password), []byte(candidate)) == 1
}

// Issue signs a token for subject
func (s *TokenService) Issue(subject string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns its claims
func (s *TokenService) Verify(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
