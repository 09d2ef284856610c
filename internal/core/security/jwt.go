package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/blogapi/blog-service/internal/core/domain"
)

const (
	DefaultTokenTTL = 10 * time.Hour
	minSecretLen    = 32
)

// JWTCodec issues and verifies HS256 tokens carrying only the subject and
// the registered time claims. Its secret is fixed at construction.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTCodec(secret []byte, ttl time.Duration) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)

	return &JWTCodec{secret: key, ttl: ttl}, nil
}

// GenerateSecret returns a random signing key for processes started without a
// configured one. Tokens signed with it die with the process.
func GenerateSecret() ([]byte, error) {
	b := make([]byte, minSecretLen)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	return b, nil
}

func (c *JWTCodec) TTL() time.Duration { return c.ttl }

func (c *JWTCodec) Issue(subject string, now time.Time) (domain.Token, error) {
	if subject == "" {
		return domain.Token{}, errors.New("token subject must not be empty")
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign jwt: %w", err)
	}

	return domain.Token{
		Value:     signed,
		Subject:   subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify checks the signature first and the expiry second, so a tampered
// token is reported as such even when it has also expired. A token stays
// valid up to and including its exp instant.
func (c *JWTCodec) Verify(token string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, c.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", classify(err)
	}
	if claims.ExpiresAt == nil || claims.Subject == "" {
		return "", domain.ErrTokenMalformed
	}
	if now.After(claims.ExpiresAt.Time) {
		return "", domain.ErrTokenExpired
	}
	return claims.Subject, nil
}

func (c *JWTCodec) key(_ *jwt.Token) (any, error) {
	return c.secret, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenInvalidSignature
	default:
		return domain.ErrTokenMalformed
	}
}
