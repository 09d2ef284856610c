package ports

import (
	"time"

	"github.com/blogapi/blog-service/internal/core/domain"
)

// TokenCodec issues and verifies signed, expiring bearer tokens.
type TokenCodec interface {
	Issue(subject string, now time.Time) (domain.Token, error)
	// Verify returns the subject of a valid token, or one of
	// domain.ErrTokenMalformed, domain.ErrTokenInvalidSignature,
	// domain.ErrTokenExpired.
	Verify(token string, now time.Time) (string, error)
}

// PasswordHasher is a one-way salted hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil only when password matches hash.
	Compare(hash, password string) error
}
