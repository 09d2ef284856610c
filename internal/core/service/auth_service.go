package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/ports"
)

// AuthService verifies credentials and issues tokens.
type AuthService struct {
	store     ports.CredentialStore
	hasher    ports.PasswordHasher
	codec     ports.TokenCodec
	now       func() time.Time
	dummyHash string
	logger    zerolog.Logger
}

func NewAuthService(store ports.CredentialStore, hasher ports.PasswordHasher, codec ports.TokenCodec, logger zerolog.Logger) *AuthService {
	// Compared against when the username is unknown so both failure paths
	// spend the same hashing time.
	dummy, err := hasher.Hash("blog-service-timing-parity")
	if err != nil {
		logger.Warn().Err(err).Msg("could not prepare dummy password hash")
	}
	return &AuthService{
		store:     store,
		hasher:    hasher,
		codec:     codec,
		now:       time.Now,
		dummyHash: dummy,
		logger:    logger,
	}
}

// Login returns a token for username when password matches. Unknown users and
// wrong passwords fail identically with domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Token, error) {
	identity, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			_ = s.hasher.Compare(s.dummyHash, password)
			s.reject(username, "unknown_user")
			return domain.Token{}, domain.ErrInvalidCredentials
		}
		return domain.Token{}, storeErr("login", err)
	}

	if err := s.hasher.Compare(identity.PasswordHash, password); err != nil {
		s.reject(username, "bad_password")
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	token, err := s.codec.Issue(identity.Username, s.now().UTC())
	if err != nil {
		return domain.Token{}, err
	}

	s.logger.Info().Str("username", identity.Username).Time("expires_at", token.ExpiresAt).Msg("login succeeded")
	return token, nil
}

func (s *AuthService) reject(username, reason string) {
	s.logger.Info().Str("username", username).Str("reason", reason).Msg("login rejected")
}
