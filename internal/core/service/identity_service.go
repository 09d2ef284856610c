package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/ports"
)

var knownRoles = []string{domain.RoleAdmin, domain.RoleReader, domain.RoleUser}

type IdentityService struct {
	store  ports.CredentialStore
	hasher ports.PasswordHasher
	now    func() time.Time
	logger zerolog.Logger
}

func NewIdentityService(store ports.CredentialStore, hasher ports.PasswordHasher, logger zerolog.Logger) *IdentityService {
	return &IdentityService{store: store, hasher: hasher, now: time.Now, logger: logger}
}

func (s *IdentityService) Register(ctx context.Context, username, password string, roles []string) (*domain.Identity, error) {
	username = strings.TrimSpace(username)
	normalized := domain.NormalizeRoles(roles)
	if err := validateIdentity(username, password, normalized); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := s.store.Create(ctx, &domain.Identity{
		Username:     username,
		PasswordHash: hash,
		Roles:        normalized,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, storeErr("register", err)
	}

	s.logger.Info().Str("username", username).Strs("roles", normalized).Msg("identity registered")
	return created, nil
}

func (s *IdentityService) SetRoles(ctx context.Context, username string, roles []string) error {
	normalized := domain.NormalizeRoles(roles)
	if violations := roleViolations(normalized); len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	if err := s.store.UpdateRoles(ctx, username, normalized); err != nil {
		return storeErr("set roles", err)
	}
	s.logger.Info().Str("username", username).Strs("roles", normalized).Msg("identity roles changed")
	return nil
}

func (s *IdentityService) Remove(ctx context.Context, username string) error {
	if err := s.store.Delete(ctx, username); err != nil {
		return storeErr("remove identity", err)
	}
	s.logger.Info().Str("username", username).Msg("identity removed")
	return nil
}

func (s *IdentityService) SeedAdmin(ctx context.Context, username, password string, roles []string) (bool, error) {
	_, err := s.Register(ctx, username, password, roles)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrIdentityExists):
		s.logger.Debug().Str("username", username).Msg("seed identity already present")
		return false, nil
	default:
		return false, err
	}
}

func validateIdentity(username, password string, roles []string) error {
	var violations []domain.FieldViolation
	if username == "" {
		violations = append(violations, domain.FieldViolation{Field: "username", Message: "must not be blank"})
	}
	if strings.TrimSpace(password) == "" {
		violations = append(violations, domain.FieldViolation{Field: "password", Message: "must not be blank"})
	}
	violations = append(violations, roleViolations(roles)...)
	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	return nil
}

func roleViolations(roles []string) []domain.FieldViolation {
	if len(roles) == 0 {
		return []domain.FieldViolation{{Field: "roles", Message: "at least one role is required"}}
	}
	var out []domain.FieldViolation
	for _, r := range roles {
		if !slices.Contains(knownRoles, r) {
			out = append(out, domain.FieldViolation{Field: "roles", Message: "unknown role " + r})
		}
	}
	return out
}
