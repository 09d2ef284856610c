package ports

import (
	"context"

	"github.com/blogapi/blog-service/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (domain.Token, error)
}

// AccessGuard resolves the caller of a request and enforces route authorities.
type AccessGuard interface {
	// Authenticate turns an Authorization header value into a principal.
	// An empty header yields domain.Anonymous; anything unusable yields
	// domain.ErrUnauthenticated.
	Authenticate(ctx context.Context, authorization string) (domain.Principal, error)
	Authorize(p domain.Principal, required ...string) error
}

// IdentityService manages stored identities outside the request path: seeding
// at startup and the operator CLI.
type IdentityService interface {
	Register(ctx context.Context, username, password string, roles []string) (*domain.Identity, error)
	SetRoles(ctx context.Context, username string, roles []string) error
	Remove(ctx context.Context, username string) error
	// SeedAdmin creates the identity unless one with that username already
	// exists. It reports whether a new identity was written.
	SeedAdmin(ctx context.Context, username, password string, roles []string) (bool, error)
}
