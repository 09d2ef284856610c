package ports

import (
	"context"

	"github.com/blogapi/blog-service/internal/core/domain"
)

// CredentialStore persists identities keyed by username.
type CredentialStore interface {
	// FindByUsername returns domain.ErrIdentityNotFound when no identity matches.
	FindByUsername(ctx context.Context, username string) (*domain.Identity, error)
	// Create inserts identity unless the username is taken, in which case it
	// returns domain.ErrIdentityExists. The check and the insert are atomic.
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	UpdateRoles(ctx context.Context, username string, roles []string) error
	Delete(ctx context.Context, username string) error
	Ping(ctx context.Context) error
}
