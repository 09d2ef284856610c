package ports

import (
	"context"

	"github.com/blogapi/blog-service/internal/core/domain"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, p *domain.Post) error
	// FindByID returns domain.ErrPostNotFound when id is unknown.
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	// List returns every post, newest first.
	List(ctx context.Context) ([]*domain.Post, error)
	Update(ctx context.Context, p *domain.Post) error
	Delete(ctx context.Context, id string) error
}

// IdempotencyStore remembers which post a client-supplied Idempotency-Key
// produced.
type IdempotencyStore interface {
	// Claim atomically records key -> postID. It returns the previously
	// recorded post id and false when key was already claimed.
	Claim(ctx context.Context, key, postID string) (existing string, claimed bool, err error)
	Release(ctx context.Context, key string) error
	// Forget drops the key that produced postID, if it still points there.
	Forget(ctx context.Context, postID string) error
}
