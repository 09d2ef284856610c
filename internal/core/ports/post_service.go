package ports

import (
	"context"
	"io"

	"github.com/blogapi/blog-service/internal/core/domain"
)

// PostService defines use-case operations for posts. The caller is always
// passed explicitly; visibility of post bodies depends on it.
type PostService interface {
	List(ctx context.Context, caller domain.Principal) ([]domain.Post, error)
	Get(ctx context.Context, caller domain.Principal, id string) (*domain.Post, error)
	// Create stores a new post owned by caller. A non-empty idempotencyKey
	// that was already used returns the original post and replayed=true.
	Create(ctx context.Context, caller domain.Principal, draft domain.PostDraft, idempotencyKey string) (post *domain.Post, replayed bool, err error)
	Update(ctx context.Context, caller domain.Principal, id string, draft domain.PostDraft) (*domain.Post, error)
	Delete(ctx context.Context, caller domain.Principal, id string) error
}

// FileStore is a sink for uploaded files addressed by name.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (int64, error)
	Delete(ctx context.Context, name string) error
}

type UploadService interface {
	// Upload stores r under a name derived from original and returns it.
	Upload(ctx context.Context, caller domain.Principal, original string, r io.Reader) (string, error)
}

// CleanupQueue schedules asynchronous removal of uploaded files.
type CleanupQueue interface {
	Enqueue(name string)
}
