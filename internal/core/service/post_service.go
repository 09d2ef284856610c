package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/ports"
)

// PostService implements post CRUD. Mutations require ADMIN; reads are open
// to everyone but only authenticated callers see post bodies.
type PostService struct {
	repo    ports.PostRepository
	idem    ports.IdempotencyStore
	cleanup ports.CleanupQueue
	now     func() time.Time
	logger  zerolog.Logger
}

// NewPostService accepts a nil idem (Idempotency-Key is then ignored) and a
// nil cleanup (orphaned uploads are then left on disk).
func NewPostService(repo ports.PostRepository, idem ports.IdempotencyStore, cleanup ports.CleanupQueue, logger zerolog.Logger) *PostService {
	return &PostService{repo: repo, idem: idem, cleanup: cleanup, now: time.Now, logger: logger}
}

func (s *PostService) List(ctx context.Context, caller domain.Principal) ([]domain.Post, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, project(caller, *p))
	}
	return out, nil
}

func (s *PostService) Get(ctx context.Context, caller domain.Principal, id string) (*domain.Post, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get post", err)
	}
	view := project(caller, *p)
	return &view, nil
}

func (s *PostService) Create(ctx context.Context, caller domain.Principal, draft domain.PostDraft, idempotencyKey string) (*domain.Post, bool, error) {
	if err := requireAuthority(caller, domain.RoleAdmin); err != nil {
		return nil, false, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("create post: generate id: %w", err)
	}

	key := ""
	if idempotencyKey != "" && s.idem != nil {
		key = caller.Username + ":" + idempotencyKey
		existing, replayed, err := s.claim(ctx, key, id.String())
		switch {
		case errors.Is(err, domain.ErrRequestInProgress):
			return nil, false, err
		case err != nil:
			s.logger.Warn().Err(err).Str("idempotency_key", idempotencyKey).Msg("idempotency check failed, creating anyway")
			key = ""
		case replayed:
			s.logger.Info().Str("idempotency_key", idempotencyKey).Str("post_id", existing.ID).Msg("idempotent replay")
			return existing, true, nil
		}
	}

	now := s.now().UTC()
	post := &domain.Post{
		ID:        id.String(),
		Title:     draft.Title,
		Content:   draft.Content,
		ImagePath: draft.ImagePath,
		Owner:     caller.Username,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		if key != "" {
			if relErr := s.idem.Release(ctx, key); relErr != nil {
				s.logger.Warn().Err(relErr).Str("idempotency_key", idempotencyKey).Msg("failed to release idempotency key")
			}
		}
		s.logger.Error().Err(err).Msg("failed to create post")
		return nil, false, storeErr("create post", err)
	}

	s.logger.Info().Str("post_id", post.ID).Str("owner", post.Owner).Msg("post created")
	return post, false, nil
}

// claim records key for postID. A key that already points at a stored post
// replays it with replayed=true. A key whose post is not stored yet belongs to
// a create still in flight and yields ErrRequestInProgress.
func (s *PostService) claim(ctx context.Context, key, postID string) (*domain.Post, bool, error) {
	prev, claimed, err := s.idem.Claim(ctx, key, postID)
	if err != nil || claimed {
		return nil, false, err
	}

	existing, err := s.repo.FindByID(ctx, prev)
	if err == nil {
		return existing, true, nil
	}
	if errors.Is(err, domain.ErrPostNotFound) {
		return nil, false, domain.ErrRequestInProgress
	}
	return nil, false, err
}

func (s *PostService) Update(ctx context.Context, caller domain.Principal, id string, draft domain.PostDraft) (*domain.Post, error) {
	if err := requireAuthority(caller, domain.RoleAdmin); err != nil {
		return nil, err
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("update post", err)
	}

	previousImage := post.ImagePath
	post.Title = draft.Title
	post.Content = draft.Content
	post.ImagePath = draft.ImagePath
	post.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, storeErr("update post", err)
	}

	if previousImage != "" && previousImage != post.ImagePath {
		s.scheduleCleanup(previousImage)
	}
	s.logger.Info().Str("post_id", post.ID).Msg("post updated")
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, caller domain.Principal, id string) error {
	if err := requireAuthority(caller, domain.RoleAdmin); err != nil {
		return err
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeErr("delete post", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("delete post", err)
	}

	if s.idem != nil {
		if err := s.idem.Forget(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("post_id", id).Msg("failed to forget idempotency key")
		}
	}
	if post.ImagePath != "" {
		s.scheduleCleanup(post.ImagePath)
	}
	s.logger.Info().Str("post_id", id).Msg("post deleted")
	return nil
}

func (s *PostService) scheduleCleanup(name string) {
	if s.cleanup == nil {
		return
	}
	s.cleanup.Enqueue(name)
}

func project(caller domain.Principal, p domain.Post) domain.Post {
	if caller.Authenticated() {
		return p
	}
	return p.Preview()
}
