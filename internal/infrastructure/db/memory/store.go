// Package memory holds process-local stores used for local runs and tests.
// Data does not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blogapi/blog-service/internal/core/domain"
)

type IdentityStore struct {
	mu    sync.RWMutex
	users map[string]domain.Identity
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{users: make(map[string]domain.Identity)}
}

func (s *IdentityStore) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return cloneIdentity(u), nil
}

func (s *IdentityStore) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[identity.Username]; exists {
		return nil, domain.ErrIdentityExists
	}
	stored := *cloneIdentity(*identity)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.users[stored.Username] = stored
	return cloneIdentity(stored), nil
}

func (s *IdentityStore) UpdateRoles(_ context.Context, username string, roles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	u.Roles = append([]string(nil), roles...)
	u.UpdatedAt = time.Now().UTC()
	s.users[username] = u
	return nil
}

func (s *IdentityStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return domain.ErrIdentityNotFound
	}
	delete(s.users, username)
	return nil
}

func (s *IdentityStore) Ping(context.Context) error { return nil }

func cloneIdentity(u domain.Identity) *domain.Identity {
	u.Roles = append([]string(nil), u.Roles...)
	return &u
}

type PostStore struct {
	mu    sync.RWMutex
	posts map[string]domain.Post
}

func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[string]domain.Post)}
}

func (s *PostStore) Create(_ context.Context, p *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = *p
	return nil
}

func (s *PostStore) FindByID(_ context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return &p, nil
}

// List returns every post, newest first; ties are broken by id descending,
// which for UUIDv7 ids is also creation order.
func (s *PostStore) List(context.Context) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *PostStore) Update(_ context.Context, p *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[p.ID]; !ok {
		return domain.ErrPostNotFound
	}
	s.posts[p.ID] = *p
	return nil
}

func (s *PostStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(s.posts, id)
	return nil
}
