package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/security"
)

var (
	testNow     = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	errStoreOff = errors.New("connection refused")

	admin  = domain.NewPrincipal("admin", []string{domain.RoleAdmin, domain.RoleReader, domain.RoleUser})
	reader = domain.NewPrincipal("berta", []string{domain.RoleReader, domain.RoleUser})
	user   = domain.NewPrincipal("max15", []string{domain.RoleUser})
)

// ---------------------------------------------------------------------------
// credential store
// ---------------------------------------------------------------------------

type stubCredentialStore struct {
	mu    sync.Mutex
	users map[string]*domain.Identity
	err   error
}

func newStubCredentialStore() *stubCredentialStore {
	return &stubCredentialStore{users: make(map[string]*domain.Identity)}
}

func cloneIdentity(i *domain.Identity) *domain.Identity {
	clone := *i
	clone.Roles = append([]string(nil), i.Roles...)
	return &clone
}

func (r *stubCredentialStore) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return cloneIdentity(u), nil
}

func (r *stubCredentialStore) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if _, exists := r.users[identity.Username]; exists {
		return nil, domain.ErrIdentityExists
	}
	stored := cloneIdentity(identity)
	if stored.ID == "" {
		stored.ID = "id-" + stored.Username
	}
	r.users[stored.Username] = stored
	return cloneIdentity(stored), nil
}

func (r *stubCredentialStore) UpdateRoles(_ context.Context, username string, roles []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	u.Roles = append([]string(nil), roles...)
	return nil
}

func (r *stubCredentialStore) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; !ok {
		return domain.ErrIdentityNotFound
	}
	delete(r.users, username)
	return nil
}

func (r *stubCredentialStore) Ping(context.Context) error { return r.err }

// seed stores username with a MinCost hash of password.
func (r *stubCredentialStore) seed(t *testing.T, username, password string, roles ...string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	r.users[username] = &domain.Identity{ID: "id-" + username, Username: username, PasswordHash: string(hash), Roles: roles}
}

// seedDefaults mirrors the fixtures used across the suite.
func (r *stubCredentialStore) seedDefaults(t *testing.T) {
	r.seed(t, "admin", "admin123", domain.RoleAdmin, domain.RoleReader, domain.RoleUser)
	r.seed(t, "berta", "reader", domain.RoleReader, domain.RoleUser)
	r.seed(t, "max15", "user", domain.RoleUser)
}

func newTestCodec(t *testing.T) *security.JWTCodec {
	t.Helper()
	codec, err := security.NewJWTCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	return codec
}

// ---------------------------------------------------------------------------
// post repository
// ---------------------------------------------------------------------------

type stubPostRepo struct {
	mu    sync.Mutex
	posts map[string]*domain.Post
	err   error

	// beforeCreate runs outside the lock before a post is stored.
	beforeCreate func()
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{posts: make(map[string]*domain.Post)}
}

func (r *stubPostRepo) Create(_ context.Context, p *domain.Post) error {
	r.mu.Lock()
	hook := r.beforeCreate
	r.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	clone := *p
	r.posts[p.ID] = &clone
	return nil
}

func (r *stubPostRepo) FindByID(_ context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPostRepo) List(context.Context) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*domain.Post, 0, len(r.posts))
	for _, p := range r.posts {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *stubPostRepo) Update(_ context.Context, p *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[p.ID]; !ok {
		return domain.ErrPostNotFound
	}
	clone := *p
	r.posts[p.ID] = &clone
	return nil
}

func (r *stubPostRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts)
}

func (r *stubPostRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

// ---------------------------------------------------------------------------
// idempotency, cleanup, files
// ---------------------------------------------------------------------------

type stubIdempotency struct {
	mu       sync.Mutex
	keys     map[string]string
	released []string
	err      error
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Claim(_ context.Context, key, postID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	if prev, ok := s.keys[key]; ok {
		return prev, false, nil
	}
	s.keys[key] = postID
	return postID, true, nil
}

func (s *stubIdempotency) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	s.released = append(s.released, key)
	return nil
}

func (s *stubIdempotency) Forget(_ context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, id := range s.keys {
		if id == postID {
			delete(s.keys, k)
		}
	}
	return nil
}

type recordingQueue struct {
	names []string
}

func (q *recordingQueue) Enqueue(name string) { q.names = append(q.names, name) }

type memFiles struct {
	files map[string][]byte
}

func newMemFiles() *memFiles { return &memFiles{files: make(map[string][]byte)} }

func (m *memFiles) Save(_ context.Context, name string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, err
	}
	m.files[name] = buf.Bytes()
	return n, nil
}

func (m *memFiles) Delete(_ context.Context, name string) error {
	delete(m.files, name)
	return nil
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }
