package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/security"
)

func newTestGuard(t *testing.T) (*AccessGuard, *stubCredentialStore, *security.JWTCodec) {
	t.Helper()
	store := newStubCredentialStore()
	store.seedDefaults(t)
	codec := newTestCodec(t)
	g := NewAccessGuard(store, codec, nopLogger())
	g.now = func() time.Time { return testNow }
	return g, store, codec
}

func bearer(t *testing.T, codec *security.JWTCodec, subject string, at time.Time) string {
	t.Helper()
	tok, err := codec.Issue(subject, at)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return "Bearer " + tok.Value
}

func TestAccessGuard_NoHeaderIsAnonymous(t *testing.T) {
	g, _, _ := newTestGuard(t)

	p, err := g.Authenticate(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Authenticated() {
		t.Fatalf("expected anonymous principal, got %+v", p)
	}
}

func TestAccessGuard_ValidToken(t *testing.T) {
	g, _, codec := newTestGuard(t)

	p, err := g.Authenticate(context.Background(), bearer(t, codec, "admin", testNow))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Username != "admin" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	want := []string{"ROLE_ADMIN", "ROLE_READER", "ROLE_USER"}
	if got := p.Authorities(); !reflect.DeepEqual(got, want) {
		t.Fatalf("authorities = %v, want %v", got, want)
	}
}

func TestAccessGuard_SchemeIsCaseInsensitive(t *testing.T) {
	g, _, codec := newTestGuard(t)
	tok, _ := codec.Issue("berta", testNow)

	if _, err := g.Authenticate(context.Background(), "bearer "+tok.Value); err != nil {
		t.Fatalf("lower-case scheme rejected: %v", err)
	}
}

func TestAccessGuard_RejectsUnusableHeaders(t *testing.T) {
	g, _, codec := newTestGuard(t)
	tok, _ := codec.Issue("admin", testNow)

	for _, header := range []string{"Bearer", "Bearer   ", "Basic YWRtaW46YWRtaW4xMjM=", tok.Value, "Bearer not.a.jwt"} {
		if _, err := g.Authenticate(context.Background(), header); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("header %q: expected ErrUnauthenticated, got %v", header, err)
		}
	}
}

func TestAccessGuard_ExpiredToken(t *testing.T) {
	g, _, codec := newTestGuard(t)

	_, err := g.Authenticate(context.Background(), bearer(t, codec, "admin", testNow.Add(-2*time.Hour)))
	if !errors.Is(err, domain.ErrUnauthenticated) || !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrUnauthenticated wrapping ErrTokenExpired, got %v", err)
	}
}

func TestAccessGuard_DeletedIdentityIsRevoked(t *testing.T) {
	g, store, codec := newTestGuard(t)
	header := bearer(t, codec, "max15", testNow)

	if _, err := g.Authenticate(context.Background(), header); err != nil {
		t.Fatalf("token should be accepted before deletion: %v", err)
	}
	if err := store.Delete(context.Background(), "max15"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := g.Authenticate(context.Background(), header); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after deletion, got %v", err)
	}
}

func TestAccessGuard_RoleChangeAppliesToExistingToken(t *testing.T) {
	g, store, codec := newTestGuard(t)
	header := bearer(t, codec, "berta", testNow)

	before, _ := g.Authenticate(context.Background(), header)
	if err := g.Authorize(before, domain.RoleAdmin); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("reader should be forbidden from ADMIN, got %v", err)
	}

	_ = store.UpdateRoles(context.Background(), "berta", []string{domain.RoleAdmin})

	after, err := g.Authenticate(context.Background(), header)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := g.Authorize(after, "ROLE_ADMIN"); err != nil {
		t.Fatalf("promoted identity should pass ADMIN check: %v", err)
	}
	if after.HasAuthority(domain.RoleReader) {
		t.Fatalf("dropped role still present: %v", after.Roles)
	}
}

func TestAccessGuard_StoreFailureIsNotAuthFailure(t *testing.T) {
	g, store, codec := newTestGuard(t)
	header := bearer(t, codec, "admin", testNow)
	store.err = errStoreOff

	_, err := g.Authenticate(context.Background(), header)
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("storage failure should not be reported as 401")
	}
}

func TestAccessGuard_Authorize(t *testing.T) {
	g, _, _ := newTestGuard(t)

	cases := []struct {
		name      string
		principal domain.Principal
		required  []string
		want      error
	}{
		{"anonymous needs login", domain.Anonymous, nil, domain.ErrUnauthenticated},
		{"anonymous vs admin route", domain.Anonymous, []string{domain.RoleAdmin}, domain.ErrUnauthenticated},
		{"any authenticated", user, nil, nil},
		{"admin on admin route", admin, []string{domain.RoleAdmin}, nil},
		{"prefixed requirement", admin, []string{"ROLE_ADMIN"}, nil},
		{"reader on admin route", reader, []string{domain.RoleAdmin}, domain.ErrForbidden},
		{"user on admin route", user, []string{domain.RoleAdmin}, domain.ErrForbidden},
		{"any of several", user, []string{domain.RoleAdmin, domain.RoleUser}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := g.Authorize(tc.principal, tc.required...); err != tc.want {
				t.Fatalf("Authorize = %v, want %v", err, tc.want)
			}
		})
	}
}
