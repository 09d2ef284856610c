package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/blogapi/blog-service/internal/core/domain"
)

func withPrincipal(c echo.Context, p domain.Principal) {
	setPrincipal(c, p)
}

func TestRequireAuthority_Allows(t *testing.T) {
	c, rec := newContext("")
	withPrincipal(c, domain.NewPrincipal("admin", []string{domain.RoleAdmin}))

	called := false
	handler := RequireAuthority(newStubGuard(), "ROLE_ADMIN")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAuthority_AcceptsAnyListedRole(t *testing.T) {
	c, _ := newContext("")
	withPrincipal(c, domain.NewPrincipal("berta", []string{domain.RoleReader}))

	handler := RequireAuthority(newStubGuard(), domain.RoleAdmin, domain.RoleReader)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestRequireAuthority_Forbids(t *testing.T) {
	c, _ := newContext("")
	withPrincipal(c, domain.NewPrincipal("max15", []string{domain.RoleUser}))

	handler := RequireAuthority(newStubGuard(), "ROLE_ADMIN")(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequireAuthority_Anonymous(t *testing.T) {
	c, _ := newContext("")

	handler := RequireAuthority(newStubGuard(), "ROLE_ADMIN")(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
