package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/blogapi/blog-service/internal/api/metrics"
	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/ports"
)

// RequireAuthority enforces role-based access control on top of
// RequireAuthentication. Authorities may be given bare ("ADMIN") or prefixed
// ("ROLE_ADMIN"); holding any one of them is enough.
func RequireAuthority(guard ports.AccessGuard, authorities ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := domain.PrincipalFrom(c.Request().Context())
			if err := guard.Authorize(p, authorities...); err != nil {
				if errors.Is(err, domain.ErrForbidden) {
					metrics.AccessDecisionsTotal.WithLabelValues("forbidden").Inc()
				} else {
					metrics.AccessDecisionsTotal.WithLabelValues("unauthenticated").Inc()
				}
				return err
			}
			return next(c)
		}
	}
}
