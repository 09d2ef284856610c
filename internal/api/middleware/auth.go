package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/blogapi/blog-service/internal/api/metrics"
	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/ports"
	"github.com/blogapi/blog-service/pkg/logger"
)

// RequireAuthentication resolves the caller from the Authorization header and
// rejects the request unless a known identity presented a valid token. The
// principal is stored in the request context for handlers and services.
func RequireAuthentication(guard ports.AccessGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := guard.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				recordFailure(err)
				return err
			}
			if !p.Authenticated() {
				metrics.AccessDecisionsTotal.WithLabelValues("unauthenticated").Inc()
				return domain.ErrUnauthenticated
			}

			metrics.AccessDecisionsTotal.WithLabelValues("authenticated").Inc()
			setPrincipal(c, p)
			return next(c)
		}
	}
}

// OptionalAuthentication resolves the caller when a usable token is present
// and falls back to the anonymous principal otherwise. Storage failures still
// abort the request.
func OptionalAuthentication(guard ports.AccessGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := guard.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			switch {
			case errors.Is(err, domain.ErrStorageUnavailable):
				recordFailure(err)
				return err
			case err != nil:
				p = domain.Anonymous
			}

			if p.Authenticated() {
				metrics.AccessDecisionsTotal.WithLabelValues("authenticated").Inc()
			} else {
				metrics.AccessDecisionsTotal.WithLabelValues("anonymous").Inc()
			}
			setPrincipal(c, p)
			return next(c)
		}
	}
}

func setPrincipal(c echo.Context, p domain.Principal) {
	req := c.Request()
	if p.Authenticated() {
		logger.Annotate(req.Context(), "user", p.Username)
	}
	c.SetRequest(req.WithContext(domain.WithPrincipal(req.Context(), p)))
}

func recordFailure(err error) {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		metrics.AccessDecisionsTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.AccessDecisionsTotal.WithLabelValues("unauthenticated").Inc()
}
