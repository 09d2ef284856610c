package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/blogapi/blog-service/internal/core/domain"
)

// caller returns the principal injected by the auth middleware. Routes mounted
// without it see the anonymous principal.
func caller(c echo.Context) domain.Principal {
	return domain.PrincipalFrom(c.Request().Context())
}

// bindAndValidate decodes the request body into req and runs the registered
// validator. Decode failures surface as echo 400 errors.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
