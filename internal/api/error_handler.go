package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/pkg/observability"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error      string                  `json:"error"`
	Violations []domain.FieldViolation `json:"violations,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs and reports unexpected errors without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil && he.Code >= http.StatusInternalServerError {
			reportUnexpected(he.Internal, log, c)
		}
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Error: domain.ErrValidationFailed.Error(), Violations: ve.Violations}
	}

	// Known domain errors → deterministic HTTP codes. Storage comes first so a
	// backend outage during authentication is never reported as 401.
	switch {
	case errors.Is(err, domain.ErrStorageUnavailable):
		log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("storage unavailable")
		observability.CaptureRequestError(err, c.Request().Method, c.Path(), requestID(c))
		return http.StatusServiceUnavailable, errorResponse{Error: "service temporarily unavailable"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrTokenMalformed),
		errors.Is(err, domain.ErrTokenInvalidSignature),
		errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, errorResponse{Error: "authentication required"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrPostNotFound):
		return http.StatusNotFound, errorResponse{Error: "post not found"}
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound, errorResponse{Error: "identity not found"}
	case errors.Is(err, domain.ErrIdentityExists):
		return http.StatusConflict, errorResponse{Error: "identity already exists"}
	case errors.Is(err, domain.ErrRequestInProgress):
		return http.StatusConflict, errorResponse{Error: "request in progress"}
	case errors.Is(err, domain.ErrEmptyUpload):
		return http.StatusBadRequest, errorResponse{Error: domain.ErrEmptyUpload.Error()}
	}

	reportUnexpected(err, log, c)
	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

// reportUnexpected logs the real cause and forwards it to Sentry.
func reportUnexpected(err error, log zerolog.Logger, c echo.Context) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", requestID(c)).
		Msg("unhandled error")

	observability.CaptureRequestError(err, c.Request().Method, c.Path(), requestID(c))
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
