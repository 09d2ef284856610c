package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/blogapi/blog-service/docs"
	"github.com/blogapi/blog-service/internal/api/handler"
	"github.com/blogapi/blog-service/internal/api/middleware"
	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/ports"
	"github.com/blogapi/blog-service/internal/infrastructure/http/handlers"
	"github.com/blogapi/blog-service/pkg/logger"
)

// Deps carries everything the HTTP layer needs. Optional fields may be nil.
type Deps struct {
	Auth    ports.AuthService
	Guard   ports.AccessGuard
	Posts   ports.PostService
	Uploads ports.UploadService

	// UploadDir is served read-only at /uploads. Empty disables the route.
	UploadDir   string
	MaxUploadMB int

	// Readiness dependencies, keyed by the name reported on /health/ready.
	Checks map[string]handlers.Pinger

	// Registerer receives the HTTP request metrics. Defaults to the
	// Prometheus default registerer.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestContext(deps.Logger))
	e.Use(requestLogger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:                 "blog_http",
		Registerer:                registerer,
		DoNotUseRequestPathFor404: true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	postHandler := handler.NewPostHandler(deps.Posts)
	uploadHandler := handler.NewUploadHandler(deps.Uploads)

	requireAuth := middleware.RequireAuthentication(deps.Guard)
	optionalAuth := middleware.OptionalAuthentication(deps.Guard)
	requireAdmin := middleware.RequireAuthority(deps.Guard, domain.Authority(domain.RoleAdmin))

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.GET("/me", authHandler.Me, requireAuth)

	// --- Posts ---
	posts := e.Group("/posts")
	posts.GET("", postHandler.List, optionalAuth)
	posts.GET("/:id", postHandler.Get, optionalAuth)
	posts.POST("", postHandler.Create, requireAuth, requireAdmin)
	posts.PUT("/:id", postHandler.Update, requireAuth, requireAdmin)
	posts.DELETE("/:id", postHandler.Delete, requireAuth, requireAdmin)

	// --- Uploads ---
	maxMB := deps.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 10
	}
	e.POST("/upload", uploadHandler.Upload,
		echomiddleware.BodyLimit(bodyLimit(maxMB)), requireAuth, requireAdmin)
	if deps.UploadDir != "" {
		e.Static("/uploads", deps.UploadDir)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler()
	for name, p := range deps.Checks {
		healthDepsHandler.With(name, p)
	}

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestContext stores a logger tagged with the request id in the request
// context. Authentication later adds the caller to it.
func requestContext(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := log.With().Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).Logger()
			req := c.Request()
			c.SetRequest(req.WithContext(logger.Into(req.Context(), l)))
			return next(c)
		}
	}
}

// requestLogger writes one zerolog entry per request through the request
// logger, so the entry carries the request id and, once known, the user.
func requestLogger() echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log := logger.From(c.Request().Context())
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

func bodyLimit(mb int) string {
	return strconv.Itoa(mb) + "M"
}
