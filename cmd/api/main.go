// Command api serves the blog HTTP API.
//
// @title                       Blog API
// @version                     1.0
// @description                 Blog backend with bearer-token authentication and role-gated post management.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/blogapi/blog-service/internal/api"
	"github.com/blogapi/blog-service/internal/core/security"
	"github.com/blogapi/blog-service/internal/core/service"
	"github.com/blogapi/blog-service/internal/infrastructure/db"
	redisstore "github.com/blogapi/blog-service/internal/infrastructure/db/redis"
	"github.com/blogapi/blog-service/internal/infrastructure/http/handlers"
	"github.com/blogapi/blog-service/internal/infrastructure/queue"
	"github.com/blogapi/blog-service/internal/infrastructure/storage"
	"github.com/blogapi/blog-service/internal/pkg/config"
	"github.com/blogapi/blog-service/internal/pkg/observability"
	"github.com/blogapi/blog-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "blog-api",
		Env:     cfg.Env,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Env); err != nil {
		log.Warn().Err(err).Msg("sentry disabled")
	}
	defer observability.FlushSentry()

	// --- Persistence ---
	stores, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()
	log.Info().Str("driver", stores.Driver).Msg("store ready")

	checks := map[string]handlers.Pinger{"store": stores}

	var idem *redisstore.IdempotencyStore
	if cfg.Redis.Addr != "" {
		idem, err = redisstore.OpenIdempotencyStore(ctx, redisstore.Config{
			Addr:           cfg.Redis.Addr,
			Password:       cfg.Redis.Password,
			DB:             cfg.Redis.DB,
			IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		})
		if err != nil {
			return err
		}
		defer idem.Close()
		checks["redis"] = idem
	} else {
		log.Info().Msg("REDIS_ADDR not set, Idempotency-Key disabled")
	}

	// --- Security ---
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		if secret, err = security.GenerateSecret(); err != nil {
			return err
		}
		log.Warn().Msg("JWT_SECRET not set, using an ephemeral key; tokens will not survive a restart")
	}
	codec, err := security.NewJWTCodec(secret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	// --- Seeding ---
	identities := service.NewIdentityService(stores.Identities, hasher, logger.Component("identity"))
	if cfg.Seed.Enabled {
		created, err := identities.SeedAdmin(ctx, cfg.Seed.Username, cfg.Seed.Password, cfg.Seed.Roles)
		if err != nil {
			return err
		}
		log.Info().Str("username", cfg.Seed.Username).Bool("created", created).Msg("admin seed checked")
	}

	// --- Uploads and cleanup workers ---
	files, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return err
	}
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	cleanup := queue.NewDispatcher(cfg.CleanupWorkers, files.Delete, logger.Component("cleanup"))
	cleanup.Start(workerCtx)
	defer func() {
		stopWorkers()
		cleanup.Wait()
	}()

	// --- Services ---
	deps := api.Deps{
		Auth:        service.NewAuthService(stores.Identities, hasher, codec, logger.Component("auth")),
		Guard:       service.NewAccessGuard(stores.Identities, codec, logger.Component("guard")),
		Uploads:     service.NewUploadService(files, logger.Component("upload")),
		UploadDir:   files.Dir(),
		MaxUploadMB: int(cfg.MaxUploadMB),
		Checks:      checks,
		Logger:      log,
	}
	if idem != nil {
		deps.Posts = service.NewPostService(stores.Posts, idem, cleanup, logger.Component("posts"))
	} else {
		deps.Posts = service.NewPostService(stores.Posts, nil, cleanup, logger.Component("posts"))
	}

	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
