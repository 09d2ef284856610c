// Command blogctl manages blog identities directly against the configured
// store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/blogapi/blog-service/internal/core/ports"
	"github.com/blogapi/blog-service/internal/core/security"
	"github.com/blogapi/blog-service/internal/core/service"
	"github.com/blogapi/blog-service/internal/infrastructure/db"
	"github.com/blogapi/blog-service/internal/pkg/config"
	"github.com/blogapi/blog-service/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(openIdentityService).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openIdentityService connects to the store selected by the environment.
func openIdentityService(ctx context.Context) (ports.IdentityService, *config.Config, func(), error) {
	cfg, err := config.LoadWith(ctx, envconfig.OsLookuper())
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.StoreDriver == config.StoreMemory {
		return nil, nil, nil, fmt.Errorf("STORE_DRIVER=%s keeps no state between runs", cfg.StoreDriver)
	}

	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr, Service: "blogctl"})

	stores, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	svc := service.NewIdentityService(stores.Identities, security.NewBcryptHasher(cfg.BcryptCost), logger.Component("identity"))
	return svc, cfg, func() { _ = stores.Close() }, nil
}
