// Package db selects and opens the persistence backend named by STORE_DRIVER.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/blogapi/blog-service/internal/core/ports"
	"github.com/blogapi/blog-service/internal/infrastructure/db/memory"
	mongostore "github.com/blogapi/blog-service/internal/infrastructure/db/mongo"
	"github.com/blogapi/blog-service/internal/infrastructure/db/postgres"
	"github.com/blogapi/blog-service/internal/pkg/config"
)

// Stores holds the repositories of the selected backend.
type Stores struct {
	Driver     string
	Identities ports.CredentialStore
	Posts      ports.PostRepository

	close func(context.Context) error
}

// Open connects to the configured backend and prepares its schema: indexes
// for MongoDB, embedded migrations for PostgreSQL.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		s, err := mongostore.Open(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return &Stores{Driver: cfg.StoreDriver, Identities: s.Identities, Posts: s.Posts, close: s.Close}, nil

	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Stores{
			Driver:     cfg.StoreDriver,
			Identities: postgres.NewIdentityRepository(pool),
			Posts:      postgres.NewPostRepository(pool),
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.StoreMemory:
		return &Stores{
			Driver:     cfg.StoreDriver,
			Identities: memory.NewIdentityStore(),
			Posts:      memory.NewPostStore(),
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Ping reports whether the backend is reachable.
func (s *Stores) Ping(ctx context.Context) error {
	return s.Identities.Ping(ctx)
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.close(ctx)
}
