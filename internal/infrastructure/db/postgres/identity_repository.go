package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/blogapi/blog-service/internal/core/domain"
)

// IdentityRepository implements ports.CredentialStore on PostgreSQL.
type IdentityRepository struct {
	db DB
}

func NewIdentityRepository(db DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var i domain.Identity
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash, roles, created_at, updated_at
		 FROM identities WHERE username = $1`, username,
	).Scan(&i.ID, &i.Username, &i.PasswordHash, &i.Roles, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &i, nil
}

// Create relies on ON CONFLICT so concurrent seeders cannot both insert.
func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := *identity
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Roles == nil {
		doc.Roles = []string{}
	}

	var id string
	err := r.db.QueryRow(ctx,
		`INSERT INTO identities (id, username, password_hash, roles, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (username) DO NOTHING
		 RETURNING id`,
		doc.ID, doc.Username, doc.PasswordHash, doc.Roles, doc.CreatedAt, doc.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityExists
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	return &doc, nil
}

func (r *IdentityRepository) UpdateRoles(ctx context.Context, username string, roles []string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE identities SET roles = $2, updated_at = $3 WHERE username = $1`,
		username, roles, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update identity roles: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityRepository) Delete(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM identities WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
