package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogapi/blog-service/internal/core/domain"
)

var (
	identityCols = []string{"id", "username", "password_hash", "roles", "created_at", "updated_at"}
	postCols     = []string{"id", "title", "content", "image_path", "owner", "created_at", "updated_at"}
	stamp        = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestIdentityRepository_FindByUsername(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)

	mock.ExpectQuery("SELECT id, username, password_hash, roles").
		WithArgs("admin").
		WillReturnRows(pgxmock.NewRows(identityCols).
			AddRow("id-1", "admin", "$2a$04$hash", []string{"ADMIN", "USER"}, stamp, stamp))

	got, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
	assert.Equal(t, []string{"ADMIN", "USER"}, got.Roles)
	assert.Equal(t, stamp, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_FindByUsername_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)

	mock.ExpectQuery("SELECT id, username").WithArgs("ghost").WillReturnRows(pgxmock.NewRows(identityCols))

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestIdentityRepository_FindByUsername_DriverError(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)

	mock.ExpectQuery("SELECT id, username").WithArgs("admin").WillReturnError(errors.New("conn reset"))

	_, err := repo.FindByUsername(context.Background(), "admin")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestIdentityRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO identities")).
		WithArgs(pgxmock.AnyArg(), "berta", "hash", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("generated"))

	got, err := repo.Create(context.Background(), &domain.Identity{Username: "berta", PasswordHash: "hash", Roles: []string{"READER"}})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_Create_Conflict(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (username) DO NOTHING")).
		WithArgs(pgxmock.AnyArg(), "admin", "hash", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.Create(context.Background(), &domain.Identity{Username: "admin", PasswordHash: "hash"})
	assert.ErrorIs(t, err, domain.ErrIdentityExists)
}

func TestIdentityRepository_UpdateRolesAndDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewIdentityRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE identities SET roles")).
		WithArgs("max15", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE identities SET roles")).
		WithArgs("ghost", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM identities")).
		WithArgs("max15").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM identities")).
		WithArgs("max15").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.UpdateRoles(context.Background(), "max15", []string{"ADMIN"}))
	assert.ErrorIs(t, repo.UpdateRoles(context.Background(), "ghost", []string{"ADMIN"}), domain.ErrIdentityNotFound)
	require.NoError(t, repo.Delete(context.Background(), "max15"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "max15"), domain.ErrIdentityNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List(t *testing.T) {
	mock := newMock(t)
	repo := NewPostRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts ORDER BY created_at DESC")).
		WillReturnRows(pgxmock.NewRows(postCols).
			AddRow("p2", "Second", "Second body", "", "admin", stamp, stamp).
			AddRow("p1", "First", "First body", "a.png", "admin", stamp, stamp))

	posts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].ID)
	assert.Equal(t, "a.png", posts[1].ImagePath)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_FindByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewPostRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(postCols))

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestPostRepository_Mutations(t *testing.T) {
	mock := newMock(t)
	repo := NewPostRepository(mock)
	p := &domain.Post{ID: "p1", Title: "T", Content: "Body text", Owner: "admin", CreatedAt: stamp, UpdatedAt: stamp}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO posts")).
		WithArgs("p1", "T", "Body text", "", "admin", stamp, stamp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET")).
		WithArgs("p1", "T", "Body text", "", stamp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts")).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.ErrorIs(t, repo.Update(context.Background(), p), domain.ErrPostNotFound)
	require.NoError(t, repo.Delete(context.Background(), "p1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("0001_init.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS identities")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).
		WithArgs("0001_init.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SkipsApplied(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("0001_init.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, RunMigrations(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}
