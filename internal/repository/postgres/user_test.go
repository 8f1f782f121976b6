package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maturehumanity/levela/internal/domain"
	apperrors "github.com/maturehumanity/levela/pkg/errors"
)

func newUserTestFixture(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewUserRepository(mock)
	return repo, mock
}

func sampleUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:           "u-1234",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
		Name:         "Ada",
		Bio:          "engineer",
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userColumns() []string {
	return []string{
		"id", "email", "password_hash", "name", "bio",
		"avatar_url", "role", "is_verified", "created_at", "updated_at",
	}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userColumns()).AddRow(
		u.ID, u.Email, u.PasswordHash, u.Name, u.Bio,
		u.AvatarURL, u.Role, u.IsVerified, u.CreatedAt, u.UpdatedAt,
	)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestUserRepository_Create_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			u.ID, u.Email, u.PasswordHash, u.Name, u.Bio,
			u.AvatarURL, u.Role, u.IsVerified, u.CreatedAt, u.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), u)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			u.ID, u.Email, u.PasswordHash, u.Name, u.Bio,
			u.AvatarURL, u.Role, u.IsVerified, u.CreatedAt, u.UpdatedAt,
		).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), u)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

// ---------------------------------------------------------------------------
// GetByID / GetByEmail
// ---------------------------------------------------------------------------

func TestUserRepository_GetByID_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(u.ID).
		WillReturnRows(userRow(u))

	got, err := repo.GetByID(context.Background(), u.ID)

	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Name, got.Name)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("u-ghost").
		WillReturnRows(pgxmock.NewRows(userColumns()))

	_, err := repo.GetByID(context.Background(), "u-ghost")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_GetByEmail_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(u.Email).
		WillReturnRows(userRow(u))

	got, err := repo.GetByEmail(context.Background(), u.Email)

	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

// ---------------------------------------------------------------------------
// Update / Delete
// ---------------------------------------------------------------------------

func TestUserRepository_Update_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("UPDATE users").
		WithArgs(
			u.Email, u.PasswordHash, u.Name, u.Bio, u.AvatarURL,
			u.Role, u.IsVerified, pgxmock.AnyArg(), u.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), u)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_Delete_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM users").
		WithArgs("u-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(context.Background(), "u-1234"))
	require.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

func TestUserRepository_Search_ReturnsMatchesWithTotal(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	cols := append(userColumns(), "total_count")
	rows := pgxmock.NewRows(cols).AddRow(
		u.ID, u.Email, u.PasswordHash, u.Name, u.Bio,
		u.AvatarURL, u.Role, u.IsVerified, u.CreatedAt, u.UpdatedAt, 7,
	)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("%ada%", 20, 0).
		WillReturnRows(rows)

	users, total, err := repo.Search(context.Background(), "Ada", 1, 20)

	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, users, 1)
	assert.Equal(t, "Ada", users[0].Name)
}

func TestUserRepository_Search_NoMatches(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	cols := append(userColumns(), "total_count")

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("%nobody%", 20, 20).
		WillReturnRows(pgxmock.NewRows(cols))

	users, total, err := repo.Search(context.Background(), "nobody", 2, 20)

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

// ---------------------------------------------------------------------------
// Refresh tokens
// ---------------------------------------------------------------------------

func TestRefreshTokenRepository_GetByHash_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRefreshTokenRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("hash-x").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at", "revoked_at"}))

	_, err = repo.GetByHash(context.Background(), "hash-x")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRefreshTokenRepository_Revoke(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRefreshTokenRepository(mock)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs(pgxmock.AnyArg(), "hash-x").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Revoke(context.Background(), "hash-x"))
	require.NoError(t, mock.ExpectationsWereMet())
}
