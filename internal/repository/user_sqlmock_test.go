package repository

import (
	"context"
	"testing"

	"warbler/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	mock.MatchExpectationsInOrder(false)
	return gormDB, mock
}

// Postgres reports duplicate usernames with SQLSTATE 23505; the repository
// must surface that as a conflict, not an internal error.
func TestUserRepositoryCreatePgUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			ConstraintName: "idx_users_username",
			Message:        `duplicate key value violates unique constraint "idx_users_username"`,
		})

	err := repo.Create(ctx, &models.User{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hash",
	})
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Equal(t, "Username already taken", appErr.Message)
}

func TestUserRepositoryCreateEmailUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			ConstraintName: "idx_users_email",
			Message:        `duplicate key value violates unique constraint "idx_users_email"`,
		})

	err := repo.Create(ctx, &models.User{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "hash",
	})
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Equal(t, "Email already taken", appErr.Message)
}
