package service

import (
	"context"
	"testing"

	"warbler/internal/models"
	"warbler/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Message{}, &models.Follow{}, &models.Like{}))
	return NewUserService(repository.NewUserRepository(db, nil)), db
}

func TestSignupHashesPasswordAndAppliesDefaults(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	// Plaintext is never persisted.
	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.NotEqual(t, "password123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password123")))

	assert.Equal(t, models.DefaultImageURL, stored.ImageURL)
	assert.Equal(t, models.DefaultHeaderImageURL, stored.HeaderImageURL)
}

func TestSignupValidation(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SignupInput
	}{
		{"empty username", SignupInput{Email: "a@b.com", Password: "password123"}},
		{"bad email", SignupInput{Username: "alice", Email: "nope", Password: "password123"}},
		{"empty password", SignupInput{Username: "alice", Email: "a@b.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.in)
			require.Error(t, err)
			appErr, ok := err.(*models.AppError)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	// Wrong password and unknown user both come back as (nil, nil).
	user, err = svc.Authenticate(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = svc.Authenticate(ctx, "nobody", "password123")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUpdateProfileAllOrNothing(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, SignupInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	// Wrong password aborts the whole edit.
	_, err = svc.UpdateProfile(ctx, created.ID, ProfileUpdate{
		Username: "renamed",
		Bio:      "new bio",
		Password: "wrong",
	})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)

	var stored models.User
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.Equal(t, "alice", stored.Username)
	assert.Empty(t, stored.Bio)

	// Correct password applies only the non-empty overrides.
	updated, err := svc.UpdateProfile(ctx, created.ID, ProfileUpdate{
		Bio:      "new bio",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, "new bio", updated.Bio)
}
