package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Message{}, &models.Follow{}, &models.Like{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed-password",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createMessage(t *testing.T, db *gorm.DB, userID uint, text string, createdAt time.Time) *models.Message {
	t.Helper()
	message := &models.Message{Text: text, UserID: userID, CreatedAt: createdAt}
	require.NoError(t, db.Create(message).Error)
	return message
}

func TestUserRepositoryDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	createUser(t, db, "alice")

	err := repo.Create(ctx, &models.User{
		Username: "alice",
		Email:    "other@example.com",
		Password: "hash",
	})
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)

	// No partial record: still exactly one user.
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUserRepositoryLookups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	alice := createUser(t, db, "alice")

	got, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	got, err = repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)

	// Missing lookups return (nil, nil).
	got, err = repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Missing by ID is a not-found error.
	_, err = repo.GetByID(ctx, 9999)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestUserRepositorySearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	createUser(t, db, "alice")
	createUser(t, db, "alicia")
	createUser(t, db, "bob")

	users, err := repo.Search(ctx, "ali", 10)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.Search(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestFollowRepositoryTransitions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	following, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))
	following, err = repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	// Re-following must be a no-op, not a constraint failure.
	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))
	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
	following, err = repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	// Unfollowing an absent edge is a no-op.
	require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
}

func TestFollowRepositoryListings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Follow(ctx, alice.ID, carol.ID))
	require.NoError(t, repo.Follow(ctx, bob.ID, alice.ID))

	following, err := repo.Following(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, following, 2)

	followers, err := repo.Followers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "bob", followers[0].Username)
}

func TestLikeRepositoryToggle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	message := createMessage(t, db, bob.ID, "hello", time.Now())

	liked, err := repo.Toggle(ctx, alice.ID, message.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	isLiked, err := repo.IsLiked(ctx, alice.ID, message.ID)
	require.NoError(t, err)
	assert.True(t, isLiked)

	// Second toggle returns to the original unliked state.
	liked, err = repo.Toggle(ctx, alice.ID, message.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	var count int64
	require.NoError(t, db.Model(&models.Like{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestMessageRepositoryTimeline(t *testing.T) {
	db := setupTestDB(t)
	messages := NewMessageRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	u1 := createUser(t, db, "u1")
	u2 := createUser(t, db, "u2")
	u3 := createUser(t, db, "u3")

	base := time.Now().Add(-time.Hour)
	m1 := createMessage(t, db, u1.ID, "from u1", base.Add(1*time.Minute))
	m2 := createMessage(t, db, u2.ID, "from u2", base.Add(2*time.Minute))
	createMessage(t, db, u3.ID, "from u3", base.Add(3*time.Minute))

	require.NoError(t, follows.Follow(ctx, u1.ID, u2.ID))

	timeline, err := messages.Timeline(ctx, u1.ID, 100)
	require.NoError(t, err)
	require.Len(t, timeline, 2)

	// Newest first, unrelated u3 excluded.
	assert.Equal(t, m2.ID, timeline[0].ID)
	assert.Equal(t, m1.ID, timeline[1].ID)
}

func TestMessageRepositoryTimelineCap(t *testing.T) {
	db := setupTestDB(t)
	messages := NewMessageRepository(db)
	ctx := context.Background()

	u1 := createUser(t, db, "u1")
	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 120; i++ {
		createMessage(t, db, u1.ID, fmt.Sprintf("message %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	timeline, err := messages.Timeline(ctx, u1.ID, 100)
	require.NoError(t, err)
	assert.Len(t, timeline, 100)
}

func TestMessageRepositoryLikedProjection(t *testing.T) {
	db := setupTestDB(t)
	messages := NewMessageRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	message := createMessage(t, db, bob.ID, "like me", time.Now())

	got, err := messages.GetByID(ctx, message.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.Liked)

	_, err = likes.Toggle(ctx, alice.ID, message.ID)
	require.NoError(t, err)

	got, err = messages.GetByID(ctx, message.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.Liked)

	// The projection is per-viewer: bob has not liked it.
	got, err = messages.GetByID(ctx, message.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, got.Liked)

	liked, err := messages.LikedMessages(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, message.ID, liked[0].ID)
	assert.True(t, liked[0].Liked)
}

func TestMessageRepositoryDelete(t *testing.T) {
	db := setupTestDB(t)
	messages := NewMessageRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	message := createMessage(t, db, bob.ID, "going away", time.Now())

	_, err := likes.Toggle(ctx, alice.ID, message.ID)
	require.NoError(t, err)

	require.NoError(t, messages.Delete(ctx, message.ID))

	_, err = messages.GetByID(ctx, message.ID, alice.ID)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	// Likes on the message are gone too.
	var count int64
	require.NoError(t, db.Model(&models.Like{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUserRepositoryDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db, nil)
	follows := NewFollowRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	aliceMsg := createMessage(t, db, alice.ID, "by alice", time.Now())
	bobMsg := createMessage(t, db, bob.ID, "by bob", time.Now())

	require.NoError(t, follows.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, follows.Follow(ctx, bob.ID, alice.ID))
	_, err := likes.Toggle(ctx, alice.ID, bobMsg.ID)
	require.NoError(t, err)
	_, err = likes.Toggle(ctx, bob.ID, aliceMsg.ID)
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, alice.ID))

	_, err = users.GetByID(ctx, alice.ID)
	require.Error(t, err)

	var msgCount, followCount, likeCount int64
	require.NoError(t, db.Model(&models.Message{}).Count(&msgCount).Error)
	require.NoError(t, db.Model(&models.Follow{}).Count(&followCount).Error)
	require.NoError(t, db.Model(&models.Like{}).Count(&likeCount).Error)

	// Only bob's message survives; every edge touching alice is gone.
	assert.Equal(t, int64(1), msgCount)
	assert.Equal(t, int64(0), followCount)
	assert.Equal(t, int64(0), likeCount)
}
